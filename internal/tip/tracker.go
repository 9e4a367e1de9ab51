// Package tip holds the latest known block of the chain.
package tip

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/valo/eth-sim/internal/chain"
)

//go:generate mockgen -source tracker.go -destination tracker_mocks.go -package tip

var (
	ErrNoTip     = errors.New("no chain tip known yet")
	ErrFeedEnded = errors.New("head feed ended")
)

// HeaderFetcher fetches the latest block header.
type HeaderFetcher interface {
	LatestHeader(ctx context.Context) (*chain.Header, error)
}

// Tracker publishes block contexts copy-on-write: a stored value is never
// modified, so readers need no locking.
type Tracker struct {
	current atomic.Pointer[chain.BlockContext]
	ended   atomic.Pointer[endState]
}

type endState struct {
	err error
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Update publishes block and reports whether the tip changed. Any block
// other than the current one replaces it, so a reorg onto a shorter chain
// moves the tip back to the new head.
func (t *Tracker) Update(block *chain.BlockContext) bool {
	next := *block
	for {
		prev := t.current.Load()
		if prev != nil && prev.Number == next.Number && prev.Hash == next.Hash {
			return false
		}
		if t.current.CompareAndSwap(prev, &next) {
			return true
		}
	}
}

// Snapshot returns a copy of the current tip.
func (t *Tracker) Snapshot() (chain.BlockContext, error) {
	cur := t.current.Load()
	if cur == nil {
		return chain.BlockContext{}, ErrNoTip
	}
	return *cur, nil
}

// Number returns the current tip number, or 0 before seeding.
func (t *Tracker) Number() uint64 {
	if cur := t.current.Load(); cur != nil {
		return cur.Number
	}
	return 0
}

// Seed fetches the latest header and publishes it.
func (t *Tracker) Seed(ctx context.Context, fetcher HeaderFetcher) (chain.BlockContext, error) {
	header, err := fetcher.LatestHeader(ctx)
	if err != nil {
		return chain.BlockContext{}, fmt.Errorf("fetch latest header: %w", err)
	}
	if header == nil {
		return chain.BlockContext{}, ErrNoTip
	}
	block, err := chain.NewBlockContext(header)
	if err != nil {
		return chain.BlockContext{}, err
	}
	t.Update(&block)
	return block, nil
}

// MarkEnded records that the head subscription terminated. Later snapshots
// still work but may be stale.
func (t *Tracker) MarkEnded(err error) {
	t.ended.CompareAndSwap(nil, &endState{err: err})
}

// Ended returns nil while the feed is live, and the termination cause (or
// ErrFeedEnded when there was none) afterwards.
func (t *Tracker) Ended() error {
	e := t.ended.Load()
	if e == nil {
		return nil
	}
	if e.err == nil {
		return ErrFeedEnded
	}
	return e.err
}
