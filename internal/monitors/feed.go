package monitors

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/valo/eth-sim/internal/cache"
	"github.com/valo/eth-sim/internal/chain"
	"github.com/valo/eth-sim/internal/logger"
	"github.com/valo/eth-sim/internal/metrics"
)

//go:generate mockgen -source feed.go -destination feed_mocks.go -package monitors

const (
	seenCapacity = 1 << 16
	seenTTL      = 30 * time.Minute
)

// TransactionFetcher resolves announced hashes into transactions.
type TransactionFetcher interface {
	TransactionByHash(ctx context.Context, hash common.Hash) (*chain.Transaction, error)
}

// PoolReader lists the pending section of the node's transaction pool.
type PoolReader interface {
	PendingPool(ctx context.Context) ([]json.RawMessage, error)
}

// feed is the delivery half shared by all pending sources. Every source
// hands the same transaction downstream at most once.
type feed struct {
	source string
	out    chan<- chain.Transaction
	seen   *cache.LRUCache[common.Hash, struct{}]
}

func newFeed(source string, out chan<- chain.Transaction) *feed {
	return &feed{
		source: source,
		out:    out,
		seen:   cache.NewLRUCache[common.Hash, struct{}](seenCapacity, seenTTL),
	}
}

// decode drops items that are not transaction objects. A dropped item is
// logged and counted, never fatal.
func (f *feed) decode(raw json.RawMessage) (*chain.Transaction, bool) {
	var tx chain.Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		f.dropped(fmt.Errorf("decode transaction: %w", err))
		return nil, false
	}
	return &tx, true
}

func (f *feed) dropped(err error) {
	metrics.IncFeedDecodeErrors(f.source)
	logger.WarningComponent("feed", "Dropping %s item: %v", f.source, err)
}

// deliver blocks while the output channel is full.
func (f *feed) deliver(ctx context.Context, tx *chain.Transaction) error {
	if f.seen.ContainsOrAdd(tx.Hash, struct{}{}) {
		return nil
	}
	select {
	case f.out <- *tx:
		metrics.IncFeedTransactions(f.source)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fatal hands err to the engine unless it is already shutting down.
func fatal(ctx context.Context, errCh chan<- error, err error) {
	select {
	case errCh <- err:
	case <-ctx.Done():
	}
}
