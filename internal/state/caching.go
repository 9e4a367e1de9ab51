package state

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/valo/eth-sim/internal/chain"
)

// CachingBackend wraps another backend with a cache that lives exactly as
// long as one simulation. Nothing is shared between Readers, so a value read
// against one tip is never served for a later one.
type CachingBackend struct {
	name  string
	inner Backend
}

func NewCachingBackend(name string, inner Backend) *CachingBackend {
	return &CachingBackend{name: name, inner: inner}
}

func (b *CachingBackend) Name() string { return b.name }

func (b *CachingBackend) Open(ctx context.Context, block chain.BlockContext) (Reader, error) {
	inner, err := b.inner.Open(ctx, block)
	if err != nil {
		return nil, err
	}
	return NewCachingReader(inner), nil
}

type slotKey struct {
	addr common.Address
	key  common.Hash
}

// CacheStats counts lookups served by a CachingReader.
type CacheStats struct {
	Hits   uint64
	Misses uint64
}

// CachingReader memoizes successful reads of the Reader it wraps. Failed
// reads are not cached and will be attempted again.
type CachingReader struct {
	inner Reader

	mu       sync.Mutex
	accounts map[common.Address]Account
	slots    map[slotKey]common.Hash
	hashes   map[uint64]common.Hash
	stats    CacheStats
}

func NewCachingReader(inner Reader) *CachingReader {
	return &CachingReader{
		inner:    inner,
		accounts: make(map[common.Address]Account),
		slots:    make(map[slotKey]common.Hash),
		hashes:   make(map[uint64]common.Hash),
	}
}

func (r *CachingReader) Account(ctx context.Context, addr common.Address) (Account, error) {
	r.mu.Lock()
	if acc, ok := r.accounts[addr]; ok {
		r.stats.Hits++
		r.mu.Unlock()
		return acc, nil
	}
	r.stats.Misses++
	r.mu.Unlock()

	acc, err := r.inner.Account(ctx, addr)
	if err != nil {
		return Account{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[addr] = acc
	return acc, nil
}

func (r *CachingReader) Storage(ctx context.Context, addr common.Address, key common.Hash) (common.Hash, error) {
	k := slotKey{addr, key}
	r.mu.Lock()
	if v, ok := r.slots[k]; ok {
		r.stats.Hits++
		r.mu.Unlock()
		return v, nil
	}
	r.stats.Misses++
	r.mu.Unlock()

	v, err := r.inner.Storage(ctx, addr, key)
	if err != nil {
		return common.Hash{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[k] = v
	return v, nil
}

func (r *CachingReader) BlockHash(ctx context.Context, number uint64) (common.Hash, error) {
	r.mu.Lock()
	if h, ok := r.hashes[number]; ok {
		r.stats.Hits++
		r.mu.Unlock()
		return h, nil
	}
	r.stats.Misses++
	r.mu.Unlock()

	h, err := r.inner.BlockHash(ctx, number)
	if err != nil {
		return common.Hash{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.hashes[number] = h
	return h, nil
}

func (r *CachingReader) Stats() CacheStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
