package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/valo/eth-sim/internal/chain"
)

// LocalBackend resolves state from a chain database on local disk.
type LocalBackend struct {
	name string
	db   ChainDB
}

func NewLocalBackend(name string, db ChainDB) *LocalBackend {
	return &LocalBackend{name: name, db: db}
}

func (b *LocalBackend) Name() string { return b.name }

// Head returns the number of the newest header in the local database.
func (b *LocalBackend) Head() (uint64, bool) {
	h := b.db.HeadHeader()
	if h == nil {
		return 0, false
	}
	return h.Number.Uint64(), true
}

// Open fails with ErrBlockNotFound when the block, or its body, is not in
// the local database yet, and with ErrStateUnavailable when the block is
// there but its state is not.
func (b *LocalBackend) Open(_ context.Context, block chain.BlockContext) (Reader, error) {
	header := b.header(block)
	if header == nil {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, block)
	}
	hash := header.Hash()
	if b.db.Body(hash, block.Number) == nil {
		return nil, fmt.Errorf("%w: body of %s", ErrBlockNotFound, block)
	}
	view, err := b.db.StateAt(header.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: root %s of %s: %v", ErrStateUnavailable, header.Root.TerminalString(), block, err)
	}
	return &localReader{db: b.db, view: view, block: block}, nil
}

func (b *LocalBackend) header(block chain.BlockContext) *types.Header {
	if block.Hash != (common.Hash{}) {
		return b.db.Header(block.Hash, block.Number)
	}
	return b.db.CanonicalHeader(block.Number)
}

func (b *LocalBackend) Close() error {
	return b.db.Close()
}

// localReader serializes access because a StateView is not safe for
// concurrent use.
type localReader struct {
	db    ChainDB
	mu    sync.Mutex
	view  StateView
	block chain.BlockContext
}

func (r *localReader) Account(_ context.Context, addr common.Address) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var acc Account
	if balance := r.view.GetBalance(addr); balance != nil {
		acc.Balance = *balance
	}
	acc.Nonce = r.view.GetNonce(addr)
	if code := r.view.GetCode(addr); len(code) > 0 {
		acc.Code = common.CopyBytes(code)
	}
	if err := r.view.Error(); err != nil {
		return Account{}, fmt.Errorf("%w: account %s at %s: %v", ErrStateUnavailable, addr.Hex(), r.block, err)
	}
	return acc, nil
}

func (r *localReader) Storage(_ context.Context, addr common.Address, key common.Hash) (common.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := r.view.GetState(addr, key)
	if err := r.view.Error(); err != nil {
		return common.Hash{}, fmt.Errorf("%w: slot %s/%s at %s: %v", ErrStateUnavailable, addr.Hex(), key.Hex(), r.block, err)
	}
	return v, nil
}

func (r *localReader) BlockHash(_ context.Context, number uint64) (common.Hash, error) {
	header := r.db.CanonicalHeader(number)
	if header == nil {
		return common.Hash{}, fmt.Errorf("%w: canonical header #%d", ErrBlockNotFound, number)
	}
	return header.Hash(), nil
}
