// Package state provides the sources of account and storage data that
// simulations read from. Every source implements Backend; a Backend hands
// out one Reader per simulation, bound to a single block.
package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/valo/eth-sim/internal/chain"
)

//go:generate mockgen -source backend.go -destination backend_mocks.go -package state

var (
	// ErrBackendUnavailable marks failures of the transport or database
	// behind a backend. The datum may exist; it could not be read.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrDataNotFound marks data the backend reported as absent at the
	// requested block, such as state of a pruned block.
	ErrDataNotFound = errors.New("data not found")

	// ErrBlockNotFound is returned by the local backend when the block is
	// not present in the local database.
	ErrBlockNotFound = fmt.Errorf("%w: block not found locally", ErrBackendUnavailable)
	// ErrStateUnavailable is returned by the local backend when the block is
	// known but its state trie is not.
	ErrStateUnavailable = fmt.Errorf("%w: state not available locally", ErrBackendUnavailable)
)

// Account is the account data a simulation may read. An absent account is
// the zero value.
type Account struct {
	Balance uint256.Int
	Nonce   uint64
	Code    []byte
}

// Empty reports whether the account has no balance, nonce or code.
func (a Account) Empty() bool {
	return a.Balance.IsZero() && a.Nonce == 0 && len(a.Code) == 0
}

// Reader resolves state at one block. Readers may be used from a single
// simulation only but must tolerate calls from blocking goroutines.
type Reader interface {
	Account(ctx context.Context, addr common.Address) (Account, error)
	Storage(ctx context.Context, addr common.Address, key common.Hash) (common.Hash, error)
	// BlockHash returns the hash of the canonical block with the given
	// number, as seen by the BLOCKHASH opcode.
	BlockHash(ctx context.Context, number uint64) (common.Hash, error)
}

// Backend opens Readers. Implementations must be safe for concurrent use.
type Backend interface {
	Name() string
	Open(ctx context.Context, block chain.BlockContext) (Reader, error)
}

// ErrorKind is a coarse classification used in records and metrics.
type ErrorKind string

const (
	KindNone        ErrorKind = ""
	KindUnavailable ErrorKind = "unavailable"
	KindNotFound    ErrorKind = "not_found"
	KindOther       ErrorKind = "other"
)

// Kind classifies err by the sentinel it wraps.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrDataNotFound):
		return KindNotFound
	case errors.Is(err, ErrBackendUnavailable):
		return KindUnavailable
	}
	return KindOther
}
