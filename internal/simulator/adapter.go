// Package simulator runs one transaction against one state backend and
// classifies what went wrong when no outcome could be produced.
package simulator

import (
	"context"
	"errors"
	"fmt"

	"github.com/valo/eth-sim/internal/chain"
	"github.com/valo/eth-sim/internal/evm"
	"github.com/valo/eth-sim/internal/state"
)

//go:generate mockgen -source adapter.go -destination adapter_mocks.go -package simulator

var (
	// ErrStateUnavailable wraps backend failures, both on open and while
	// reading during execution.
	ErrStateUnavailable = errors.New("state unavailable")
	// ErrEngine wraps everything the engine itself refused: invalid
	// transactions, malformed environments, non-convergence.
	ErrEngine = errors.New("engine error")
)

// ExecutionOutcome is the result of a completed execution. Reverts and
// halts are outcomes, not errors.
type ExecutionOutcome = evm.Outcome

// Executor runs a transaction against a state reader.
type Executor interface {
	Execute(ctx context.Context, block chain.BlockContext, tx chain.TransactionContext, reader state.Reader) (evm.Outcome, error)
}

type Adapter struct {
	engine Executor
}

func NewAdapter(engine Executor) *Adapter {
	return &Adapter{engine: engine}
}

// Simulate opens a reader for block on backend and executes tx once.
// There is no retry at this layer.
func (a *Adapter) Simulate(ctx context.Context, block chain.BlockContext, tx chain.TransactionContext, backend state.Backend) (ExecutionOutcome, error) {
	reader, err := backend.Open(ctx, block)
	if err != nil {
		return ExecutionOutcome{}, fmt.Errorf("%w: open %s at %s: %w", ErrStateUnavailable, backend.Name(), block, err)
	}

	out, err := a.engine.Execute(ctx, block, tx, reader)
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ExecutionOutcome{}, err
	case errors.Is(err, evm.ErrStateAccess):
		return ExecutionOutcome{}, fmt.Errorf("%w: %s: %w", ErrStateUnavailable, backend.Name(), err)
	default:
		return ExecutionOutcome{}, fmt.Errorf("%w: %w", ErrEngine, err)
	}
}

// error kinds stored in simulation records
const (
	KindDecode      = "decode"
	KindUnavailable = "unavailable"
	KindNotFound    = "not_found"
	KindEngine      = "engine"
	KindCancelled   = "cancelled"
	KindOther       = "other"
)

// Kind maps an error from Simulate, or from building the execution context,
// to a short label. It returns "" for nil.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, chain.ErrMalformed):
		return KindDecode
	case errors.Is(err, ErrStateUnavailable):
		if state.Kind(err) == state.KindNotFound {
			return KindNotFound
		}
		return KindUnavailable
	case errors.Is(err, ErrEngine):
		return KindEngine
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	}
	return KindOther
}
