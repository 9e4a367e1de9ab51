// Package evm executes a single transaction with go-ethereum's interpreter
// against state that is fetched lazily from a state.Reader.
//
// The interpreter needs all state up front, so the engine runs the
// transaction in rounds. Each round starts from a fresh in-memory StateDB
// holding every item discovered so far; a tracer notes the accounts and
// slots the execution touched that were not loaded. The transaction is
// re-run until a round discovers nothing new.
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/consensus/misc/eip4844"
	"github.com/ethereum/go-ethereum/core"
	gethstate "github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"

	"github.com/valo/eth-sim/internal/chain"
	"github.com/valo/eth-sim/internal/state"
)

const DefaultMaxRounds = 64

var (
	// ErrStateAccess wraps failures of the state.Reader.
	ErrStateAccess = errors.New("state access failed")
	// ErrRejected wraps consensus errors raised before execution, such as
	// a nonce that is too high or insufficient funds for gas.
	ErrRejected = errors.New("transaction rejected")
	// ErrNotConverged is returned when state discovery needs more rounds
	// than allowed.
	ErrNotConverged = errors.New("state discovery did not converge")
)

type Options struct {
	// MaxRounds bounds re-execution; zero means DefaultMaxRounds.
	MaxRounds       int
	SkipNonceChecks bool
}

// Engine is stateless between calls and safe for concurrent use.
type Engine struct {
	config *params.ChainConfig
	opts   Options
}

func NewEngine(config *params.ChainConfig, opts Options) *Engine {
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultMaxRounds
	}
	return &Engine{config: config, opts: opts}
}

// Execute runs tx on top of block with state from reader. Reverts and halts
// are reported in the Outcome; errors mean no outcome could be produced.
func (e *Engine) Execute(ctx context.Context, block chain.BlockContext, tx chain.TransactionContext, reader state.Reader) (Outcome, error) {
	known := initialAccess(block, tx)
	for round := 1; round <= e.opts.MaxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		pre, err := loadPreState(ctx, reader, known)
		if err != nil {
			return Outcome{}, err
		}
		sdb, err := newStateDB(pre)
		if err != nil {
			return Outcome{}, fmt.Errorf("prepare state: %w", err)
		}

		disc := newDiscovery(known)
		res, err := e.run(block, tx, sdb, pre, disc)
		if !disc.found.empty() {
			known.merge(disc.found)
			continue
		}
		if err != nil {
			return Outcome{}, fmt.Errorf("%w: %w", ErrRejected, err)
		}
		sdb.Finalise(true)
		return outcome(res, diff(sdb, pre), round), nil
	}
	return Outcome{}, fmt.Errorf("%w after %d rounds", ErrNotConverged, e.opts.MaxRounds)
}

func (e *Engine) run(block chain.BlockContext, tx chain.TransactionContext, sdb *gethstate.StateDB, pre *preState, disc *discovery) (*core.ExecutionResult, error) {
	msg := e.message(tx)
	evm := vm.NewEVM(e.blockContext(block, pre, disc), sdb, e.config, vm.Config{
		NoBaseFee: true,
		Tracer:    disc.hooks(),
	})
	evm.SetTxContext(core.NewEVMTxContext(msg))
	sdb.SetTxContext(tx.Hash, 0)
	return core.ApplyMessage(evm, msg, new(core.GasPool).AddGas(msg.GasLimit))
}

// initialAccess is what every execution reads before the first opcode.
func initialAccess(block chain.BlockContext, tx chain.TransactionContext) *accessSet {
	known := newAccessSet()
	known.addAccount(tx.From)
	if to, ok := tx.Recipient(); ok {
		known.addAccount(to)
	} else {
		known.addAccount(crypto.CreateAddress(tx.From, tx.Nonce))
	}
	known.addAccount(block.Coinbase)
	for _, entry := range tx.AccessList {
		known.addAccount(entry.Address)
		for _, key := range entry.Keys {
			known.addSlot(entry.Address, key)
		}
	}
	// authorities are read and written before the first opcode; invalid
	// signatures are skipped by the state transition as well
	for _, auth := range tx.Authorizations {
		if authority, err := auth.Authority(); err == nil {
			known.addAccount(authority)
		}
		known.addAccount(auth.Address)
	}
	return known
}

func (e *Engine) message(tx chain.TransactionContext) *core.Message {
	var accessList types.AccessList
	for _, entry := range tx.AccessList {
		accessList = append(accessList, types.AccessTuple{
			Address:     entry.Address,
			StorageKeys: append([]common.Hash(nil), entry.Keys...),
		})
	}
	var to *common.Address
	if addr, ok := tx.Recipient(); ok {
		to = &addr
	}
	msg := &core.Message{
		From:                  tx.From,
		To:                    to,
		Nonce:                 tx.Nonce,
		Value:                 tx.Value.ToBig(),
		GasLimit:              tx.GasLimit,
		GasPrice:              tx.GasPrice.ToBig(),
		GasFeeCap:             tx.GasPrice.ToBig(),
		GasTipCap:             tx.GasTipCap.ToBig(),
		Data:                  tx.Data,
		AccessList:            accessList,
		SetCodeAuthorizations: tx.Authorizations,
		SkipNonceChecks:       e.opts.SkipNonceChecks,
	}
	if len(tx.BlobHashes) > 0 {
		msg.BlobHashes = tx.BlobHashes
		msg.BlobGasFeeCap = tx.BlobFeeCap.ToBig()
	}
	return msg
}

// blockContext resolves BLOCKHASH from the hashes loaded for this round.
// The parent hash is known from the header; any other unknown number is
// noted for the next round and reads as zero in this one.
func (e *Engine) blockContext(block chain.BlockContext, pre *preState, disc *discovery) vm.BlockContext {
	ctx := vm.BlockContext{
		CanTransfer: core.CanTransfer,
		Transfer:    core.Transfer,
		GetHash: func(n uint64) common.Hash {
			if n+1 == block.Number && block.ParentHash != (common.Hash{}) {
				return block.ParentHash
			}
			if h, ok := pre.hashes[n]; ok {
				return h
			}
			disc.blockHash(n)
			return common.Hash{}
		},
		Coinbase:    block.Coinbase,
		GasLimit:    block.GasLimit,
		BlockNumber: new(big.Int).SetUint64(block.Number),
		Time:        block.Time,
		Difficulty:  block.Difficulty.ToBig(),
		BaseFee:     block.BaseFee.ToBig(),
		BlobBaseFee: e.blobBaseFee(block),
	}
	if block.Random != nil {
		random := *block.Random
		ctx.Random = &random
	}
	return ctx
}

// blobBaseFee derives the blob base fee from the excess blob gas. Headers
// without it, or forks without blobs, get the protocol minimum of 1 wei.
func (e *Engine) blobBaseFee(block chain.BlockContext) *big.Int {
	number := new(big.Int).SetUint64(block.Number)
	if block.ExcessBlobGas == nil || !e.config.IsCancun(number, block.Time) {
		return big.NewInt(1)
	}
	excess := *block.ExcessBlobGas
	return eip4844.CalcBlobFee(e.config, &types.Header{
		Number:        number,
		Time:          block.Time,
		ExcessBlobGas: &excess,
	})
}

func outcome(res *core.ExecutionResult, changes []AccountChange, rounds int) Outcome {
	out := Outcome{
		Status:     StatusSuccess,
		GasUsed:    res.UsedGas,
		ReturnData: common.CopyBytes(res.ReturnData),
		Changes:    changes,
		Rounds:     rounds,
	}
	switch {
	case res.Err == nil:
	case errors.Is(res.Err, vm.ErrExecutionReverted):
		out.Status = StatusReverted
		out.HaltReason = res.Err.Error()
		if reason, err := abi.UnpackRevert(res.Revert()); err == nil {
			out.HaltReason += ": " + reason
		}
	default:
		out.Status = StatusHalted
		out.HaltReason = res.Err.Error()
	}
	return out
}
