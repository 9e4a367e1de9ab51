// Package recorder reports simulation results: one log line per record, a
// comparison when several backends ran the same transaction, and an
// optional append-only record file.
package recorder

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/valo/eth-sim/internal/evm"
	"github.com/valo/eth-sim/internal/utils"
)

// SimulationRecord is the result of one transaction on one backend. A
// record without Backend reports a transaction that could not be turned
// into an execution context.
type SimulationRecord struct {
	RunID     string        `json:"runId" msgpack:"run_id"`
	TxHash    common.Hash   `json:"txHash" msgpack:"tx_hash"`
	Block     uint64        `json:"block" msgpack:"block"`
	BlockHash common.Hash   `json:"blockHash" msgpack:"block_hash"`
	Backend   string        `json:"backend,omitempty" msgpack:"backend,omitempty"`
	Started   time.Time     `json:"started" msgpack:"started"`
	Elapsed   time.Duration `json:"elapsedNs" msgpack:"elapsed_ns"`
	// TipLag is how many blocks the tip advanced while the transaction
	// waited and ran.
	TipLag uint64 `json:"tipLag" msgpack:"tip_lag"`
	// TipEnded is set when the head feed had already ended at dispatch, so
	// Block may be far behind the chain.
	TipEnded  bool         `json:"tipEnded,omitempty" msgpack:"tip_ended,omitempty"`
	Outcome   *evm.Outcome `json:"outcome,omitempty" msgpack:"outcome,omitempty"`
	Error     string       `json:"error,omitempty" msgpack:"error,omitempty"`
	ErrorKind string       `json:"errorKind,omitempty" msgpack:"error_kind,omitempty"`
}

// Succeeded reports whether execution completed without revert or halt.
func (r SimulationRecord) Succeeded() bool {
	return r.Outcome != nil && r.Outcome.Succeeded()
}

func (r SimulationRecord) GasUsed() uint64 {
	if r.Outcome == nil {
		return 0
	}
	return r.Outcome.GasUsed
}

func (r SimulationRecord) GasPerSecond() float64 {
	return utils.GasPerSecond(r.GasUsed(), r.Elapsed)
}

// Status is the outcome status, or the error kind when there is none.
func (r SimulationRecord) Status() string {
	if r.Outcome != nil {
		return string(r.Outcome.Status)
	}
	return r.ErrorKind
}
