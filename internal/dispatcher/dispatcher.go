// Package dispatcher turns pending transactions into simulation jobs on a
// bounded worker pool and hands every finished transaction to a recorder.
package dispatcher

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/valo/eth-sim/internal/chain"
	"github.com/valo/eth-sim/internal/evm"
	"github.com/valo/eth-sim/internal/logger"
	"github.com/valo/eth-sim/internal/metrics"
	"github.com/valo/eth-sim/internal/recorder"
	"github.com/valo/eth-sim/internal/simulator"
	"github.com/valo/eth-sim/internal/state"
)

//go:generate mockgen -source dispatcher.go -destination dispatcher_mocks.go -package dispatcher

// Tip is the read side of the chain tip tracker.
type Tip interface {
	Snapshot() (chain.BlockContext, error)
	Number() uint64
	Ended() error
}

// Simulator runs one transaction on one backend.
type Simulator interface {
	Simulate(ctx context.Context, block chain.BlockContext, tx chain.TransactionContext, backend state.Backend) (evm.Outcome, error)
}

// Recorder receives all records of one transaction at once.
type Recorder interface {
	Record(ctx context.Context, records []recorder.SimulationRecord)
}

type Dispatcher struct {
	runID    string
	tip      Tip
	sim      Simulator
	backends []state.Backend
	rec      Recorder
	pool     *Pool
}

func New(runID string, tip Tip, sim Simulator, backends []state.Backend, rec Recorder, pool *Pool) *Dispatcher {
	return &Dispatcher{
		runID:    runID,
		tip:      tip,
		sim:      sim,
		backends: backends,
		rec:      rec,
		pool:     pool,
	}
}

// Dispatch schedules tx against the current tip on every backend and
// returns once the job is queued; it blocks while the queue is full. An
// error means the job was not queued and nothing will be recorded.
func (d *Dispatcher) Dispatch(ctx context.Context, tx chain.Transaction) error {
	_, err := d.submit(ctx, tx)
	return err
}

// Run is Dispatch followed by waiting for the records.
func (d *Dispatcher) Run(ctx context.Context, tx chain.Transaction) ([]recorder.SimulationRecord, error) {
	results, err := d.submit(ctx, tx)
	if err != nil {
		return nil, err
	}
	select {
	case res := <-results:
		return res.Get()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *Dispatcher) submit(ctx context.Context, tx chain.Transaction) (<-chan Result[[]recorder.SimulationRecord], error) {
	block, blockErr := d.tip.Snapshot()
	tipEnded := d.tip.Ended() != nil
	return Go(ctx, d.pool, func(ctx context.Context) ([]recorder.SimulationRecord, error) {
		records := d.simulate(ctx, block, blockErr, &tx)
		for i := range records {
			records[i].TipEnded = tipEnded
		}
		d.rec.Record(ctx, records)
		return records, nil
	})
}

func (d *Dispatcher) simulate(ctx context.Context, block chain.BlockContext, blockErr error, tx *chain.Transaction) []recorder.SimulationRecord {
	txCtx, err := chain.NewTransactionContext(tx)
	if blockErr != nil {
		err = blockErr
	}
	if err != nil {
		return []recorder.SimulationRecord{{
			RunID:     d.runID,
			TxHash:    tx.Hash,
			Block:     block.Number,
			BlockHash: block.Hash,
			Started:   time.Now(),
			Error:     err.Error(),
			ErrorKind: simulator.Kind(err),
		}}
	}

	records := make([]recorder.SimulationRecord, len(d.backends))
	var g errgroup.Group
	for i, backend := range d.backends {
		g.Go(func() error {
			records[i] = d.simulateOn(ctx, block, txCtx, backend)
			return nil
		})
	}
	_ = g.Wait()
	return records
}

func (d *Dispatcher) simulateOn(ctx context.Context, block chain.BlockContext, tx chain.TransactionContext, backend state.Backend) recorder.SimulationRecord {
	start := time.Now()
	out, err := d.sim.Simulate(ctx, block, tx, backend)
	elapsed := time.Since(start)

	rec := recorder.SimulationRecord{
		RunID:     d.runID,
		TxHash:    tx.Hash,
		Block:     block.Number,
		BlockHash: block.Hash,
		Backend:   backend.Name(),
		Started:   start,
		Elapsed:   elapsed,
		TipLag:    d.lag(block),
	}
	if err != nil {
		rec.Error = err.Error()
		rec.ErrorKind = simulator.Kind(err)
	} else {
		rec.Outcome = &out
	}

	metrics.RecordSimulation(rec.Backend, rec.Status(), elapsed, rec.GasUsed())
	metrics.RecordTipLag(rec.Backend, rec.TipLag)
	return rec
}

func (d *Dispatcher) lag(block chain.BlockContext) uint64 {
	if n := d.tip.Number(); n > block.Number {
		return n - block.Number
	}
	return 0
}

// Pending is the number of simulations queued or running.
func (d *Dispatcher) Pending() int {
	return d.pool.Pending()
}

// Close waits for all queued simulations to be recorded.
func (d *Dispatcher) Close() {
	if n := d.pool.Pending(); n > 0 {
		logger.InfoComponent("dispatch", "Waiting for %d queued simulations", n)
	}
	d.pool.Close()
}
