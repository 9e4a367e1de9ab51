// Package replayer wires the tip tracker, the pending feed, the state
// backends and the dispatcher into one running engine.
package replayer

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/google/uuid"

	"github.com/valo/eth-sim/internal/chain"
	"github.com/valo/eth-sim/internal/config"
	"github.com/valo/eth-sim/internal/dispatcher"
	"github.com/valo/eth-sim/internal/evm"
	"github.com/valo/eth-sim/internal/logger"
	"github.com/valo/eth-sim/internal/metrics"
	"github.com/valo/eth-sim/internal/monitors"
	"github.com/valo/eth-sim/internal/recorder"
	"github.com/valo/eth-sim/internal/rpcclient"
	"github.com/valo/eth-sim/internal/simulator"
	"github.com/valo/eth-sim/internal/state"
	"github.com/valo/eth-sim/internal/tip"
)

// Engine owns every long-lived component of a run.
type Engine struct {
	cfg   config.Config
	runID string

	request    *rpc.Client
	subscriber *rpc.Client // nil when the endpoint cannot stream
	reader     *rpcclient.ChainReader

	tracker    *tip.Tracker
	backends   []state.Backend
	sink       recorder.Sink
	dispatcher *dispatcher.Dispatcher

	closers []func() error
}

// New dials the configured endpoints, opens the backends and seeds the chain
// tip. It refuses to return an engine without a tip.
func New(ctx context.Context, cfg config.Config) (*Engine, error) {
	request, err := rpcclient.Dial(ctx, cfg.RequestURL())
	if err != nil {
		return nil, err
	}
	var subscriber *rpc.Client
	if cfg.CanSubscribe() {
		if cfg.SubscriptionURL() == cfg.RequestURL() {
			subscriber = request
		} else if subscriber, err = rpcclient.Dial(ctx, cfg.SubscriptionURL()); err != nil {
			request.Close()
			return nil, err
		}
	}
	e, err := newEngine(ctx, cfg, request, subscriber)
	if err != nil {
		if subscriber != nil && subscriber != request {
			subscriber.Close()
		}
		request.Close()
		return nil, err
	}
	e.closers = append(e.closers, func() error {
		if subscriber != nil && subscriber != request {
			subscriber.Close()
		}
		request.Close()
		return nil
	})
	return e, nil
}

func newEngine(ctx context.Context, cfg config.Config, request, subscriber *rpc.Client) (*Engine, error) {
	if subscriber == nil && cfg.FeedMode != config.FeedTxPool {
		return nil, fmt.Errorf("feed mode %q needs a subscription endpoint", cfg.FeedMode)
	}
	caller := rpcclient.NewRetryingCaller(request, cfg.Policy())
	e := &Engine{
		cfg:        cfg,
		runID:      uuid.NewString(),
		request:    request,
		subscriber: subscriber,
		reader:     rpcclient.NewChainReader(caller),
		tracker:    tip.NewTracker(),
	}
	ok := false
	defer func() {
		if !ok {
			e.Close()
		}
	}()

	chainID := cfg.ChainID
	if chainID == 0 {
		id, err := e.reader.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("query chain id: %w", err)
		}
		chainID = id
	}
	engine := evm.NewEngine(evm.ChainConfig(chainID), evm.Options{
		MaxRounds:       cfg.MaxDiscoveryRounds,
		SkipNonceChecks: cfg.SkipNonceChecks,
	})

	if err := e.openBackends(caller); err != nil {
		return nil, err
	}

	block, err := e.tracker.Seed(ctx, e.reader)
	if err != nil {
		return nil, fmt.Errorf("seed chain tip: %w", err)
	}
	metrics.SetTip(block.Number, block.Time)

	if cfg.RecordFile != "" {
		sink, err := recorder.OpenSink(cfg.RecordFile, cfg.RecordFormat)
		if err != nil {
			return nil, err
		}
		e.sink = sink
		e.closers = append(e.closers, sink.Close)
	}

	pool := dispatcher.NewPool(cfg.Workers, cfg.QueueSize)
	e.dispatcher = dispatcher.New(e.runID, e.tracker, simulator.NewAdapter(engine), e.backends, recorder.New(e.sink), pool)

	logger.InfoComponent("system", "Run %s on chain %d from tip %s with backends %v, %d workers",
		e.runID, chainID, block, cfg.Backends, cfg.Workers)
	ok = true
	return e, nil
}

func (e *Engine) openBackends(caller rpcclient.Caller) error {
	for _, name := range e.cfg.Backends {
		switch name {
		case config.BackendRemote:
			e.backends = append(e.backends, state.NewRemoteBackend(name, caller))
		case config.BackendCaching:
			e.backends = append(e.backends, state.NewCachingBackend(name, state.NewRemoteBackend(name, caller)))
		case config.BackendLocal:
			db, err := state.OpenChainDB(e.cfg.LocalDBPath, e.cfg.LocalDBEngine, e.cfg.LocalDBAncient)
			if err != nil {
				return fmt.Errorf("open local database: %w", err)
			}
			local := state.NewLocalBackend(name, db)
			e.closers = append(e.closers, local.Close)
			if head, ok := local.Head(); ok {
				logger.InfoComponent("backend", "Local database at %s has head #%d", e.cfg.LocalDBPath, head)
			} else {
				logger.WarningComponent("backend", "Local database at %s has no head block", e.cfg.LocalDBPath)
			}
			e.backends = append(e.backends, local)
		default:
			return fmt.Errorf("unknown backend %q", name)
		}
	}
	return nil
}

// RunID identifies the records of this engine.
func (e *Engine) RunID() string { return e.runID }

// Run follows the chain and simulates pending transactions until ctx is
// cancelled, which returns nil, or a monitor fails, which returns its
// error.
func (e *Engine) Run(ctx context.Context) error {
	logger.InfoComponent("system", "Starting replay engine...")

	monitorCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tipErrCh := make(chan error, 1)
	feedErrCh := make(chan error, 1)
	txs := make(chan chain.Transaction, e.cfg.FeedBuffer)

	if e.subscriber != nil {
		logger.InfoComponent("tip", "Initializing tip monitor...")
		go monitors.StartTipMonitor(monitorCtx, e.subscriber, e.tracker, tipErrCh)
	} else {
		logger.InfoComponent("tip", "Endpoint cannot stream, initializing tip poller...")
		go monitors.StartTipPoller(monitorCtx, e.reader, e.cfg.TxPoolPollInterval, e.tracker, tipErrCh)
	}

	logger.InfoComponent("feed", "Initializing pending feed (%s)...", e.cfg.FeedMode)
	sources := monitors.PendingSources{Fetcher: e.reader, Pool: e.reader}
	if e.subscriber != nil {
		sources.Subscriber = e.subscriber
	}
	go monitors.StartPendingMonitor(monitorCtx, e.cfg, sources, txs, feedErrCh)

	go metrics.StartMemoryMonitoring(monitorCtx)

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		e.drain(monitorCtx, txs)
	}()

	logger.InfoComponent("system", "Replay engine is now running")

	var err error
	select {
	case err = <-tipErrCh:
		logger.ErrorComponent("tip", "Tip monitor error: %v", err)
		err = fmt.Errorf("tip monitor: %w", err)
	case err = <-feedErrCh:
		logger.ErrorComponent("feed", "Pending monitor error: %v", err)
		err = fmt.Errorf("pending monitor: %w", err)
	case <-ctx.Done():
		logger.InfoComponent("system", "Shutting down monitors...")
	}
	cancel()
	<-drained
	return err
}

// drain hands transactions to the dispatcher. It never simulates itself;
// a full queue blocks it, which in turn blocks the feed.
func (e *Engine) drain(ctx context.Context, txs <-chan chain.Transaction) {
	for {
		select {
		case <-ctx.Done():
			return
		case tx := <-txs:
			if err := e.dispatcher.Dispatch(ctx, tx); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.ErrorComponent("dispatch", "Dropping tx %s: %v", tx.Hash.Hex(), err)
				}
				return
			}
		}
	}
}

// Replay simulates one transaction by hash against the current tip and
// returns its records.
func (e *Engine) Replay(ctx context.Context, hash common.Hash) ([]recorder.SimulationRecord, error) {
	tx, err := e.reader.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	return e.dispatcher.Run(ctx, *tx)
}

// Close waits for queued simulations, then releases the record file, the
// local databases and the connections.
func (e *Engine) Close() error {
	if e.dispatcher != nil {
		e.dispatcher.Close()
	}
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	e.closers = nil
	return errors.Join(errs...)
}

// Start runs an engine for cfg until ctx is cancelled or a monitor fails.
func Start(ctx context.Context, cfg config.Config) error {
	e, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	runErr := e.Run(ctx)
	return errors.Join(runErr, e.Close())
}
