package monitors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/valo/eth-sim/internal/chain"
	"github.com/valo/eth-sim/internal/config"
	"github.com/valo/eth-sim/internal/logger"
	"github.com/valo/eth-sim/internal/rpcclient"
)

// PendingSources bundles the node access the pending feed may need.
// Fetcher is used in hashes mode and Pool in txpool mode.
type PendingSources struct {
	Subscriber rpcclient.Subscriber
	Fetcher    TransactionFetcher
	Pool       PoolReader
}

// StartPendingMonitor delivers pending transactions into out using the
// source selected by cfg.FeedMode. It blocks until ctx is cancelled or the
// source fails for good, which is reported on errCh.
func StartPendingMonitor(ctx context.Context, cfg config.Config, src PendingSources, out chan<- chain.Transaction, errCh chan<- error) {
	var err error
	switch cfg.FeedMode {
	case config.FeedFull:
		err = streamFull(ctx, src.Subscriber, newFeed(config.FeedFull, out))
	case config.FeedHashes:
		err = streamHashes(ctx, src.Subscriber, src.Fetcher, newFeed(config.FeedHashes, out))
	case config.FeedTxPool:
		err = pollPool(ctx, src.Pool, cfg.TxPoolPollInterval, newFeed(config.FeedTxPool, out))
	default:
		err = fmt.Errorf("unknown feed mode %q", cfg.FeedMode)
	}
	if err != nil && ctx.Err() == nil {
		fatal(ctx, errCh, err)
	}
}

func streamFull(ctx context.Context, sub rpcclient.Subscriber, f *feed) error {
	items := make(chan json.RawMessage, 256)
	subscription, err := sub.EthSubscribe(ctx, items, "newPendingTransactions", true)
	if err != nil {
		return fmt.Errorf("subscribe to pending transactions: %w", err)
	}
	defer subscription.Unsubscribe()
	logger.InfoComponent("feed", "Subscribed to full pending transactions")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-subscription.Err():
			return subscriptionEnded(err)
		case raw := <-items:
			tx, ok := f.decode(raw)
			if !ok {
				continue
			}
			if err := f.deliver(ctx, tx); err != nil {
				return err
			}
		}
	}
}

func streamHashes(ctx context.Context, sub rpcclient.Subscriber, fetcher TransactionFetcher, f *feed) error {
	items := make(chan json.RawMessage, 256)
	subscription, err := sub.EthSubscribe(ctx, items, "newPendingTransactions")
	if err != nil {
		return fmt.Errorf("subscribe to pending hashes: %w", err)
	}
	defer subscription.Unsubscribe()
	logger.InfoComponent("feed", "Subscribed to pending transaction hashes")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-subscription.Err():
			return subscriptionEnded(err)
		case raw := <-items:
			var hash common.Hash
			if err := json.Unmarshal(raw, &hash); err != nil {
				f.dropped(fmt.Errorf("decode hash: %w", err))
				continue
			}
			tx, err := fetcher.TransactionByHash(ctx, hash)
			switch {
			case errors.Is(err, rpcclient.ErrNotFound):
				logger.DebugComponent("feed", "Pending transaction %s not available yet", hash.Hex())
				continue
			case err != nil && ctx.Err() != nil:
				return ctx.Err()
			case err != nil:
				f.dropped(err)
				continue
			}
			if err := f.deliver(ctx, tx); err != nil {
				return err
			}
		}
	}
}

// pollPool treats a failed poll as transient until pollFailureLimit polls
// in a row have failed.
func pollPool(ctx context.Context, pool PoolReader, interval time.Duration, f *feed) error {
	if interval <= 0 {
		interval = time.Second
	}
	logger.InfoComponent("feed", "Polling txpool_content every %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	failures := 0
	for {
		items, err := pool.PendingPool(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			failures++
			if failures >= pollFailureLimit {
				return fmt.Errorf("txpool poll failed %d times in a row: %w", failures, err)
			}
			logger.WarningComponent("feed", "Polling txpool failed (%d/%d): %v", failures, pollFailureLimit, err)
		default:
			failures = 0
		}
		for _, raw := range items {
			tx, ok := f.decode(raw)
			if !ok {
				continue
			}
			if err := f.deliver(ctx, tx); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func subscriptionEnded(err error) error {
	if err == nil {
		return errors.New("pending subscription closed")
	}
	return fmt.Errorf("pending subscription: %w", err)
}
