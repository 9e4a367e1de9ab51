package monitors

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valo/eth-sim/internal/chain"
	"github.com/valo/eth-sim/internal/logger"
	"github.com/valo/eth-sim/internal/metrics"
	"github.com/valo/eth-sim/internal/rpcclient"
	"github.com/valo/eth-sim/internal/tip"
)

// StartTipMonitor follows the newHeads subscription and publishes every
// header to tracker. It returns when ctx is cancelled or the subscription
// ends; the latter is reported on errCh.
func StartTipMonitor(ctx context.Context, sub rpcclient.Subscriber, tracker *tip.Tracker, errCh chan<- error) {
	heads := make(chan json.RawMessage, 16)
	subscription, err := sub.EthSubscribe(ctx, heads, "newHeads")
	if err != nil {
		err = fmt.Errorf("subscribe to new heads: %w", err)
		tracker.MarkEnded(err)
		fatal(ctx, errCh, err)
		return
	}
	defer subscription.Unsubscribe()
	logger.InfoComponent("tip", "Subscribed to new heads")

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-subscription.Err():
			if err == nil {
				err = tip.ErrFeedEnded
			}
			err = fmt.Errorf("new heads subscription: %w", err)
			tracker.MarkEnded(err)
			fatal(ctx, errCh, err)
			return
		case raw := <-heads:
			handleHead(raw, tracker)
		}
	}
}

// pollFailureLimit is how many polls in a row may fail before a polling
// source is reported as ended.
const pollFailureLimit = 5

// StartTipPoller is the fallback for endpoints without subscriptions: it
// fetches the latest header every interval. A failed poll is retried on the
// next tick; pollFailureLimit failures in a row end the tip, which is
// reported on errCh.
func StartTipPoller(ctx context.Context, fetcher tip.HeaderFetcher, interval time.Duration, tracker *tip.Tracker, errCh chan<- error) {
	if interval <= 0 {
		interval = time.Second
	}
	logger.InfoComponent("tip", "Polling latest header every %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		header, err := fetcher.LatestHeader(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			if failures >= pollFailureLimit {
				err = fmt.Errorf("latest header failed %d times in a row: %w", failures, err)
				tracker.MarkEnded(err)
				fatal(ctx, errCh, err)
				return
			}
			logger.WarningComponent("tip", "Fetching latest header failed (%d/%d): %v", failures, pollFailureLimit, err)
			continue
		}
		failures = 0
		publishHeader(header, tracker)
	}
}

func handleHead(raw json.RawMessage, tracker *tip.Tracker) {
	var header chain.Header
	if err := json.Unmarshal(raw, &header); err != nil {
		metrics.IncFeedDecodeErrors("heads")
		logger.WarningComponent("tip", "Dropping undecodable header: %v", err)
		return
	}
	publishHeader(&header, tracker)
}

func publishHeader(header *chain.Header, tracker *tip.Tracker) {
	block, err := chain.NewBlockContext(header)
	if err != nil {
		metrics.IncFeedDecodeErrors("heads")
		logger.WarningComponent("tip", "Dropping header: %v", err)
		return
	}
	prev := tracker.Number()
	if !tracker.Update(&block) {
		logger.DebugComponent("tip", "Tip unchanged at %s", block)
		return
	}
	if block.Number <= prev {
		logger.WarningComponent("tip", "Chain reorganized from #%d to %s", prev, block)
	}
	metrics.SetTip(block.Number, block.Time)
	logger.DebugComponent("tip", "New tip %s", block)
}
