package metrics

import (
	"fmt"

	api "go.opentelemetry.io/otel/metric"
)

// metric instruments for eth-sim
var (
	// counters, simulations
	SimSimulationsCounter api.Int64Counter
	SimComparisonsCounter api.Int64Counter
	SimMismatchCounter    api.Int64Counter

	// counters, feed
	SimFeedTxCounter           api.Int64Counter
	SimFeedDecodeErrorsCounter api.Int64Counter

	// counters, transport
	SimRPCCallsCounter   api.Int64Counter
	SimRPCRetriesCounter api.Int64Counter

	// histograms
	SimDurationHistogram     api.Float64Histogram
	SimGasUsedHistogram      api.Float64Histogram
	SimGasPerSecondHistogram api.Float64Histogram
	SimTipLagHistogram       api.Float64Histogram
	SimSpeedRatioHistogram   api.Float64Histogram
	SimRPCDurationHistogram  api.Float64Histogram

	// observable gauges
	SimTipHeightGauge      api.Int64ObservableGauge
	SimTipTimeGauge        api.Int64ObservableGauge
	SimQueueDepthGauge     api.Int64ObservableGauge
	SimInFlightGauge       api.Int64ObservableGauge
	SimLastSimulationGauge api.Int64ObservableGauge
)

func createInstruments() error {
	var err error

	metricsMutex.Lock()
	currentValues = make(map[api.Observable]interface{})
	labeledValues = make(map[api.Observable]map[string]labeledValue)
	metricsMutex.Unlock()

	SimSimulationsCounter, err = meter.Int64Counter(
		"ethsim_simulations_total",
		api.WithDescription("Simulations run, by backend and status"),
	)
	if err != nil {
		return fmt.Errorf("failed to create simulations counter: %w", err)
	}

	SimComparisonsCounter, err = meter.Int64Counter(
		"ethsim_comparisons_total",
		api.WithDescription("Transactions compared across two or more backends"),
	)
	if err != nil {
		return fmt.Errorf("failed to create comparisons counter: %w", err)
	}

	SimMismatchCounter, err = meter.Int64Counter(
		"ethsim_comparison_mismatches_total",
		api.WithDescription("Backend disagreements, by compared field"),
	)
	if err != nil {
		return fmt.Errorf("failed to create mismatch counter: %w", err)
	}

	SimFeedTxCounter, err = meter.Int64Counter(
		"ethsim_feed_transactions_total",
		api.WithDescription("Pending transactions delivered by the feed, by source"),
	)
	if err != nil {
		return fmt.Errorf("failed to create feed transactions counter: %w", err)
	}

	SimFeedDecodeErrorsCounter, err = meter.Int64Counter(
		"ethsim_feed_decode_errors_total",
		api.WithDescription("Feed items dropped because they could not be decoded"),
	)
	if err != nil {
		return fmt.Errorf("failed to create feed decode errors counter: %w", err)
	}

	SimRPCCallsCounter, err = meter.Int64Counter(
		"ethsim_rpc_calls_total",
		api.WithDescription("JSON-RPC attempts, by method and status"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rpc calls counter: %w", err)
	}

	SimRPCRetriesCounter, err = meter.Int64Counter(
		"ethsim_rpc_retries_total",
		api.WithDescription("JSON-RPC attempts scheduled for retry"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rpc retries counter: %w", err)
	}

	durationBuckets := []float64{
		0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05,
		0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
	}

	SimDurationHistogram, err = meter.Float64Histogram(
		"ethsim_simulation_duration_seconds",
		api.WithDescription("Wall clock time of one simulation"),
		api.WithUnit("s"),
		api.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create simulation duration histogram: %w", err)
	}

	SimRPCDurationHistogram, err = meter.Float64Histogram(
		"ethsim_rpc_duration_seconds",
		api.WithDescription("Latency of one JSON-RPC attempt"),
		api.WithUnit("s"),
		api.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create rpc duration histogram: %w", err)
	}

	SimGasUsedHistogram, err = meter.Float64Histogram(
		"ethsim_gas_used",
		api.WithDescription("Gas used by simulated transactions"),
		api.WithExplicitBucketBoundaries(
			21_000, 30_000, 50_000, 100_000, 200_000, 500_000,
			1_000_000, 2_000_000, 5_000_000, 10_000_000, 30_000_000,
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create gas used histogram: %w", err)
	}

	SimGasPerSecondHistogram, err = meter.Float64Histogram(
		"ethsim_gas_per_second",
		api.WithDescription("Simulated gas throughput"),
		api.WithExplicitBucketBoundaries(1e5, 1e6, 5e6, 1e7, 5e7, 1e8, 5e8, 1e9),
	)
	if err != nil {
		return fmt.Errorf("failed to create gas per second histogram: %w", err)
	}

	SimTipLagHistogram, err = meter.Float64Histogram(
		"ethsim_tip_lag_blocks",
		api.WithDescription("Blocks the tip advanced while a simulation ran"),
		api.WithExplicitBucketBoundaries(0, 1, 2, 3, 5, 10, 20),
	)
	if err != nil {
		return fmt.Errorf("failed to create tip lag histogram: %w", err)
	}

	SimSpeedRatioHistogram, err = meter.Float64Histogram(
		"ethsim_backend_speed_ratio",
		api.WithDescription("Slowest over fastest backend duration per transaction"),
		api.WithExplicitBucketBoundaries(1, 1.5, 2, 3, 5, 10, 20, 50, 100),
	)
	if err != nil {
		return fmt.Errorf("failed to create speed ratio histogram: %w", err)
	}

	SimTipHeightGauge, err = meter.Int64ObservableGauge(
		"ethsim_tip_height",
		api.WithDescription("Number of the latest known block"),
	)
	if err != nil {
		return fmt.Errorf("failed to create tip height gauge: %w", err)
	}

	SimTipTimeGauge, err = meter.Int64ObservableGauge(
		"ethsim_tip_timestamp",
		api.WithDescription("Timestamp of the latest known block"),
	)
	if err != nil {
		return fmt.Errorf("failed to create tip time gauge: %w", err)
	}

	SimQueueDepthGauge, err = meter.Int64ObservableGauge(
		"ethsim_pool_queue_depth",
		api.WithDescription("Jobs waiting for a worker"),
	)
	if err != nil {
		return fmt.Errorf("failed to create queue depth gauge: %w", err)
	}

	SimInFlightGauge, err = meter.Int64ObservableGauge(
		"ethsim_pool_in_flight",
		api.WithDescription("Jobs currently executing"),
	)
	if err != nil {
		return fmt.Errorf("failed to create in flight gauge: %w", err)
	}

	SimLastSimulationGauge, err = meter.Int64ObservableGauge(
		"ethsim_last_simulation_timestamp",
		api.WithDescription("Unix time of the last finished simulation, by backend"),
	)
	if err != nil {
		return fmt.Errorf("failed to create last simulation gauge: %w", err)
	}

	if err := InitMemoryMetrics(meter); err != nil {
		return fmt.Errorf("failed to create memory metrics: %w", err)
	}

	return nil
}
