package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	api "go.opentelemetry.io/otel/metric"
)

func withLabels(labels ...attribute.KeyValue) api.MeasurementOption {
	return api.WithAttributes(append(labels, getCommonLabels()...)...)
}

func setLabeled(instrument api.Observable, key string, value float64, labels ...attribute.KeyValue) {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	if _, exists := labeledValues[instrument]; !exists {
		labeledValues[instrument] = make(map[string]labeledValue)
	}
	labeledValues[instrument][key] = labeledValue{value: value, labels: labels}
}

// RecordSimulation records one finished simulation. status is "success",
// "reverted", "halted" or an error kind.
func RecordSimulation(backend, status string, elapsed time.Duration, gasUsed uint64) {
	ctx := context.Background()
	b := attribute.String("backend", backend)

	SimSimulationsCounter.Add(ctx, 1, withLabels(b, attribute.String("status", status)))
	SimDurationHistogram.Record(ctx, elapsed.Seconds(), withLabels(b))
	if gasUsed > 0 {
		SimGasUsedHistogram.Record(ctx, float64(gasUsed), withLabels(b))
		if elapsed > 0 {
			SimGasPerSecondHistogram.Record(ctx, float64(gasUsed)/elapsed.Seconds(), withLabels(b))
		}
	}
	setLabeled(SimLastSimulationGauge, backend, float64(time.Now().Unix()), b)
}

func RecordTipLag(backend string, lag uint64) {
	SimTipLagHistogram.Record(context.Background(), float64(lag), withLabels(attribute.String("backend", backend)))
}

func SetTip(number, timestamp uint64) {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	currentValues[SimTipHeightGauge] = int64(number)
	currentValues[SimTipTimeGauge] = int64(timestamp)
}

func IncFeedTransactions(source string) {
	SimFeedTxCounter.Add(context.Background(), 1, withLabels(attribute.String("source", source)))
}

func IncFeedDecodeErrors(source string) {
	SimFeedDecodeErrorsCounter.Add(context.Background(), 1, withLabels(attribute.String("source", source)))
}

func RecordRPCCall(method string, elapsed time.Duration, err error) {
	ctx := context.Background()
	status := "ok"
	if err != nil {
		status = "error"
	}
	m := attribute.String("method", method)
	SimRPCCallsCounter.Add(ctx, 1, withLabels(m, attribute.String("status", status)))
	SimRPCDurationHistogram.Record(ctx, elapsed.Seconds(), withLabels(m))
}

func IncRPCRetry(method string) {
	SimRPCRetriesCounter.Add(context.Background(), 1, withLabels(attribute.String("method", method)))
}

// RecordComparison records one multi-backend comparison and its speed ratio.
func RecordComparison(speedRatio float64) {
	ctx := context.Background()
	SimComparisonsCounter.Add(ctx, 1, withLabels())
	SimSpeedRatioHistogram.Record(ctx, speedRatio, withLabels())
}

func IncComparisonMismatch(field string) {
	SimMismatchCounter.Add(context.Background(), 1, withLabels(attribute.String("field", field)))
}

func SetQueueDepth(n int) {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	currentValues[SimQueueDepthGauge] = int64(n)
}

func SetInFlight(n int) {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	currentValues[SimInFlightGauge] = int64(n)
}
