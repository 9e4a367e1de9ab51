package metrics

import (
	"go.opentelemetry.io/otel/attribute"
	api "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// meter starts as a no-op so instruments are always usable, also in tests
// and in commands that never call InitMetrics.
var meter api.Meter = noop.NewMeterProvider().Meter("eth-sim")

// commonLabels is set once by InitMetrics before any instrument is used.
var commonLabels []attribute.KeyValue

func init() {
	if err := createInstruments(); err != nil {
		panic(err)
	}
}

func getAllObservables() []api.Observable {
	return []api.Observable{
		// tip
		SimTipHeightGauge,
		SimTipTimeGauge,

		// pool
		SimQueueDepthGauge,
		SimInFlightGauge,

		// per backend
		SimLastSimulationGauge,

		// memory
		SimGoHeapObjects,
		SimGoHeapInuseMB,
		SimGoHeapIdleMB,
		SimGoSysMB,
		SimGoNumGoroutines,
		SimHostMemoryMB,
	}
}

func getCommonLabels() []attribute.KeyValue {
	return commonLabels
}
