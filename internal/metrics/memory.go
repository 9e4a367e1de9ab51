package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/pbnjay/memory"
	"go.opentelemetry.io/otel/metric"

	"github.com/valo/eth-sim/internal/logger"
)

var (
	// memory metrics
	SimGoHeapObjects   metric.Int64ObservableGauge
	SimGoHeapInuseMB   metric.Float64ObservableGauge
	SimGoHeapIdleMB    metric.Float64ObservableGauge
	SimGoSysMB         metric.Float64ObservableGauge
	SimGoNumGoroutines metric.Int64ObservableGauge
	SimHostMemoryMB    metric.Float64ObservableGauge
)

// fallback limit when the host memory size cannot be determined
const defaultHeapLimit = 10 << 30

func InitMemoryMetrics(meter metric.Meter) error {
	var err error

	SimGoHeapObjects, err = meter.Int64ObservableGauge(
		"ethsim_go_heap_objects",
		metric.WithDescription("Number of allocated heap objects"),
	)
	if err != nil {
		return err
	}

	SimGoHeapInuseMB, err = meter.Float64ObservableGauge(
		"ethsim_go_heap_inuse_mb",
		metric.WithDescription("Heap memory in use in MB"),
	)
	if err != nil {
		return err
	}

	SimGoHeapIdleMB, err = meter.Float64ObservableGauge(
		"ethsim_go_heap_idle_mb",
		metric.WithDescription("Heap memory idle in MB"),
	)
	if err != nil {
		return err
	}

	SimGoSysMB, err = meter.Float64ObservableGauge(
		"ethsim_go_sys_mb",
		metric.WithDescription("Total memory obtained from OS in MB"),
	)
	if err != nil {
		return err
	}

	SimGoNumGoroutines, err = meter.Int64ObservableGauge(
		"ethsim_go_num_goroutines",
		metric.WithDescription("Number of goroutines"),
	)
	if err != nil {
		return err
	}

	SimHostMemoryMB, err = meter.Float64ObservableGauge(
		"ethsim_host_memory_mb",
		metric.WithDescription("Physical memory of the host in MB"),
	)
	return err
}

// callback function that collects memory stats
func collectMemoryStats(_ context.Context, observer metric.Observer) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	observer.ObserveInt64(SimGoHeapObjects, int64(m.HeapObjects))

	// convert bytes->MB for readability
	observer.ObserveFloat64(SimGoHeapInuseMB, float64(m.HeapInuse)/(1024*1024))
	observer.ObserveFloat64(SimGoHeapIdleMB, float64(m.HeapIdle)/(1024*1024))
	observer.ObserveFloat64(SimGoSysMB, float64(m.Sys)/(1024*1024))
	observer.ObserveFloat64(SimHostMemoryMB, float64(memory.TotalMemory())/(1024*1024))

	observer.ObserveInt64(SimGoNumGoroutines, int64(runtime.NumGoroutine()))

	return nil
}

// heapLimit is the heap size above which a warning is logged: 80% of host
// memory, or 10GB when the host size is unknown.
func heapLimit(total uint64) uint64 {
	if total == 0 {
		return defaultHeapLimit
	}
	return total / 10 * 8
}

// starts periodic memory monitoring
func StartMemoryMonitoring(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	limit := heapLimit(memory.TotalMemory())
	lastGoroutineCount := runtime.NumGoroutine()
	goroutineGrowthWarnings := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			currentGoroutines := runtime.NumGoroutine()

			if m.HeapInuse > limit {
				logger.WarningComponent("system", "High memory usage detected: HeapInuse=%.2fMB (limit %.2fMB), HeapObjects=%d, Goroutines=%d",
					float64(m.HeapInuse)/(1024*1024), float64(limit)/(1024*1024), m.HeapObjects, currentGoroutines)
			}

			// detect goroutine leaks, only log errors for sustained growth
			if currentGoroutines > lastGoroutineCount+10 {
				goroutineGrowthWarnings++
				logger.DebugComponent("system", "Goroutine count growing: %d -> %d (growth warnings: %d)",
					lastGoroutineCount, currentGoroutines, goroutineGrowthWarnings)

				if goroutineGrowthWarnings >= 10 {
					logger.ErrorComponent("system", "Potential goroutine leak detected! Count has grown to %d", currentGoroutines)
				}
			} else if currentGoroutines < lastGoroutineCount {
				goroutineGrowthWarnings = 0
			}

			lastGoroutineCount = currentGoroutines
		}
	}
}
