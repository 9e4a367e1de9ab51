package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/valo/eth-sim/internal/logger"
)

func newMux() *http.ServeMux {
	mux := http.NewServeMux()

	metricsHandler := promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		Timeout: 30 * time.Second,
	})
	mux.Handle("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.DebugComponent("metrics", "Metrics endpoint called from %s", r.RemoteAddr)
		metricsHandler.ServeHTTP(w, r)
	}))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK\n"))
	})

	return mux
}

// StartPrometheusServer serves /metrics and /health until ctx is cancelled.
// The port is bound before returning so a taken port is reported here.
func StartPrometheusServer(ctx context.Context, port int) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler:           newMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoComponent("metrics", "Starting Prometheus metrics server on port %d", port)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorComponent("metrics", "Prometheus server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.ErrorComponent("metrics", "Error shutting down Prometheus server: %v", err)
		}
	}()

	return nil
}
