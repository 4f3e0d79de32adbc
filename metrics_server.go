package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// startMetricsServer exposes the Prometheus registry. The server is not
// shut down explicitly; it lives for the remainder of the run.
func startMetricsServer(addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		log.Info("metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}
