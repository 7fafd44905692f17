package cmd

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/oneconcern/stele/pkg/metrics"
	"go.uber.org/zap"
)

var (
	usage     *metrics.UsageMetrics
	usageOnce sync.Once
)

// cliUsage records a usage metric in the CLI context in a single go.
// This is intended to be used in some defer statement.
func cliUsage(t0 time.Time, command string, err error) {
	usageOnce.Do(func() {
		usage = metrics.NewUsageMetrics("cli")
	})
	usage.Used(t0, command)(err)
}

// serveMetrics exposes the metrics registry on addr until the returned function is called
func serveMetrics(addr string) func() {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
