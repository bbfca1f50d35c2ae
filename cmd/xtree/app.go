package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/xlog"
	"github.com/benz9527/xtree/observability"
)

const (
	exitCodeFailed        = 1
	consoleMetricInterval = 10 * time.Second
	consoleMetricTimeout  = 5 * time.Second
)

// newMetricsExporter returns a nil exporter if the metrics are disabled.
func newMetricsExporter(lc fx.Lifecycle, cfg *Config, logger xlog.XLogger) (*observability.MetricsExporter, error) {
	var (
		exporter *observability.MetricsExporter
		err      error
	)
	switch cfg.Metrics {
	case MetricsStdout:
		exporter, err = observability.NewConsoleMetricsExporter(
			consoleMetricInterval,
			consoleMetricTimeout,
			stdoutmetric.WithPrettyPrint(),
		)
	case MetricsPrometheus:
		reg := promclient.NewRegistry()
		if exporter, err = observability.NewPrometheusMetricsExporter(reg); err == nil {
			serveMetrics(lc, cfg.MetricsAddr, reg, logger)
		}
	default:
		return nil, nil
	}
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "metrics exporter")
	}
	lc.Append(fx.StopHook(exporter.Shutdown))
	return exporter, nil
}

func serveMetrics(lc fx.Lifecycle, addr string, reg *promclient.Registry, logger xlog.XLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return infra.WrapErrorStackWithMessage(err, "metrics listen")
			}
			logger.Info("metrics endpoint serving", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error(err, "metrics endpoint stopped")
				}
			}()
			return nil
		},
		OnStop: srv.Shutdown,
	})
}

// runRunner starts the run in background once the app started.
// The app is shut down after the run, except the prometheus endpoint
// is kept serving until a signal.
func runRunner(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *Config, runner *Runner, logger xlog.XLogger) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				code := 0
				if err := runner.Run(runCtx); err != nil {
					code = exitCodeFailed
				}
				if cfg.Metrics == MetricsPrometheus && code == 0 {
					logger.Info("rbtree run finished, metrics endpoint is kept serving")
					return
				}
				if err := shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
					logger.Error(err, "app shutdown failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func appOptions(cfg *Config, logger xlog.XLogger) fx.Option {
	return fx.Options(
		fx.WithLogger(func() fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Supply(cfg),
		fx.Provide(
			func() xlog.XLogger { return logger },
			newMetricsExporter,
			NewRunner,
		),
		fx.Invoke(runRunner),
	)
}
