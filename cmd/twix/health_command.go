package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"twix/internal/health"
	"twix/internal/logging"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var watch bool
	var interval time.Duration
	var metricsAddr string

	cmd := &cobra.Command{
		Use:     "health",
		Aliases: []string{"status"},
		Short:   "Show API, worker, and backend service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctx.ensureWiring()
			if err != nil {
				return err
			}
			collector := w.healthCollector()
			colorize := shouldColorize(cmd.OutOrStdout())
			render := func(snap health.Snapshot) {
				if err := emit(cmd, ctx, snap, func() []string { return renderHealth(snap, colorize) }); err != nil {
					w.logger.Warn("render health", logging.Error(err))
				}
			}

			if !watch {
				render(collector.Snapshot(cmd.Context()))
				return nil
			}

			addr := strings.TrimSpace(metricsAddr)
			if addr == "" {
				addr = w.cfg.Dashboard.MetricsBind
			}
			if addr != "" {
				stop, bound, err := serveMetrics(w, addr)
				if err != nil {
					return err
				}
				defer stop()
				fmt.Fprintf(cmd.ErrOrStderr(), "Serving metrics on http://%s/metrics\n", bound)
			}

			if interval <= 0 {
				interval = w.cfg.RefreshInterval()
			}
			err = collector.Watch(cmd.Context(), interval, func(snap health.Snapshot) {
				if !ctx.jsonOutput() && colorize {
					fmt.Fprint(cmd.OutOrStdout(), "\x1b[H\x1b[2J")
				}
				render(snap)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Refresh until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Refresh interval when watching (default dashboard.refresh_seconds)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address while watching")
	return cmd
}

// serveMetrics starts the Prometheus endpoint and returns a shutdown func and
// the bound address.
func serveMetrics(w *wiring, addr string) (func(), string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("listen on %s: %w", addr, err)
	}
	router := chi.NewRouter()
	router.Handle("/metrics", w.metrics.Handler())
	router.Get("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusNoContent)
	})
	server := &http.Server{Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.logger.Warn("metrics server stopped", logging.Error(err))
		}
	}()
	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
	return stop, listener.Addr().String(), nil
}
