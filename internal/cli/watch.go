package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/cvtracker/internal/session"
)

const expiryCheckInterval = time.Minute

func newWatchCmd(a *app) *cobra.Command {
	var (
		interval    time.Duration
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the data fresh and serve metrics until interrupted",
		Long: `Reload every sheet on a fixed interval. With --metrics-addr the Prometheus
metrics of the store, sync and backend calls are served at /metrics.
The command ends when interrupted or when the session expires.`,
		Example: `  cvtracker watch --interval 2m --metrics-addr 127.0.0.1:9464`,
		Args:    userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				interval = a.cfg.RefreshInterval
			}
			if interval <= 0 {
				return userErrorf("--interval must be positive")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				s.Run(ctx, interval)
				return nil
			})
			if metricsAddr != "" {
				srv := &http.Server{
					Addr:              metricsAddr,
					Handler:           metricsMux(a),
					ReadHeaderTimeout: 5 * time.Second,
				}
				g.Go(func() error {
					if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
						return fmt.Errorf("metrics server: %w", err)
					}
					return nil
				})
				g.Go(func() error {
					<-ctx.Done()
					shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return srv.Shutdown(shutdown)
				})
				a.logger.Info("serving metrics", "addr", metricsAddr)
			}
			if !a.local() {
				g.Go(func() error { return a.watchExpiry(ctx) })
			}
			fmt.Fprintf(a.errOut, "Refreshing every %s; press Ctrl-C to stop\n", interval)
			return g.Wait()
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "refresh interval (default: refresh_interval from config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on")
	return cmd
}

func metricsMux(a *app) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	return mux
}

// watchExpiry returns ErrSessionExpired once the session ends.
func (a *app) watchExpiry(ctx context.Context) error {
	t := time.NewTicker(expiryCheckInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if a.sessionManager().CheckExpiry() {
				return fmt.Errorf("%w; run \"cvtracker login\"", session.ErrSessionExpired)
			}
		}
	}
}
