// Command tickserver runs the voxel-MMO server tick core standalone: it
// loads a world config, assembles the world with the reference
// collaborators, and drives the tick loop at the configured rate while
// exposing Prometheus metrics.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/embervoid/tickcore/internal/collab"
	"github.com/embervoid/tickcore/internal/config"
	"github.com/embervoid/tickcore/internal/telemetry"
	"github.com/embervoid/tickcore/internal/world"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tickserver",
		Short:         "Server tick core for the voxel sandbox backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tickserver version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func newRunCmd() *cobra.Command {
	var (
		configPath  string
		assetDir    string
		metricsAddr string
		debug       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the tick loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := telemetry.NewLogger(debug)

			cfg := config.DefaultWorldConfig()
			if configPath != "" {
				var err error
				cfg, err = config.Load(configPath)
				if err != nil {
					return fmt.Errorf("load config %q: %w", configPath, err)
				}
			}

			var registry collab.AssetRegistry
			if assetDir != "" {
				reg, err := collab.LoadYAMLAssetRegistry(assetDir)
				if err != nil {
					return fmt.Errorf("load assets: %w", err)
				}
				registry = reg
			} else {
				registry = collab.NewStaticAssetRegistry(nil, nil, nil, nil)
			}

			metrics := telemetry.NewMetrics()
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w, err := world.Initialize(ctx, cfg, world.Deps{
				Registry: registry,
				Metrics:  metrics,
				Logger:   logger,
			})
			if err != nil {
				return err
			}

			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
				srv := &http.Server{Addr: metricsAddr, Handler: mux}
				go func() {
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						logger.Error().Err(err).Msg("metrics server failed")
					}
				}()
				defer srv.Close()
			}

			dt := 1.0 / cfg.TickRate
			ticker := time.NewTicker(time.Duration(float64(time.Second) * dt))
			defer ticker.Stop()

			logger.Info().
				Float64("tick_rate", cfg.TickRate).
				Int("workers", cfg.Workers).
				Str("metrics", metricsAddr).
				Msg("tick loop starting")

			for {
				select {
				case <-ctx.Done():
					w.Shutdown(context.Background())
					logger.Info().Uint64("ticks", w.TickCount()).Msg("tick loop stopped")
					return nil
				case <-ticker.C:
					// Packets would be handed to the session layer here;
					// the core's contract ends at the flushed outbox.
					w.Tick(ctx, dt)
				}
			}
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to world config YAML")
	cmd.Flags().StringVar(&assetDir, "assets", "", "directory of asset descriptor YAML files")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "address for the Prometheus /metrics endpoint (empty to disable)")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	return cmd
}
