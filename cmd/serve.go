package main

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/seventv/slide-inverter/colors"
	"github.com/seventv/slide-inverter/internal/batch"
	"github.com/seventv/slide-inverter/internal/global"
	"github.com/seventv/slide-inverter/internal/health"
	"github.com/seventv/slide-inverter/internal/monitoring"
	"github.com/seventv/slide-inverter/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the inversion API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// fail on bad defaults before binding anything
		cfg, err := config.Inversion.Build()
		if err != nil {
			return err
		}
		for _, w := range colors.ValidateContrast(cfg.Foreground, cfg.Background) {
			zap.S().Warnw("default colors",
				"warning", w,
			)
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

		gCtx, cancel := global.WithCancel(global.New(cmd.Context(), config))
		if err := setupInstances(gCtx); err != nil {
			cancel()
			return err
		}

		proc := batch.New(batch.Options{
			Workers:    config.Worker.Jobs,
			Prometheus: gCtx.Inst().Prometheus,
		})

		wg := sync.WaitGroup{}

		if gCtx.Config().Health.Enabled {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-health.New(gCtx)
			}()
		}
		if gCtx.Config().Monitoring.Enabled {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-monitoring.New(gCtx)
			}()
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-server.New(gCtx, proc)
		}()

		done := make(chan struct{})
		go func() {
			<-sig
			cancel()
			go func() {
				select {
				case <-time.After(time.Minute):
				case <-sig:
				}
				zap.S().Fatal("force shutdown")
			}()

			zap.S().Info("shutting down")

			wg.Wait()

			close(done)
		}()

		zap.S().Infow("running",
			"workers", proc.Workers(),
		)

		<-done

		zap.S().Info("shutdown")

		return nil
	},
}

func init() {
	addInversionFlags(serveCmd)

	flags := serveCmd.Flags()
	flags.String("bind", "0.0.0.0:3000", "Address the API listens on")
	flags.Int("cache-size", 16, "Number of batch results kept in memory, 0 disables caching")

	rootCmd.AddCommand(serveCmd)
}
