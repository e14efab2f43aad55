package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgadling/ompd/internal/capture"
	"github.com/dgadling/ompd/internal/catalog"
	"github.com/dgadling/ompd/internal/daemon"
	"github.com/dgadling/ompd/internal/logging"
	"github.com/dgadling/ompd/internal/movie"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the capture daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logPath := filepath.Join(cfg.Paths.LogDir, "ompd.log")
			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stdout", logPath},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := catalog.Open(cfg)
			if err != nil {
				logger.Error("open session catalog", logging.Error(err))
				return err
			}
			defer store.Close()

			source, err := capture.NewCommandSource(cfg.Capture.Command, cfg.Capture.ShotType)
			if err != nil {
				return fmt.Errorf("capture source: %w", err)
			}
			encoder := movie.NewCLI(movie.WithBinary(cfg.Movie.FFmpegBinary))

			d, err := daemon.New(cfg, store, source, encoder, logger)
			if err != nil {
				return err
			}
			if err := d.Start(signalCtx); err != nil {
				return err
			}

			<-signalCtx.Done()
			d.Stop()
			return nil
		},
	}
}
