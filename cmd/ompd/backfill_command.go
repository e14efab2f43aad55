package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dgadling/ompd/internal/backfill"
	"github.com/dgadling/ompd/internal/catalog"
	"github.com/dgadling/ompd/internal/logging"
	"github.com/dgadling/ompd/internal/movie"
)

func newBackfillCommand(ctx *commandContext) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Run one backfill sweep over accumulated session directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open session catalog: %w", err)
			}
			defer store.Close()

			encoder := movie.NewCLI(movie.WithBinary(cfg.Movie.FFmpegBinary))
			sweeper := backfill.NewSweeper(cfg, store, encoder, logger)

			var bar *progressbar.ProgressBar
			if !quiet {
				sweeper.Progress = func(ev backfill.Event) {
					if bar == nil {
						bar = progressbar.Default(int64(ev.Total), "sweeping sessions")
					}
					_ = bar.Add(1)
				}
			}

			res, err := sweeper.Run(signalCtx)
			if bar != nil {
				_ = bar.Finish()
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Discovered %d session directories (%d newly registered)\n",
				res.Discovered, res.Registered)
			fmt.Fprintf(out, "Completed %d, failed %d, pruned %d\n",
				res.Completed, res.Failed, res.Pruned)
			if res.Failed > 0 {
				return fmt.Errorf("%d session(s) failed; see `ompd sessions` for details", res.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the progress bar")
	return cmd
}
