package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dgadling/ompd/internal/catalog"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List catalogued capture sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open session catalog: %w", err)
			}
			defer store.Close()

			sessions, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions catalogued yet")
				return nil
			}

			headers := []string{"Session", "State", "Resolution", "Legacy", "Error"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft}
			rows := make([][]string, 0, len(sessions))
			for _, sess := range sessions {
				rows = append(rows, []string{
					sess.Key,
					string(sess.State),
					formatResolution(sess),
					yesNo(sess.Legacy),
					sess.ErrorMessage,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}
}

func formatResolution(sess *catalog.Session) string {
	if !sess.HasTargetResolution() {
		return "-"
	}
	return strconv.Itoa(sess.TargetWidth) + "x" + strconv.Itoa(sess.TargetHeight)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
