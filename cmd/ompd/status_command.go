package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgadling/ompd/internal/catalog"
	"github.com/dgadling/ompd/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show environment checks and session counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()

			results := preflight.RunAll(cfg)
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				rows = append(rows, []string{result.Name, checkmark(result), result.Detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "OK", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open session catalog: %w", err)
			}
			defer store.Close()

			sessions, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			counts := make(map[catalog.State]int)
			for _, sess := range sessions {
				counts[sess.State]++
			}
			stateRows := make([][]string, 0, len(catalog.AllStates()))
			for _, state := range catalog.AllStates() {
				stateRows = append(stateRows, []string{string(state), fmt.Sprint(counts[state])})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"State", "Sessions"},
				stateRows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}

func checkmark(result preflight.Result) string {
	switch {
	case result.Passed:
		return "yes"
	case result.Warning:
		return "warn"
	default:
		return "no"
	}
}
