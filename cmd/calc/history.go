package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *options) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent evaluations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 {
				return fmt.Errorf("-n must be positive, not %d", n)
			}
			a, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.store == nil {
				return errors.New("history is disabled")
			}
			recs, err := a.store.Recent(cmd.Context(), n)
			if err != nil {
				return fmt.Errorf("reading history: %w", err)
			}
			out := cmd.OutOrStdout()
			dim := color.New(color.Faint)
			red := color.New(color.FgRed)
			// Oldest first, so the newest ends up next to the prompt.
			for i := len(recs) - 1; i >= 0; i-- {
				r := recs[i]
				dim.Fprintf(out, "%4d  %s  ", r.ID, r.CreatedAt.Local().Format(time.DateTime))
				if r.OK() {
					fmt.Fprintf(out, "%s = %g\n", r.Expr, r.Value)
				} else {
					red.Fprintf(out, "%s: %s\n", r.Expr, r.Error)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "number", "n", 20, "number of evaluations to list")
	return cmd
}
