package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zephyrtronium/calc"
	"github.com/zephyrtronium/calc/internal/watch"
)

func newWatchCmd(opts *options) *cobra.Command {
	var (
		verb     string
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-evaluate each line of a file whenever it changes",
		Long: `Watch evaluates every line of FILE and evaluates it again each time the
file is saved. Blank lines and lines beginning with # are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if !cmd.Flags().Changed("fmt") {
				verb = a.cfg.Format
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			w := watch.Watcher{
				Debounce: debounce,
				Log:      a.slog,
				Options:  []calc.Option{calc.Logger(a.slog)},
			}
			out := cmd.OutOrStdout()
			header := color.New(color.Bold)
			red := color.New(color.FgRed)
			return w.Run(ctx, args[0], func(results []watch.LineResult) {
				header.Fprintf(out, "== %s %s\n", args[0], time.Now().Format(time.TimeOnly))
				for _, r := range results {
					a.record(cmd, r.Expr, calc.Result{Value: r.Value, Trace: r.Trace}, r.Err)
					if r.Err != nil {
						red.Fprintf(out, "%d: %s: %v\n", r.Line, r.Expr, r.Err)
						continue
					}
					fmt.Fprintf(out, "%d: %s = "+verb+"\n", r.Line, r.Expr, r.Value)
				}
			})
		},
	}
	cmd.Flags().StringVar(&verb, "fmt", "%g", "result formatting string")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period after a change before evaluating")
	return cmd
}
