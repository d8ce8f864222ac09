package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zephyrtronium/calc"
	"github.com/zephyrtronium/calc/internal/config"
	"github.com/zephyrtronium/calc/internal/history"
	"github.com/zephyrtronium/calc/internal/logger"
)

// errFailed reports that some expressions failed. The failures have already
// been printed.
var errFailed = errors.New("evaluation failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		}
		os.Exit(1)
	}
}

// options holds flags shared by all commands.
type options struct {
	configPath string
	logLevel   string
	noHistory  bool
}

// app is the state built from configuration for one command invocation.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	slog  *slog.Logger
	store *history.Store
}

func newRootCmd() *cobra.Command {
	var (
		opts   options
		inname string
		verb   string
		rpn    bool
		lines  bool
	)
	cmd := &cobra.Command{
		Use:   "calc [expression...]",
		Short: "Evaluate arithmetic expressions",
		Long: `Calc evaluates arithmetic expressions with + - * /, parentheses,
unary minus on numbers, and log(base, value).

Each argument is evaluated as one expression. With no arguments, the
expression is read from --in or standard input.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if !cmd.Flags().Changed("fmt") {
				verb = a.cfg.Format
			}
			if !cmd.Flags().Changed("rpn") {
				rpn = a.cfg.Trace
			}
			exprs, err := inputs(cmd.InOrStdin(), inname, args, lines)
			if err != nil {
				return err
			}
			failed := 0
			for _, src := range exprs {
				if !a.eval(cmd, src, verb, rpn) {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d: %w", failed, len(exprs), errFailed)
			}
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "configuration file (default "+config.DefaultPath()+")")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error, none")
	pf.BoolVar(&opts.noHistory, "no-history", false, "do not record evaluations")

	f := cmd.Flags()
	f.StringVar(&inname, "in", "", "input file, or - for stdin (default stdin if no args given)")
	f.StringVar(&verb, "fmt", "%g", "result formatting string")
	f.BoolVar(&rpn, "rpn", false, "print the postfix trace of each evaluation")
	f.BoolVarP(&lines, "lines", "n", false, "evaluate separate input lines as separate expressions")

	cmd.AddCommand(newServeCmd(&opts), newWatchCmd(&opts), newHistoryCmd(&opts))
	return cmd
}

// setup loads configuration and opens the logger and history store.
// A history store that cannot be opened is logged and left disabled.
func (o *options) setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.noHistory {
		cfg.History = false
	}
	level := logger.ParseLevel(cfg.LogLevel)
	var l *logger.Logger
	if cfg.LogPath == "" {
		l = logger.NewWriter(level, cmd.ErrOrStderr(), "calc")
	} else {
		l, err = logger.New(level, cfg.LogPath, "calc")
		if err != nil {
			return nil, err
		}
	}
	a := &app{cfg: cfg, log: l, slog: logger.Slog(l)}
	if cfg.History {
		a.store, err = history.Open(cfg.HistoryPath)
		if err != nil {
			l.Warn("history disabled: %v", err)
			a.store = nil
		}
	}
	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("closing history: %v", err)
		}
	}
	a.log.Close()
}

// record adds an evaluation to history if it is enabled.
func (a *app) record(cmd *cobra.Command, src string, r calc.Result, err error) {
	if a.store == nil {
		return
	}
	if _, err := a.store.Add(cmd.Context(), history.FromResult(src, r, err)); err != nil {
		a.log.Warn("recording %q: %v", src, err)
	}
}

// eval evaluates and prints one expression and reports whether it succeeded.
func (a *app) eval(cmd *cobra.Command, src, verb string, rpn bool) bool {
	r, err := calc.Evaluate(src, calc.Logger(a.slog))
	a.record(cmd, src, r, err)
	if err != nil {
		color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "%s: %v\n", strings.TrimSpace(src), err)
		return false
	}
	out := cmd.OutOrStdout()
	if rpn {
		color.New(color.FgCyan).Fprintf(out, "RPN: %v\n", r.Trace)
	}
	fmt.Fprintf(out, verb+"\n", r.Value)
	return true
}

// inputs collects the expressions to evaluate. Arguments are expressions
// themselves. The input file, or stdin when there are no arguments, is one
// expression unless lines is set, in which case each non-blank line is one.
func inputs(stdin io.Reader, inname string, args []string, lines bool) ([]string, error) {
	var exprs []string
	var in io.Reader
	switch {
	case inname != "" && inname != "-":
		f, err := os.Open(inname)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		in = f
	case inname == "-", len(args) == 0:
		in = stdin
	}
	if in != nil {
		if lines {
			sc := bufio.NewScanner(in)
			for sc.Scan() {
				if strings.TrimSpace(sc.Text()) != "" {
					exprs = append(exprs, sc.Text())
				}
			}
			if err := sc.Err(); err != nil {
				return nil, err
			}
		} else {
			b, err := io.ReadAll(in)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, string(b))
		}
	}
	return append(exprs, args...), nil
}
