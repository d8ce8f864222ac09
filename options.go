package calc

import (
	"fmt"
	"io"
	"log/slog"
)

// Option is an option for evaluation.
type Option interface {
	evalOption(*evalopts)
}

type (
	traceopt struct {
		w io.Writer
	}
	logopt struct {
		l *slog.Logger
	}
)

// evalopts holds the side channels for one evaluation.
type evalopts struct {
	trace io.Writer
	log   *slog.Logger
}

// TraceTo writes the postfix trace of each successful evaluation to w as a
// line of the form "RPN: 3 4 * 2 12 +". Write errors are ignored.
func TraceTo(w io.Writer) Option {
	return traceopt{w}
}

func (o traceopt) evalOption(e *evalopts) {
	e.trace = o.w
}

// Logger logs evaluations to l: results and traces at debug level, failures
// at warn level.
func Logger(l *slog.Logger) Option {
	return logopt{l}
}

func (o logopt) evalOption(e *evalopts) {
	e.log = o.l
}

func (e *evalopts) report(expr string, r Result, err error) {
	if err != nil {
		if e.log != nil {
			e.log.Warn("evaluation failed", "expr", expr, "kind", KindOf(err).String(), "err", err)
		}
		return
	}
	if e.trace != nil {
		fmt.Fprintf(e.trace, "RPN: %v\n", r.Trace)
	}
	if e.log != nil {
		e.log.Debug("evaluated", "expr", expr, "value", r.Value, "rpn", r.Trace.String())
	}
}
