// Package watch re-evaluates a file of expressions whenever it changes.
package watch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zephyrtronium/calc"
)

// DefaultDebounce is the quiet period after a change before the file is
// evaluated again.
const DefaultDebounce = 100 * time.Millisecond

// LineResult is the evaluation of one line of a watched file.
type LineResult struct {
	// Line is the 1-based line number.
	Line int
	// Expr is the line as written.
	Expr string
	// Value and Trace are set when Err is nil.
	Value float64
	Trace calc.Trace
	Err   error
}

// EvalLines evaluates each line of r. Blank lines and lines beginning with #
// are skipped.
func EvalLines(r io.Reader, opts ...calc.Option) ([]LineResult, error) {
	var res []LineResult
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := sc.Text()
		s := strings.TrimSpace(line)
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		v, err := calc.Evaluate(line, opts...)
		res = append(res, LineResult{Line: n, Expr: line, Value: v.Value, Trace: v.Trace, Err: err})
	}
	if err := sc.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// EvalFile evaluates each line of the file at path as with EvalLines.
func EvalFile(path string, opts ...calc.Option) ([]LineResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := EvalLines(f, opts...)
	if err != nil {
		return r, fmt.Errorf("reading %s: %w", path, err)
	}
	return r, nil
}

// Watcher evaluates a file once and again after every change to it.
type Watcher struct {
	// Debounce is the quiet period before re-evaluating. Zero means
	// DefaultDebounce.
	Debounce time.Duration
	// Log receives watch errors. Nil discards them.
	Log *slog.Logger
	// Options are passed to each evaluation.
	Options []calc.Option
}

// Run evaluates path, reports the results to fn, and repeats each time the
// file is written or replaced until ctx is done. fn is called from Run's
// goroutine. Run returns nil when ctx is canceled.
func (w *Watcher) Run(ctx context.Context, path string, fn func([]LineResult)) error {
	log := w.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()
	// Watch the directory rather than the file so that editors which replace
	// the file by renaming over it keep working.
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	emit := func() {
		r, err := EvalFile(abs, w.Options...)
		if err != nil {
			log.Warn("evaluating watched file", "path", abs, "err", err)
			return
		}
		fn(r)
	}
	emit()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			log.Debug("watched file changed", "path", abs, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			emit()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Error("watcher error", "err", err)
		}
	}
}
