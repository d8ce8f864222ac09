package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// NewSlogHandler returns a slog.Handler that forwards records to l.
// If l is nil, it returns nil.
func NewSlogHandler(l *Logger) slog.Handler {
	if l == nil {
		return nil
	}
	return &slogAdapter{log: l}
}

// Slog is a shortcut for slog.New(NewSlogHandler(l)).
func Slog(l *Logger) *slog.Logger {
	return slog.New(NewSlogHandler(l))
}

type slogAdapter struct {
	log    *Logger
	groups []string
	// attrs are the formatted key=value pairs from WithAttrs, qualified by
	// the groups open at the time.
	attrs []string
}

func (h *slogAdapter) Enabled(_ context.Context, level slog.Level) bool {
	lv := h.log.GetLevel()
	return lv != LevelNone && slogLevel(level) >= lv
}

func (h *slogAdapter) Handle(_ context.Context, record slog.Record) error {
	pairs := make([]string, 0, len(h.attrs)+record.NumAttrs())
	pairs = append(pairs, h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		pairs = appendAttr(pairs, attr, h.groups)
		return true
	})

	message := record.Message
	if text := strings.Join(pairs, " "); text != "" {
		if message != "" {
			message += " " + text
		} else {
			message = text
		}
	}

	switch slogLevel(record.Level) {
	case LevelError:
		h.log.Error("%s", message)
	case LevelWarn:
		h.log.Warn("%s", message)
	case LevelInfo:
		h.log.Info("%s", message)
	default:
		h.log.Debug("%s", message)
	}
	return nil
}

func (h *slogAdapter) WithAttrs(attrs []slog.Attr) slog.Handler {
	a := append([]string(nil), h.attrs...)
	for _, attr := range attrs {
		a = appendAttr(a, attr, h.groups)
	}
	return &slogAdapter{
		log:    h.log,
		groups: h.groups,
		attrs:  a,
	}
}

func (h *slogAdapter) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &slogAdapter{
		log:    h.log,
		groups: appendKey(h.groups, name),
		attrs:  h.attrs,
	}
}

func slogLevel(level slog.Level) Level {
	switch {
	case level >= slog.LevelError:
		return LevelError
	case level >= slog.LevelWarn:
		return LevelWarn
	case level >= slog.LevelInfo:
		return LevelInfo
	default:
		return LevelDebug
	}
}

// appendAttr appends attr formatted as key=value to pairs. Group attrs are
// flattened with dotted keys.
func appendAttr(pairs []string, attr slog.Attr, prefix []string) []string {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return pairs
	}
	if attr.Value.Kind() == slog.KindGroup {
		p := prefix
		if attr.Key != "" {
			p = appendKey(prefix, attr.Key)
		}
		for _, nested := range attr.Value.Group() {
			pairs = appendAttr(pairs, nested, p)
		}
		return pairs
	}
	key := attr.Key
	if key == "" {
		key = "attr"
	}
	return append(pairs, fmt.Sprintf("%s=%v", strings.Join(appendKey(prefix, key), "."), attr.Value))
}

func appendKey(prefix []string, key string) []string {
	k := make([]string, 0, len(prefix)+1)
	k = append(k, prefix...)
	return append(k, key)
}
