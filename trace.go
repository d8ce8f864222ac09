package calc

import (
	"strconv"
	"strings"
)

// Step is one reduction performed during evaluation: a binary operator applied
// to two values, or log applied to its base and value.
type Step struct {
	Left  float64
	Right float64
	// Op is one of "+", "-", "*", "/", or "log".
	Op string
}

func (s Step) String() string {
	var b strings.Builder
	s.fmt(&b)
	return b.String()
}

func (s Step) fmt(b *strings.Builder) {
	b.WriteString(strconv.FormatFloat(s.Left, 'g', -1, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(s.Right, 'g', -1, 64))
	b.WriteByte(' ')
	b.WriteString(s.Op)
}

// Trace is the sequence of reductions performed while evaluating an
// expression, in the order they happened. The arguments of a log call are
// reduced before the call itself.
type Trace []Step

// String formats the trace in postfix notation, e.g. "3 4 * 2 12 +" for
// "2+3*4".
func (t Trace) String() string {
	var b strings.Builder
	for i, s := range t {
		if i > 0 {
			b.WriteByte(' ')
		}
		s.fmt(&b)
	}
	return b.String()
}
