package calc

import "math"

// callSpan locates the argument list of a function call in the expression.
type callSpan struct {
	// base and value are the [start, end) byte ranges of the two arguments.
	base, value [2]int
}

// call scans the argument list of the function named by tok, which must be
// the token most recently returned by next. The lexer is left just past the
// closing parenthesis of the call.
//
// The arguments are separated by the only comma at parenthesis depth one.
// Commas nested in deeper parentheses belong to the arguments themselves.
func (l *lexer) call(tok lexToken) (callSpan, error) {
	open := tok.pos + len(tok.text)
	if open >= l.end || l.src[open] != '(' {
		return callSpan{}, l.callError(open, tok.text, "missing (")
	}
	depth, comma, rparen := 0, -1, -1
scan:
	for j := open; j < l.end; j++ {
		switch l.src[j] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				rparen = j
				break scan
			}
		case ',':
			if depth != 1 {
				continue
			}
			if comma >= 0 {
				return callSpan{}, l.callError(j, tok.text, "too many arguments")
			}
			comma = j
		}
	}
	switch {
	case rparen < 0:
		return callSpan{}, l.callError(l.end, tok.text, "missing )")
	case comma < 0:
		return callSpan{}, l.callError(rparen, tok.text, "need 2 arguments")
	case comma == open+1:
		return callSpan{}, l.callError(comma, tok.text, "empty first argument")
	case rparen == comma+1:
		return callSpan{}, l.callError(rparen, tok.text, "empty second argument")
	}
	l.pos = rparen + 1
	l.prev = tokenFunc
	return callSpan{base: [2]int{open + 1, comma}, value: [2]int{comma + 1, rparen}}, nil
}

func (l *lexer) callError(pos int, name, reason string) error {
	return &CallError{Col: col(l.src, pos), Func: name, Reason: reason}
}

// logBase computes the logarithm of x in the given base. Both arguments must
// be positive; a base of 1 gives an infinity or NaN.
func logBase(base, x float64) float64 {
	return math.Log(x) / math.Log(base)
}
