package calc

import (
	"strconv"
)

// Result is the outcome of a successful evaluation.
type Result struct {
	// Value is the value of the expression.
	Value float64
	// Trace is the sequence of reductions which produced Value.
	Trace Trace
}

// Evaluate evaluates an expression. Whitespace in src is ignored. If the
// expression is invalid or any operation in it is outside its domain, the
// result is the zero Result and the error implements InputError.
//
// Evaluate keeps no state between calls and is safe to call concurrently.
func Evaluate(src string, opts ...Option) (Result, error) {
	var o evalopts
	for _, opt := range opts {
		if opt != nil {
			opt.evalOption(&o)
		}
	}
	expr := StripSpace(src)
	r, err := evaluate(expr)
	o.report(expr, r, err)
	return r, err
}

// EvalString is a shortcut to evaluate an expression and return only its
// value.
func EvalString(src string, opts ...Option) (float64, error) {
	r, err := Evaluate(src, opts...)
	return r.Value, err
}

func evaluate(expr string) (Result, error) {
	if err := checkBrackets(expr); err != nil {
		return Result{}, err
	}
	v, t, err := evalRange(expr, 0, len(expr))
	if err != nil {
		return Result{}, err
	}
	return Result{Value: v, Trace: t}, nil
}

// evaluator holds the stacks for evaluating one range of an expression.
type evaluator struct {
	src   string
	vals  []float64
	ops   []pendingOp
	trace Trace
}

// evalRange evaluates the byte range [start, end) of a stripped expression
// with fresh stacks. Function arguments are evaluated by recursive calls, and
// their traces are appended to the caller's.
func evalRange(src string, start, end int) (float64, Trace, error) {
	ev := evaluator{src: src}
	scan := lex(src, start, end)
	for {
		tok, err := scan.next()
		if err != nil {
			return 0, nil, err
		}
		switch tok.kind {
		case tokenEOF:
			for len(ev.ops) > 0 {
				if err := ev.reduce(); err != nil {
					return 0, nil, err
				}
			}
			if len(ev.vals) != 1 {
				return 0, nil, &OperandError{Col: col(src, end), Have: len(ev.vals)}
			}
			return ev.vals[0], ev.trace, nil
		case tokenNum:
			x, err := strconv.ParseFloat(tok.text, 64)
			if err != nil {
				return 0, nil, &NumberError{Col: col(src, tok.pos), Text: tok.text, Err: err}
			}
			ev.vals = append(ev.vals, x)
		case tokenOpen:
			ev.ops = append(ev.ops, pendingOp{op: '(', pos: tok.pos})
		case tokenClose:
			if err := ev.group(tok.pos); err != nil {
				return 0, nil, err
			}
		case tokenOp:
			op := tok.text[0]
			for len(ev.ops) > 0 && hasPrecedence(op, ev.ops[len(ev.ops)-1].op) {
				if err := ev.reduce(); err != nil {
					return 0, nil, err
				}
			}
			ev.ops = append(ev.ops, pendingOp{op: op, pos: tok.pos})
		case tokenFunc:
			x, err := ev.call(scan, tok)
			if err != nil {
				return 0, nil, err
			}
			ev.vals = append(ev.vals, x)
		default:
			panic("calc: unknown token: " + tok.String())
		}
	}
}

// group applies operators down to the innermost open parenthesis and
// discards it.
func (ev *evaluator) group(pos int) error {
	for {
		if len(ev.ops) == 0 {
			return &BracketError{Col: col(ev.src, pos)}
		}
		if ev.ops[len(ev.ops)-1].op == '(' {
			ev.ops = ev.ops[:len(ev.ops)-1]
			return nil
		}
		if err := ev.reduce(); err != nil {
			return err
		}
	}
}

// reduce pops the top operator and applies it to the top two values.
func (ev *evaluator) reduce() error {
	op := ev.ops[len(ev.ops)-1]
	ev.ops = ev.ops[:len(ev.ops)-1]
	if op.op == '(' {
		return &BracketError{Col: col(ev.src, op.pos), Open: true}
	}
	if len(ev.vals) < 2 {
		return &OperandError{Col: col(ev.src, op.pos), Operator: string(op.op), Have: len(ev.vals)}
	}
	b := ev.vals[len(ev.vals)-1]
	a := ev.vals[len(ev.vals)-2]
	ev.vals = ev.vals[:len(ev.vals)-2]
	r, err := ev.apply(op, b, a)
	if err != nil {
		return err
	}
	ev.vals = append(ev.vals, r)
	ev.trace = append(ev.trace, Step{Left: a, Right: b, Op: string(op.op)})
	return nil
}

// apply computes a op b. Note the argument order: b is the top of the stack.
func (ev *evaluator) apply(op pendingOp, b, a float64) (float64, error) {
	switch op.op {
	case '+':
		return a + b, nil
	case '-':
		return a - b, nil
	case '*':
		return a * b, nil
	case '/':
		if b == 0 {
			return 0, &DomainError{Col: col(ev.src, op.pos), X: b, Arg: 2, Func: "/"}
		}
		return a / b, nil
	default:
		panic("calc: invalid operator " + strconv.QuoteRune(rune(op.op)))
	}
}

// call evaluates a log call whose name is tok.
func (ev *evaluator) call(scan *lexer, tok lexToken) (float64, error) {
	span, err := scan.call(tok)
	if err != nil {
		return 0, err
	}
	base, bt, err := evalRange(ev.src, span.base[0], span.base[1])
	if err != nil {
		return 0, err
	}
	x, xt, err := evalRange(ev.src, span.value[0], span.value[1])
	if err != nil {
		return 0, err
	}
	ev.trace = append(ev.trace, bt...)
	ev.trace = append(ev.trace, xt...)
	if base <= 0 {
		return 0, &DomainError{Col: col(ev.src, tok.pos), X: base, Arg: 1, Func: tok.text}
	}
	if x <= 0 {
		return 0, &DomainError{Col: col(ev.src, tok.pos), X: x, Arg: 2, Func: tok.text}
	}
	ev.trace = append(ev.trace, Step{Left: base, Right: x, Op: tok.text})
	return logBase(base, x), nil
}
