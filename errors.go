package calc

import (
	"errors"
	"strconv"
)

// Kind classifies evaluation errors.
type Kind int8

const (
	// KindNone is the kind of a nil error or an error that did not come from
	// evaluation.
	KindNone Kind = iota
	// InvalidExpression is an empty expression, unbalanced parentheses, an
	// unrecognized character, or operators without operands.
	InvalidExpression
	// MalformedNumber is a numeric literal that does not parse as a float.
	MalformedNumber
	// MalformedLog is a log call without exactly two non-empty arguments in
	// parentheses.
	MalformedLog
	// DivisionByZero is a division whose right operand is exactly zero.
	DivisionByZero
	// InvalidLogDomain is a log call with a non-positive base or value.
	InvalidLogDomain
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case InvalidExpression:
		return "invalid expression"
	case MalformedNumber:
		return "malformed number"
	case MalformedLog:
		return "malformed log"
	case DivisionByZero:
		return "division by zero"
	case InvalidLogDomain:
		return "invalid log domain"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// KindOf returns the kind of the first InputError in err's chain, or KindNone
// if there is none.
func KindOf(err error) Kind {
	var e InputError
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindNone
}

// EmptyExpressionError is an error indicating an expression with no
// characters other than whitespace. It implements InputError.
type EmptyExpressionError struct{}

func (err *EmptyExpressionError) Error() string {
	return errpos(1, "no expression")
}

func (err *EmptyExpressionError) Pos() int {
	return 1
}

func (err *EmptyExpressionError) Kind() Kind {
	return InvalidExpression
}

// BracketError is an error indicating unbalanced parentheses. It implements
// InputError.
type BracketError struct {
	// Col is the position of the unmatched close parenthesis, or the position
	// just past the end of the expression if an open parenthesis is not
	// closed.
	Col int
	// Open is true if an open parenthesis is unmatched.
	Open bool
}

func (err *BracketError) Error() string {
	if err.Open {
		return errpos(err.Col, "open bracket ( with no close bracket")
	}
	return errpos(err.Col, "close bracket ) with no open bracket")
}

func (err *BracketError) Pos() int {
	return err.Col
}

func (err *BracketError) Kind() Kind {
	return InvalidExpression
}

// TokenError is an error indicating a character that cannot begin any token.
// It implements InputError.
type TokenError struct {
	// Col is the position of the character.
	Col int
	// Text is the character.
	Text string
}

func (err *TokenError) Error() string {
	return errpos(err.Col, "invalid token "+strconv.Quote(err.Text))
}

func (err *TokenError) Pos() int {
	return err.Col
}

func (err *TokenError) Kind() Kind {
	return InvalidExpression
}

// OperandError is an error indicating an operator without enough operands,
// or operands without an operator joining them. It implements InputError.
type OperandError struct {
	// Col is the position of the operator, or the end of the subexpression if
	// values remain unjoined.
	Col int
	// Operator is the operator missing operands. It is empty if the error is
	// instead that values were left over.
	Operator string
	// Have is the number of values that were available.
	Have int
}

func (err *OperandError) Error() string {
	if err.Operator == "" {
		if err.Have == 0 {
			return errpos(err.Col, "missing value")
		}
		return errpos(err.Col, strconv.Itoa(err.Have)+" values without operators")
	}
	return errpos(err.Col, "operator "+err.Operator+" needs 2 operands, have "+strconv.Itoa(err.Have))
}

func (err *OperandError) Pos() int {
	return err.Col
}

func (err *OperandError) Kind() Kind {
	return InvalidExpression
}

// NumberError is an error indicating a numeric literal which cannot be parsed.
// It implements InputError and unwraps to the error from strconv.
type NumberError struct {
	// Col is the position of the literal.
	Col int
	// Text is the literal.
	Text string
	// Err is the parse error.
	Err error
}

func (err *NumberError) Error() string {
	return errpos(err.Col, "invalid number "+strconv.Quote(err.Text))
}

func (err *NumberError) Unwrap() error {
	return err.Err
}

func (err *NumberError) Pos() int {
	return err.Col
}

func (err *NumberError) Kind() Kind {
	return MalformedNumber
}

// CallError is an error indicating a log call that does not have exactly two
// non-empty arguments in parentheses. It implements InputError.
type CallError struct {
	// Col is the position of the problem within the call.
	Col int
	// Func is the name of the called function.
	Func string
	// Reason describes the problem.
	Reason string
}

func (err *CallError) Error() string {
	return errpos(err.Col, "bad call to "+err.Func+": "+err.Reason)
}

func (err *CallError) Pos() int {
	return err.Col
}

func (err *CallError) Kind() Kind {
	return MalformedLog
}

// DomainError is an error returned when an operator or function is applied to
// an argument outside its domain. It implements InputError.
type DomainError struct {
	// Col is the position of the operator or function name.
	Col int
	// X is the out-of-domain argument.
	X float64
	// Arg is the 1-based index of the argument.
	Arg int
	// Func is "/" for division by zero and "log" for logarithms.
	Func string
}

func (err *DomainError) Error() string {
	if err.Func == "/" {
		return errpos(err.Col, "division by zero")
	}
	r := strconv.FormatFloat(err.X, 'g', -1, 64) + " outside domain"
	if err.Func != "" {
		r += " of " + err.Func
	}
	if err.Arg > 0 {
		r += " (argument " + strconv.Itoa(err.Arg) + ")"
	}
	return errpos(err.Col, r)
}

func (err *DomainError) Pos() int {
	return err.Col
}

func (err *DomainError) Kind() Kind {
	if err.Func == "/" {
		return DivisionByZero
	}
	return InvalidLogDomain
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// InputError is an error with position information. Every error resulting from
// evaluation implements InputError.
type InputError interface {
	error
	// Pos returns the 1-based rune column of the error in the expression with
	// whitespace removed.
	Pos() int
	// Kind classifies the error.
	Kind() Kind
}

var (
	_ InputError = (*EmptyExpressionError)(nil)
	_ InputError = (*BracketError)(nil)
	_ InputError = (*TokenError)(nil)
	_ InputError = (*OperandError)(nil)
	_ InputError = (*NumberError)(nil)
	_ InputError = (*CallError)(nil)
	_ InputError = (*DomainError)(nil)
)
