package calc

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type lexToken struct {
	text string
	kind tokenKind
	// pos is the byte offset of the token in the stripped expression.
	pos int
}

func (t lexToken) String() string {
	return t.kind.String() + ":" + t.text + "@" + strconv.Itoa(t.pos)
}

type tokenKind int8

const (
	tokenNone tokenKind = iota
	// tokenEOF indicates the end of the scanned range.
	tokenEOF
	// tokenNum is a numeric literal, possibly with a leading minus sign.
	tokenNum
	// tokenOp is a binary operator.
	tokenOp
	// tokenOpen is an open parenthesis.
	tokenOpen
	// tokenClose is a close parenthesis.
	tokenClose
	// tokenFunc is the log function name. The lexer does not scan its
	// argument list; see (*lexer).call.
	tokenFunc
)

func (k tokenKind) String() string {
	switch k {
	case tokenNone:
		return "None"
	case tokenEOF:
		return "EOF"
	case tokenNum:
		return "Num"
	case tokenOp:
		return "Op"
	case tokenOpen:
		return "Open"
	case tokenClose:
		return "Close"
	case tokenFunc:
		return "Func"
	default:
		return "tokenKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Operators contains the binary operators.
const Operators = "+-*/"

// funcLog is the name of the only function.
const funcLog = "log"

// StripSpace returns src with all whitespace removed. Evaluation always
// operates on the stripped form of an expression, and error positions count
// runes in it.
func StripSpace(src string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, src)
}

// lexer scans tokens from the byte range [pos, end) of a stripped expression.
type lexer struct {
	src  string
	pos  int
	end  int
	prev tokenKind
}

func lex(src string, start, end int) *lexer {
	return &lexer{src: src, pos: start, end: end}
}

// unary reports whether a minus sign at the current position is part of a
// number rather than a subtraction.
func (l *lexer) unary() bool {
	switch l.prev {
	case tokenNone, tokenOpen, tokenOp:
		return true
	}
	return false
}

// next scans the next token. Once the range is exhausted, every call returns
// an EOF token positioned at the end of the range.
func (l *lexer) next() (lexToken, error) {
	if l.pos >= l.end {
		return lexToken{kind: tokenEOF, pos: l.end}, nil
	}
	tok := lexToken{pos: l.pos}
	c := l.src[l.pos]
	switch {
	case isNumByte(c):
		tok.text = l.scanNum(l.pos)
		tok.kind = tokenNum
	case c == '-' && l.unary():
		tok.text = l.scanNum(l.pos + 1)
		tok.kind = tokenNum
	case strings.IndexByte(Operators, c) >= 0:
		tok.text = l.src[l.pos : l.pos+1]
		tok.kind = tokenOp
		l.pos++
	case c == '(':
		tok.text = "("
		tok.kind = tokenOpen
		l.pos++
	case c == ')':
		tok.text = ")"
		tok.kind = tokenClose
		l.pos++
	case strings.HasPrefix(l.src[l.pos:l.end], funcLog):
		tok.text = funcLog
		tok.kind = tokenFunc
		l.pos += len(funcLog)
	default:
		r, _ := utf8.DecodeRuneInString(l.src[l.pos:l.end])
		return tok, &TokenError{Col: col(l.src, l.pos), Text: string(r)}
	}
	l.prev = tok.kind
	return tok, nil
}

// scanNum consumes the run of digits and decimal points beginning at from and
// returns the text from the current position to the end of the run. The text
// is not checked for validity.
func (l *lexer) scanNum(from int) string {
	j := from
	for j < l.end && isNumByte(l.src[j]) {
		j++
	}
	s := l.src[l.pos:j]
	l.pos = j
	return s
}

func isNumByte(c byte) bool {
	return '0' <= c && c <= '9' || c == '.'
}

// col converts a byte offset in src to a 1-based rune column.
func col(src string, pos int) int {
	return utf8.RuneCountInString(src[:pos]) + 1
}
