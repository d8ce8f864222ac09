package calc

import (
	"testing"
)

func TestLex(t *testing.T) {
	cases := []struct {
		src    string
		tokens []lexToken
		errs   int
	}{
		{"", nil, 0},
		// numbers
		{"0", []lexToken{{text: "0", kind: tokenNum, pos: 0}}, 0},
		{"9876543210", []lexToken{{text: "9876543210", kind: tokenNum, pos: 0}}, 0},
		{"1.0", []lexToken{{text: "1.0", kind: tokenNum, pos: 0}}, 0},
		{".1", []lexToken{{text: ".1", kind: tokenNum, pos: 0}}, 0},
		{"1.1.1", []lexToken{{text: "1.1.1", kind: tokenNum, pos: 0}}, 0},
		{"-1", []lexToken{{text: "-1", kind: tokenNum, pos: 0}}, 0},
		{"-", []lexToken{{text: "-", kind: tokenNum, pos: 0}}, 0},
		// operators
		{"1+0", []lexToken{{text: "1", kind: tokenNum, pos: 0}, {text: "+", kind: tokenOp, pos: 1}, {text: "0", kind: tokenNum, pos: 2}}, 0},
		{"1-0", []lexToken{{text: "1", kind: tokenNum, pos: 0}, {text: "-", kind: tokenOp, pos: 1}, {text: "0", kind: tokenNum, pos: 2}}, 0},
		{"1--0", []lexToken{{text: "1", kind: tokenNum, pos: 0}, {text: "-", kind: tokenOp, pos: 1}, {text: "-0", kind: tokenNum, pos: 2}}, 0},
		{"1*-2/-3", []lexToken{
			{text: "1", kind: tokenNum, pos: 0},
			{text: "*", kind: tokenOp, pos: 1},
			{text: "-2", kind: tokenNum, pos: 2},
			{text: "/", kind: tokenOp, pos: 4},
			{text: "-3", kind: tokenNum, pos: 5},
		}, 0},
		{"++", []lexToken{{text: "+", kind: tokenOp, pos: 0}, {text: "+", kind: tokenOp, pos: 1}}, 0},
		// brackets
		{"()", []lexToken{{text: "(", kind: tokenOpen, pos: 0}, {text: ")", kind: tokenClose, pos: 1}}, 0},
		{"(-1)-1", []lexToken{
			{text: "(", kind: tokenOpen, pos: 0},
			{text: "-1", kind: tokenNum, pos: 1},
			{text: ")", kind: tokenClose, pos: 3},
			{text: "-", kind: tokenOp, pos: 4},
			{text: "1", kind: tokenNum, pos: 5},
		}, 0},
		// functions
		{"log", []lexToken{{text: "log", kind: tokenFunc, pos: 0}}, 0},
		{"1+log", []lexToken{{text: "1", kind: tokenNum, pos: 0}, {text: "+", kind: tokenOp, pos: 1}, {text: "log", kind: tokenFunc, pos: 2}}, 0},
		// erroneous symbols
		{"$", []lexToken{{pos: 0}}, 1},
		{"lo", []lexToken{{pos: 0}}, 1},
		{"1,2", []lexToken{{text: "1", kind: tokenNum, pos: 0}, {pos: 1}}, 1},
		{"x", []lexToken{{pos: 0}}, 1},
	}

	for _, c := range cases {
		scan := lex(c.src, 0, len(c.src))
		for _, want := range c.tokens {
			got, err := scan.next()
			if err != nil {
				if c.errs > 0 {
					c.errs--
					if _, ok := err.(*TokenError); !ok {
						t.Errorf("scanning %q: want *TokenError, got %#v", c.src, err)
					}
					break
				}
				t.Errorf("scanning %q: unexpected error %v", c.src, err)
				break
			}
			if got != want {
				t.Errorf("scanning %q: want %v, got %v", c.src, want, got)
			}
		}
		if c.errs > 0 {
			t.Errorf("scanning %q: missing %d errors", c.src, c.errs)
			continue
		}
		if got, err := scan.next(); err == nil && got.kind != tokenEOF {
			t.Errorf("scanning %q: extra token %v", c.src, got)
		}
	}
}

func TestLexEOF(t *testing.T) {
	scan := lex("1+2", 2, 3)
	tok, err := scan.next()
	if err != nil || tok != (lexToken{text: "2", kind: tokenNum, pos: 2}) {
		t.Fatalf("want Num:2@2, got %v, %v", tok, err)
	}
	for i := 0; i < 3; i++ {
		tok, err := scan.next()
		if err != nil || tok.kind != tokenEOF || tok.pos != 3 {
			t.Errorf("want EOF@3, got %v, %v", tok, err)
		}
	}
}

func TestStripSpace(t *testing.T) {
	cases := []struct {
		src, want string
	}{
		{"", ""},
		{"  ", ""},
		{"1 + 2", "1+2"},
		{"\tlog( 2 ,\n8 )\r\n", "log(2,8)"},
		{"1 2 3", "123"},
	}
	for _, c := range cases {
		if got := StripSpace(c.src); got != c.want {
			t.Errorf("StripSpace(%q): want %q, got %q", c.src, c.want, got)
		}
	}
}

func TestCol(t *testing.T) {
	src := "2×3+a"
	cases := []struct {
		pos, col int
	}{
		{0, 1},
		{1, 2},
		{3, 3},
		{4, 4},
		{5, 5},
		{len(src), 6},
	}
	for _, c := range cases {
		if got := col(src, c.pos); got != c.col {
			t.Errorf("col(%q, %d): want %d, got %d", src, c.pos, c.col, got)
		}
	}
}
