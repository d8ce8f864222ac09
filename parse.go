package calc

// checkBrackets verifies that src is non-empty and that its parentheses are
// balanced: the nesting depth never goes negative and ends at zero.
func checkBrackets(src string) error {
	if src == "" {
		return &EmptyExpressionError{}
	}
	depth := 0
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return &BracketError{Col: col(src, i)}
			}
		}
	}
	if depth != 0 {
		return &BracketError{Col: col(src, len(src)), Open: true}
	}
	return nil
}

// pendingOp is an entry on the operator stack.
type pendingOp struct {
	// op is one of Operators or '('.
	op byte
	// pos is the byte offset of the operator in the expression.
	pos int
}

// hasPrecedence reports whether op2, on top of the operator stack, must be
// applied before op1 is pushed. Multiplication and division never force a
// pending addition or subtraction; every other pair of operators reduces
// eagerly, which makes operators of equal precedence left-associative.
func hasPrecedence(op1, op2 byte) bool {
	if op2 == '(' || op2 == ')' {
		return false
	}
	return !((op1 == '*' || op1 == '/') && (op2 == '+' || op2 == '-'))
}
