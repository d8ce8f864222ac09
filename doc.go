// Package calc implements a double-precision arithmetic expression evaluator.
//
// Expressions are made of numbers, the binary operators + - * /, parentheses,
// and the two-argument function log(base, value). Whitespace is ignored
// anywhere, so "2 + 3" and "2+3" are the same expression, and so are "1 2"
// and "12". A minus sign at the start of an expression, after an open
// parenthesis, or after another operator belongs to the number that follows
// it: "2*-3" is -6, while "-(3)" is an error.
//
// Evaluation reduces operators on a value stack as they are scanned. Each
// reduction is recorded in a Trace, which renders as the postfix form of the
// evaluated expression.
//
package calc
