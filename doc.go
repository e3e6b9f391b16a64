// Package calc implements an interactive arbitrary-precision calculator with
// variables and user-defined functions.
//
// Each line is either an expression, which produces a number, or a function
// definition:
//
//	x = 2 * (y = 3)
//	avg a b => (a + b) / 2
//	avg x y
//
// Assignment is only recognized directly after a bare name, and its value
// extends as far right as possible, so "2 + a = 10" assigns 10 to a and
// produces 12. A name followed by operands is a call; arguments are taken
// greedily, so write "f (-1)" rather than "f -1", which is a subtraction.
//
// Functions are inlined when they are defined: a definition that calls other
// functions stores a copy of their bodies, so redefining a function later
// never changes the ones defined before. Variables and functions live in
// separate namespaces.
//
// Evaluation is atomic per line. If any part of a line fails, assignments
// made earlier in the same line are discarded.
package calc
