package mathengine

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code identifies why an expression could not be evaluated.
type Code string

const (
	CodeInvalidNumber         Code = "invalid_number"
	CodeInvalidCharacter      Code = "invalid_character"
	CodeMismatchedParentheses Code = "mismatched_parentheses"
	CodeDivisionByZero        Code = "division_by_zero"
	CodeResultOutOfRange      Code = "result_out_of_range"
	CodeInvalidExpression     Code = "invalid_expression"
)

// ErrNoExpression is returned by Solve when a message contains nothing to evaluate.
var ErrNoExpression = errors.New("no math expression found")

// Error is a typed evaluation failure.
type Error struct {
	Code   Code
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Detail)
	}
	return string(e.Code)
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the evaluation code from err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	var mathErr *Error
	if errors.As(err, &mathErr) {
		return mathErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// Apology returns the user-facing sentence for a failed evaluation.
func Apology(code Code) string {
	switch code {
	case CodeDivisionByZero:
		return "I can't divide by zero, so that expression has no answer."
	case CodeMismatchedParentheses:
		return "The parentheses in that expression don't match up. Could you check them?"
	case CodeInvalidNumber:
		return "One of the numbers in that expression doesn't look valid to me."
	case CodeInvalidCharacter:
		return "That expression has a character I don't know how to calculate with."
	case CodeResultOutOfRange:
		return "Sorry, the result is too large for me to calculate reliably."
	default:
		return "Sorry, I couldn't make sense of that expression."
	}
}
