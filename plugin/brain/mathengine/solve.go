package mathengine

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind distinguishes the two solving paths.
type Kind string

const (
	KindArithmetic Kind = "arithmetic"
	KindEquation   Kind = "equation"
)

// Solution is a successful evaluation together with its working.
type Solution struct {
	Kind       Kind     `json:"kind"`
	Expression string   `json:"expression"`
	Variable   string   `json:"variable,omitempty"`
	Result     float64  `json:"result"`
	Postfix    string   `json:"postfix,omitempty"`
	Steps      []string `json:"steps,omitempty"`
}

// Answer renders the solution as a reply sentence.
func (s *Solution) Answer() string {
	if s.Kind == KindEquation {
		return fmt.Sprintf("%s = %s", s.Variable, FormatNumber(s.Result))
	}
	return fmt.Sprintf("%s = %s", s.Expression, FormatNumber(s.Result))
}

var (
	equationPattern = regexp.MustCompile(`(?:^|[^a-z])([+-]?\d*\.?\d*)\*?([a-z])([+-]\d*\.?\d+)?=([+-]?\d*\.?\d+)`)
	operatorSpacing = regexp.MustCompile(`\s*([+\-*/=^])\s*`)
	coefficientGap  = regexp.MustCompile(`(\d)\s+([a-z])\b`)
)

// SolveLinear solves ax+b=c found anywhere in message.
// ok is false when the message holds no equation of that shape.
func SolveLinear(message string) (sol *Solution, ok bool, err error) {
	compact := operatorSpacing.ReplaceAllString(rewriteWordOperators(message), "$1")
	compact = coefficientGap.ReplaceAllString(compact, "$1$2")
	m := equationPattern.FindStringSubmatch(compact)
	if m == nil {
		return nil, false, nil
	}

	a, err := parseCoefficient(m[1])
	if err != nil {
		return nil, true, err
	}
	b := 0.0
	if m[3] != "" {
		if b, err = parseOperand(m[3]); err != nil {
			return nil, true, err
		}
	}
	c, err := parseOperand(m[4])
	if err != nil {
		return nil, true, err
	}
	if a == 0 {
		return nil, true, newError(CodeInvalidExpression, "coefficient of %s is zero", m[2])
	}

	x := (c - b) / a
	if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) > MaxMagnitude {
		return nil, true, newError(CodeResultOutOfRange, "solution exceeds %g", MaxMagnitude)
	}

	variable := m[2]
	rhs := c - b
	steps := []string{}
	if b != 0 {
		verb, amount := "Subtract", b
		if b < 0 {
			verb, amount = "Add", -b
		}
		steps = append(steps, fmt.Sprintf("%s %s %s both sides: %s%s = %s", verb, FormatNumber(amount), preposition(verb), coefficientText(a), variable, FormatNumber(rhs)))
	}
	if a != 1 {
		steps = append(steps, fmt.Sprintf("Divide both sides by %s: %s = %s", FormatNumber(a), variable, FormatNumber(x)))
	}

	return &Solution{
		Kind:       KindEquation,
		Expression: strings.TrimLeft(m[0], " ,:;(\t"),
		Variable:   variable,
		Result:     x,
		Steps:      steps,
	}, true, nil
}

func preposition(verb string) string {
	if verb == "Add" {
		return "to"
	}
	return "from"
}

func coefficientText(a float64) string {
	switch a {
	case 1:
		return ""
	case -1:
		return "-"
	}
	return FormatNumber(a)
}

func parseCoefficient(s string) (float64, error) {
	switch s {
	case "", "+":
		return 1, nil
	case "-":
		return -1, nil
	}
	return parseOperand(s)
}

func parseOperand(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, newError(CodeInvalidNumber, "invalid operand %q", s)
	}
	return v, nil
}

// Solve tries the linear-equation path first and falls back to general arithmetic.
// It returns ErrNoExpression when the message contains nothing to evaluate,
// including a bare number with no operator joining it to another operand.
func Solve(message string) (*Solution, error) {
	if sol, ok, err := SolveLinear(message); ok {
		return sol, err
	}
	expr := ExtractExpression(message)
	if expr == "" || !HasBinaryOperator(expr) {
		return nil, ErrNoExpression
	}
	return evaluateExpression(expr)
}
