// Package mathengine evaluates arithmetic expressions with a shunting-yard parser and
// solves single-variable linear equations of the form ax+b=c.
package mathengine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxMagnitude bounds every accepted result.
const MaxMagnitude = 1e12

// TokenKind classifies expression tokens.
type TokenKind int

const (
	TokenNumber TokenKind = iota
	TokenOperator
	TokenLeftParen
	TokenRightParen
)

// Token is one lexical element of an expression.
type Token struct {
	Kind  TokenKind
	Text  string
	Value float64
}

// unaryMinus is the operator text for negation.
const unaryMinus = "neg"

type operatorInfo struct {
	precedence int
	rightAssoc bool
	arity      int
}

var operators = map[string]operatorInfo{
	"+":        {precedence: 1, arity: 2},
	"-":        {precedence: 1, arity: 2},
	"*":        {precedence: 2, arity: 2},
	"/":        {precedence: 2, arity: 2},
	"^":        {precedence: 3, rightAssoc: true, arity: 2},
	unaryMinus: {precedence: 3, rightAssoc: true, arity: 1},
}

// Tokenize splits an expression into numbers, operators and parentheses.
func Tokenize(expr string) ([]Token, error) {
	var tokens []Token
	runes := []rune(expr)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t':
			i++
		case (r >= '0' && r <= '9') || r == '.':
			start := i
			for i < len(runes) && ((runes[i] >= '0' && runes[i] <= '9') || runes[i] == '.') {
				i++
			}
			literal := string(runes[start:i])
			value, err := strconv.ParseFloat(literal, 64)
			if err != nil || strings.Count(literal, ".") > 1 || math.IsInf(value, 0) {
				return nil, newError(CodeInvalidNumber, "invalid number %q", literal)
			}
			tokens = append(tokens, Token{Kind: TokenNumber, Text: literal, Value: value})
		case r == '(':
			tokens = append(tokens, Token{Kind: TokenLeftParen, Text: "("})
			i++
		case r == ')':
			tokens = append(tokens, Token{Kind: TokenRightParen, Text: ")"})
			i++
		case strings.ContainsRune("+-*/^", r):
			op := string(r)
			if isUnaryPosition(tokens) {
				if r == '+' {
					i++
					continue
				}
				if r == '-' {
					op = unaryMinus
				}
			}
			tokens = append(tokens, Token{Kind: TokenOperator, Text: op})
			i++
		default:
			return nil, newError(CodeInvalidCharacter, "unexpected character %q", string(r))
		}
	}
	return tokens, nil
}

// isUnaryPosition reports whether an operator at this point has no left operand.
func isUnaryPosition(prev []Token) bool {
	if len(prev) == 0 {
		return true
	}
	last := prev[len(prev)-1]
	return last.Kind == TokenOperator || last.Kind == TokenLeftParen
}

// ToPostfix converts infix tokens to reverse Polish notation with the shunting-yard algorithm.
func ToPostfix(tokens []Token) ([]Token, error) {
	var output, stack []Token
	for _, tok := range tokens {
		switch tok.Kind {
		case TokenNumber:
			output = append(output, tok)
		case TokenOperator:
			info := operators[tok.Text]
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.Kind != TokenOperator {
					break
				}
				topInfo := operators[top.Text]
				if info.arity == 1 {
					break
				}
				if topInfo.precedence > info.precedence || (topInfo.precedence == info.precedence && !info.rightAssoc) {
					output = append(output, top)
					stack = stack[:len(stack)-1]
					continue
				}
				break
			}
			stack = append(stack, tok)
		case TokenLeftParen:
			stack = append(stack, tok)
		case TokenRightParen:
			matched := false
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.Kind == TokenLeftParen {
					matched = true
					break
				}
				output = append(output, top)
			}
			if !matched {
				return nil, newError(CodeMismatchedParentheses, "unexpected ')'")
			}
		}
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.Kind == TokenLeftParen {
			return nil, newError(CodeMismatchedParentheses, "unclosed '('")
		}
		output = append(output, top)
	}
	return output, nil
}

// EvaluatePostfix evaluates RPN tokens and records one step per applied operator.
func EvaluatePostfix(postfix []Token) (float64, []string, error) {
	var stack []float64
	var steps []string
	for _, tok := range postfix {
		if tok.Kind == TokenNumber {
			stack = append(stack, tok.Value)
			continue
		}
		info, ok := operators[tok.Text]
		if !ok || len(stack) < info.arity {
			return 0, nil, newError(CodeInvalidExpression, "operator %q is missing operands", tok.Text)
		}
		if info.arity == 1 {
			v := stack[len(stack)-1]
			stack[len(stack)-1] = -v
			continue
		}
		a, b := stack[len(stack)-2], stack[len(stack)-1]
		stack = stack[:len(stack)-2]
		var result float64
		switch tok.Text {
		case "+":
			result = a + b
		case "-":
			result = a - b
		case "*":
			result = a * b
		case "/":
			if b == 0 {
				return 0, nil, newError(CodeDivisionByZero, "%s / 0", FormatNumber(a))
			}
			result = a / b
		case "^":
			result = math.Pow(a, b)
		}
		steps = append(steps, fmt.Sprintf("%s %s %s = %s", FormatNumber(a), tok.Text, FormatNumber(b), FormatNumber(result)))
		stack = append(stack, result)
	}
	if len(stack) != 1 {
		return 0, nil, newError(CodeInvalidExpression, "expression leaves %d values", len(stack))
	}
	result := stack[0]
	if math.IsNaN(result) || math.IsInf(result, 0) || math.Abs(result) > MaxMagnitude {
		return 0, nil, newError(CodeResultOutOfRange, "result exceeds %g", MaxMagnitude)
	}
	return result, steps, nil
}

// Evaluate computes the value of an arithmetic expression.
func Evaluate(expr string) (float64, error) {
	sol, err := evaluateExpression(expr)
	if err != nil {
		return 0, err
	}
	return sol.Result, nil
}

func evaluateExpression(expr string) (*Solution, error) {
	tokens, err := Tokenize(expr)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, newError(CodeInvalidExpression, "empty expression")
	}
	postfix, err := ToPostfix(tokens)
	if err != nil {
		return nil, err
	}
	result, steps, err := EvaluatePostfix(postfix)
	if err != nil {
		return nil, err
	}
	return &Solution{
		Kind:       KindArithmetic,
		Expression: strings.TrimSpace(expr),
		Result:     result,
		Postfix:    postfixText(postfix),
		Steps:      steps,
	}, nil
}

func postfixText(postfix []Token) string {
	parts := make([]string, len(postfix))
	for i, tok := range postfix {
		if tok.Text == unaryMinus {
			parts[i] = "neg"
			continue
		}
		parts[i] = tok.Text
	}
	return strings.Join(parts, " ")
}

// FormatNumber renders a float without trailing zeros, rounded to ten decimals.
func FormatNumber(v float64) string {
	rounded := math.Round(v*1e10) / 1e10
	if rounded == 0 {
		rounded = 0
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}
