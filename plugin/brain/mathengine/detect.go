package mathengine

import (
	"regexp"
	"strings"
)

var (
	digitPattern = regexp.MustCompile(`\d`)
	cuePattern   = regexp.MustCompile(`\b(calculate|compute|solve|evaluate|plus|minus|times|multiply|multiplied|divide|divided|sum|product|equation|math|arithmetic|squared|cubed)\b`)
	// An operator between two operands. A sign glued to a word ("covid-19") or
	// a lone number ("-19") does not count.
	binaryPattern = regexp.MustCompile(`[0-9.)]\s*[+\-*/^]\s*[-+]?\s*[0-9.(]`)
	// As above, plus "=" and a coefficient-variable left operand ("2x+4=10").
	relationPattern = regexp.MustCompile(`(?:[0-9.)]|\d[a-z])\s*[+\-*/^=]\s*[-+]?\s*[0-9.(]`)
	isoDatePattern  = regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`)
)

// IsLikelyMathMessage reports whether a message looks like a calculation request:
// a digit plus either an operator joining two operands or a math cue word.
func IsLikelyMathMessage(message string) bool {
	rewritten := rewriteWordOperators(message)
	if !digitPattern.MatchString(rewritten) {
		return false
	}
	return relationPattern.MatchString(rewritten) || cuePattern.MatchString(strings.ToLower(message))
}

// HasBinaryOperator reports whether expr applies an operator to two operands.
func HasBinaryOperator(expr string) bool {
	return binaryPattern.MatchString(expr)
}

// wordOperators rewrites spoken operators into symbols, longest phrases first.
var wordOperators = []struct {
	pattern *regexp.Regexp
	symbol  string
}{
	{regexp.MustCompile(`\bto the power of\b`), "^"},
	{regexp.MustCompile(`\bmultiplied by\b`), "*"},
	{regexp.MustCompile(`\bdivided by\b`), "/"},
	{regexp.MustCompile(`\bsquared\b`), "^2"},
	{regexp.MustCompile(`\bcubed\b`), "^3"},
	{regexp.MustCompile(`\bplus\b`), "+"},
	{regexp.MustCompile(`\bminus\b`), "-"},
	{regexp.MustCompile(`\btimes\b`), "*"},
	{regexp.MustCompile(`\bover\b`), "/"},
}

var letterTimes = regexp.MustCompile(`(\d)\s*x\s*(\d)`)

func rewriteWordOperators(message string) string {
	out := strings.ToLower(message)
	out = isoDatePattern.ReplaceAllString(out, " ")
	out = strings.NewReplacer("×", "*", "÷", "/", "−", "-").Replace(out)
	out = letterTimes.ReplaceAllString(out, "$1*$2")
	for _, w := range wordOperators {
		out = w.pattern.ReplaceAllString(out, w.symbol)
	}
	return out
}

var runPattern = regexp.MustCompile(`[0-9.+\-*/^()\s]+`)

// ExtractExpression returns the longest run of digits, operators and parentheses containing a digit.
func ExtractExpression(message string) string {
	best := ""
	for _, run := range runPattern.FindAllString(rewriteWordOperators(message), -1) {
		run = strings.TrimSpace(run)
		if !digitPattern.MatchString(run) {
			continue
		}
		if len(run) > len(best) {
			best = run
		}
	}
	return best
}
