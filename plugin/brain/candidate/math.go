package candidate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/thenoname-gurl/Brain/plugin/brain/mathengine"
	"github.com/thenoname-gurl/Brain/plugin/brain/source"
	"github.com/thenoname-gurl/Brain/store"
)

// Math solves the message as an equation or arithmetic expression. Evaluation
// failures become a low-confidence apology instead of an error.
func Math(in Input) *Candidate {
	if !mathengine.IsLikelyMathMessage(in.Message) {
		return nil
	}
	sol, err := mathengine.Solve(in.Message)
	if errors.Is(err, mathengine.ErrNoExpression) {
		return nil
	}
	if err != nil {
		code := mathengine.CodeOf(err)
		return &Candidate{
			Text:      mathengine.Apology(code),
			Source:    source.MathError,
			BaseScore: 0.3,
			Meta:      MathMeta{Code: code},
		}
	}
	return &Candidate{
		Text:      sol.Answer(),
		Source:    source.Math,
		BaseScore: 0.93,
		Meta:      MathMeta{Solution: ToMathMeta(sol)},
	}
}

// ToMathMeta converts a solution to its stored form.
func ToMathMeta(sol *mathengine.Solution) *store.MathMeta {
	if sol == nil {
		return nil
	}
	return &store.MathMeta{
		Kind:       string(sol.Kind),
		Expression: sol.Expression,
		Variable:   sol.Variable,
		Result:     sol.Result,
		Answer:     sol.Answer(),
		Postfix:    sol.Postfix,
		Steps:      append([]string(nil), sol.Steps...),
	}
}

var mathFollowUpPattern = regexp.MustCompile(`^(why|how)\b|\bshow (me )?(the |your )?(steps|work|working)\b|\bexplain (that|it|this|the answer)\b|\bhow did you get\b`)

// MathFollowUp re-explains the session's last math answer when asked why or how.
func MathFollowUp(in Input) *Candidate {
	if in.Session == nil || in.Session.LastMath == nil {
		return nil
	}
	if mathengine.IsLikelyMathMessage(in.Message) || !mathFollowUpPattern.MatchString(in.Normalized) {
		return nil
	}
	return &Candidate{
		Text:      ExplainMath(in.Session.LastMath),
		Source:    source.MathFollowUp,
		BaseScore: 0.8,
		Meta:      MathMeta{Solution: in.Session.LastMath},
	}
}

// ExplainMath renders the working behind a stored answer.
func ExplainMath(m *store.MathMeta) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here's how I got %s.", m.Answer)
	if m.Postfix != "" {
		fmt.Fprintf(&b, " In postfix order the expression is %s.", m.Postfix)
	}
	for _, step := range m.Steps {
		fmt.Fprintf(&b, " %s.", step)
	}
	return b.String()
}
