package router

import (
	"strings"
	"unicode"

	"github.com/thenoname-gurl/Brain/plugin/brain/mathengine"
	"github.com/thenoname-gurl/Brain/plugin/brain/text"
)

// Signal is the quality class of an incoming message.
type Signal string

const (
	SignalOK        Signal = "ok"
	SignalEmpty     Signal = "empty"
	SignalSymbols   Signal = "symbols"
	SignalAmbiguous Signal = "ambiguous"
	SignalMash      Signal = "mash"
)

var ambiguousTokens = map[string]bool{
	"huh": true, "wut": true, "wat": true, "what": true, "hm": true, "hmm": true, "hmmm": true,
	"eh": true, "uh": true, "um": true, "umm": true, "meh": true, "idk": true, "erm": true, "wha": true,
}

var keyboardRows = []string{"qwertyuiop", "asdfghjkl", "zxcvbnm"}

type keyPosition struct {
	row, col int
}

var keyPositions = func() map[rune]keyPosition {
	positions := make(map[rune]keyPosition)
	for row, keys := range keyboardRows {
		for col, r := range keys {
			positions[r] = keyPosition{row: row, col: col}
		}
	}
	return positions
}()

// signalInput is the pre-digested message every signal rule inspects.
type signalInput struct {
	raw        string
	normalized string
	tokens     []string
}

type signalRule struct {
	name   string
	signal Signal
	match  func(in signalInput) bool
}

// signalRules are evaluated in order; the first match decides the class.
var signalRules = []signalRule{
	{name: "empty", signal: SignalEmpty, match: func(in signalInput) bool {
		return strings.TrimSpace(in.raw) == ""
	}},
	{name: "symbol heavy", signal: SignalSymbols, match: isSymbolHeavy},
	{name: "ambiguous token", signal: SignalAmbiguous, match: func(in signalInput) bool {
		if len(in.tokens) == 0 {
			return true
		}
		return len(in.tokens) == 1 && ambiguousTokens[in.tokens[0]]
	}},
	{name: "keyboard mash", signal: SignalMash, match: func(in signalInput) bool {
		if len(in.tokens) > 2 {
			return false
		}
		for _, tok := range in.tokens {
			if isMashToken(tok) {
				return true
			}
		}
		return false
	}},
}

// ClassifySignal sorts a message into OK or one of the low-signal classes.
// Anything that looks like a calculation is always OK.
func ClassifySignal(message string) Signal {
	if mathengine.IsLikelyMathMessage(message) {
		return SignalOK
	}
	normalized := text.Normalize(message)
	in := signalInput{raw: message, normalized: normalized, tokens: text.Tokenize(normalized)}
	for _, r := range signalRules {
		if r.match(in) {
			return r.signal
		}
	}
	return SignalOK
}

// IsLowSignal reports whether a message carries too little meaning to answer directly.
func IsLowSignal(message string) bool {
	return ClassifySignal(message) != SignalOK
}

func isSymbolHeavy(in signalInput) bool {
	if in.normalized == "" {
		return true
	}
	var nonSpace, alnum, letters int
	for _, r := range in.raw {
		if unicode.IsSpace(r) {
			continue
		}
		nonSpace++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters == 0 {
		return true
	}
	symbols := nonSpace - alnum
	return float64(symbols) > float64(nonSpace)*0.5 && alnum < 3
}

func isMashToken(tok string) bool {
	runes := []rune(tok)
	if len(runes) < 4 {
		return false
	}
	if run := longestKeyboardRun(runes); run >= 4 && float64(run) >= float64(len(runes))*0.6 {
		return true
	}
	if len(runes) >= 5 && !strings.ContainsAny(tok, "aeiouy") {
		return true
	}
	counts := make(map[rune]int, len(runes))
	top := 0
	for _, r := range runes {
		counts[r]++
		if counts[r] > top {
			top = counts[r]
		}
	}
	return float64(top) >= float64(len(runes))*0.7
}

// longestKeyboardRun returns the length of the longest stretch of runes that walk
// along one keyboard row in a single direction.
func longestKeyboardRun(runes []rune) int {
	best := 1
	for i := 0; i < len(runes); i++ {
		start, ok := keyPositions[runes[i]]
		if !ok {
			continue
		}
		length, dir, prev := 1, 0, start
		for j := i + 1; j < len(runes); j++ {
			next, ok := keyPositions[runes[j]]
			if !ok || next.row != start.row {
				break
			}
			step := next.col - prev.col
			if step != 1 && step != -1 {
				break
			}
			if dir == 0 {
				dir = step
			} else if step != dir {
				break
			}
			length++
			prev = next
		}
		if length > best {
			best = length
		}
	}
	return best
}
