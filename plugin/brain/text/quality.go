package text

import (
	"strings"
)

var pollutedExact = map[string]bool{"undefined": true, "null": true, "nan": true, "none": true}

var pollutedFragments = []string{
	"[object object]",
	"lorem ipsum",
	"as an ai language model",
	"traceback (most recent call last)",
	"nan nan",
}

var pollutedPrefixes = []string{"error:", "exception:", "stack trace"}

// IsPolluted reports whether a reply is boilerplate that must never be learned or recalled.
func IsPolluted(reply string) bool {
	trimmed := strings.TrimSpace(strings.ToLower(reply))
	if trimmed == "" || pollutedExact[trimmed] {
		return true
	}
	for _, p := range pollutedPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	for _, f := range pollutedFragments {
		if strings.Contains(trimmed, f) {
			return true
		}
	}

	tokens := Tokenize(trimmed)
	if len(tokens) >= 5 {
		counts := make(map[string]int, len(tokens))
		top := 0
		for _, tok := range tokens {
			counts[tok]++
			if counts[tok] > top {
				top = counts[tok]
			}
		}
		if float64(top)/float64(len(tokens)) > 0.6 {
			return true
		}
	}
	return false
}

var chromeWords = map[string]bool{
	"home": true, "login": true, "log": true, "sign": true, "signup": true, "menu": true,
	"cookie": true, "cookies": true, "privacy": true, "policy": true, "subscribe": true,
	"terms": true, "contact": true, "search": true, "skip": true, "navigation": true,
	"copyright": true, "rights": true, "reserved": true, "javascript": true, "enable": true,
	"accept": true, "newsletter": true, "share": true, "follow": true, "register": true,
}

// LooksLikeBoilerplate reports whether extracted page text is navigation chrome rather than content.
func LooksLikeBoilerplate(s string) bool {
	tokens := Tokenize(s)
	if len(tokens) < 8 {
		return true
	}
	chrome := 0
	for _, tok := range tokens {
		if chromeWords[tok] {
			chrome++
		}
	}
	return float64(chrome)/float64(len(tokens)) > 0.3
}
