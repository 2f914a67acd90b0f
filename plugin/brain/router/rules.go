// Package router holds the ordered pattern rule tables that classify messages:
// signal quality, intent, small talk and definition requests.
// Each table is evaluated top to bottom and the first matching rule wins.
package router

import (
	"regexp"
)

// Rule maps a pattern to a classification label.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Label   string
}

// Table is an ordered list of rules.
type Table []Rule

// Match returns the first rule matching input.
func (t Table) Match(input string) (Rule, bool) {
	for _, r := range t {
		if r.Pattern.MatchString(input) {
			return r, true
		}
	}
	return Rule{}, false
}

// Intent is the conversational intent used to pick an opening phrase.
type Intent string

const (
	IntentEmotion  Intent = "emotion"
	IntentBuilder  Intent = "builder"
	IntentEnglish  Intent = "english"
	IntentQuestion Intent = "question"
	IntentChat     Intent = "chat"
)

// IntentRules is matched against the lowercased raw message so punctuation stays visible.
var IntentRules = Table{
	{Name: "feelings", Label: string(IntentEmotion), Pattern: regexp.MustCompile(`\b(sad|happy|angry|upset|tired|lonely|excited|love|hate|feel|feeling|scared|anxious|worried|bored|stressed)\b`)},
	{Name: "making", Label: string(IntentBuilder), Pattern: regexp.MustCompile(`\b(build|make|create|design|code|program|implement)\b`)},
	{Name: "language", Label: string(IntentEnglish), Pattern: regexp.MustCompile(`\b(grammar|sentence|sentences|word|words|spell|spelling|english|vocabulary|synonym)\b`)},
	{Name: "question mark", Label: string(IntentQuestion), Pattern: regexp.MustCompile(`\?\s*$`)},
	{Name: "wh word", Label: string(IntentQuestion), Pattern: regexp.MustCompile(`^\s*(what|why|how|when|where|who|which|is|are|can|could|do|does|did|should|would|will)\b`)},
}

// InferIntent classifies a message; chat is the fallback.
func InferIntent(lowered string) Intent {
	if r, ok := IntentRules.Match(lowered); ok {
		return Intent(r.Label)
	}
	return IntentChat
}

// SmallTalk kinds.
const (
	SmallTalkGreeting  = "greeting"
	SmallTalkWellbeing = "wellbeing"
	SmallTalkThanks    = "thanks"
	SmallTalkFarewell  = "farewell"
	SmallTalkFiller    = "filler"
)

// SmallTalkRules is matched against the normalized message as a whole.
var SmallTalkRules = Table{
	{Name: "greeting", Label: SmallTalkGreeting, Pattern: regexp.MustCompile(`^(hi|hello|hey|heya|hiya|yo|howdy|greetings|good (morning|afternoon|evening))( there)?( brain)?$`)},
	{Name: "wellbeing", Label: SmallTalkWellbeing, Pattern: regexp.MustCompile(`^(how are you( doing| today)?|how s it going|how are things|what s up|sup|wassup)$`)},
	{Name: "thanks", Label: SmallTalkThanks, Pattern: regexp.MustCompile(`^(thanks|thank you|thx|ty|cheers)( so much| a lot| brain)?$`)},
	{Name: "farewell", Label: SmallTalkFarewell, Pattern: regexp.MustCompile(`^(bye|goodbye|bye bye|see you|see ya|later|good night|goodnight)$`)},
	{Name: "filler", Label: SmallTalkFiller, Pattern: regexp.MustCompile(`^(ok|okay|cool|nice|great|alright|sure|yes|yeah|yep|no|nope|fine|got it|i see)$`)},
}

// SmallTalkReplies holds the canned replies for each small-talk kind.
var SmallTalkReplies = map[string][]string{
	SmallTalkGreeting: {
		"Hello! What would you like to talk about?",
		"Hi there! What's on your mind today?",
	},
	SmallTalkWellbeing: {
		"I'm doing well and learning from every conversation. How about you?",
	},
	SmallTalkThanks: {
		"You're welcome!",
		"Happy to help!",
	},
	SmallTalkFarewell: {
		"Goodbye! Come back any time.",
	},
	SmallTalkFiller: {
		"Got it. What should we explore next?",
	},
}

// MatchSmallTalk returns the small-talk kind of a normalized message.
func MatchSmallTalk(normalized string) (string, bool) {
	r, ok := SmallTalkRules.Match(normalized)
	if !ok {
		return "", false
	}
	return r.Label, true
}

// definitionRules capture the topic of a definition request in group 1. Normalized input.
var definitionRules = Table{
	{Name: "define", Label: "define", Pattern: regexp.MustCompile(`^(?:please )?define (.+)$`)},
	{Name: "meaning of", Label: "meaning", Pattern: regexp.MustCompile(`^(?:what s |what is )?(?:the )?meaning of (.+)$`)},
	{Name: "what is", Label: "what_is", Pattern: regexp.MustCompile(`^what (?:is|are|s|was|were) (?:an? |the )?(.+)$`)},
	{Name: "who is", Label: "who_is", Pattern: regexp.MustCompile(`^who (?:is|was|are|were) (.+)$`)},
	{Name: "tell me about", Label: "tell_me", Pattern: regexp.MustCompile(`^tell me about (.+)$`)},
}

// DefinitionTopic returns the topic of a definition request.
func DefinitionTopic(normalized string) (string, bool) {
	for _, r := range definitionRules {
		if m := r.Pattern.FindStringSubmatch(normalized); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// IsDefinitionRequest reports whether a normalized message asks for a definition.
func IsDefinitionRequest(normalized string) bool {
	_, ok := DefinitionTopic(normalized)
	return ok
}
