package text

var stopwords = map[string]bool{}

func init() {
	for _, w := range []string{
		"the", "and", "for", "are", "but", "not", "you", "your", "yours", "with", "this", "that",
		"these", "those", "from", "they", "them", "their", "there", "then", "than", "have", "has",
		"had", "was", "were", "will", "would", "could", "should", "can", "into", "onto", "about",
		"what", "when", "where", "which", "while", "who", "whom", "whose", "why", "how", "all",
		"any", "both", "each", "few", "more", "most", "other", "some", "such", "only", "own",
		"same", "too", "very", "just", "also", "does", "did", "doing", "done", "been", "being",
		"its", "his", "her", "hers", "him", "she", "our", "ours", "out", "over", "under", "again",
		"further", "once", "here", "off", "because", "until", "upon", "between", "through",
		"during", "before", "after", "above", "below", "nor", "yes", "yet", "let", "get", "got",
		"like", "want", "know", "tell", "please", "thanks", "thank", "okay", "really", "much",
		"many", "well", "way", "one", "two", "make", "made", "say", "said", "see", "use", "used",
		"may", "might", "must", "shall", "now", "ever", "every", "even", "still", "did", "dont",
		"doesnt", "didnt", "isnt", "arent", "wasnt", "cant", "wont", "im", "ive", "youre",
		"define", "explain", "mean", "means", "meaning", "something", "anything", "thing", "things",
	} {
		stopwords[w] = true
	}
}

// IsStopword reports whether tok is in the stopword list.
func IsStopword(tok string) bool {
	return stopwords[tok]
}
