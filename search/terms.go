package search

import "strings"

// Stop words ignored when matching query terms against chunk content
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "what": true, "how": true, "shall": true, "must": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// QueryTerms returns the distinct significant words of a query in order of appearance.
func QueryTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, word := range tokenizeAndFilter(query) {
		if !seen[word] {
			seen[word] = true
			terms = append(terms, word)
		}
	}
	return terms
}

// MatchedTerms returns the query terms that appear in content. It is used for
// highlighting only; it never changes the ranking.
func MatchedTerms(content, query string) []string {
	terms := QueryTerms(query)
	if len(terms) == 0 {
		return nil
	}

	docWords := tokenizeAndFilter(content)
	docWordSet := make(map[string]bool, len(docWords))
	for _, word := range docWords {
		docWordSet[word] = true
	}

	var matched []string
	for _, term := range terms {
		if docWordSet[term] {
			matched = append(matched, term)
		}
	}
	return matched
}
