package chunker

import (
	"regexp"
	"strings"
)

const maxKeywords = 10

// technicalPatterns capture designators and measured values, in priority order.
var technicalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?i:class)\s+[A-Z0-9][A-Z0-9-]{0,3}\b`),
	regexp.MustCompile(`\b(?i:type)\s+[A-Z0-9][A-Z0-9-]{0,3}\b`),
	regexp.MustCompile(`\b(?i:grade)\s+[A-Z0-9][A-Z0-9-]{0,3}\b`),
	regexp.MustCompile(`(?i)\b\d[\d,]*(?:\.\d+)?\s*psi\b`),
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:inches|inch|feet|foot|ft|millimeters?|mm|centimeters?|cm|meters?)\b`),
	regexp.MustCompile(`(?i)\b(?:AASHTO|ASTM)\s+[A-Z]{0,2}\s?\d+(?:\.\d+)?\b`),
}

// constructionTerms are matched literally against lowercased content.
var constructionTerms = []string{
	"concrete", "asphalt", "excavation", "aggregate", "cement", "steel",
	"reinforcement", "shotcrete", "embankment", "compaction", "subgrade", "pavement",
	"bridge", "culvert", "drainage", "backfill", "formwork", "curing",
	"grout", "pipe", "masonry", "guardrail", "signing", "striping",
}

// ExtractKeywords returns up to ten lowercased keywords: technical pattern matches first,
// then construction terms present in the content.
func ExtractKeywords(content string) []string {
	seen := make(map[string]bool)
	var keywords []string
	add := func(kw string) bool {
		if seen[kw] {
			return len(keywords) < maxKeywords
		}
		seen[kw] = true
		keywords = append(keywords, kw)
		return len(keywords) < maxKeywords
	}

	for _, pattern := range technicalPatterns {
		for _, match := range pattern.FindAllString(content, -1) {
			if !add(strings.Join(strings.Fields(strings.ToLower(match)), " ")) {
				return keywords
			}
		}
	}

	lower := strings.ToLower(content)
	for _, term := range constructionTerms {
		if strings.Contains(lower, term) && !add(term) {
			return keywords
		}
	}
	return keywords
}
