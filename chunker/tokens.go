package chunker

import (
	"math"
	"strings"
)

// Budget constants, in estimated tokens.
const (
	MaxChunkTokens = 400
	MinChunkTokens = 100
	OverlapTokens  = 50
)

// tokensPerWord is the estimation ratio used everywhere chunk sizes are measured.
const tokensPerWord = 1.3

// Word counts derived from the token budget.
var (
	overlapWords = int(math.Floor(OverlapTokens / tokensPerWord))  // 38
	windowWords  = int(math.Floor(MaxChunkTokens / tokensPerWord)) // 307
)

// EstimateTokens approximates the token count of text as ceil(words × 1.3).
func EstimateTokens(text string) int {
	return tokensForWords(len(strings.Fields(text)))
}

func tokensForWords(words int) int {
	return int(math.Ceil(float64(words) * tokensPerWord))
}
