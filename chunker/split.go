package chunker

import (
	"regexp"
	"strings"
)

var (
	paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)
	sentenceEnd    = regexp.MustCompile(`[.!?]+["')\]]*\s+`)
)

// splitter accumulates text into chunks. It is request scoped; one per Split call.
type splitter struct {
	pieces       []string
	buf          strings.Builder
	bufWords     int
	droppedWords int
}

// Split divides content into chunk texts under the token budget.
// Content within MaxChunkTokens is returned whole. Empty content yields no chunks.
func Split(content string) []string {
	pieces, _ := split(content)
	return pieces
}

// split also reports how many words were dropped as an undersized remainder.
func split(content string) ([]string, int) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, 0
	}
	if EstimateTokens(content) <= MaxChunkTokens {
		return []string{content}, 0
	}

	s := &splitter{}
	for _, para := range paragraphs(content) {
		words := len(strings.Fields(para))
		if tokensForWords(words) > MaxChunkTokens {
			s.flush()
			s.splitSentences(para)
			continue
		}
		if s.bufWords > 0 && tokensForWords(s.bufWords+words) > MaxChunkTokens {
			tail := lastWords(s.buf.String(), overlapWords)
			s.flush()
			s.append(tail, "")
		}
		s.append(para, "\n\n")
	}

	if tokensForWords(s.bufWords) >= MinChunkTokens {
		s.flush()
	} else {
		s.droppedWords = s.bufWords
	}
	return s.pieces, s.droppedWords
}

// splitSentences accumulates the sentences of one oversized paragraph without overlap.
// The last partial chunk stays in the buffer.
func (s *splitter) splitSentences(para string) {
	for _, sentence := range sentences(para) {
		words := strings.Fields(sentence)
		if tokensForWords(len(words)) > MaxChunkTokens {
			s.flush()
			for len(words) > windowWords {
				s.pieces = append(s.pieces, strings.Join(words[:windowWords], " "))
				words = words[windowWords:]
			}
			s.append(strings.Join(words, " "), " ")
			continue
		}
		if s.bufWords > 0 && tokensForWords(s.bufWords+len(words)) > MaxChunkTokens {
			s.flush()
		}
		s.append(sentence, " ")
	}
}

func (s *splitter) append(text, sep string) {
	if text == "" {
		return
	}
	if s.buf.Len() > 0 {
		s.buf.WriteString(sep)
	}
	s.buf.WriteString(text)
	s.bufWords += len(strings.Fields(text))
}

func (s *splitter) flush() {
	if s.bufWords > 0 {
		s.pieces = append(s.pieces, strings.TrimSpace(s.buf.String()))
	}
	s.buf.Reset()
	s.bufWords = 0
}

func paragraphs(content string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(content, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sentences(para string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(para, -1) {
		if s := strings.TrimSpace(para[start:loc[1]]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(para[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func lastWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[len(words)-n:]
	}
	return strings.Join(words, " ")
}
