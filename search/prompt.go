package search

import (
	"fmt"
	"strings"

	"github.com/poiesic/specindex/ai"
	"github.com/poiesic/specindex/core"
)

// SystemPrompt is the fixed instruction sent with every synthesis request.
const SystemPrompt = `You are an assistant for highway construction bid estimators.
Answer the question using only the specification excerpts provided.
Cite the section or subsection number (for example "Section 624.6.1") for every requirement you state.
Use the technical terminology of the specifications.
If the excerpts do not contain enough information to answer, say so explicitly instead of guessing.`

// BuildContextBlock concatenates the section context and content of each match,
// numbered in rank order.
func BuildContextBlock(matches []*core.ChunkMatch) string {
	var b strings.Builder
	for i, match := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s\n%s", i+1, match.Chunk.SectionContext, match.Chunk.Content)
	}
	return b.String()
}

// BuildMessages returns the trailing maxTurns history messages followed by a user
// message carrying the context block and the question. History entries with an
// unknown role or no content are dropped.
func BuildMessages(history []ai.Message, contextBlock, query string, maxTurns int) []ai.Message {
	valid := make([]ai.Message, 0, len(history))
	for _, m := range history {
		if !m.Role.IsValid() || m.Role == ai.RoleSystem || strings.TrimSpace(m.Content) == "" {
			continue
		}
		valid = append(valid, m)
	}
	if maxTurns < 0 {
		maxTurns = 0
	}
	if len(valid) > maxTurns {
		valid = valid[len(valid)-maxTurns:]
	}

	messages := make([]ai.Message, 0, len(valid)+1)
	messages = append(messages, valid...)
	messages = append(messages, ai.Message{
		Role:    ai.RoleUser,
		Content: "Specification excerpts:\n\n" + contextBlock + "\n\nQuestion: " + query,
	})
	return messages
}
