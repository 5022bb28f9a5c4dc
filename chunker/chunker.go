package chunker

import (
	"log/slog"
	"strings"

	"github.com/poiesic/specindex/core"
)

const (
	headerParagraphMinChars = 50
	headerExcerptChars      = 500
)

// Chunker produces the ordered chunk list for one ingestion run.
type Chunker struct {
	logger *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a chunker.
func New(opts ...Option) *Chunker {
	c := &Chunker{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "chunker")
	return c
}

// Chunk emits, per section, its header chunk followed by the chunks of its subsections.
// Subsections whose section is not in sections are chunked last with a bare context.
// ChunkIndex increases by one for every emitted chunk across the whole call.
func (c *Chunker) Chunk(sections []*core.Section, subsections []*core.Subsection) []*core.Chunk {
	bySection := make(map[string][]*core.Subsection)
	var order []string
	for _, sub := range subsections {
		if _, ok := bySection[sub.SectionNumber]; !ok {
			order = append(order, sub.SectionNumber)
		}
		bySection[sub.SectionNumber] = append(bySection[sub.SectionNumber], sub)
	}

	var (
		chunks  []*core.Chunk
		index   int
		dropped int
	)
	emit := func(chunk *core.Chunk) {
		chunk.ChunkIndex = index
		index++
		chunks = append(chunks, chunk)
	}
	chunkSubsections := func(section *core.Section, subs []*core.Subsection) {
		for _, sub := range subs {
			pieces, lost := split(sub.Content)
			if lost > 0 {
				dropped++
				c.logger.Debug("dropped undersized remainder", "subsection", sub.SubsectionNumber, "words", lost)
			}
			location := ContextString(section, sub)
			for _, piece := range pieces {
				emit(subsectionChunk(section, sub, location, piece))
			}
		}
	}

	done := make(map[string]bool, len(sections))
	for _, section := range sections {
		emit(HeaderChunk(section))
		chunkSubsections(section, bySection[section.SectionNumber])
		done[section.SectionNumber] = true
	}
	for _, number := range order {
		if !done[number] {
			chunkSubsections(&core.Section{SectionNumber: number}, bySection[number])
		}
	}

	c.logger.Info("chunked document",
		"sections", len(sections),
		"subsections", len(subsections),
		"chunks", len(chunks),
		"droppedRemainders", dropped)
	return chunks
}

// HeaderChunk builds the overview chunk of a section: its number and title followed by
// the first paragraph of at least 50 characters, truncated to 500. Without such a
// paragraph the first 500 characters of the section text are used.
// The returned chunk has no ChunkIndex assigned.
func HeaderChunk(section *core.Section) *core.Chunk {
	content := "Section " + section.SectionNumber + " - " + section.Title + "\n\n" + headerExcerpt(section.FullText)
	content = strings.TrimSpace(content)
	return &core.Chunk{
		SectionNumber:  section.SectionNumber,
		SectionContext: ContextString(section, nil),
		Content:        content,
		ChunkType:      core.ChunkTypeSectionHeader,
		TokenCount:     EstimateTokens(content),
		PayItemCodes:   append([]string(nil), section.RelatedPayItems...),
		Keywords:       ExtractKeywords(content),
	}
}

func headerExcerpt(fullText string) string {
	for _, para := range paragraphs(fullText) {
		if len(para) >= headerParagraphMinChars {
			return truncate(para, headerExcerptChars)
		}
	}
	return truncate(strings.TrimSpace(fullText), headerExcerptChars)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// ContextString describes where a chunk sits, e.g. "Section 624 SHOTCRETE > 624.6.1 > Excavation".
// A nil subsection yields the section part alone.
func ContextString(section *core.Section, sub *core.Subsection) string {
	var b strings.Builder
	b.WriteString("Section ")
	b.WriteString(section.SectionNumber)
	if section.Title != "" {
		b.WriteString(" ")
		b.WriteString(section.Title)
	}
	if sub != nil {
		if sub.SubsectionNumber != "" {
			b.WriteString(" > ")
			b.WriteString(sub.SubsectionNumber)
		}
		if sub.Title != "" {
			b.WriteString(" > ")
			b.WriteString(sub.Title)
		}
	}
	return b.String()
}

func subsectionChunk(section *core.Section, sub *core.Subsection, location, content string) *core.Chunk {
	var codes []string
	for _, code := range section.RelatedPayItems {
		if strings.Contains(content, code) {
			codes = append(codes, code)
		}
	}
	return &core.Chunk{
		SectionNumber:    sub.SectionNumber,
		SubsectionNumber: sub.SubsectionNumber,
		SectionContext:   location,
		Content:          content,
		ChunkType:        ClassifyChunkType(content, sub.SubsectionNumber),
		TokenCount:       EstimateTokens(content),
		PayItemCodes:     codes,
		Keywords:         ExtractKeywords(content),
	}
}
