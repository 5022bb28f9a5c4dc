package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/specindex/core"
)

// words returns n distinct words with no sentence punctuation.
func words(prefix string, n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(w, " ")
}

// sentencesOf returns n ten-word sentences.
func sentencesOf(prefix string, n int) string {
	s := make([]string, n)
	for i := range s {
		s[i] = words(fmt.Sprintf("%s%d_", prefix, i), 10) + "."
	}
	return strings.Join(s, " ")
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 4, EstimateTokens("a b  c"))
	assert.Equal(t, 400, EstimateTokens(words("w", 307)))
	assert.Equal(t, 900, EstimateTokens(words("w", 692)))
	assert.Equal(t, 38, overlapWords)
	assert.Equal(t, 307, windowWords)
}

func TestSplitSmallContent(t *testing.T) {
	assert.Nil(t, Split("   \n\n  "))
	assert.Equal(t, []string{"short content"}, Split("  short content \n"))
}

func TestSplitUnpunctuatedParagraph(t *testing.T) {
	pieces := Split(words("w", 692))

	require.Len(t, pieces, 3)
	assert.Len(t, strings.Fields(pieces[0]), 307)
	assert.Len(t, strings.Fields(pieces[1]), 307)
	assert.Len(t, strings.Fields(pieces[2]), 78)
	for _, p := range pieces {
		assert.LessOrEqual(t, EstimateTokens(p), MaxChunkTokens)
	}
}

func TestSplitParagraphOverlap(t *testing.T) {
	paras := make([]string, 6)
	for i := range paras {
		paras[i] = words(fmt.Sprintf("p%d_", i), 100)
	}
	pieces := Split(strings.Join(paras, "\n\n"))

	require.Len(t, pieces, 3)
	for i := 0; i+1 < len(pieces); i++ {
		prev := strings.Fields(pieces[i])
		next := strings.Fields(pieces[i+1])
		assert.Equal(t, prev[len(prev)-overlapWords:], next[:overlapWords], "overlap between %d and %d", i, i+1)
	}
	for _, p := range pieces {
		tokens := EstimateTokens(p)
		assert.GreaterOrEqual(t, tokens, MinChunkTokens)
		assert.LessOrEqual(t, tokens, MaxChunkTokens+OverlapTokens)
	}
}

func TestSplitDropsSmallRemainder(t *testing.T) {
	content := words("a", 300) + "\n\n" + words("b", 30)
	pieces, dropped := split(content)

	require.Len(t, pieces, 1)
	assert.Equal(t, words("a", 300), pieces[0])
	assert.Equal(t, overlapWords+30, dropped)
}

func TestSplitSentencesWithoutOverlap(t *testing.T) {
	content := sentencesOf("s", 35) + "\n\n" + words("tail", 100)
	pieces := Split(content)

	require.Len(t, pieces, 2)
	assert.Len(t, strings.Fields(pieces[0]), 300)
	assert.True(t, strings.HasPrefix(pieces[1], "s30_0 "), "second chunk starts at the next sentence")
	assert.True(t, strings.HasSuffix(pieces[1], "tail99"))
}

func TestClassifyChunkType(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		subsection string
		want       core.ChunkType
	}{
		{"first subsection", "General notes.", "624.1", core.ChunkTypeSectionHeader},
		{"zero-padded first subsection", "General notes.", "624.01", core.ChunkTypeSectionHeader},
		{"description", "This DESCRIPTION covers placing.", "624.4", core.ChunkTypeSectionHeader},
		{"table marker", "See Table 624-1 for gradations.", "624.3", core.ChunkTypeTable},
		{"pipe rows", "| Sieve | Percent |\n| 3/8 | 100 |", "624.3", core.ChunkTypeTable},
		{"method of measurement", "Method  of Measurement. Shotcrete is counted.", "624.7", core.ChunkTypeMeasurement},
		{"measurement and paid", "The measurement will be paid once.", "624.7", core.ChunkTypeMeasurement},
		{"basis of payment", "Basis of payment follows.", "624.8", core.ChunkTypePayment},
		{"payment at unit price", "Payment at the contract unit price.", "624.8", core.ChunkTypePayment},
		{"equipment scores highest", "The contractor shall furnish equipment. The roller, paver and mixer shall be clean.", "624.4", core.ChunkTypeEquipment},
		{"material scores highest", "Cement and aggregate.", "624.2", core.ChunkTypeMaterial},
		{"tie keeps earlier type", "material shall", "624.2", core.ChunkTypeRequirement},
		{"no keywords", "xyz", "624.4", core.ChunkTypeRequirement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyChunkType(tt.content, tt.subsection))
			// same input, same answer
			assert.Equal(t, ClassifyChunkType(tt.content, tt.subsection), ClassifyChunkType(tt.content, tt.subsection))
		})
	}
}

func TestExtractKeywords(t *testing.T) {
	kws := ExtractKeywords("Use Class A concrete with 4000 psi strength, 4 inches thick, per AASHTO T 99 and ASTM C150. Class A again.")
	assert.Equal(t, []string{"class a", "4000 psi", "4 inches", "aashto t 99", "astm c150", "concrete"}, kws)

	assert.Len(t, ExtractKeywords(strings.Join(constructionTerms, " ")), maxKeywords)
	assert.Empty(t, ExtractKeywords("nothing of interest"))
	assert.Empty(t, ExtractKeywords("the type of work"), "lowercase words are not designators")
}

func TestContextString(t *testing.T) {
	section := &core.Section{SectionNumber: "624", Title: "SHOTCRETE"}

	assert.Equal(t, "Section 624 SHOTCRETE", ContextString(section, nil))
	assert.Equal(t, "Section 624 SHOTCRETE > 624.6.1 > Excavation",
		ContextString(section, &core.Subsection{SubsectionNumber: "624.6.1", Title: "Excavation"}))
	assert.Equal(t, "Section 624 > 624.2", ContextString(&core.Section{SectionNumber: "624"}, &core.Subsection{SubsectionNumber: "624.2"}))
}

func TestHeaderChunk(t *testing.T) {
	t.Run("first meaningful paragraph", func(t *testing.T) {
		section := &core.Section{
			SectionNumber:   "624",
			Title:           "SHOTCRETE",
			FullText:        "SECTION 624\nSHOTCRETE\n\nshort\n\nThis work consists of furnishing and placing shotcrete on prepared surfaces.\n\nMore.",
			RelatedPayItems: []string{"624001"},
		}
		chunk := HeaderChunk(section)

		assert.Equal(t, "Section 624 - SHOTCRETE\n\nThis work consists of furnishing and placing shotcrete on prepared surfaces.", chunk.Content)
		assert.Equal(t, core.ChunkTypeSectionHeader, chunk.ChunkType)
		assert.Equal(t, "Section 624 SHOTCRETE", chunk.SectionContext)
		assert.Empty(t, chunk.SubsectionNumber)
		assert.Equal(t, []string{"624001"}, chunk.PayItemCodes)
		assert.Equal(t, EstimateTokens(chunk.Content), chunk.TokenCount)
	})

	t.Run("fallback to raw text", func(t *testing.T) {
		chunk := HeaderChunk(&core.Section{SectionNumber: "624", Title: "SHOTCRETE", FullText: "SECTION 624\nSHOTCRETE"})
		assert.Equal(t, "Section 624 - SHOTCRETE\n\nSECTION 624\nSHOTCRETE", chunk.Content)
	})

	t.Run("long paragraph truncated", func(t *testing.T) {
		chunk := HeaderChunk(&core.Section{SectionNumber: "624", Title: "SHOTCRETE", FullText: strings.Repeat("x", 900)})
		assert.Equal(t, "Section 624 - SHOTCRETE\n\n"+strings.Repeat("x", 500), chunk.Content)
	})

	t.Run("truncation keeps runes whole", func(t *testing.T) {
		assert.Equal(t, "ab", truncate("abé", 3))
	})
}

func TestChunk(t *testing.T) {
	sections := []*core.Section{
		{SectionNumber: "624", Title: "SHOTCRETE", FullText: "SECTION 624\nSHOTCRETE", RelatedPayItems: []string{"624001", "624002"}},
		{SectionNumber: "625", Title: "GROUND ANCHORS", FullText: "SECTION 625\nGROUND ANCHORS"},
	}
	subsections := []*core.Subsection{
		{SectionNumber: "624", SubsectionNumber: "624.1", Title: "DESCRIPTION", Content: "Placing shotcrete."},
		{SectionNumber: "624", SubsectionNumber: "624.6.1", Title: "Excavation", Content: words("w", 692)},
		{SectionNumber: "624", SubsectionNumber: "624.9", Title: "BASIS OF PAYMENT", Content: "Item 624001 will be paid at the contract unit price."},
		{SectionNumber: "624", SubsectionNumber: "624.10", Title: "Empty", Content: "   "},
		{SectionNumber: "700", SubsectionNumber: "700.1", Title: "Orphan", Content: "Orphaned subsection."},
		{SectionNumber: "625", SubsectionNumber: "625.1", Title: "DESCRIPTION", Content: "Installing anchors."},
	}

	chunks := New().Chunk(sections, subsections)

	var got []string
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.NoError(t, core.ValidateChunk(c))
		got = append(got, c.SectionNumber+"/"+c.SubsectionNumber)
	}
	assert.Equal(t, []string{
		"624/", "624/624.1", "624/624.6.1", "624/624.6.1", "624/624.6.1", "624/624.9",
		"625/", "625/625.1",
		"700/700.1",
	}, got)

	for _, c := range chunks[2:5] {
		assert.LessOrEqual(t, c.TokenCount, MaxChunkTokens)
		assert.Equal(t, "Section 624 SHOTCRETE > 624.6.1 > Excavation", c.SectionContext)
	}
	assert.Equal(t, []string{"624001"}, chunks[5].PayItemCodes)
	assert.Equal(t, core.ChunkTypePayment, chunks[5].ChunkType)
	assert.Equal(t, []string{"624001", "624002"}, chunks[0].PayItemCodes)
	assert.Equal(t, "Section 700 > 700.1 > Orphan", chunks[8].SectionContext)
}

func TestChunkEmpty(t *testing.T) {
	assert.Empty(t, New().Chunk(nil, nil))
}
