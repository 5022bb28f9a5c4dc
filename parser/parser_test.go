package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/specindex/core"
)

const shotcretePage = `DIVISION 600 STRUCTURES

SECTION 624
SHOTCRETE

624.1-DESCRIPTION: This work consists of furnishing and placing shotcrete on prepared
surfaces. See Section 501.3 for related work.

624.2-MATERIALS: Materials shall conform to Section 902 and Section 902.

624.6-CONSTRUCTION REQUIREMENTS: General requirements follow.

624.6.1-Excavation: Excavate to the lines shown on the plans.

624.6.1.1-Scope: Excavation includes removal of loose material.

624.6.2-Placement: Apply shotcrete in layers not exceeding 2 inches.

624.7-METHOD OF MEASUREMENT: Shotcrete will be measured by the square meter.

PAY ITEMS:
624001 Shotcrete SQ M
624002 Shotcrete Reinforcement LS
`

const anchorsPage = `SECTION 625
GROUND ANCHORS

625.1-DESCRIPTION: This work consists of installing ground anchors.
624001 Shotcrete SQ M
`

func sampleManual() string {
	return shotcretePage + "\f" + anchorsPage
}

func sectionByNumber(t *testing.T, sections []*core.Section, number string) *core.Section {
	t.Helper()
	for _, s := range sections {
		if s.SectionNumber == number {
			return s
		}
	}
	t.Fatalf("section %s not found", number)
	return nil
}

func TestNormalize(t *testing.T) {
	t.Run("line endings", func(t *testing.T) {
		assert.Equal(t, "a\nb\nc", Normalize("a\r\nb\rc"))
	})

	t.Run("form feed becomes page marker", func(t *testing.T) {
		assert.Equal(t, "one\n"+PageMarker+"\ntwo", Normalize("one\ftwo"))
	})

	t.Run("long blank runs collapse to two", func(t *testing.T) {
		assert.Equal(t, "a\n\n\nb", Normalize("a\n\n\n\n\n\n\nb"))
	})

	t.Run("three blank lines are kept", func(t *testing.T) {
		assert.Equal(t, "a\n\n\n\nb", Normalize("a\n\n\n\nb"))
	})

	t.Run("no content removed", func(t *testing.T) {
		in := "SECTION 624\r\nSHOTCRETE\f\r\n\r\n\r\n\r\n\r\n\r\nbody"
		out := Normalize(in)
		assert.Equal(t, strings.Join(strings.Fields(strings.ReplaceAll(in, "\f", " "+PageMarker+" ")), " "),
			strings.Join(strings.Fields(out), " "))
	})
}

func TestDetectDivisions(t *testing.T) {
	divisions := DetectDivisions(Normalize(sampleManual()))

	var numbers []int
	for _, d := range divisions {
		numbers = append(numbers, d.Number)
		assert.Equal(t, DivisionTitles[d.Number], d.Title)
	}
	// 500 and 900 are present through cross-references alone
	assert.Equal(t, []int{500, 600, 900}, numbers)

	assert.Empty(t, DetectDivisions("no numbered content here"))
	assert.Empty(t, DetectDivisions("150 200 250\n300 350 400\n"))
	assert.Len(t, DetectDivisions("  305.2-Materials: aggregate\n"), 1)
	assert.Len(t, DetectDivisions("305 AGGREGATE BASE\n"), 1)
}

func TestExtractSectionsShotcrete(t *testing.T) {
	text := Normalize("SECTION 624\nSHOTCRETE\n624.1-DESCRIPTION: Placing shotcrete.\nSECTION 625\nGROUND ANCHORS\n")
	sections := ExtractSections(text)

	require.Len(t, sections, 2)
	s := sections[0]
	assert.Equal(t, "624", s.SectionNumber)
	assert.Equal(t, "SHOTCRETE", s.Title)
	assert.Equal(t, 600, s.DivisionNumber)
	assert.NotContains(t, s.FullText, "SECTION 625")
	assert.Equal(t, 0, s.PageHint, "no page markers means unknown page")

	subs := ExtractSubsections(s)
	require.Len(t, subs, 1)
	assert.Equal(t, "624.1", subs[0].SubsectionNumber)
	assert.Equal(t, 1, subs[0].HierarchyLevel)
	assert.Equal(t, "DESCRIPTION", subs[0].Title)
}

func TestExtractSectionsFirstWriterWins(t *testing.T) {
	text := Normalize(strings.Join([]string{
		"TABLE OF CONTENTS",
		"624 SHOTCRETE",
		"625 GROUND ANCHORS",
		"",
		"SECTION 624",
		"SHOTCRETE",
		"Body of shotcrete.",
		"SECTION 625",
		"GROUND ANCHORS",
		"Body of anchors.",
	}, "\n"))

	sections := ExtractSections(text)
	require.Len(t, sections, 2)
	assert.True(t, strings.HasPrefix(sections[0].FullText, "SECTION 624"))
	assert.Contains(t, sections[0].FullText, "Body of shotcrete.")
	assert.NotContains(t, sections[0].FullText, "Body of anchors.")
	assert.True(t, strings.HasPrefix(sections[1].FullText, "SECTION 625"))
}

func TestExtractSectionsTitleGuard(t *testing.T) {
	text := Normalize("SECTION 101\n12\n105 AB\n110 1234\n203 EXCAVATION AND EMBANKMENT\n")
	sections := ExtractSections(text)

	require.Len(t, sections, 1)
	assert.Equal(t, "203", sections[0].SectionNumber)
	assert.Equal(t, "EXCAVATION AND EMBANKMENT", sections[0].Title)
}

const thicknessTable = `SECTION 624
SHOTCRETE

624.1-DESCRIPTION: This work consists of placing shotcrete.

Table of thicknesses
150 200 250
300 350 400

624.2-MATERIALS: Materials shall conform to the plans.
`

func TestExtractSectionsIgnoresNumericTableRows(t *testing.T) {
	sections := ExtractSections(Normalize(thicknessTable))

	require.Len(t, sections, 1)
	assert.Equal(t, "624", sections[0].SectionNumber)
	assert.Contains(t, sections[0].FullText, "300 350 400")

	subs := ExtractSubsections(sections[0])
	require.Len(t, subs, 2)
	assert.Equal(t, "624.2", subs[1].SubsectionNumber)
}

func TestParseNumericTableRowsAddNoDivisions(t *testing.T) {
	result := New().Parse(thicknessTable)

	require.Len(t, result.Divisions, 1)
	assert.Equal(t, 600, result.Divisions[0].Number)
	require.Len(t, result.Sections, 1)
}

func TestExtractSectionsLastRunsToEnd(t *testing.T) {
	text := Normalize("SECTION 624\nSHOTCRETE\nfirst\nSECTION 625\nGROUND ANCHORS\ntrailing boilerplate")
	sections := ExtractSections(text)

	require.Len(t, sections, 2)
	assert.True(t, strings.HasSuffix(sections[1].FullText, "trailing boilerplate"))
}

func TestExtractSubsectionsHierarchy(t *testing.T) {
	sections := ExtractSections(Normalize(sampleManual()))
	s := sectionByNumber(t, sections, "624")
	subs := ExtractSubsections(s)

	var numbers []string
	byNumber := map[string]*core.Subsection{}
	for _, sub := range subs {
		numbers = append(numbers, sub.SubsectionNumber)
		byNumber[sub.SubsectionNumber] = sub
	}
	assert.Equal(t, []string{"624.1", "624.2", "624.6", "624.6.1", "624.6.1.1", "624.6.2", "624.7"}, numbers)

	assert.Equal(t, 3, byNumber["624.6.1.1"].HierarchyLevel)
	assert.Equal(t, "624.6.1", byNumber["624.6.1.1"].ParentSubsection)
	assert.Equal(t, "624.6", byNumber["624.6.1"].ParentSubsection)
	assert.Empty(t, byNumber["624.6"].ParentSubsection)

	// deeper headers stay inside, same level ends it
	assert.Contains(t, byNumber["624.6"].Content, "Excavate to the lines")
	assert.Contains(t, byNumber["624.6"].Content, "layers not exceeding")
	assert.NotContains(t, byNumber["624.6"].Content, "measured by the square meter")
	assert.Contains(t, byNumber["624.6.1"].Content, "removal of loose material")
	assert.NotContains(t, byNumber["624.6.1"].Content, "Apply shotcrete")

	assert.Equal(t, []string{"Section 501.3"}, byNumber["624.1"].CrossReferences)
	assert.Equal(t, []string{"Section 902"}, byNumber["624.2"].CrossReferences)

	for _, sub := range subs {
		assert.NoError(t, core.ValidateSubsection(sub))
	}
}

func TestExtractSubsectionsRejectsForeignNumbers(t *testing.T) {
	section := &core.Section{
		SectionNumber: "624",
		FullText:      "SECTION 624\nSHOTCRETE\n624.1-DESCRIPTION: ok.\n625.1-DESCRIPTION: bleed from the next section.",
	}
	subs := ExtractSubsections(section)

	require.Len(t, subs, 1)
	assert.Equal(t, "624.1", subs[0].SubsectionNumber)
	assert.Contains(t, subs[0].Content, "bleed", "foreign headers do not terminate content")
}

func TestExtractSubsectionsEmpty(t *testing.T) {
	assert.Nil(t, ExtractSubsections(nil))
	assert.Nil(t, ExtractSubsections(&core.Section{SectionNumber: "624"}))
}

func TestExtractCrossReferences(t *testing.T) {
	refs := ExtractCrossReferences("See Section 624.6.1 and Section  902, then Section 624.6.1 again. Sections 5 are not matched.")
	assert.Equal(t, []string{"Section 624.6.1", "Section 902"}, refs)
	assert.Nil(t, ExtractCrossReferences("nothing here"))
}

func TestExtractPayItems(t *testing.T) {
	t.Run("marker context and dedupe", func(t *testing.T) {
		items := ExtractPayItems(Normalize(sampleManual()))

		require.Len(t, items, 2)
		assert.Equal(t, core.PayItem{ItemNumber: "624001", Description: "Shotcrete", Unit: "SQ M", SectionNumber: "624"}, *items[0])
		assert.Equal(t, "Shotcrete Reinforcement", items[1].Description)
		assert.Equal(t, "LS", items[1].Unit)
	})

	t.Run("marker context overrides code prefix", func(t *testing.T) {
		text := "SECTION 702\nSIGNS\n702.9-BASIS OF PAYMENT: pay items below.\nPAY ITEMS:\n710001 Sign Post LF\n"
		items := ExtractPayItems(text)

		require.Len(t, items, 1)
		assert.Equal(t, "702", items[0].SectionNumber)
	})

	t.Run("global fallback uses code prefix", func(t *testing.T) {
		items := ExtractPayItems("random text\n203001 Unclassified Excavation CU YD\n")

		require.Len(t, items, 1)
		assert.Equal(t, "203", items[0].SectionNumber)
		assert.Equal(t, "CU YD", items[0].Unit)
	})

	t.Run("lines without a unit are ignored", func(t *testing.T) {
		assert.Empty(t, ExtractPayItems("624001 Shotcrete with no unit\n"))
	})
}

func TestLinkPayItems(t *testing.T) {
	sections := []*core.Section{{SectionNumber: "624"}}
	items := []*core.PayItem{
		{ItemNumber: "624001", SectionNumber: "624"},
		{ItemNumber: "624001", SectionNumber: "624"},
		{ItemNumber: "999001", SectionNumber: "999"},
	}

	linked, orphaned := LinkPayItems(sections, items)
	assert.Equal(t, 2, linked)
	assert.Equal(t, 1, orphaned)
	assert.Equal(t, []string{"624001"}, sections[0].RelatedPayItems)

	LinkPayItems(sections, items)
	assert.Equal(t, []string{"624001"}, sections[0].RelatedPayItems)
}

func TestParse(t *testing.T) {
	result := New().Parse(sampleManual())

	require.Len(t, result.Sections, 2)
	shotcrete := sectionByNumber(t, result.Sections, "624")
	anchors := sectionByNumber(t, result.Sections, "625")

	assert.Equal(t, 1, shotcrete.PageHint)
	assert.Equal(t, 2, anchors.PageHint)
	assert.Equal(t, []string{"624001", "624002"}, shotcrete.RelatedPayItems)
	assert.Empty(t, anchors.RelatedPayItems)
	assert.Equal(t, 2, result.LinkedPayItems)
	assert.Zero(t, result.OrphanedPayItems)
	assert.Len(t, result.Subsections, 8)

	for _, s := range result.Sections {
		assert.NoError(t, core.ValidateSection(s))
	}
}

func TestParseIdempotent(t *testing.T) {
	p := New()
	first := p.Parse(sampleManual())
	second := p.Parse(sampleManual())

	assert.Equal(t, first, second)

	keys := map[string]bool{}
	for _, sub := range first.Subsections {
		assert.False(t, keys[sub.SubsectionNumber], "duplicate %s", sub.SubsectionNumber)
		keys[sub.SubsectionNumber] = true
	}
}

func TestParseHierarchyInvariant(t *testing.T) {
	result := New().Parse(sampleManual())

	numbers := map[string]bool{}
	for _, sub := range result.Subsections {
		numbers[sub.SubsectionNumber] = true
	}
	for _, sub := range result.Subsections {
		assert.True(t, strings.HasPrefix(sub.SubsectionNumber, sub.SectionNumber+"."))
		if sub.HierarchyLevel > 1 {
			assert.True(t, strings.HasPrefix(sub.SubsectionNumber, sub.ParentSubsection+"."))
			assert.True(t, numbers[sub.ParentSubsection], "parent %s of %s", sub.ParentSubsection, sub.SubsectionNumber)
		}
	}
}

func TestParseGarbage(t *testing.T) {
	result := New().Parse("\x00\x01 ::: 12 34 -- . SECTION\n\n")
	assert.Empty(t, result.Sections)
	assert.Empty(t, result.Subsections)
	assert.Empty(t, result.PayItems)
}
