package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/poiesic/specindex/core"
)

// subsectionHeaders holds one matcher per hierarchy level, index 0 for level 1.
// Group 1 is the number and group 2 the title, e.g. "624.6.1-Excavation:".
var subsectionHeaders = []*regexp.Regexp{
	regexp.MustCompile(`(?:^|[^\d.])(\d{3}\.\d{1,2})[ \t]*-[ \t]*([A-Za-z][^:\n]{0,120}?):`),
	regexp.MustCompile(`(?:^|[^\d.])(\d{3}\.\d{1,2}\.\d{1,2})[ \t]*-[ \t]*([A-Za-z][^:\n]{0,120}?):`),
	regexp.MustCompile(`(?:^|[^\d.])(\d{3}\.\d{1,2}\.\d{1,2}\.\d{1,2})[ \t]*-[ \t]*([A-Za-z][^:\n]{0,120}?):`),
}

var crossReference = regexp.MustCompile(`\bSection\s+\d+(?:\.\d+)*`)

type subsectionHeader struct {
	number string
	title  string
	level  int
	start  int // offset of the number
	body   int // offset just past the colon
}

// ExtractSubsections finds the subsections of one section.
//
// Matches whose number is not a dot-extension of the section number are discarded, which
// guards against bleed from an over-captured FullText. A subsection's content ends at the
// next header of the same or a shallower level; deeper headers stay inside it.
func ExtractSubsections(section *core.Section) []*core.Subsection {
	if section == nil || section.FullText == "" {
		return nil
	}
	text := section.FullText

	seen := make(map[string]bool)
	var headers []subsectionHeader
	for i, pattern := range subsectionHeaders {
		level := i + 1
		for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
			number := text[m[2]:m[3]]
			if seen[number] || core.HierarchyLevel(section.SectionNumber, number) != level {
				continue
			}
			seen[number] = true
			headers = append(headers, subsectionHeader{
				number: number,
				title:  strings.TrimSpace(text[m[4]:m[5]]),
				level:  level,
				start:  m[2],
				body:   m[1],
			})
		}
	}
	sort.Slice(headers, func(i, j int) bool { return headers[i].start < headers[j].start })

	subsections := make([]*core.Subsection, 0, len(headers))
	for i, h := range headers {
		end := len(text)
		for _, next := range headers[i+1:] {
			if next.level <= h.level {
				end = next.start
				break
			}
		}
		content := strings.TrimSpace(text[h.body:end])

		subsections = append(subsections, &core.Subsection{
			SectionNumber:    section.SectionNumber,
			SubsectionNumber: h.number,
			Title:            h.title,
			Content:          content,
			HierarchyLevel:   h.level,
			ParentSubsection: core.ParentNumber(section.SectionNumber, h.number),
			CrossReferences:  ExtractCrossReferences(content),
		})
	}
	return subsections
}

// ExtractCrossReferences returns "Section nnn[.n]*" mentions in order of first appearance.
func ExtractCrossReferences(content string) []string {
	var refs []string
	seen := make(map[string]bool)
	for _, match := range crossReference.FindAllString(content, -1) {
		ref := strings.Join(strings.Fields(match), " ")
		if seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	return refs
}
