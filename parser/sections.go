package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/poiesic/specindex/core"
)

var (
	// SECTION 624
	// SHOTCRETE
	strictSectionHeader = regexp.MustCompile(`(?m)^[ \t]*SECTION[ \t]+(\d{3})[ \t]*\n(?:[ \t]*\n)*[ \t]*([A-Z0-9][A-Z0-9 ,&'()/\-]*?)[ \t]*$`)

	// 624 SHOTCRETE
	looseSectionHeader = regexp.MustCompile(`(?m)^[ \t]*(\d{3})[ \t]+([A-Z0-9][A-Z0-9 ,&'()/\-]*?)[ \t]*$`)
)

// sectionHeader is an accepted header match.
type sectionHeader struct {
	number int
	offset int
	title  string
}

// ExtractSections finds section headers in normalized text.
//
// The strict matcher runs before the loose one and the first match for a section number
// wins. Titles shorter than three characters or without any letter are rejected since
// they are usually table-of-contents page numbers or numeric table rows. A section's FullText runs from its
// header to the header of the next higher section number found after it, or to the end
// of the document. That window may over-capture trailing boilerplate.
func ExtractSections(text string) []*core.Section {
	seen := make(map[int]bool)
	var headers []sectionHeader

	for _, pattern := range []*regexp.Regexp{strictSectionHeader, looseSectionHeader} {
		for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
			number, err := strconv.Atoi(text[m[2]:m[3]])
			if err != nil || number < 100 || seen[number] {
				continue
			}
			title := strings.TrimSpace(text[m[4]:m[5]])
			if !plausibleTitle(title) {
				continue
			}
			seen[number] = true
			headers = append(headers, sectionHeader{number: number, offset: m[0], title: title})
		}
	}

	// sorted by number so the boundary search walks upward from each section
	sort.Slice(headers, func(i, j int) bool { return headers[i].number < headers[j].number })

	sections := make([]*core.Section, 0, len(headers))
	for i, h := range headers {
		end := len(text)
		for _, next := range headers[i+1:] {
			if next.offset > h.offset {
				end = next.offset
				break
			}
		}

		number := strconv.Itoa(h.number)
		sections = append(sections, &core.Section{
			SectionNumber:  number,
			Title:          h.title,
			DivisionNumber: core.DivisionNumberFor(number),
			FullText:       strings.TrimSpace(text[h.offset:end]),
			PageHint:       pageAt(text, h.offset),
		})
	}
	return sections
}

// plausibleTitle rejects short titles and titles without a letter, such as the numeric
// rows of a thickness table ("150 200 250").
func plausibleTitle(title string) bool {
	if len(title) < 3 {
		return false
	}
	return strings.IndexFunc(title, unicode.IsLetter) >= 0
}
