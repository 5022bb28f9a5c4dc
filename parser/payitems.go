package parser

import (
	"regexp"
	"strings"

	"github.com/poiesic/specindex/core"
)

// payItemContextWindow is how far before a "PAY ITEMS:" marker the section context is sought.
const payItemContextWindow = 500

// payItemSpanLimit caps how much text after a marker is treated as its item list.
const payItemSpanLimit = 4000

// Units are ordered longest first because alternation prefers the leftmost branch.
var payItemUnits = []string{
	"LINEAR FOOT", "LINEAR FEET", "SQUARE YARD", "SQUARE FOOT", "CUBIC YARD", "CUBIC METER",
	"SQUARE METER", "LUMP SUM", "LIN FT", "SQ YD", "SQ FT", "CU YD", "CU M", "SQ M",
	"EACH", "ACRE", "GALLON", "POUND", "HOUR", "MONTH", "TON", "DAY", "MGAL", "GAL",
	"STA", "LS", "LF", "SY", "SF", "CY", "EA", "LB", "AC", "MI", "HR", "MO", "TN",
	"KG", "M3", "M2", "M", "L",
}

var (
	payItemLine = regexp.MustCompile(`(?m)^[ \t]*(\d{6})[ \t]+(\S.*?)[ \t]+(` +
		strings.Join(quoteAll(payItemUnits), "|") + `)\.?[ \t]*$`)

	payItemMarker = regexp.MustCompile(`(?i)PAY[ \t]+ITEMS?[ \t]*:`)

	// section context preceding a marker
	payItemSectionContext = regexp.MustCompile(`SECTION\s+(\d{3})\b|\b(\d{3})\.\d{1,2}`)
)

func quoteAll(units []string) []string {
	quoted := make([]string, len(units))
	for i, u := range units {
		quoted[i] = regexp.QuoteMeta(u)
	}
	return quoted
}

// ExtractPayItems finds pay item lines in normalized text.
//
// Lines inside a "PAY ITEMS:" block are matched first and take their section from the
// nearest section reference in the preceding 500 characters. The whole document is then
// scanned and remaining items take the first three digits of their code. The first
// occurrence of a code wins.
func ExtractPayItems(text string) []*core.PayItem {
	seen := make(map[string]bool)
	var items []*core.PayItem

	add := func(span, contextSection string) {
		for _, m := range payItemLine.FindAllStringSubmatch(span, -1) {
			code := m[1]
			if seen[code] {
				continue
			}
			seen[code] = true

			section := contextSection
			if section == "" {
				section = code[:3]
			}
			items = append(items, &core.PayItem{
				ItemNumber:    code,
				Description:   strings.Join(strings.Fields(m[2]), " "),
				Unit:          m[3],
				SectionNumber: section,
			})
		}
	}

	markers := payItemMarker.FindAllStringIndex(text, -1)
	for i, marker := range markers {
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		if end-marker[1] > payItemSpanLimit {
			end = marker[1] + payItemSpanLimit
		}
		add(text[marker[1]:end], sectionBefore(text, marker[0]))
	}

	add(text, "")
	return items
}

// sectionBefore returns the last section number referenced in the window before offset.
func sectionBefore(text string, offset int) string {
	start := max(offset-payItemContextWindow, 0)
	matches := payItemSectionContext.FindAllStringSubmatch(text[start:offset], -1)
	if len(matches) == 0 {
		return ""
	}
	last := matches[len(matches)-1]
	if last[1] != "" {
		return last[1]
	}
	return last[2]
}

// LinkPayItems appends every item code to its section's RelatedPayItems.
// Linking is idempotent. Items whose section was not extracted are counted as orphaned.
func LinkPayItems(sections []*core.Section, items []*core.PayItem) (linked, orphaned int) {
	byNumber := make(map[string]*core.Section, len(sections))
	for _, s := range sections {
		byNumber[s.SectionNumber] = s
	}
	for _, item := range items {
		section, ok := byNumber[item.SectionNumber]
		if !ok {
			orphaned++
			continue
		}
		section.AddPayItem(item.ItemNumber)
		linked++
	}
	return linked, orphaned
}
