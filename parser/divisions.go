package parser

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/poiesic/specindex/core"
)

// DivisionTitles maps each division of the manual to its title.
var DivisionTitles = map[int]string{
	100: "GENERAL PROVISIONS",
	200: "EARTHWORK",
	300: "BASE COURSES",
	400: "ASPHALT PAVEMENTS",
	500: "RIGID PAVEMENTS",
	600: "STRUCTURES",
	700: "INCIDENTAL CONSTRUCTION",
	800: "TRAFFIC CONTROL",
	900: "MATERIALS",
}

// divisionProbes holds, per division, the patterns that prove one of its sections is present.
var divisionProbes = func() map[int][]*regexp.Regexp {
	probes := make(map[int][]*regexp.Regexp, len(DivisionTitles))
	for number := range DivisionTitles {
		lead := number / 100
		probes[number] = []*regexp.Regexp{
			regexp.MustCompile(fmt.Sprintf(`(?i)\bSECTION\s+%d\d{2}\b`, lead)),
			// "624 SHOTCRETE" or "624.1-DESCRIPTION", never a numeric table row
			regexp.MustCompile(fmt.Sprintf(`(?m)^[ \t]*%d\d{2}(?:[ \t]+[A-Z]|(?:\.\d{1,2})+[ \t]*-[ \t]*[A-Za-z])`, lead)),
		}
	}
	return probes
}()

// DetectDivisions reports the divisions whose sections appear anywhere in text.
// It is a presence test; divisions carry no offsets. Results are ordered by number.
func DetectDivisions(text string) []*core.Division {
	numbers := make([]int, 0, len(DivisionTitles))
	for number := range DivisionTitles {
		numbers = append(numbers, number)
	}
	sort.Ints(numbers)

	var divisions []*core.Division
	for _, number := range numbers {
		for _, probe := range divisionProbes[number] {
			if probe.MatchString(text) {
				divisions = append(divisions, &core.Division{
					Number: number,
					Title:  DivisionTitles[number],
				})
				break
			}
		}
	}
	return divisions
}
