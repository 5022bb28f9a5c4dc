// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package parser

import (
	"regexp"
	"strings"
)

// PageMarker replaces form feeds so page boundaries survive normalization.
const PageMarker = "[[PAGE]]"

// four or more blank lines after a line ending
var blankRun = regexp.MustCompile(`\n(?:[ \t]*\n){4,}`)

// Normalize converts raw extracted text into the canonical form the matchers expect.
// Line endings become "\n", form feeds become a PageMarker line and runs of four or more
// blank lines collapse to two. Only whitespace is ever removed.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\f", "\n"+PageMarker+"\n")
	return blankRun.ReplaceAllString(text, "\n\n\n")
}

// pageAt returns the 1-based page containing offset, or 0 when the text has no page markers.
func pageAt(text string, offset int) int {
	if !strings.Contains(text, PageMarker) {
		return 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	return strings.Count(text[:offset], PageMarker) + 1
}
