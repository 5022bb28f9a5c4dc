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
	"log/slog"

	"github.com/poiesic/specindex/core"
)

// Result is the structure recovered from one document.
type Result struct {
	Text        string // normalized text the entities were extracted from
	Divisions   []*core.Division
	Sections    []*core.Section
	Subsections []*core.Subsection
	PayItems    []*core.PayItem

	LinkedPayItems   int
	OrphanedPayItems int
}

// Parser runs the matchers over a document and logs what they found.
type Parser struct {
	logger *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a parser.
func New(opts ...Option) *Parser {
	p := &Parser{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "parser")
	return p
}

// Parse extracts divisions, sections, subsections and pay items from raw text and links
// pay items to their sections. It never fails; unmatched patterns yield fewer entities.
// Parsing the same input twice yields the same entities.
func (p *Parser) Parse(raw string) *Result {
	text := Normalize(raw)

	result := &Result{
		Text:      text,
		Divisions: DetectDivisions(text),
		Sections:  ExtractSections(text),
	}

	// Subsection numbers are unique across the document. Over-captured sections can
	// repeat a neighbour's headers, which the dot-extension check already rejects.
	seen := make(map[string]bool)
	for _, section := range result.Sections {
		for _, sub := range ExtractSubsections(section) {
			if seen[sub.SubsectionNumber] {
				continue
			}
			seen[sub.SubsectionNumber] = true
			result.Subsections = append(result.Subsections, sub)
		}
	}

	result.PayItems = ExtractPayItems(text)
	result.LinkedPayItems, result.OrphanedPayItems = LinkPayItems(result.Sections, result.PayItems)

	if result.OrphanedPayItems > 0 {
		p.logger.Debug("pay items without a section", "count", result.OrphanedPayItems)
	}
	p.logger.Info("parsed document",
		"divisions", len(result.Divisions),
		"sections", len(result.Sections),
		"subsections", len(result.Subsections),
		"payItems", len(result.PayItems),
		"linked", result.LinkedPayItems)

	return result
}
