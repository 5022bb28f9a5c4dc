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


package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/poiesic/specindex/core"
	"github.com/poiesic/specindex/ingestion"
	"github.com/poiesic/specindex/search"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen)
	warning = color.New(color.FgYellow)
	failure = color.New(color.FgRed, color.Bold)
	faint   = color.New(color.Faint)
)

// excerptWidth is the number of characters of chunk content shown per result.
const excerptWidth = 240

func renderReport(w io.Writer, report *ingestion.Report) {
	heading.Fprintf(w, "Imported %q (document %d) in %s\n", report.Name, report.DocumentId, report.Duration.Round(time.Millisecond))
	for _, s := range report.Stages {
		status := success
		if s.Failed > 0 {
			status = warning
		}
		status.Fprintf(w, "  %-15s %6d ok %6d failed\n", s.Stage, s.Succeeded, s.Failed)
	}
	if report.Usage != nil {
		faint.Fprintf(w, "  ~%d tokens in %d batches, estimated cost $%.4f\n",
			report.Usage.Tokens, report.Usage.Batches, report.Usage.EstimatedCostUSD)
	}
}

func renderResponse(w io.Writer, resp *search.Response) {
	if resp.Answer != "" {
		heading.Fprintln(w, "Answer")
		fmt.Fprintln(w, resp.Answer)
		fmt.Fprintln(w)
	}
	if resp.SynthesisError != "" {
		warning.Fprintf(w, "Answer unavailable: %s\n\n", resp.SynthesisError)
	}

	if len(resp.Chunks) == 0 {
		warning.Fprintln(w, "No matching specification content found.")
		return
	}

	heading.Fprintf(w, "Excerpts (%d)\n", len(resp.Chunks))
	terms := search.QueryTerms(resp.Query)
	for i, match := range resp.Chunks {
		chunk := match.Chunk
		ref := "Section " + chunk.SectionNumber
		if chunk.SubsectionNumber != "" {
			ref = "Subsection " + chunk.SubsectionNumber
		}
		success.Fprintf(w, "[%d] %s", i+1, ref)
		faint.Fprintf(w, "  %.3f  %s\n", match.Similarity, chunk.ChunkType)
		fmt.Fprintf(w, "    %s\n", highlight(excerpt(chunk.Content), terms))
		if len(chunk.PayItemCodes) > 0 {
			faint.Fprintf(w, "    pay items: %s\n", strings.Join(chunk.PayItemCodes, ", "))
		}
	}
	faint.Fprintf(w, "\n%s\n", resp.Latency.Round(time.Millisecond))
}

func renderSections(w io.Writer, doc *core.Document, sections []*core.Section) {
	heading.Fprintf(w, "%s (document %d, %d sections)\n", doc.Name, doc.Id, len(sections))
	division := -1
	for _, s := range sections {
		if s.DivisionNumber != division {
			division = s.DivisionNumber
			faint.Fprintf(w, "Division %d\n", division)
		}
		fmt.Fprintf(w, "  %s  %s", success.Sprint(s.SectionNumber), s.Title)
		if len(s.RelatedPayItems) > 0 {
			faint.Fprintf(w, "  (%d pay items)", len(s.RelatedPayItems))
		}
		fmt.Fprintln(w)
	}
}

func renderSection(w io.Writer, section *core.Section, subsections []*core.Subsection) {
	heading.Fprintf(w, "SECTION %s %s\n", section.SectionNumber, section.Title)
	if section.PageHint > 0 {
		faint.Fprintf(w, "page %d\n", section.PageHint)
	}
	for _, sub := range subsections {
		indent := strings.Repeat("  ", sub.HierarchyLevel)
		fmt.Fprintf(w, "%s%s %s\n", indent, success.Sprint(sub.SubsectionNumber), sub.Title)
	}
	if len(section.RelatedPayItems) > 0 {
		faint.Fprintf(w, "pay items: %s\n", strings.Join(section.RelatedPayItems, ", "))
	}
}

func renderQueries(w io.Writer, entries []*core.QueryLog) {
	if len(entries) == 0 {
		warning.Fprintln(w, "No queries logged.")
		return
	}
	for _, e := range entries {
		faint.Fprintf(w, "%s  ", e.Timestamp.Local().Format(time.DateTime))
		fmt.Fprintf(w, "%q", e.Query)
		faint.Fprintf(w, "  %d results  %s\n", e.ResultCount, e.Latency.Round(time.Millisecond))
	}
}

func excerpt(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if len(content) <= excerptWidth {
		return content
	}
	cut := strings.LastIndexByte(content[:excerptWidth], ' ')
	if cut <= 0 {
		cut = excerptWidth
	}
	return content[:cut] + "..."
}

// highlight bolds every word of text that is one of the query terms.
func highlight(text string, terms []string) string {
	if len(terms) == 0 {
		return text
	}
	set := make(map[string]bool, len(terms))
	for _, t := range terms {
		set[t] = true
	}
	bold := color.New(color.Bold).SprintFunc()
	words := strings.Split(text, " ")
	for i, word := range words {
		if set[strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))] {
			words[i] = bold(word)
		}
	}
	return strings.Join(words, " ")
}

// printingMonitor reports each query step as it happens.
type printingMonitor struct {
	w     io.Writer
	start time.Time
}

var _ search.QueryMonitor = (*printingMonitor)(nil)

func newPrintingMonitor(w io.Writer) *printingMonitor {
	return &printingMonitor{w: w}
}

func (m *printingMonitor) Start(query string) {
	m.start = time.Now()
	faint.Fprintf(m.w, "query: %q\n", query)
}

func (m *printingMonitor) AfterEmbedding(dimensions int) {
	faint.Fprintf(m.w, "embedded query (%d dimensions) after %s\n", dimensions, m.elapsed())
}

func (m *printingMonitor) AfterFilterResolution(filters core.SearchFilters) {
	faint.Fprintf(m.w, "filters: %d section ids, pay items %v, model %s\n",
		len(filters.SectionIds), filters.PayItemCodes, filters.EmbeddingModel)
}

func (m *printingMonitor) AfterSearch(matches []*core.ChunkMatch) {
	faint.Fprintf(m.w, "found %d chunks after %s\n", len(matches), m.elapsed())
}

func (m *printingMonitor) SynthesisFailed(err error) {
	failure.Fprintf(m.w, "synthesis failed: %v\n", err)
}

func (m *printingMonitor) Finish(response *search.Response) {
	faint.Fprintf(m.w, "done in %s\n\n", m.elapsed())
}

func (m *printingMonitor) elapsed() time.Duration {
	return time.Since(m.start).Round(time.Millisecond)
}
