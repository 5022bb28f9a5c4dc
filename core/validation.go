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


package core

import (
	"fmt"
	"strconv"
	"strings"
)

// DivisionNumberFor returns the division a section number belongs to (624 -> 600).
// Returns 0 if the section number is not numeric.
func DivisionNumberFor(sectionNumber string) int {
	n, err := strconv.Atoi(sectionNumber)
	if err != nil {
		return 0
	}
	return (n / 100) * 100
}

// HierarchyLevel returns the number of dot components a subsection number adds to its
// section number ("624", "624.6.1" -> 2). Returns 0 if it is not a strict dot-extension.
func HierarchyLevel(sectionNumber, subsectionNumber string) int {
	rest, ok := strings.CutPrefix(subsectionNumber, sectionNumber+".")
	if !ok || rest == "" {
		return 0
	}
	parts := strings.Split(rest, ".")
	for _, p := range parts {
		if p == "" || !isDigits(p) {
			return 0
		}
	}
	return len(parts)
}

// ParentNumber truncates a subsection number by one component.
// Level-1 subsections have no parent and yield "".
func ParentNumber(sectionNumber, subsectionNumber string) string {
	if HierarchyLevel(sectionNumber, subsectionNumber) < 2 {
		return ""
	}
	return subsectionNumber[:strings.LastIndex(subsectionNumber, ".")]
}

// ValidateSection validates a Section according to domain rules.
//
// Validation rules:
//   - SectionNumber must be three digits
//   - DivisionNumber must equal floor(SectionNumber / 100) * 100
func ValidateSection(section *Section) error {
	if section == nil {
		return fmt.Errorf("%w: section is nil", ErrInvalidSection)
	}
	if len(section.SectionNumber) != 3 || !isDigits(section.SectionNumber) {
		return fmt.Errorf("%w: %w", ErrInvalidSection, ErrInvalidSectionNumber)
	}
	if section.DivisionNumber != DivisionNumberFor(section.SectionNumber) {
		return fmt.Errorf("%w: %w", ErrInvalidSection, ErrDivisionMismatch)
	}
	return nil
}

// ValidateSubsection validates a Subsection according to domain rules.
//
// Validation rules:
//   - SubsectionNumber must be a strict dot-extension of SectionNumber
//   - HierarchyLevel must be 1-3 and equal the number of added components
//   - ParentSubsection must be the number truncated by one level (empty for level 1)
func ValidateSubsection(sub *Subsection) error {
	if sub == nil {
		return fmt.Errorf("%w: subsection is nil", ErrInvalidSubsection)
	}
	level := HierarchyLevel(sub.SectionNumber, sub.SubsectionNumber)
	if level == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSubsection, ErrNotDotExtension)
	}
	if level > 3 || level != sub.HierarchyLevel {
		return fmt.Errorf("%w: %w", ErrInvalidSubsection, ErrInvalidHierarchyLevel)
	}
	if sub.ParentSubsection != ParentNumber(sub.SectionNumber, sub.SubsectionNumber) {
		return fmt.Errorf("%w: %w", ErrInvalidSubsection, ErrInvalidParent)
	}
	return nil
}

// ValidatePayItem validates a PayItem according to domain rules.
func ValidatePayItem(item *PayItem) error {
	if item == nil {
		return fmt.Errorf("%w: pay item is nil", ErrInvalidPayItem)
	}
	if len(item.ItemNumber) != 6 || !isDigits(item.ItemNumber) {
		return fmt.Errorf("%w: %w", ErrInvalidPayItem, ErrInvalidItemNumber)
	}
	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
// A chunk never contains zero characters.
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if strings.TrimSpace(chunk.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}
	return nil
}

// ValidateChunkWithEmbedding validates a chunk that is about to be persisted.
//
// NOT validated:
//   - Vector dimension (checked by the embedding generator against its configuration)
func ValidateChunkWithEmbedding(chunk *ChunkWithEmbedding) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if err := ValidateChunk(&chunk.Chunk); err != nil {
		return err
	}
	if len(chunk.Embedding) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrMissingEmbedding)
	}
	if chunk.EmbeddingModel == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrMissingEmbeddingModel)
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
