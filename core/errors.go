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

import "errors"

// Domain validation errors
var (
	// ErrInvalidSection indicates a Section failed validation.
	ErrInvalidSection = errors.New("invalid section")

	// ErrInvalidSubsection indicates a Subsection failed validation.
	ErrInvalidSubsection = errors.New("invalid subsection")

	// ErrInvalidPayItem indicates a PayItem failed validation.
	ErrInvalidPayItem = errors.New("invalid pay item")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyContent indicates the content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidSectionNumber indicates a section number is not three digits.
	ErrInvalidSectionNumber = errors.New("section number must be three digits")

	// ErrDivisionMismatch indicates a section's division number does not match its section number.
	ErrDivisionMismatch = errors.New("division number does not match section number")

	// ErrNotDotExtension indicates a subsection number does not extend its section number.
	ErrNotDotExtension = errors.New("subsection number is not an extension of its section number")

	// ErrInvalidHierarchyLevel indicates a hierarchy level outside 1-3 or inconsistent with the number.
	ErrInvalidHierarchyLevel = errors.New("invalid hierarchy level")

	// ErrInvalidParent indicates a parent subsection that is not the number truncated by one level.
	ErrInvalidParent = errors.New("invalid parent subsection")

	// ErrInvalidItemNumber indicates a pay item number that is not six digits.
	ErrInvalidItemNumber = errors.New("pay item number must be six digits")

	// ErrMissingEmbedding indicates a chunk without an embedding vector.
	ErrMissingEmbedding = errors.New("embedding cannot be empty")

	// ErrMissingEmbeddingModel indicates an embedding without its model identifier.
	ErrMissingEmbeddingModel = errors.New("embedding model cannot be empty")

	// ErrCorruptRecord indicates a stored record whose encoded lengths exceed its size.
	ErrCorruptRecord = errors.New("corrupt record")
)
