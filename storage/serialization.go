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


package storage

import (
	"fmt"

	"github.com/poiesic/specindex/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return id, nil
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, core.DocumentMUS.Size(*doc))
	core.DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := core.DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}

// MarshalDivision serializes a Division to bytes.
func MarshalDivision(division *core.Division) []byte {
	buf := make([]byte, core.DivisionMUS.Size(*division))
	core.DivisionMUS.Marshal(*division, buf)
	return buf
}

// UnmarshalDivision deserializes a Division from bytes.
func UnmarshalDivision(data []byte) (*core.Division, error) {
	division, _, err := core.DivisionMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &division, nil
}

// MarshalSection serializes a Section to bytes.
func MarshalSection(section *core.Section) []byte {
	buf := make([]byte, core.SectionMUS.Size(*section))
	core.SectionMUS.Marshal(*section, buf)
	return buf
}

// UnmarshalSection deserializes a Section from bytes.
func UnmarshalSection(data []byte) (*core.Section, error) {
	section, _, err := core.SectionMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &section, nil
}

// MarshalSubsection serializes a Subsection to bytes.
func MarshalSubsection(sub *core.Subsection) []byte {
	buf := make([]byte, core.SubsectionMUS.Size(*sub))
	core.SubsectionMUS.Marshal(*sub, buf)
	return buf
}

// UnmarshalSubsection deserializes a Subsection from bytes.
func UnmarshalSubsection(data []byte) (*core.Subsection, error) {
	sub, _, err := core.SubsectionMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &sub, nil
}

// MarshalPayItem serializes a PayItem to bytes.
func MarshalPayItem(item *core.PayItem) []byte {
	buf := make([]byte, core.PayItemMUS.Size(*item))
	core.PayItemMUS.Marshal(*item, buf)
	return buf
}

// UnmarshalPayItem deserializes a PayItem from bytes.
func UnmarshalPayItem(data []byte) (*core.PayItem, error) {
	item, _, err := core.PayItemMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &item, nil
}

// MarshalChunk serializes an embedded chunk to bytes.
func MarshalChunk(chunk *core.ChunkWithEmbedding) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes an embedded chunk from bytes.
func UnmarshalChunk(data []byte) (*core.ChunkWithEmbedding, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &chunk, nil
}

// MarshalQueryLog serializes a QueryLog to bytes.
func MarshalQueryLog(entry *core.QueryLog) []byte {
	buf := make([]byte, core.QueryLogMUS.Size(*entry))
	core.QueryLogMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalQueryLog deserializes a QueryLog from bytes.
func UnmarshalQueryLog(data []byte) (*core.QueryLog, error) {
	entry, _, err := core.QueryLogMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &entry, nil
}
