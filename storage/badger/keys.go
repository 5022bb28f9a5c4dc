package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/specindex/core"
)

// Key prefixes for different data types. Every prefix ends in ':' so that a
// prefix scan over one type never picks up keys of another.
const (
	documentPrefix      = "doc:"
	divisionPrefix      = "div:"
	sectionPrefix       = "sec:"
	sectionNumberPrefix = "secn:"
	subsectionPrefix    = "sub:"
	payItemPrefix       = "pay:"
	chunkPrefix         = "chk:"
	queryLogPrefix      = "qlog:"
	documentIDSeq       = "seq:doc"
)

// makeDocumentKey generates a key for a document by ID.
// Documents are few, so the decimal form is fine; ordering comes from ListDocuments.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s%d", documentPrefix, id))
}

// makeScopedKey builds prefix:<scope><id> with both IDs big-endian so that all
// records of one scope are contiguous and sorted.
func makeScopedKey(prefix string, scope, id core.ID) []byte {
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(scope))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeScopePrefix builds prefix:<scope> for scans over one scope.
func makeScopePrefix(prefix string, scope core.ID) []byte {
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(scope))
	return buf
}

// makeDivisionKey format: div:<docID><divisionID>
func makeDivisionKey(docID, id core.ID) []byte {
	return makeScopedKey(divisionPrefix, docID, id)
}

// makeSectionKey format: sec:<docID><sectionID>
func makeSectionKey(docID, id core.ID) []byte {
	return makeScopedKey(sectionPrefix, docID, id)
}

// makeSectionNumberKey indexes sections by number.
// Format: secn:<number>:<docID>, value is the section ID.
func makeSectionNumberKey(number string, docID core.ID) []byte {
	prefix := makePartialSectionNumberKey(number)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(docID))
	return buf
}

// makePartialSectionNumberKey format: secn:<number>:
func makePartialSectionNumberKey(number string) []byte {
	return []byte(sectionNumberPrefix + number + ":")
}

// makeSubsectionKey format: sub:<sectionID><subsectionID>
func makeSubsectionKey(sectionID, id core.ID) []byte {
	return makeScopedKey(subsectionPrefix, sectionID, id)
}

// makePayItemKey format: pay:<docID><code>
func makePayItemKey(docID core.ID, code string) []byte {
	scope := makeScopePrefix(payItemPrefix, docID)
	buf := make([]byte, len(scope)+len(code))
	offset := copy(buf, scope)
	copy(buf[offset:], code)
	return buf
}

// makeChunkKey format: chk:<docID><chunkID>
func makeChunkKey(docID, id core.ID) []byte {
	return makeScopedKey(chunkPrefix, docID, id)
}

// chunkIDFromKey extracts the chunk ID from a key built by makeChunkKey.
func chunkIDFromKey(key []byte) core.ID {
	if len(key) < 8 {
		return 0
	}
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}

// makeQueryLogKey generates a time-ordered key for a query log entry.
// Format: qlog:<unix micros><uuid>
func makeQueryLogKey(timestamp time.Time, id uuid.UUID) []byte {
	buf := make([]byte, len(queryLogPrefix)+8+len(id))
	offset := copy(buf, queryLogPrefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	copy(buf[offset:], id[:])
	return buf
}

// Content-derived IDs. The same document/number pair always maps to the same ID,
// so re-running an insert overwrites rather than duplicates.

func divisionID(docID core.ID, number int) core.ID {
	return core.IDFromContent(fmt.Sprintf("%d/division/%d", docID, number))
}

func sectionID(docID core.ID, number string) core.ID {
	return core.IDFromContent(fmt.Sprintf("%d/section/%s", docID, number))
}

func subsectionID(sectionID core.ID, number string) core.ID {
	return core.IDFromContent(fmt.Sprintf("%d/subsection/%s", sectionID, number))
}

func chunkID(docID core.ID, index int) core.ID {
	return core.IDFromContent(fmt.Sprintf("%d/chunk/%d", docID, index))
}
