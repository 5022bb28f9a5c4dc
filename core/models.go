package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document is one imported version of the specification manual.
type Document struct {
	Id                  ID
	Name                string
	EmbeddingModel      string // Model identifier the document's vectors were produced with
	EmbeddingDimensions int
	InsertedAt          time.Time
}

// Division is a top-level classification of the manual (e.g. 200 EARTHWORK).
type Division struct {
	Id         ID
	DocumentId ID
	Number     int
	Title      string
}

// Section is a numbered section such as "624 SHOTCRETE".
// Sections are keyed by SectionNumber; subsections and chunks refer to them by that key.
type Section struct {
	Id              ID
	DocumentId      ID
	DivisionId      ID
	SectionNumber   string
	Title           string
	DivisionNumber  int
	FullText        string
	PageHint        int // 1-based page the header was found on, 0 if unknown
	RelatedPayItems []string
}

// AddPayItem links a pay item code to the section. Linking the same code twice is a no-op.
// Returns true if the code was added.
func (s *Section) AddPayItem(code string) bool {
	for _, existing := range s.RelatedPayItems {
		if existing == code {
			return false
		}
	}
	s.RelatedPayItems = append(s.RelatedPayItems, code)
	return true
}

// Subsection is a numbered subsection nested below a section (e.g. 624.6.1).
type Subsection struct {
	Id               ID
	SectionId        ID
	ParentId         ID
	SectionNumber    string
	SubsectionNumber string
	Title            string
	Content          string
	HierarchyLevel   int    // 1, 2 or 3
	ParentSubsection string // empty for level 1
	CrossReferences  []string
}

// PayItem is a billable unit of work referenced by a section.
type PayItem struct {
	ItemNumber    string // six digits
	Description   string
	Unit          string
	SectionNumber string
}

// ChunkType classifies the content of a chunk.
// The declaration order is the tie-break order used by keyword scoring.
type ChunkType int

const (
	ChunkTypeSectionHeader ChunkType = iota + 1
	ChunkTypeRequirement
	ChunkTypeMaterial
	ChunkTypeConstruction
	ChunkTypeTesting
	ChunkTypeEquipment
	ChunkTypeMeasurement
	ChunkTypePayment
	ChunkTypeTable
	ChunkTypeDefinition
)

var chunkTypeNames = map[ChunkType]string{
	ChunkTypeSectionHeader: "SECTION_HEADER",
	ChunkTypeRequirement:   "REQUIREMENT",
	ChunkTypeMaterial:      "MATERIAL",
	ChunkTypeConstruction:  "CONSTRUCTION",
	ChunkTypeTesting:       "TESTING",
	ChunkTypeEquipment:     "EQUIPMENT",
	ChunkTypeMeasurement:   "MEASUREMENT",
	ChunkTypePayment:       "PAYMENT",
	ChunkTypeTable:         "TABLE",
	ChunkTypeDefinition:    "DEFINITION",
}

// String returns the upper-case name of the chunk type.
func (t ChunkType) String() string {
	if name, ok := chunkTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// ChunkTypes lists all chunk types in declaration order.
func ChunkTypes() []ChunkType {
	return []ChunkType{
		ChunkTypeSectionHeader,
		ChunkTypeRequirement,
		ChunkTypeMaterial,
		ChunkTypeConstruction,
		ChunkTypeTesting,
		ChunkTypeEquipment,
		ChunkTypeMeasurement,
		ChunkTypePayment,
		ChunkTypeTable,
		ChunkTypeDefinition,
	}
}

// Chunk is a retrieval-sized span of a section or subsection.
type Chunk struct {
	SectionNumber    string
	SubsectionNumber string // empty for section header chunks
	SectionContext   string
	Content          string
	ChunkType        ChunkType
	ChunkIndex       int // strictly increasing across one ingestion run
	TokenCount       int
	PayItemCodes     []string
	Keywords         []string
}

// EmbeddingInput is the text sent to the embedding service for this chunk.
func (c *Chunk) EmbeddingInput() string {
	return c.SectionContext + "\n\n" + c.Content
}

// ChunkWithEmbedding is a chunk whose embedding has been generated.
// Only these are ever persisted.
type ChunkWithEmbedding struct {
	Chunk
	Id             ID
	DocumentId     ID
	SectionId      ID
	SubsectionId   ID
	EmbeddingModel string
	Embedding      []float32
}

// SearchFilters narrows a similarity search.
// Empty slices mean no restriction.
type SearchFilters struct {
	SectionIds     []ID
	PayItemCodes   []string
	EmbeddingModel string // when set, vectors from other models are skipped
}

// ChunkMatch is a chunk returned by similarity search with its score.
type ChunkMatch struct {
	Chunk      *ChunkWithEmbedding
	Similarity float32
}

// QueryLog records a single retrieval request for analytics.
type QueryLog struct {
	Id          uuid.UUID
	Query       string
	Embedding   []float32
	ResultCount int
	TopChunkIds []ID // at most five
	Answer      string
	Latency     time.Duration
	Timestamp   time.Time
}
