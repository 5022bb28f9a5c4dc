package server

import (
	"time"

	"github.com/poiesic/specindex/ai"
	"github.com/poiesic/specindex/core"
	"github.com/poiesic/specindex/search"
)

type messageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type queryRequest struct {
	Query      string       `json:"query"`
	Sections   []string     `json:"sections,omitempty"`
	PayItem    string       `json:"pay_item,omitempty"`
	History    []messageDTO `json:"history,omitempty"`
	Synthesize *bool        `json:"synthesize,omitempty"`
	MaxResults int          `json:"max_results,omitempty"`
	Threshold  *float32     `json:"threshold,omitempty"`
}

// toRequest converts the body to an engine request. Synthesis is on unless disabled.
func (q *queryRequest) toRequest() *search.Request {
	req := &search.Request{
		Query:          q.Query,
		SectionNumbers: q.Sections,
		PayItemCode:    q.PayItem,
		Synthesize:     q.Synthesize == nil || *q.Synthesize,
		MaxResults:     q.MaxResults,
		Threshold:      q.Threshold,
	}
	for _, m := range q.History {
		req.History = append(req.History, ai.Message{Role: ai.Role(m.Role), Content: m.Content})
	}
	return req
}

type chunkDTO struct {
	Id               uint64   `json:"id"`
	SectionNumber    string   `json:"section_number"`
	SubsectionNumber string   `json:"subsection_number,omitempty"`
	SectionContext   string   `json:"section_context"`
	Content          string   `json:"content"`
	ChunkType        string   `json:"chunk_type"`
	Similarity       float32  `json:"similarity"`
	PayItemCodes     []string `json:"pay_item_codes,omitempty"`
	MatchedTerms     []string `json:"matched_terms,omitempty"`
}

type queryResponse struct {
	Query          string     `json:"query"`
	Answer         string     `json:"answer,omitempty"`
	SynthesisError string     `json:"synthesis_error,omitempty"`
	Success        bool       `json:"success"`
	LatencyMs      int64      `json:"latency_ms"`
	Chunks         []chunkDTO `json:"chunks"`
}

func newQueryResponse(resp *search.Response) queryResponse {
	out := queryResponse{
		Query:          resp.Query,
		Answer:         resp.Answer,
		SynthesisError: resp.SynthesisError,
		Success:        resp.Success,
		LatencyMs:      resp.Latency.Milliseconds(),
		Chunks:         make([]chunkDTO, 0, len(resp.Chunks)),
	}
	for _, match := range resp.Chunks {
		c := match.Chunk
		out.Chunks = append(out.Chunks, chunkDTO{
			Id:               uint64(c.Id),
			SectionNumber:    c.SectionNumber,
			SubsectionNumber: c.SubsectionNumber,
			SectionContext:   c.SectionContext,
			Content:          c.Content,
			ChunkType:        c.ChunkType.String(),
			Similarity:       match.Similarity,
			PayItemCodes:     c.PayItemCodes,
			MatchedTerms:     search.MatchedTerms(c.Content, resp.Query),
		})
	}
	return out
}

type documentDTO struct {
	Id                  uint64    `json:"id"`
	Name                string    `json:"name"`
	EmbeddingModel      string    `json:"embedding_model"`
	EmbeddingDimensions int       `json:"embedding_dimensions"`
	InsertedAt          time.Time `json:"inserted_at"`
}

func newDocumentDTO(doc *core.Document) documentDTO {
	return documentDTO{
		Id:                  uint64(doc.Id),
		Name:                doc.Name,
		EmbeddingModel:      doc.EmbeddingModel,
		EmbeddingDimensions: doc.EmbeddingDimensions,
		InsertedAt:          doc.InsertedAt,
	}
}

type subsectionDTO struct {
	Number          string   `json:"number"`
	Title           string   `json:"title"`
	Level           int      `json:"level"`
	Parent          string   `json:"parent,omitempty"`
	Content         string   `json:"content"`
	CrossReferences []string `json:"cross_references,omitempty"`
}

type sectionDTO struct {
	DocumentId     uint64          `json:"document_id"`
	Number         string          `json:"number"`
	Title          string          `json:"title"`
	DivisionNumber int             `json:"division_number"`
	PageHint       int             `json:"page_hint,omitempty"`
	PayItems       []string        `json:"pay_items,omitempty"`
	Text           string          `json:"text"`
	Subsections    []subsectionDTO `json:"subsections"`
}

func newSectionDTO(section *core.Section, subsections []*core.Subsection) sectionDTO {
	out := sectionDTO{
		DocumentId:     uint64(section.DocumentId),
		Number:         section.SectionNumber,
		Title:          section.Title,
		DivisionNumber: section.DivisionNumber,
		PageHint:       section.PageHint,
		PayItems:       section.RelatedPayItems,
		Text:           section.FullText,
		Subsections:    make([]subsectionDTO, 0, len(subsections)),
	}
	for _, sub := range subsections {
		out.Subsections = append(out.Subsections, subsectionDTO{
			Number:          sub.SubsectionNumber,
			Title:           sub.Title,
			Level:           sub.HierarchyLevel,
			Parent:          sub.ParentSubsection,
			Content:         sub.Content,
			CrossReferences: sub.CrossReferences,
		})
	}
	return out
}

type payItemDTO struct {
	Code          string `json:"code"`
	Description   string `json:"description"`
	Unit          string `json:"unit"`
	SectionNumber string `json:"section_number"`
}

type queryLogDTO struct {
	Id          string    `json:"id"`
	Query       string    `json:"query"`
	ResultCount int       `json:"result_count"`
	TopChunkIds []uint64  `json:"top_chunk_ids"`
	Answered    bool      `json:"answered"`
	LatencyMs   int64     `json:"latency_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

func newQueryLogDTO(entry *core.QueryLog) queryLogDTO {
	out := queryLogDTO{
		Id:          entry.Id.String(),
		Query:       entry.Query,
		ResultCount: entry.ResultCount,
		TopChunkIds: make([]uint64, 0, len(entry.TopChunkIds)),
		Answered:    entry.Answer != "",
		LatencyMs:   entry.Latency.Milliseconds(),
		Timestamp:   entry.Timestamp,
	}
	for _, id := range entry.TopChunkIds {
		out.TopChunkIds = append(out.TopChunkIds, uint64(id))
	}
	return out
}
