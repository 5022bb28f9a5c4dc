package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Record serializers. Each one follows the mus serializer method set
// (Marshal/Unmarshal/Size/Skip) and is composed from mus primitive serializers.
// Field order is the wire order; append new fields at the end.
var (
	IDMUS         = idMUS{}
	DocumentMUS   = documentMUS{}
	DivisionMUS   = divisionMUS{}
	SectionMUS    = sectionMUS{}
	SubsectionMUS = subsectionMUS{}
	PayItemMUS    = payItemMUS{}
	ChunkMUS      = chunkMUS{}
	QueryLogMUS   = queryLogMUS{}
)

// musWriter marshals fields sequentially into a buffer sized by the matching Size method.
type musWriter struct {
	bs []byte
	n  int
}

func (w *musWriter) id(v ID)          { w.n += varint.Uint64.Marshal(uint64(v), w.bs[w.n:]) }
func (w *musWriter) int(v int)        { w.n += varint.Int.Marshal(v, w.bs[w.n:]) }
func (w *musWriter) int64(v int64)    { w.n += varint.Int64.Marshal(v, w.bs[w.n:]) }
func (w *musWriter) str(v string)     { w.n += ord.String.Marshal(v, w.bs[w.n:]) }
func (w *musWriter) time(v time.Time) { w.int64(v.UnixMicro()) }

func (w *musWriter) strs(v []string) {
	w.int(len(v))
	for _, s := range v {
		w.str(s)
	}
}
func (w *musWriter) ids(v []ID) {
	w.int(len(v))
	for _, id := range v {
		w.id(id)
	}
}
func (w *musWriter) vector(v []float32) {
	w.int(len(v))
	for _, f := range v {
		w.n += raw.Float32.Marshal(f, w.bs[w.n:])
	}
}

// musReader unmarshals fields sequentially. The first error stops further reads.
type musReader struct {
	bs  []byte
	n   int
	err error
}

func (r *musReader) id() ID {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return ID(v)
}

func (r *musReader) int() int {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *musReader) int64() int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *musReader) str() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *musReader) time() time.Time {
	micros := r.int64()
	if r.err != nil {
		return time.Time{}
	}
	return time.UnixMicro(micros).UTC()
}

// length reads a collection length and rejects values that cannot fit in the remaining bytes.
func (r *musReader) length() int {
	l := r.int()
	if r.err == nil && (l < 0 || l > len(r.bs)-r.n) {
		r.err = ErrCorruptRecord
		return 0
	}
	return l
}

func (r *musReader) strs() []string {
	l := r.length()
	if r.err != nil || l == 0 {
		return nil
	}
	v := make([]string, l)
	for i := range v {
		v[i] = r.str()
	}
	return v
}

func (r *musReader) ids() []ID {
	l := r.length()
	if r.err != nil || l == 0 {
		return nil
	}
	v := make([]ID, l)
	for i := range v {
		v[i] = r.id()
	}
	return v
}

func (r *musReader) vector() []float32 {
	l := r.length()
	if r.err != nil || l == 0 {
		return nil
	}
	v := make([]float32, l)
	for i := range v {
		if r.err != nil {
			return nil
		}
		f, n, err := raw.Float32.Unmarshal(r.bs[r.n:])
		r.n += n
		r.err = err
		v[i] = f
	}
	return v
}

func sizeID(v ID) int          { return varint.Uint64.Size(uint64(v)) }
func sizeInt(v int) int        { return varint.Int.Size(v) }
func sizeStr(v string) int     { return ord.String.Size(v) }
func sizeTime(v time.Time) int { return varint.Int64.Size(v.UnixMicro()) }

func sizeStrs(v []string) int {
	size := sizeInt(len(v))
	for _, s := range v {
		size += sizeStr(s)
	}
	return size
}

func sizeIDs(v []ID) int {
	size := sizeInt(len(v))
	for _, id := range v {
		size += sizeID(id)
	}
	return size
}

func sizeVector(v []float32) int {
	size := sizeInt(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) { return varint.Uint64.Marshal(uint64(v), bs) }
func (idMUS) Size(v ID) int                   { return sizeID(v) }
func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}
func (s idMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type documentMUS struct{}

func (documentMUS) Marshal(v Document, bs []byte) (n int) {
	w := &musWriter{bs: bs}
	w.id(v.Id)
	w.str(v.Name)
	w.str(v.EmbeddingModel)
	w.int(v.EmbeddingDimensions)
	w.time(v.InsertedAt)
	return w.n
}

func (documentMUS) Size(v Document) int {
	return sizeID(v.Id) + sizeStr(v.Name) + sizeStr(v.EmbeddingModel) +
		sizeInt(v.EmbeddingDimensions) + sizeTime(v.InsertedAt)
}

func (documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	r := &musReader{bs: bs}
	v.Id = r.id()
	v.Name = r.str()
	v.EmbeddingModel = r.str()
	v.EmbeddingDimensions = r.int()
	v.InsertedAt = r.time()
	return v, r.n, r.err
}

func (s documentMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type divisionMUS struct{}

func (divisionMUS) Marshal(v Division, bs []byte) (n int) {
	w := &musWriter{bs: bs}
	w.id(v.Id)
	w.id(v.DocumentId)
	w.int(v.Number)
	w.str(v.Title)
	return w.n
}

func (divisionMUS) Size(v Division) int {
	return sizeID(v.Id) + sizeID(v.DocumentId) + sizeInt(v.Number) + sizeStr(v.Title)
}

func (divisionMUS) Unmarshal(bs []byte) (v Division, n int, err error) {
	r := &musReader{bs: bs}
	v.Id = r.id()
	v.DocumentId = r.id()
	v.Number = r.int()
	v.Title = r.str()
	return v, r.n, r.err
}

func (s divisionMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type sectionMUS struct{}

func (sectionMUS) Marshal(v Section, bs []byte) (n int) {
	w := &musWriter{bs: bs}
	w.id(v.Id)
	w.id(v.DocumentId)
	w.id(v.DivisionId)
	w.str(v.SectionNumber)
	w.str(v.Title)
	w.int(v.DivisionNumber)
	w.str(v.FullText)
	w.int(v.PageHint)
	w.strs(v.RelatedPayItems)
	return w.n
}

func (sectionMUS) Size(v Section) int {
	return sizeID(v.Id) + sizeID(v.DocumentId) + sizeID(v.DivisionId) +
		sizeStr(v.SectionNumber) + sizeStr(v.Title) + sizeInt(v.DivisionNumber) +
		sizeStr(v.FullText) + sizeInt(v.PageHint) + sizeStrs(v.RelatedPayItems)
}

func (sectionMUS) Unmarshal(bs []byte) (v Section, n int, err error) {
	r := &musReader{bs: bs}
	v.Id = r.id()
	v.DocumentId = r.id()
	v.DivisionId = r.id()
	v.SectionNumber = r.str()
	v.Title = r.str()
	v.DivisionNumber = r.int()
	v.FullText = r.str()
	v.PageHint = r.int()
	v.RelatedPayItems = r.strs()
	return v, r.n, r.err
}

func (s sectionMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type subsectionMUS struct{}

func (subsectionMUS) Marshal(v Subsection, bs []byte) (n int) {
	w := &musWriter{bs: bs}
	w.id(v.Id)
	w.id(v.SectionId)
	w.id(v.ParentId)
	w.str(v.SectionNumber)
	w.str(v.SubsectionNumber)
	w.str(v.Title)
	w.str(v.Content)
	w.int(v.HierarchyLevel)
	w.str(v.ParentSubsection)
	w.strs(v.CrossReferences)
	return w.n
}

func (subsectionMUS) Size(v Subsection) int {
	return sizeID(v.Id) + sizeID(v.SectionId) + sizeID(v.ParentId) +
		sizeStr(v.SectionNumber) + sizeStr(v.SubsectionNumber) + sizeStr(v.Title) +
		sizeStr(v.Content) + sizeInt(v.HierarchyLevel) + sizeStr(v.ParentSubsection) +
		sizeStrs(v.CrossReferences)
}

func (subsectionMUS) Unmarshal(bs []byte) (v Subsection, n int, err error) {
	r := &musReader{bs: bs}
	v.Id = r.id()
	v.SectionId = r.id()
	v.ParentId = r.id()
	v.SectionNumber = r.str()
	v.SubsectionNumber = r.str()
	v.Title = r.str()
	v.Content = r.str()
	v.HierarchyLevel = r.int()
	v.ParentSubsection = r.str()
	v.CrossReferences = r.strs()
	return v, r.n, r.err
}

func (s subsectionMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type payItemMUS struct{}

func (payItemMUS) Marshal(v PayItem, bs []byte) (n int) {
	w := &musWriter{bs: bs}
	w.str(v.ItemNumber)
	w.str(v.Description)
	w.str(v.Unit)
	w.str(v.SectionNumber)
	return w.n
}

func (payItemMUS) Size(v PayItem) int {
	return sizeStr(v.ItemNumber) + sizeStr(v.Description) + sizeStr(v.Unit) + sizeStr(v.SectionNumber)
}

func (payItemMUS) Unmarshal(bs []byte) (v PayItem, n int, err error) {
	r := &musReader{bs: bs}
	v.ItemNumber = r.str()
	v.Description = r.str()
	v.Unit = r.str()
	v.SectionNumber = r.str()
	return v, r.n, r.err
}

func (s payItemMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type chunkMUS struct{}

func (chunkMUS) Marshal(v ChunkWithEmbedding, bs []byte) (n int) {
	w := &musWriter{bs: bs}
	w.id(v.Id)
	w.id(v.DocumentId)
	w.id(v.SectionId)
	w.id(v.SubsectionId)
	w.str(v.SectionNumber)
	w.str(v.SubsectionNumber)
	w.str(v.SectionContext)
	w.str(v.Content)
	w.int(int(v.ChunkType))
	w.int(v.ChunkIndex)
	w.int(v.TokenCount)
	w.strs(v.PayItemCodes)
	w.strs(v.Keywords)
	w.str(v.EmbeddingModel)
	w.vector(v.Embedding)
	return w.n
}

func (chunkMUS) Size(v ChunkWithEmbedding) int {
	return sizeID(v.Id) + sizeID(v.DocumentId) + sizeID(v.SectionId) + sizeID(v.SubsectionId) +
		sizeStr(v.SectionNumber) + sizeStr(v.SubsectionNumber) + sizeStr(v.SectionContext) +
		sizeStr(v.Content) + sizeInt(int(v.ChunkType)) + sizeInt(v.ChunkIndex) +
		sizeInt(v.TokenCount) + sizeStrs(v.PayItemCodes) + sizeStrs(v.Keywords) +
		sizeStr(v.EmbeddingModel) + sizeVector(v.Embedding)
}

func (chunkMUS) Unmarshal(bs []byte) (v ChunkWithEmbedding, n int, err error) {
	r := &musReader{bs: bs}
	v.Id = r.id()
	v.DocumentId = r.id()
	v.SectionId = r.id()
	v.SubsectionId = r.id()
	v.SectionNumber = r.str()
	v.SubsectionNumber = r.str()
	v.SectionContext = r.str()
	v.Content = r.str()
	v.ChunkType = ChunkType(r.int())
	v.ChunkIndex = r.int()
	v.TokenCount = r.int()
	v.PayItemCodes = r.strs()
	v.Keywords = r.strs()
	v.EmbeddingModel = r.str()
	v.Embedding = r.vector()
	return v, r.n, r.err
}

func (s chunkMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type queryLogMUS struct{}

func (queryLogMUS) Marshal(v QueryLog, bs []byte) (n int) {
	w := &musWriter{bs: bs}
	w.str(v.Id.String())
	w.str(v.Query)
	w.vector(v.Embedding)
	w.int(v.ResultCount)
	w.ids(v.TopChunkIds)
	w.str(v.Answer)
	w.int64(int64(v.Latency))
	w.time(v.Timestamp)
	return w.n
}

func (queryLogMUS) Size(v QueryLog) int {
	return sizeStr(v.Id.String()) + sizeStr(v.Query) + sizeVector(v.Embedding) +
		sizeInt(v.ResultCount) + sizeIDs(v.TopChunkIds) + sizeStr(v.Answer) +
		varint.Int64.Size(int64(v.Latency)) + sizeTime(v.Timestamp)
}

func (queryLogMUS) Unmarshal(bs []byte) (v QueryLog, n int, err error) {
	r := &musReader{bs: bs}
	rawID := r.str()
	v.Query = r.str()
	v.Embedding = r.vector()
	v.ResultCount = r.int()
	v.TopChunkIds = r.ids()
	v.Answer = r.str()
	v.Latency = time.Duration(r.int64())
	v.Timestamp = r.time()
	if r.err != nil {
		return v, r.n, r.err
	}
	v.Id, err = uuid.Parse(rawID)
	return v, r.n, err
}

func (s queryLogMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}
