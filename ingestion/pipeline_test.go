package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/specindex/ai/mock"
	"github.com/poiesic/specindex/chunker"
	"github.com/poiesic/specindex/core"
	"github.com/poiesic/specindex/embedding"
	"github.com/poiesic/specindex/parser"
	"github.com/poiesic/specindex/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manual = `DIVISION 600 INCIDENTAL CONSTRUCTION

SECTION 624
SHOTCRETE

624.1-DESCRIPTION: This work consists of furnishing and placing shotcrete on prepared
surfaces in accordance with these specifications. See Section 501.3 for related work.

624.6-CONSTRUCTION REQUIREMENTS: General requirements for shotcrete construction follow.

624.6.1-Excavation: Excavate to the lines shown on the plans and remove loose material.

624.7-METHOD OF MEASUREMENT: Shotcrete will be measured by the square meter of surface.

PAY ITEMS:
624001 Shotcrete SQ M
` + "\f" + `SECTION 625
TURF ESTABLISHMENT

625.1-DESCRIPTION: This work consists of seeding, fertilizing and mulching disturbed areas.
`

func testEmbeddingConfig() embedding.Config {
	config := embedding.DefaultConfig()
	config.BatchSize = 4
	config.MaxRetries = 2
	config.BaseDelay = time.Millisecond
	config.InterBatchDelay = 0
	return config
}

func setupPipeline(t *testing.T, embedder *mock.MockEmbedder) (*Pipeline, *badger.Store) {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockCompleter())
	p, err := NewPipeline(store.Spec, store.Chunks, provider, WithEmbeddingConfig(testEmbeddingConfig()))
	require.NoError(t, err)
	return p, store
}

func TestNewPipeline_Validation(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()
	provider := mock.NewMockProvider()

	_, err = NewPipeline(nil, store.Chunks, provider)
	assert.ErrorIs(t, err, ErrSpecRepositoryRequired)

	_, err = NewPipeline(store.Spec, nil, provider)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewPipeline(store.Spec, store.Chunks, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)

	_, err = NewPipeline(store.Spec, store.Chunks, provider, WithEmbeddingConfig(embedding.Config{}))
	assert.ErrorIs(t, err, embedding.ErrInvalidConfig)
}

func TestIngest_StoresEverything(t *testing.T) {
	p, store := setupPipeline(t, mock.NewMockEmbedder())
	ctx := context.Background()

	parsed := parser.New().Parse(manual)
	expectedChunks := chunker.New().Chunk(parsed.Sections, parsed.Subsections)
	require.Len(t, parsed.Sections, 2)

	report, err := p.Ingest(ctx, "specs-2024", manual)
	require.NoError(t, err)
	assert.NotZero(t, report.DocumentId)
	assert.Zero(t, report.Failed())
	require.NotNil(t, report.Usage)
	assert.Equal(t, len(expectedChunks), report.Usage.Chunks)

	stages := []string{StageParse, StageChunk, StageEmbed, StageDivisions, StageSections, StageSubsections, StageChunks, StagePayItemLinks}
	require.Len(t, report.Stages, len(stages))
	for i, name := range stages {
		assert.Equal(t, name, report.Stages[i].Stage)
	}

	chunkStage, ok := report.Stage(StageChunks)
	require.True(t, ok)
	assert.Equal(t, len(expectedChunks), chunkStage.Succeeded)

	subStage, _ := report.Stage(StageSubsections)
	assert.Equal(t, len(parsed.Subsections), subStage.Succeeded)

	links, _ := report.Stage(StagePayItemLinks)
	assert.Equal(t, 1, links.Succeeded)

	doc, err := store.Spec.LatestDocument(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.DocumentId, doc.Id)
	assert.Equal(t, mock.DefaultModelID, doc.EmbeddingModel)
	assert.Equal(t, mock.DefaultDimensions, doc.EmbeddingDimensions)

	count, err := store.Chunks.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(expectedChunks), count)

	section, err := store.Spec.GetSection(ctx, doc.Id, "624")
	require.NoError(t, err)
	assert.Contains(t, section.RelatedPayItems, "624001")

	item, err := store.Spec.GetPayItem(ctx, doc.Id, "624001")
	require.NoError(t, err)
	assert.Equal(t, "624", item.SectionNumber)
}

func TestIngest_ChunksAreSearchable(t *testing.T) {
	p, store := setupPipeline(t, mock.NewMockEmbedder())
	ctx := context.Background()

	_, err := p.Ingest(ctx, "specs", manual)
	require.NoError(t, err)

	// The mock embeds identical text to identical vectors, so the stored header
	// chunk's own input must come back first with similarity 1.
	var header *core.ChunkWithEmbedding
	err = store.Chunks.ForEachChunk(ctx, 50, func(batch []*core.ChunkWithEmbedding) error {
		for _, c := range batch {
			if c.ChunkType == core.ChunkTypeSectionHeader && c.SectionNumber == "625" {
				header = c
			}
		}
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, header)

	query := mock.GenerateDeterministicVector(header.EmbeddingInput(), mock.DefaultDimensions)
	results, err := store.Chunks.Search(ctx, query, 0.99, 1, core.SearchFilters{EmbeddingModel: mock.DefaultModelID})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, header.Id, results[0].Chunk.Id)
}

func TestIngest_EmbeddingFailureIsFatal(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("rate limited")
	}
	p, store := setupPipeline(t, embedder)
	ctx := context.Background()

	report, err := p.Ingest(ctx, "specs", manual)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
	assert.ErrorIs(t, err, embedding.ErrRetriesExhausted)

	embed, ok := report.Stage(StageEmbed)
	require.True(t, ok)
	assert.Zero(t, embed.Succeeded)
	assert.Positive(t, embed.Failed)

	_, ran := report.Stage(StageSections)
	assert.False(t, ran)

	docs, err := store.Spec.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
	count, err := store.Chunks.CountChunks(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIngest_EmptyAndUnstructuredInput(t *testing.T) {
	p, _ := setupPipeline(t, mock.NewMockEmbedder())
	ctx := context.Background()

	_, err := p.Ingest(ctx, "blank", "  \n\t ")
	assert.ErrorIs(t, err, ErrEmptyDocument)

	report, err := p.Ingest(ctx, "prose", "Just a paragraph of prose with no numbered sections at all.")
	assert.ErrorIs(t, err, ErrNoSections)
	parse, ok := report.Stage(StageParse)
	require.True(t, ok)
	assert.Zero(t, parse.Succeeded)
}

func TestIngest_VersionsDoNotCollide(t *testing.T) {
	p, store := setupPipeline(t, mock.NewMockEmbedder())
	ctx := context.Background()

	first, err := p.Ingest(ctx, "specs-2020", manual)
	require.NoError(t, err)
	second, err := p.Ingest(ctx, "specs-2024", manual)
	require.NoError(t, err)
	assert.NotEqual(t, first.DocumentId, second.DocumentId)

	firstChunks, _ := first.Stage(StageChunks)
	count, err := store.Chunks.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2*firstChunks.Succeeded, count)

	ids, err := store.Spec.ResolveSectionIDs(ctx, "624")
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestReport_String(t *testing.T) {
	report := &Report{Name: "specs", DocumentId: 3}
	report.record(StageSections, 10, 2)
	out := report.String()
	assert.Contains(t, out, `document "specs" (id 3)`)
	assert.Contains(t, out, "sections")
	assert.Equal(t, 2, report.Failed())
}
