package badger

import (
	"context"
	"testing"

	"github.com/poiesic/specindex/core"
	"github.com/poiesic/specindex/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocuments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Spec.LatestDocument(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	first, err := store.Spec.InsertDocument(ctx, &core.Document{Name: "specs-2020"})
	require.NoError(t, err)
	assert.NotZero(t, first.Id)
	assert.False(t, first.InsertedAt.IsZero())

	second, err := store.Spec.InsertDocument(ctx, &core.Document{Name: "specs-2024"})
	require.NoError(t, err)
	assert.Greater(t, second.Id, first.Id)

	docs, err := store.Spec.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "specs-2020", docs[0].Name)

	latest, err := store.Spec.LatestDocument(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.Id, latest.Id)

	second.EmbeddingModel = "embeddinggemma@768"
	require.NoError(t, store.Spec.UpdateDocument(ctx, second))
	got, err := store.Spec.GetDocument(ctx, second.Id)
	require.NoError(t, err)
	assert.Equal(t, "embeddinggemma@768", got.EmbeddingModel)

	_, err = store.Spec.GetDocument(ctx, 9999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.Spec.UpdateDocument(ctx, &core.Document{Id: 9999}), storage.ErrNotFound)
}

func TestInsertDivisionsAndSections(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, err := store.Spec.InsertDocument(ctx, &core.Document{Name: "specs"})
	require.NoError(t, err)

	divisionIDs, err := store.Spec.InsertDivisions(ctx, doc.Id, []*core.Division{
		{Number: 600, Title: "INCIDENTAL CONSTRUCTION"},
		{Number: 650, Title: "bogus"},
	})
	assert.ErrorIs(t, err, storage.ErrPartialWrite)
	require.Len(t, divisionIDs, 1)

	sectionIDs, err := store.Spec.InsertSections(ctx, doc.Id, divisionIDs, []*core.Section{
		{SectionNumber: "625", Title: "TURF ESTABLISHMENT", DivisionNumber: 600, RelatedPayItems: []string{"625001"}},
		{SectionNumber: "624", Title: "SHOTCRETE", DivisionNumber: 600, PageHint: 12},
		{SectionNumber: "62", Title: "BROKEN", DivisionNumber: 0},
	})
	assert.ErrorIs(t, err, storage.ErrPartialWrite)
	assert.ErrorIs(t, err, core.ErrInvalidSectionNumber)
	require.Len(t, sectionIDs, 2)

	section, err := store.Spec.GetSection(ctx, doc.Id, "624")
	require.NoError(t, err)
	assert.Equal(t, sectionIDs["624"], section.Id)
	assert.Equal(t, divisionIDs[600], section.DivisionId)
	assert.Equal(t, 12, section.PageHint)

	sections, err := store.Spec.GetSections(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "624", sections[0].SectionNumber)
	assert.Equal(t, "625", sections[1].SectionNumber)

	_, err = store.Spec.GetSection(ctx, doc.Id, "999")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestResolveSectionIDs_AcrossDocuments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var want []core.ID
	for _, name := range []string{"old", "new"} {
		doc, err := store.Spec.InsertDocument(ctx, &core.Document{Name: name})
		require.NoError(t, err)
		ids, err := store.Spec.InsertSections(ctx, doc.Id, nil, []*core.Section{
			{SectionNumber: "624", Title: "SHOTCRETE", DivisionNumber: 600},
			{SectionNumber: "203", Title: "EXCAVATION", DivisionNumber: 200},
		})
		require.NoError(t, err)
		want = append(want, ids["624"])
	}

	ids, err := store.Spec.ResolveSectionIDs(ctx, "624", "999", " ")
	require.NoError(t, err)
	assert.ElementsMatch(t, want, ids)
}

func TestInsertSubsections_TwoPassParents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, err := store.Spec.InsertDocument(ctx, &core.Document{Name: "specs"})
	require.NoError(t, err)
	sectionIDs, err := store.Spec.InsertSections(ctx, doc.Id, nil, []*core.Section{
		{SectionNumber: "624", Title: "SHOTCRETE", DivisionNumber: 600},
	})
	require.NoError(t, err)

	// The child is listed before its parent; the second pass still links it.
	subs := []*core.Subsection{
		{SectionNumber: "624", SubsectionNumber: "624.6.1", Title: "Excavation", HierarchyLevel: 2, ParentSubsection: "624.6"},
		{SectionNumber: "624", SubsectionNumber: "624.6", Title: "Construction", HierarchyLevel: 1},
		{SectionNumber: "624", SubsectionNumber: "624.6.10", Title: "Curing", HierarchyLevel: 2, ParentSubsection: "624.6"},
		{SectionNumber: "625", SubsectionNumber: "625.1", Title: "Description", HierarchyLevel: 1},
	}

	ids, err := store.Spec.InsertSubsections(ctx, sectionIDs, subs)
	assert.ErrorIs(t, err, storage.ErrPartialWrite)
	assert.ErrorIs(t, err, storage.ErrMissingSection)
	require.Len(t, ids, 3)

	stored, err := store.Spec.GetSubsections(ctx, sectionIDs["624"])
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "624.6", stored[0].SubsectionNumber)
	assert.Equal(t, "624.6.1", stored[1].SubsectionNumber)
	assert.Equal(t, "624.6.10", stored[2].SubsectionNumber)

	assert.Zero(t, stored[0].ParentId)
	assert.Equal(t, ids["624.6"], stored[1].ParentId)
	assert.Equal(t, ids["624.6"], stored[2].ParentId)
	assert.Equal(t, sectionIDs["624"], stored[1].SectionId)
}

func TestInsertPayItemLinks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, err := store.Spec.InsertDocument(ctx, &core.Document{Name: "specs"})
	require.NoError(t, err)
	sectionIDs, err := store.Spec.InsertSections(ctx, doc.Id, nil, []*core.Section{
		{SectionNumber: "624", Title: "SHOTCRETE", DivisionNumber: 600},
	})
	require.NoError(t, err)

	written, err := store.Spec.InsertPayItemLinks(ctx, doc.Id, sectionIDs, []*core.PayItem{
		{ItemNumber: "624001", Description: "Shotcrete", Unit: "CUBIC METER", SectionNumber: "624"},
		{ItemNumber: "999001", Description: "Orphan", Unit: "EACH", SectionNumber: "999"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	item, err := store.Spec.GetPayItem(ctx, doc.Id, "624001")
	require.NoError(t, err)
	assert.Equal(t, "CUBIC METER", item.Unit)

	_, err = store.Spec.GetPayItem(ctx, doc.Id, "999001")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.Spec.InsertPayItemLinks(ctx, doc.Id, sectionIDs, []*core.PayItem{{ItemNumber: "62400", SectionNumber: "624"}})
	assert.ErrorIs(t, err, core.ErrInvalidItemNumber)
}

func TestCompareNumbers(t *testing.T) {
	assert.Negative(t, compareNumbers("624.6", "624.6.1"))
	assert.Negative(t, compareNumbers("624.9", "624.10"))
	assert.Positive(t, compareNumbers("624.6.10", "624.6.2"))
	assert.Zero(t, compareNumbers("624.1", "624.1"))
}
