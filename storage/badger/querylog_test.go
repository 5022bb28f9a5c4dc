package badger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/specindex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryLog_RecentFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, query := range []string{"first", "second", "third"} {
		require.NoError(t, store.QueryLog.LogQuery(ctx, &core.QueryLog{
			Query:     query,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recent, err := store.QueryLog.RecentQueries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[0].Query)
	assert.Equal(t, "second", recent[1].Query)

	all, err := store.QueryLog.RecentQueries(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := store.QueryLog.RecentQueries(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestQueryLog_FillsDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := &core.QueryLog{
		Query:       "curing compound",
		ResultCount: 7,
		TopChunkIds: []core.ID{1, 2, 3, 4, 5, 6, 7},
		Latency:     250 * time.Millisecond,
	}
	require.NoError(t, store.QueryLog.LogQuery(ctx, entry))
	assert.NotEqual(t, uuid.Nil, entry.Id)
	assert.False(t, entry.Timestamp.IsZero())
	assert.Len(t, entry.TopChunkIds, 5)

	recent, err := store.QueryLog.RecentQueries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, entry.Id, recent[0].Id)
	assert.Equal(t, 7, recent[0].ResultCount)
	assert.Equal(t, 250*time.Millisecond, recent[0].Latency)
}
