package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ResultStore {
	t.Helper()
	local, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewResultStore(local)
}

var sampleData = json.RawMessage(`{"tariffs":[{"name":"Villatariff"},{"name":"Effekttariff"}],"calendarPatterns":[]}`)

func TestResultStoreSaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, sampleData, SaveOptions{
		SourceURL: "https://www.ellevio.se/tariffer",
		UserAgent: "Mozilla/5.0 Firefox/130.0",
		IPAddress: "203.0.113.7",
	})
	require.NoError(t, err)
	assert.Len(t, id, resultIDLen)
	for _, c := range id {
		assert.Contains(t, idAlphabet, string(c))
	}

	result, err := store.Load(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, id, result.ID)
	assert.Equal(t, "https://www.ellevio.se/tariffer", result.SourceURL)
	assert.JSONEq(t, string(sampleData), string(result.Data))

	assert.Len(t, result.IPHash, 8)
	assert.NotContains(t, result.IPHash, "203.0.113.7")
	assert.Equal(t, HashIP("203.0.113.7"), result.IPHash)
}

func TestResultStoreLoadUnknownID(t *testing.T) {
	store := newTestStore(t)

	result, err := store.Load(context.Background(), "qqqqqqqq")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestResultStoreRejectsTraversalIDs(t *testing.T) {
	store := newTestStore(t)

	for _, id := range []string{"../secret", "a/b", "id.json", "abc def"} {
		result, err := store.Load(context.Background(), id)
		require.NoError(t, err)
		assert.Nil(t, result, "id %q must not resolve", id)
	}
}

func TestResultStoreListRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		offset := time.Duration(i) * time.Hour
		store.now = func() time.Time { return base.Add(offset) }
		id, err := store.Save(ctx, sampleData, SaveOptions{UserAgent: "Mozilla/5.0 Chrome/126.0"})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	summaries, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Newest first.
	assert.Equal(t, ids[2], summaries[0].ID)
	assert.Equal(t, ids[1], summaries[1].ID)
	assert.Equal(t, 2, summaries[0].TariffCount)
	assert.Equal(t, "Chrome", summaries[0].Browser)
}

func TestResultStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, sampleData, SaveOptions{})
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	result, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, result)

	deleted, err = store.Delete(ctx, id)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestResultStoreCleanup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store.now = func() time.Time { return base.Add(-40 * 24 * time.Hour) }
	oldID, err := store.Save(ctx, sampleData, SaveOptions{})
	require.NoError(t, err)

	store.now = func() time.Time { return base.Add(-time.Hour) }
	freshID, err := store.Save(ctx, sampleData, SaveOptions{})
	require.NoError(t, err)

	store.now = func() time.Time { return base }
	deleted, err := store.Cleanup(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	gone, err := store.Load(ctx, oldID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := store.Load(ctx, freshID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestResultStoreCleanupAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Save(ctx, sampleData, SaveOptions{})
		require.NoError(t, err)
	}

	deleted, err := store.Cleanup(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	summaries, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
