package history

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/briefler/briefler/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T, maxFiles int) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), maxFiles, zap.NewNop())
	require.NoError(t, err)
	return store
}

func testRecord(id string) *core.AnalysisRecord {
	return &core.AnalysisRecord{
		ID:     id,
		Result: "summary for " + id,
		Parameters: core.AnalysisRequest{
			SenderEmails: []string{"alice@example.com"},
			Language:     "en",
			Days:         7,
		},
		Timestamp: time.Now().UTC(),
	}
}

// age pushes a stored file's mtime into the past
func age(t *testing.T, store *FileStore, id string, d time.Duration) {
	t.Helper()
	past := time.Now().Add(-d)
	require.NoError(t, os.Chtimes(store.pathFor(id), past, past))
}

func TestSaveAndGet(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testRecord("a1")))

	got, err := store.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)
	assert.Equal(t, "summary for a1", got.Result)
	assert.Equal(t, []string{"alice@example.com"}, got.Parameters.SenderEmails)
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t, 10)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGetRejectsPathTraversal(t *testing.T) {
	store := newTestStore(t, 10)

	for _, id := range []string{"", "../secret", "a/b", `a\b`, ".."} {
		_, err := store.Get(context.Background(), id)
		assert.ErrorIs(t, err, core.ErrNotFound, "id %q", id)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testRecord("old")))
	require.NoError(t, store.Save(ctx, testRecord("mid")))
	require.NoError(t, store.Save(ctx, testRecord("new")))
	age(t, store, "old", 2*time.Hour)
	age(t, store, "mid", time.Hour)

	page, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, "new", page.Items[0].ID)
	assert.Equal(t, "mid", page.Items[1].ID)
	assert.Equal(t, "old", page.Items[2].ID)
}

func TestListPagination(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testRecord("a")))
	require.NoError(t, store.Save(ctx, testRecord("b")))
	require.NoError(t, store.Save(ctx, testRecord("c")))
	age(t, store, "a", 3*time.Hour)
	age(t, store, "b", 2*time.Hour)
	age(t, store, "c", time.Hour)

	page, err := store.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "b", page.Items[0].ID)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Limit)
	assert.Equal(t, 1, page.Offset)
}

func TestListTruncatesPreview(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	record := testRecord("long")
	record.Result = strings.Repeat("x", 500)
	require.NoError(t, store.Save(ctx, record))

	page, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, strings.Repeat("x", 200)+"...", page.Items[0].Preview)
}

func TestListKeepsShortResultIntact(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	record := testRecord("short")
	record.Result = "brief"
	require.NoError(t, store.Save(ctx, record))

	page, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "brief", page.Items[0].Preview)
}

func TestListSkipsMalformedFiles(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testRecord("good")))
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, "broken.json"), []byte("not json"), 0o644))

	page, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "good", page.Items[0].ID)
}

func TestListOffsetsStableAcrossMalformedFiles(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.Save(ctx, testRecord(id)))
		age(t, store, id, time.Duration(4-i)*time.Hour)
	}
	// Malformed file sorts newest, landing inside the first page window
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, "broken.json"), []byte("not json"), 0o644))

	first, err := store.List(ctx, 2, 0)
	require.NoError(t, err)
	second, err := store.List(ctx, 2, 2)
	require.NoError(t, err)

	// The skip shrinks the first page; nothing shifts onto the second
	require.Len(t, first.Items, 1)
	assert.Equal(t, "d", first.Items[0].ID)
	require.Len(t, second.Items, 2)
	assert.Equal(t, "c", second.Items[0].ID)
	assert.Equal(t, "b", second.Items[1].ID)

	seen := map[string]int{}
	for _, item := range append(first.Items, second.Items...) {
		seen[item.ID]++
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "record %s appears %d times across adjacent pages", id, count)
	}
}

func TestListOffsetBeyondEnd(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testRecord("only")))

	page, err := store.List(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Total)
}

func TestSavePrunesOldestBeyondCap(t *testing.T) {
	store := newTestStore(t, 2)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testRecord("first")))
	age(t, store, "first", 2*time.Hour)
	require.NoError(t, store.Save(ctx, testRecord("second")))
	age(t, store, "second", time.Hour)
	require.NoError(t, store.Save(ctx, testRecord("third")))

	_, err := store.Get(ctx, "first")
	assert.ErrorIs(t, err, core.ErrNotFound, "oldest record should be pruned")

	_, err = store.Get(ctx, "second")
	assert.NoError(t, err)
	_, err = store.Get(ctx, "third")
	assert.NoError(t, err)
}
