package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MohitNilvarn/TAP/internal/model"
	"github.com/MohitNilvarn/TAP/internal/repo"
	"github.com/MohitNilvarn/TAP/internal/testutil"
)

func TestVectorDocRepoRoundTrip(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	docs := repo.NewVectorDocRepo(db)
	ctx := context.Background()
	const collection = "course_vec-rt-1"
	now := time.Now().UnixMilli()
	defer func() { _, _ = docs.DeleteCollection(ctx, collection) }()

	// The column carries whatever dimension the embed model produces;
	// nothing in the schema pins it.
	batch := []model.VectorDocument{
		{Collection: collection, DocID: "d1", Content: "alpha", Embedding: []float32{1, 0, 0}, Metadata: map[string]string{"source": "material"}, Ctime: now},
		{Collection: collection, DocID: "d2", Content: "beta", Embedding: []float32{0, 1, 0}, Metadata: map[string]string{"source": "transcript"}, Ctime: now},
	}
	require.NoError(t, docs.UpsertBatch(ctx, batch))

	got, err := docs.ListByCollection(ctx, collection)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d1", got[0].DocID)
	assert.Equal(t, []float32{1, 0, 0}, got[0].Embedding)
	assert.Equal(t, "transcript", got[1].Metadata["source"])

	// Re-upserting a doc id replaces content in place.
	batch[0].Content = "alpha v2"
	batch[0].Embedding = []float32{0, 0, 1}
	require.NoError(t, docs.UpsertBatch(ctx, batch[:1]))
	got, err = docs.ListByCollection(ctx, collection)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alpha v2", got[0].Content)
	assert.Equal(t, []float32{0, 0, 1}, got[0].Embedding)

	count, err := docs.CountByCollection(ctx, collection)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	require.NoError(t, docs.DeleteByIDs(ctx, collection, []string{"d1", "missing"}))
	count, err = docs.CountByCollection(ctx, collection)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	removed, err := docs.DeleteCollection(ctx, collection)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
}
