package vector

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MohitNilvarn/TAP/internal/model"
)

// hashEmbedder maps known phrases to fixed vectors so similarity is
// deterministic without a real provider.
type hashEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (h *hashEmbedder) Embed(_ context.Context, text string, _ string) ([]float32, error) {
	h.calls++
	if vec, ok := h.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0, 1}, nil
}

func (h *hashEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := h.Embed(ctx, text, taskType)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

func (h *hashEmbedder) ModelName() string { return "fake-embed" }

type memStore struct {
	docs    []model.VectorDocument
	nextSeq int64
}

func (m *memStore) UpsertBatch(_ context.Context, docs []model.VectorDocument) error {
	for _, doc := range docs {
		replaced := false
		for i := range m.docs {
			if m.docs[i].Collection == doc.Collection && m.docs[i].DocID == doc.DocID {
				doc.Seq = m.docs[i].Seq
				m.docs[i] = doc
				replaced = true
				break
			}
		}
		if !replaced {
			m.nextSeq++
			doc.Seq = m.nextSeq
			m.docs = append(m.docs, doc)
		}
	}
	return nil
}

func (m *memStore) ListByCollection(_ context.Context, collection string) ([]model.VectorDocument, error) {
	var out []model.VectorDocument
	for _, doc := range m.docs {
		if doc.Collection == collection {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *memStore) DeleteByIDs(_ context.Context, collection string, docIDs []string) error {
	keep := m.docs[:0]
	for _, doc := range m.docs {
		drop := false
		if doc.Collection == collection {
			for _, id := range docIDs {
				if doc.DocID == id {
					drop = true
					break
				}
			}
		}
		if !drop {
			keep = append(keep, doc)
		}
	}
	m.docs = keep
	return nil
}

func (m *memStore) DeleteCollection(_ context.Context, collection string) (int64, error) {
	var removed int64
	keep := m.docs[:0]
	for _, doc := range m.docs {
		if doc.Collection == collection {
			removed++
			continue
		}
		keep = append(keep, doc)
	}
	m.docs = keep
	return removed, nil
}

func (m *memStore) CountByCollection(_ context.Context, collection string) (int64, error) {
	var count int64
	for _, doc := range m.docs {
		if doc.Collection == collection {
			count++
		}
	}
	return count, nil
}

func newTestIndex(vectors map[string][]float32) (*Index, *memStore, *hashEmbedder) {
	emb := &hashEmbedder{vectors: vectors}
	store := &memStore{}
	return NewIndex(store, NewEmbedder(emb, 2)), store, emb
}

func TestCollectionName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc123", "course_abc123"},
		{"a b/c", "course_a_b_c"},
		{"UPPER-ok.v1", "course_UPPER-ok.v1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CollectionName(tt.in))
	}

	long := CollectionName(strings.Repeat("x", 100))
	assert.Len(t, long, 63)
	assert.True(t, strings.HasPrefix(long, "course_"))
}

func TestIndex_AddAndSearch(t *testing.T) {
	idx, _, _ := newTestIndex(map[string][]float32{
		"about cats": {1, 0, 0},
		"about dogs": {0, 1, 0},
		"cats?":      {1, 0, 0},
	})
	ctx := context.Background()

	written, err := idx.Add(ctx, "c1",
		[]string{"d1", "d2"},
		[]string{"about cats", "about dogs"},
		nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d2"}, written)

	results, err := idx.Search(ctx, "c1", "cats?", 5, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "d1", results[0].DocID)
	assert.Equal(t, "about cats", results[0].Content)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestIndex_SearchTopKAndTies(t *testing.T) {
	vectors := map[string][]float32{"q": {1, 0, 0}}
	for i := 0; i < 4; i++ {
		vectors[fmt.Sprintf("doc %d", i)] = []float32{1, 0, 0}
	}
	idx, _, _ := newTestIndex(vectors)
	ctx := context.Background()

	var ids, texts []string
	for i := 0; i < 4; i++ {
		ids = append(ids, fmt.Sprintf("d%d", i))
		texts = append(texts, fmt.Sprintf("doc %d", i))
	}
	_, err := idx.Add(ctx, "c1", ids, texts, nil)
	require.NoError(t, err)

	results, err := idx.Search(ctx, "c1", "q", 3, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	// Equal scores fall back to insertion order.
	assert.Equal(t, []string{"d0", "d1", "d2"},
		[]string{results[0].DocID, results[1].DocID, results[2].DocID})
}

func TestIndex_SearchMetadataFilter(t *testing.T) {
	idx, _, _ := newTestIndex(map[string][]float32{
		"alpha": {1, 0, 0},
		"beta":  {1, 0, 0},
		"q":     {1, 0, 0},
	})
	ctx := context.Background()

	_, err := idx.Add(ctx, "c1",
		[]string{"d1", "d2"},
		[]string{"alpha", "beta"},
		[]map[string]string{
			{"source": "material"},
			{"source": "transcript"},
		})
	require.NoError(t, err)

	results, err := idx.Search(ctx, "c1", "q", 5, map[string]string{"source": "transcript"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d2", results[0].DocID)
}

func TestIndex_AddLengthMismatchFailsBeforeEmbedding(t *testing.T) {
	idx, _, emb := newTestIndex(nil)
	_, err := idx.Add(context.Background(), "c1", []string{"d1"}, []string{"a", "b"}, nil)
	require.Error(t, err)
	assert.Zero(t, emb.calls)

	_, err = idx.Add(context.Background(), "c1", []string{"d1"}, []string{"a"},
		[]map[string]string{{}, {}})
	require.Error(t, err)
	assert.Zero(t, emb.calls)
}

func TestIndex_AddReplacesExistingDoc(t *testing.T) {
	idx, store, _ := newTestIndex(map[string][]float32{
		"v1": {1, 0, 0},
		"v2": {0, 1, 0},
	})
	ctx := context.Background()

	_, err := idx.Add(ctx, "c1", []string{"d1"}, []string{"v1"}, nil)
	require.NoError(t, err)
	_, err = idx.Add(ctx, "c1", []string{"d1"}, []string{"v2"}, nil)
	require.NoError(t, err)

	require.Len(t, store.docs, 1)
	assert.Equal(t, "v2", store.docs[0].Content)
}

func TestIndex_DeleteIdempotent(t *testing.T) {
	idx, store, _ := newTestIndex(map[string][]float32{"x": {1, 0, 0}})
	ctx := context.Background()

	_, err := idx.Add(ctx, "c1", []string{"d1"}, []string{"x"}, nil)
	require.NoError(t, err)
	require.NoError(t, idx.Delete(ctx, "c1", []string{"d1", "missing"}))
	require.NoError(t, idx.Delete(ctx, "c1", []string{"d1"}))
	assert.Empty(t, store.docs)
}

func TestIndex_DropAndStats(t *testing.T) {
	idx, _, _ := newTestIndex(map[string][]float32{"x": {1, 0, 0}, "y": {0, 1, 0}})
	ctx := context.Background()

	_, err := idx.Add(ctx, "c1", []string{"d1", "d2"}, []string{"x", "y"}, nil)
	require.NoError(t, err)

	count, err := idx.Stats(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	existed, err := idx.Drop(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = idx.Drop(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, existed)

	count, err = idx.Stats(ctx, "c1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, cosineSimilarity(nil, []float32{1}))
	assert.Zero(t, cosineSimilarity([]float32{1}, []float32{1, 2}))
}
