package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/MohitNilvarn/TAP/internal/model"
)

// Collection names follow chroma-style constraints, 63 chars max.
const maxCollectionNameLen = 63

const DefaultTopK = 5

// DocStore is the persistence surface the index needs. Satisfied by
// repo.VectorDocRepo in production.
type DocStore interface {
	UpsertBatch(ctx context.Context, docs []model.VectorDocument) error
	ListByCollection(ctx context.Context, collection string) ([]model.VectorDocument, error)
	DeleteByIDs(ctx context.Context, collection string, docIDs []string) error
	DeleteCollection(ctx context.Context, collection string) (int64, error)
	CountByCollection(ctx context.Context, collection string) (int64, error)
}

type SearchResult struct {
	DocID    string            `json:"doc_id"`
	Content  string            `json:"content"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// Index groups documents into one collection per course and answers
// similarity queries over them.
type Index struct {
	store    DocStore
	embedder *Embedder
}

func NewIndex(store DocStore, embedder *Embedder) *Index {
	return &Index{store: store, embedder: embedder}
}

// CollectionName maps a course id to its collection. Unsafe characters
// are replaced so the name stays portable, and long ids are truncated.
func CollectionName(courseID string) string {
	var sb strings.Builder
	sb.WriteString("course_")
	for _, r := range courseID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '-', r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	name := sb.String()
	if len(name) > maxCollectionNameLen {
		name = name[:maxCollectionNameLen]
	}
	return name
}

// Add embeds and stores documents in the course collection, returning
// the ids written. Input slices must be equal length; the mismatch is
// rejected before any provider call is made.
func (idx *Index) Add(ctx context.Context, courseID string, docIDs, texts []string, metadatas []map[string]string) ([]string, error) {
	if len(docIDs) != len(texts) {
		return nil, fmt.Errorf("doc ids and texts length mismatch: %d vs %d", len(docIDs), len(texts))
	}
	if metadatas != nil && len(metadatas) != len(texts) {
		return nil, fmt.Errorf("metadatas length mismatch: %d vs %d", len(metadatas), len(texts))
	}
	if len(texts) == 0 {
		return nil, nil
	}
	embeddings, err := idx.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	collection := CollectionName(courseID)
	now := time.Now().UnixMilli()
	docs := make([]model.VectorDocument, 0, len(texts))
	for i := range texts {
		var meta map[string]string
		if metadatas != nil {
			meta = metadatas[i]
		}
		docs = append(docs, model.VectorDocument{
			Collection: collection,
			DocID:      docIDs[i],
			Content:    texts[i],
			Embedding:  embeddings[i],
			Metadata:   meta,
			Ctime:      now,
		})
	}
	if err := idx.store.UpsertBatch(ctx, docs); err != nil {
		return nil, err
	}
	return docIDs, nil
}

// Search ranks the collection by cosine similarity to the query. When a
// filter is given, only docs whose metadata matches every pair are
// considered. Ties keep insertion order.
func (idx *Index) Search(ctx context.Context, courseID, query string, topK int, filter map[string]string) ([]SearchResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	queryVec, err := idx.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	docs, err := idx.store.ListByCollection(ctx, CollectionName(courseID))
	if err != nil {
		return nil, err
	}
	type scored struct {
		doc   model.VectorDocument
		score float64
	}
	candidates := make([]scored, 0, len(docs))
	for _, doc := range docs {
		if !matchesFilter(doc.Metadata, filter) {
			continue
		}
		candidates = append(candidates, scored{
			doc:   doc,
			score: cosineSimilarity(queryVec, doc.Embedding),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].doc.Seq < candidates[j].doc.Seq
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	results := make([]SearchResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, SearchResult{
			DocID:    c.doc.DocID,
			Content:  c.doc.Content,
			Score:    c.score,
			Metadata: c.doc.Metadata,
		})
	}
	return results, nil
}

// Delete removes the named docs. Unknown ids are a no-op.
func (idx *Index) Delete(ctx context.Context, courseID string, docIDs []string) error {
	if len(docIDs) == 0 {
		return nil
	}
	return idx.store.DeleteByIDs(ctx, CollectionName(courseID), docIDs)
}

// Drop removes the whole collection and reports whether anything was
// there. Dropping an unknown collection is not an error.
func (idx *Index) Drop(ctx context.Context, courseID string) (bool, error) {
	removed, err := idx.store.DeleteCollection(ctx, CollectionName(courseID))
	if err != nil {
		return false, err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("dropped vector collection",
			zap.String("course_id", courseID), zap.Int64("docs", removed))
	}
	return removed > 0, nil
}

func (idx *Index) Stats(ctx context.Context, courseID string) (int64, error) {
	return idx.store.CountByCollection(ctx, CollectionName(courseID))
}

func matchesFilter(meta, filter map[string]string) bool {
	for k, want := range filter {
		if meta[k] != want {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
