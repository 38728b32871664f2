package pipeline

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/MohitNilvarn/TAP/internal/vector"
)

const (
	// First slice of the transcript used as the similarity query.
	queryRunes = 500

	noContextFallback = "No additional context available."
	contextSeparator  = "\n\n---\n\n"
)

// Searcher is the slice of the vector index the retriever needs.
type Searcher interface {
	Search(ctx context.Context, courseID, query string, topK int, filter map[string]string) ([]vector.SearchResult, error)
}

// Retriever pulls course context for a lecture. A failed or empty search
// degrades to a fixed fallback string rather than failing the run; the
// lecture transcript alone is still enough to generate from.
type Retriever struct {
	searcher Searcher
	topK     int
}

func NewRetriever(searcher Searcher, topK int) *Retriever {
	if topK <= 0 {
		topK = vector.DefaultTopK
	}
	return &Retriever{searcher: searcher, topK: topK}
}

func (r *Retriever) Retrieve(ctx context.Context, courseID, transcript, lectureTitle string) (string, []vector.SearchResult) {
	query := truncateRunes(transcript, queryRunes)
	if strings.TrimSpace(query) == "" {
		query = lectureTitle
	}
	results, err := r.searcher.Search(ctx, courseID, query, r.topK, nil)
	if err != nil {
		logutil.GetLogger(ctx).Error("context retrieval failed",
			zap.String("course_id", courseID), zap.Error(err))
		return noContextFallback, nil
	}
	parts := make([]string, 0, len(results))
	for _, res := range results {
		if res.Content != "" {
			parts = append(parts, res.Content)
		}
	}
	if len(parts) == 0 {
		return noContextFallback, results
	}
	return strings.Join(parts, contextSeparator), results
}
