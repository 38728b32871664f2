package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MohitNilvarn/TAP/internal/vector"
)

type fakeSearcher struct {
	lastQuery string
	lastTopK  int
	results   []vector.SearchResult
	err       error
}

func (f *fakeSearcher) Search(_ context.Context, _ string, query string, topK int, _ map[string]string) ([]vector.SearchResult, error) {
	f.lastQuery = query
	f.lastTopK = topK
	return f.results, f.err
}

func TestRetriever_JoinsDocuments(t *testing.T) {
	searcher := &fakeSearcher{results: []vector.SearchResult{
		{DocID: "d1", Content: "first chunk"},
		{DocID: "d2", Content: "second chunk"},
	}}
	r := NewRetriever(searcher, 5)

	ctx, docs := r.Retrieve(context.Background(), "c1", "some transcript", "Title")
	assert.Equal(t, "first chunk\n\n---\n\nsecond chunk", ctx)
	assert.Len(t, docs, 2)
	assert.Equal(t, 5, searcher.lastTopK)
}

func TestRetriever_QueryFromTranscriptPrefix(t *testing.T) {
	searcher := &fakeSearcher{}
	r := NewRetriever(searcher, 5)

	long := strings.Repeat("a", 600)
	r.Retrieve(context.Background(), "c1", long, "Title")
	assert.Len(t, searcher.lastQuery, 500)
}

func TestRetriever_EmptyTranscriptUsesTitle(t *testing.T) {
	searcher := &fakeSearcher{}
	r := NewRetriever(searcher, 5)

	r.Retrieve(context.Background(), "c1", "   ", "Graph Theory Basics")
	assert.Equal(t, "Graph Theory Basics", searcher.lastQuery)
}

func TestRetriever_NoResultsFallback(t *testing.T) {
	r := NewRetriever(&fakeSearcher{}, 5)

	ctx, docs := r.Retrieve(context.Background(), "c1", "transcript", "Title")
	assert.Equal(t, noContextFallback, ctx)
	assert.Empty(t, docs)
}

func TestRetriever_SearchErrorFallback(t *testing.T) {
	r := NewRetriever(&fakeSearcher{err: errors.New("index down")}, 5)

	ctx, docs := r.Retrieve(context.Background(), "c1", "transcript", "Title")
	assert.Equal(t, noContextFallback, ctx)
	assert.Empty(t, docs)
}

func TestRetriever_SkipsEmptyDocuments(t *testing.T) {
	searcher := &fakeSearcher{results: []vector.SearchResult{
		{DocID: "d1", Content: ""},
		{DocID: "d2", Content: "real content"},
	}}
	r := NewRetriever(searcher, 5)

	ctx, _ := r.Retrieve(context.Background(), "c1", "transcript", "Title")
	assert.Equal(t, "real content", ctx)
}
