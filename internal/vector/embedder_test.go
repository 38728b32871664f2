package vector

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEmbedder struct {
	texts     []string
	taskTypes []string
	batches   []int
	failOn    string
}

func (r *recordingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	out, err := r.EmbedBatch(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (r *recordingEmbedder) EmbedBatch(_ context.Context, texts []string, taskType string) ([][]float32, error) {
	r.batches = append(r.batches, len(texts))
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if text == r.failOn {
			return nil, errors.New("provider down")
		}
		r.texts = append(r.texts, text)
		r.taskTypes = append(r.taskTypes, taskType)
		out = append(out, []float32{float32(len(text))})
	}
	return out, nil
}

func (r *recordingEmbedder) ModelName() string { return "fake-embed" }

func TestEmbedDocuments_OrderPreserved(t *testing.T) {
	rec := &recordingEmbedder{}
	e := NewEmbedder(rec, 2)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	out, err := e.EmbedDocuments(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, out, len(texts))
	for i, text := range texts {
		assert.Equal(t, []float32{float32(len(text))}, out[i])
	}
	assert.Equal(t, texts, rec.texts)
	for _, tt := range rec.taskTypes {
		assert.Equal(t, TaskTypeDocument, tt)
	}
}

func TestEmbedDocuments_Empty(t *testing.T) {
	rec := &recordingEmbedder{}
	e := NewEmbedder(rec, 4)

	out, err := e.EmbedDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, rec.texts)
}

func TestEmbedDocuments_ProviderError(t *testing.T) {
	rec := &recordingEmbedder{failOn: "bad"}
	e := NewEmbedder(rec, 4)

	_, err := e.EmbedDocuments(context.Background(), []string{"ok", "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed documents 0..1")
}

func TestEmbedDocuments_BatchWindows(t *testing.T) {
	texts := make([]string, 10)
	for i := range texts {
		texts[i] = strings.Repeat("x", i+1)
	}

	// 10 texts at batch size 4 means three provider round trips.
	rec := &recordingEmbedder{}
	e := NewEmbedder(rec, 4)
	out, err := e.EmbedDocuments(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, out, len(texts))
	assert.Equal(t, []int{4, 4, 2}, rec.batches)

	// A batch size above the input count means a single round trip.
	rec = &recordingEmbedder{}
	e = NewEmbedder(rec, 32)
	_, err = e.EmbedDocuments(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, []int{10}, rec.batches)
}

func TestEmbedQuery_TaskType(t *testing.T) {
	rec := &recordingEmbedder{}
	e := NewEmbedder(rec, 4)

	out, err := e.EmbedQuery(context.Background(), "what is recursion?")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	require.Len(t, rec.taskTypes, 1)
	assert.Equal(t, TaskTypeQuery, rec.taskTypes[0])
}
