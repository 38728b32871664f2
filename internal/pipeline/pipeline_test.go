package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MohitNilvarn/TAP/internal/ai"
	"github.com/MohitNilvarn/TAP/internal/model"
	"github.com/MohitNilvarn/TAP/internal/vector"
)

// fakeModel answers per content type, recognized by the distinctive
// phrase each prompt template carries.
type fakeModel struct {
	outputs map[string]map[string]any
	fails   map[string]error
	prompts []*ai.GenerateRequest
}

func promptContentType(prompt string) string {
	switch {
	case strings.Contains(prompt, "comprehensive lecture notes"):
		return model.ContentTypeNotes
	case strings.Contains(prompt, "practice assignment"):
		return model.ContentTypeAssignment
	case strings.Contains(prompt, "study flashcards"):
		return model.ContentTypeFlashcards
	}
	return ""
}

func (f *fakeModel) GenerateStructured(_ context.Context, req *ai.GenerateRequest) (map[string]any, error) {
	f.prompts = append(f.prompts, req)
	contentType := promptContentType(req.Prompt)
	if err, ok := f.fails[contentType]; ok {
		return nil, err
	}
	if out, ok := f.outputs[contentType]; ok {
		return out, nil
	}
	return map[string]any{"title": contentType}, nil
}

type memContentStore struct {
	saved   []*model.GeneratedContent
	failAll bool
}

func (m *memContentStore) Upsert(_ context.Context, gc *model.GeneratedContent) error {
	if m.failAll {
		return errors.New("db down")
	}
	m.saved = append(m.saved, gc)
	return nil
}

type recordingLectureStore struct {
	lectureID string
	update    map[string]interface{}
}

func (r *recordingLectureStore) UpdateGenerationStatus(_ context.Context, lectureID, _ string, update map[string]interface{}) error {
	r.lectureID = lectureID
	r.update = update
	return nil
}

func newTestPipeline(gen Generator, contents ContentStore, lectures LectureStore, docs []vector.SearchResult) *Pipeline {
	p := New(NewRetriever(&fakeSearcher{results: docs}, 5), gen, contents, lectures)
	p.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func baseRequest() Request {
	return Request{
		LectureID:    "lec1",
		CourseID:     "c1",
		Transcript:   "today we cover binary search trees",
		LectureTitle: "BSTs",
	}
}

func TestPipeline_AllStagesSucceed(t *testing.T) {
	gen := &fakeModel{}
	contents := &memContentStore{}
	lectures := &recordingLectureStore{}
	p := newTestPipeline(gen, contents, lectures, []vector.SearchResult{{DocID: "d1", Content: "ctx"}})

	state, err := p.Run(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.Equal(t, model.ContentTypes, state.CompletedTypes)
	assert.Empty(t, state.Errors)

	require.Len(t, contents.saved, 3)
	types := []string{contents.saved[0].ContentType, contents.saved[1].ContentType, contents.saved[2].ContentType}
	assert.Equal(t, model.ContentTypes, types)
	for _, gc := range contents.saved {
		assert.Equal(t, "lec1", gc.LectureID)
		assert.Equal(t, 1, gc.Version)
		assert.False(t, gc.IsEdited)
		assert.EqualValues(t, 1, gc.Metadata["context_docs_used"])
		assert.NotEmpty(t, gc.ID)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(gc.Content, &payload))
	}

	assert.Equal(t, "lec1", lectures.lectureID)
	assert.Equal(t, model.GenerationStatusCompleted, lectures.update["generation_status"])
	assert.NotZero(t, lectures.update["generated_at"])
	assert.Equal(t, "", lectures.update["generation_error"])
}

func TestPipeline_SubsetOfTypes(t *testing.T) {
	gen := &fakeModel{}
	contents := &memContentStore{}
	lectures := &recordingLectureStore{}
	p := newTestPipeline(gen, contents, lectures, nil)

	req := baseRequest()
	req.ContentTypes = []string{model.ContentTypeFlashcards}
	state, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{model.ContentTypeFlashcards}, state.CompletedTypes)
	assert.Nil(t, state.Notes)
	assert.Nil(t, state.Assignment)
	assert.NotNil(t, state.Flashcards)
	require.Len(t, contents.saved, 1)
	assert.Equal(t, model.ContentTypeFlashcards, contents.saved[0].ContentType)
	require.Len(t, gen.prompts, 1)
}

func TestPipeline_OneStageFailsOthersContinue(t *testing.T) {
	gen := &fakeModel{fails: map[string]error{
		model.ContentTypeAssignment: errors.New("model overloaded"),
	}}
	contents := &memContentStore{}
	lectures := &recordingLectureStore{}
	p := newTestPipeline(gen, contents, lectures, nil)

	state, err := p.Run(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{model.ContentTypeNotes, model.ContentTypeFlashcards}, state.CompletedTypes)
	assert.Contains(t, state.Errors[model.ContentTypeAssignment], "model overloaded")
	require.Len(t, contents.saved, 2)

	// Partial success still completes the lecture, with the failure noted.
	assert.Equal(t, model.GenerationStatusCompleted, lectures.update["generation_status"])
	assert.Contains(t, lectures.update["generation_error"], "assignment: ")
}

func TestPipeline_AllStagesFail(t *testing.T) {
	boom := errors.New("quota exceeded")
	gen := &fakeModel{fails: map[string]error{
		model.ContentTypeNotes:      boom,
		model.ContentTypeAssignment: boom,
		model.ContentTypeFlashcards: boom,
	}}
	contents := &memContentStore{}
	lectures := &recordingLectureStore{}
	p := newTestPipeline(gen, contents, lectures, nil)

	state, err := p.Run(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Empty(t, state.CompletedTypes)
	assert.Len(t, state.Errors, 3)
	assert.Empty(t, contents.saved)
	assert.Equal(t, model.GenerationStatusFailed, lectures.update["generation_status"])
	assert.NotContains(t, lectures.update, "generated_at")
}

func TestPipeline_InvalidContentType(t *testing.T) {
	p := newTestPipeline(&fakeModel{}, &memContentStore{}, &recordingLectureStore{}, nil)

	req := baseRequest()
	req.ContentTypes = []string{"poem"}
	_, err := p.Run(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown content type")
}

func TestPipeline_SaveFailureMarksLectureFailed(t *testing.T) {
	gen := &fakeModel{}
	contents := &memContentStore{failAll: true}
	lectures := &recordingLectureStore{}
	p := newTestPipeline(gen, contents, lectures, nil)

	state, err := p.Run(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Len(t, state.Errors, 3)
	assert.Equal(t, model.GenerationStatusFailed, lectures.update["generation_status"])
}

func TestPipeline_SystemPromptOnEveryStage(t *testing.T) {
	gen := &fakeModel{}
	p := newTestPipeline(gen, &memContentStore{}, &recordingLectureStore{}, nil)

	_, err := p.Run(context.Background(), baseRequest())
	require.NoError(t, err)
	require.Len(t, gen.prompts, 3)
	for _, req := range gen.prompts {
		assert.Equal(t, systemPrompt, req.SystemPrompt)
	}
}
