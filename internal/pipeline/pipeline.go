package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/MohitNilvarn/TAP/internal/ai"
	"github.com/MohitNilvarn/TAP/internal/model"
)

// Generator is the structured-output surface of the model client.
type Generator interface {
	GenerateStructured(ctx context.Context, req *ai.GenerateRequest) (map[string]any, error)
}

type ContentStore interface {
	Upsert(ctx context.Context, gc *model.GeneratedContent) error
}

type LectureStore interface {
	UpdateGenerationStatus(ctx context.Context, lectureID, expectStatus string, update map[string]interface{}) error
}

// Pipeline runs the fixed generation flow: retrieve context, generate
// each requested content type, persist whatever succeeded. Stages are
// independent; a failed type is recorded and the rest keep going.
type Pipeline struct {
	retriever *Retriever
	gen       Generator
	contents  ContentStore
	lectures  LectureStore
	now       func() time.Time
}

func New(retriever *Retriever, gen Generator, contents ContentStore, lectures LectureStore) *Pipeline {
	return &Pipeline{
		retriever: retriever,
		gen:       gen,
		contents:  contents,
		lectures:  lectures,
		now:       time.Now,
	}
}

// Run executes the whole flow and always attempts persistence, so the
// lecture never stays stuck in the generating state after a run returns.
func (p *Pipeline) Run(ctx context.Context, req Request) (*State, error) {
	types := req.ContentTypes
	if len(types) == 0 {
		types = append([]string(nil), model.ContentTypes...)
	}
	for _, t := range types {
		if !model.IsValidContentType(t) {
			return nil, fmt.Errorf("unknown content type: %s", t)
		}
	}
	req.ContentTypes = types

	state := &State{Request: req}
	logutil.GetLogger(ctx).Info("starting content generation",
		zap.String("lecture_id", req.LectureID),
		zap.Strings("content_types", types))

	state.Context, state.ContextDocs = p.retriever.Retrieve(ctx, req.CourseID, req.Transcript, req.LectureTitle)

	p.generateStage(ctx, state, model.ContentTypeNotes, buildNotesPrompt, func(out map[string]any) { state.Notes = out })
	p.generateStage(ctx, state, model.ContentTypeAssignment, buildAssignmentPrompt, func(out map[string]any) { state.Assignment = out })
	p.generateStage(ctx, state, model.ContentTypeFlashcards, buildFlashcardsPrompt, func(out map[string]any) { state.Flashcards = out })

	if err := p.persist(ctx, state); err != nil {
		return state, err
	}

	logutil.GetLogger(ctx).Info("content generation finished",
		zap.String("lecture_id", req.LectureID),
		zap.Strings("completed", state.CompletedTypes),
		zap.Int("failed", len(state.Errors)))
	return state, nil
}

func (p *Pipeline) generateStage(ctx context.Context, state *State, contentType string,
	buildPrompt func(transcript, context, title string) string, setSlot func(map[string]any)) {

	if !state.requested(contentType) {
		return
	}
	logutil.GetLogger(ctx).Info("generating content",
		zap.String("lecture_id", state.LectureID),
		zap.String("content_type", contentType))

	out, err := p.gen.GenerateStructured(ctx, &ai.GenerateRequest{
		Prompt:       buildPrompt(state.Transcript, state.Context, state.LectureTitle),
		SystemPrompt: systemPrompt,
	})
	if err != nil {
		logutil.GetLogger(ctx).Error("content generation stage failed",
			zap.String("content_type", contentType), zap.Error(err))
		state.fail(contentType, err)
		return
	}
	setSlot(out)
	state.CompletedTypes = append(state.CompletedTypes, contentType)
}

func (p *Pipeline) persist(ctx context.Context, state *State) error {
	now := p.now()
	slots := []struct {
		contentType string
		payload     map[string]any
	}{
		{model.ContentTypeNotes, state.Notes},
		{model.ContentTypeAssignment, state.Assignment},
		{model.ContentTypeFlashcards, state.Flashcards},
	}

	saved := 0
	for _, slot := range slots {
		if slot.payload == nil {
			continue
		}
		raw, err := json.Marshal(slot.payload)
		if err != nil {
			state.fail(slot.contentType, err)
			continue
		}
		gc := &model.GeneratedContent{
			ID:          newID(),
			LectureID:   state.LectureID,
			CourseID:    state.CourseID,
			ContentType: slot.contentType,
			Content:     raw,
			Metadata: map[string]any{
				"context_docs_used": len(state.ContextDocs),
				"generated_at":      now.UTC().Format(time.RFC3339),
			},
			Version:  1,
			IsEdited: false,
			Ctime:    now.UnixMilli(),
			Mtime:    now.UnixMilli(),
		}
		if err := p.contents.Upsert(ctx, gc); err != nil {
			logutil.GetLogger(ctx).Error("failed to save generated content",
				zap.String("content_type", slot.contentType), zap.Error(err))
			state.fail(slot.contentType, err)
			continue
		}
		saved++
	}

	update := map[string]interface{}{
		"generation_error": joinErrors(state),
	}
	if saved > 0 {
		update["generation_status"] = model.GenerationStatusCompleted
		update["generated_at"] = now.UnixMilli()
	} else {
		update["generation_status"] = model.GenerationStatusFailed
	}
	return p.lectures.UpdateGenerationStatus(ctx, state.LectureID, "", update)
}

func joinErrors(state *State) string {
	if len(state.Errors) == 0 {
		return ""
	}
	parts := make([]string, 0, len(state.Errors))
	for _, t := range model.ContentTypes {
		if msg, ok := state.Errors[t]; ok {
			parts = append(parts, t+": "+msg)
		}
	}
	return strings.Join(parts, "; ")
}

func newID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
