package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/MohitNilvarn/TAP/internal/filestore"
	"github.com/MohitNilvarn/TAP/internal/ingest"
	"github.com/MohitNilvarn/TAP/internal/model"
	"github.com/MohitNilvarn/TAP/internal/pipeline"
	appErr "github.com/MohitNilvarn/TAP/internal/pkg/errors"
	"github.com/MohitNilvarn/TAP/internal/repo"
	"github.com/MohitNilvarn/TAP/internal/transcribe"
	"github.com/MohitNilvarn/TAP/internal/vector"
)

type LectureService struct {
	lectures     *repo.LectureRepo
	courses      *repo.CourseRepo
	contents     *repo.ContentRepo
	store        filestore.Store
	index        *vector.Index
	transcriber  transcribe.Transcriber
	pipeline     *pipeline.Pipeline
	chunkSize    int
	chunkOverlap int

	// runAsync lets tests run generation inline.
	runAsync bool
}

func NewLectureService(lectures *repo.LectureRepo, courses *repo.CourseRepo, contents *repo.ContentRepo,
	store filestore.Store, index *vector.Index, transcriber transcribe.Transcriber,
	p *pipeline.Pipeline, chunkSize, chunkOverlap int) *LectureService {
	return &LectureService{
		lectures:     lectures,
		courses:      courses,
		contents:     contents,
		store:        store,
		index:        index,
		transcriber:  transcriber,
		pipeline:     p,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		runAsync:     true,
	}
}

func (s *LectureService) Create(ctx context.Context, teacherID, courseID, title, description string) (*model.Lecture, error) {
	if title == "" {
		return nil, appErr.ErrInvalid
	}
	course, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.TeacherID != teacherID {
		return nil, appErr.ErrForbidden
	}
	lec := &model.Lecture{
		ID:                  newID(),
		CourseID:            courseID,
		TeacherID:           teacherID,
		Title:               title,
		Description:         description,
		TranscriptionStatus: model.TranscriptionStatusPending,
		GenerationStatus:    model.GenerationStatusNotStarted,
		Ctime:               time.Now().UnixMilli(),
	}
	if err := s.lectures.Create(ctx, lec); err != nil {
		return nil, err
	}
	return lec, nil
}

func (s *LectureService) Get(ctx context.Context, teacherID, lectureID string) (*model.Lecture, error) {
	lec, err := s.lectures.Get(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	if lec.TeacherID != teacherID {
		return nil, appErr.ErrForbidden
	}
	return lec, nil
}

func (s *LectureService) List(ctx context.Context, teacherID, courseID string) ([]model.Lecture, error) {
	course, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.TeacherID != teacherID {
		return nil, appErr.ErrForbidden
	}
	return s.lectures.ListByCourse(ctx, courseID)
}

func (s *LectureService) Segments(ctx context.Context, teacherID, lectureID string) ([]model.TranscriptSegment, error) {
	if _, err := s.Get(ctx, teacherID, lectureID); err != nil {
		return nil, err
	}
	return s.lectures.ListSegments(ctx, lectureID)
}

// UploadAudio attaches the recording and resets the transcription state
// so a re-upload starts fresh.
func (s *LectureService) UploadAudio(ctx context.Context, teacherID, lectureID, filename string,
	file filestore.ReadSeekCloser, size int64) error {

	lec, err := s.Get(ctx, teacherID, lectureID)
	if err != nil {
		return err
	}
	key := lec.ID + "_audio" + strings.ToLower(filepath.Ext(filename))
	if err := s.store.Save(ctx, key, file, size); err != nil {
		return fmt.Errorf("save audio file: %w", err)
	}
	return s.lectures.UpdateTranscription(ctx, lectureID, map[string]interface{}{
		"audio_filename":       filename,
		"audio_key":            key,
		"transcription_status": model.TranscriptionStatusPending,
		"transcription_error":  "",
	})
}

// Transcribe runs the external speech-to-text service over the uploaded
// audio, stores the transcript and its segments, and indexes the
// transcript chunks into the course collection.
func (s *LectureService) Transcribe(ctx context.Context, teacherID, lectureID string) error {
	lec, err := s.Get(ctx, teacherID, lectureID)
	if err != nil {
		return err
	}
	if lec.AudioKey == "" {
		return fmt.Errorf("%w: no audio uploaded", appErr.ErrInvalid)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("lecture_id", lectureID))

	if err := s.lectures.UpdateTranscription(ctx, lectureID, map[string]interface{}{
		"transcription_status": model.TranscriptionStatusTranscribing,
		"transcription_error":  "",
	}); err != nil {
		return err
	}

	transcript, err := s.runTranscription(ctx, lec)
	if err != nil {
		logger.Error("transcription failed", zap.Error(err))
		_ = s.lectures.UpdateTranscription(ctx, lectureID, map[string]interface{}{
			"transcription_status": model.TranscriptionStatusFailed,
			"transcription_error":  err.Error(),
		})
		return err
	}

	if err := s.lectures.ReplaceSegments(ctx, lectureID, transcript.Segments); err != nil {
		return err
	}
	if err := s.lectures.UpdateTranscription(ctx, lectureID, map[string]interface{}{
		"transcript":             transcript.Text,
		"audio_duration_seconds": transcript.DurationSeconds,
		"transcription_status":   model.TranscriptionStatusCompleted,
		"transcribed_at":         time.Now().UnixMilli(),
	}); err != nil {
		return err
	}
	if err := s.indexTranscript(ctx, lec, transcript.Text); err != nil {
		// The transcript itself is saved; indexing can be retried by
		// re-running transcription.
		logger.Warn("failed to index transcript", zap.Error(err))
	}
	logger.Info("lecture transcribed",
		zap.Int("segments", len(transcript.Segments)),
		zap.Float64("duration_sec", transcript.DurationSeconds))
	return nil
}

func (s *LectureService) runTranscription(ctx context.Context, lec *model.Lecture) (*model.Transcript, error) {
	audio, err := s.store.Open(ctx, lec.AudioKey)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer audio.Close()
	transcript, err := s.transcriber.Transcribe(ctx, lec.AudioFilename, audio)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(transcript.Text) == "" {
		return nil, fmt.Errorf("empty transcript")
	}
	return transcript, nil
}

func (s *LectureService) indexTranscript(ctx context.Context, lec *model.Lecture, text string) error {
	chunks := ingest.Chunk(text, s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		return nil
	}
	ids := make([]string, 0, len(chunks))
	metas := make([]map[string]string, 0, len(chunks))
	for i := range chunks {
		ids = append(ids, transcriptChunkID(lec.ID, i))
		metas = append(metas, map[string]string{
			"source":      "transcript",
			"lecture_id":  lec.ID,
			"course_id":   lec.CourseID,
			"title":       lec.Title,
			"chunk_index": strconv.Itoa(i),
		})
	}
	_, err := s.index.Add(ctx, lec.CourseID, ids, chunks, metas)
	return err
}

// Generate kicks off content generation for the lecture. The generating
// status flag serializes concurrent requests; the run itself happens in
// the background.
func (s *LectureService) Generate(ctx context.Context, teacherID, lectureID string, contentTypes []string) error {
	lec, err := s.Get(ctx, teacherID, lectureID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(lec.Transcript) == "" {
		return appErr.ErrNoTranscript
	}
	for _, t := range contentTypes {
		if !model.IsValidContentType(t) {
			return fmt.Errorf("%w: unknown content type %s", appErr.ErrInvalid, t)
		}
	}
	if err := s.lectures.ClaimGeneration(ctx, lectureID, time.Now().UnixMilli()); err != nil {
		if appErr.IsConflict(err) {
			return appErr.ErrGenerationInProgress
		}
		return err
	}

	req := pipeline.Request{
		LectureID:    lec.ID,
		CourseID:     lec.CourseID,
		Transcript:   lec.Transcript,
		LectureTitle: lec.Title,
		ContentTypes: contentTypes,
	}
	run := func(runCtx context.Context) {
		if _, err := s.pipeline.Run(runCtx, req); err != nil {
			logutil.GetLogger(runCtx).Error("generation run failed",
				zap.String("lecture_id", lec.ID), zap.Error(err))
		}
	}
	if s.runAsync {
		go run(context.WithoutCancel(ctx))
		return nil
	}
	run(ctx)
	return nil
}

// Delete cascades: generated content, transcript vector documents,
// segments, audio blob, then the lecture row.
func (s *LectureService) Delete(ctx context.Context, teacherID, lectureID string) error {
	lec, err := s.Get(ctx, teacherID, lectureID)
	if err != nil {
		return err
	}
	if err := s.contents.DeleteByLecture(ctx, lectureID); err != nil {
		return err
	}
	if chunks := ingest.Chunk(lec.Transcript, s.chunkSize, s.chunkOverlap); len(chunks) > 0 {
		ids := make([]string, 0, len(chunks))
		for i := range chunks {
			ids = append(ids, transcriptChunkID(lec.ID, i))
		}
		if err := s.index.Delete(ctx, lec.CourseID, ids); err != nil {
			return err
		}
	}
	if err := s.lectures.ReplaceSegments(ctx, lectureID, nil); err != nil {
		return err
	}
	if lec.AudioKey != "" {
		if remover, ok := s.store.(filestore.Remover); ok {
			if err := remover.Remove(ctx, lec.AudioKey); err != nil {
				logutil.GetLogger(ctx).Warn("failed to remove audio file",
					zap.String("file_key", lec.AudioKey), zap.Error(err))
			}
		}
	}
	return s.lectures.Delete(ctx, lectureID)
}

func transcriptChunkID(lectureID string, i int) string {
	return fmt.Sprintf("%s_transcript_%d", lectureID, i)
}
