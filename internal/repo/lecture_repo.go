package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/MohitNilvarn/TAP/internal/model"
	"github.com/MohitNilvarn/TAP/internal/pkg/dbutil"
	appErr "github.com/MohitNilvarn/TAP/internal/pkg/errors"
)

type LectureRepo struct {
	db *sqlx.DB
}

func NewLectureRepo(db *sqlx.DB) *LectureRepo {
	return &LectureRepo{db: db}
}

var lectureFields = []string{
	"id", "course_id", "teacher_id", "title", "description",
	"audio_filename", "audio_key", "audio_duration_seconds",
	"transcript", "transcription_status", "transcription_error",
	"generation_status", "generation_error",
	"ctime", "transcribed_at", "generation_started_at", "generated_at",
}

func scanLecture(scanner interface{ Scan(...interface{}) error }) (*model.Lecture, error) {
	var lec model.Lecture
	err := scanner.Scan(
		&lec.ID, &lec.CourseID, &lec.TeacherID, &lec.Title, &lec.Description,
		&lec.AudioFilename, &lec.AudioKey, &lec.AudioDurationSeconds,
		&lec.Transcript, &lec.TranscriptionStatus, &lec.TranscriptionError,
		&lec.GenerationStatus, &lec.GenerationError,
		&lec.Ctime, &lec.TranscribedAt, &lec.GenerationStartedAt, &lec.GeneratedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lec, nil
}

func (r *LectureRepo) Create(ctx context.Context, lec *model.Lecture) error {
	data := map[string]interface{}{
		"id":                     lec.ID,
		"course_id":              lec.CourseID,
		"teacher_id":             lec.TeacherID,
		"title":                  lec.Title,
		"description":            lec.Description,
		"audio_filename":         lec.AudioFilename,
		"audio_key":              lec.AudioKey,
		"audio_duration_seconds": lec.AudioDurationSeconds,
		"transcript":             lec.Transcript,
		"transcription_status":   lec.TranscriptionStatus,
		"transcription_error":    lec.TranscriptionError,
		"generation_status":      lec.GenerationStatus,
		"generation_error":       lec.GenerationError,
		"ctime":                  lec.Ctime,
		"transcribed_at":         lec.TranscribedAt,
		"generation_started_at":  lec.GenerationStartedAt,
		"generated_at":           lec.GeneratedAt,
	}
	sqlStr, args, err := builder.BuildInsert("lectures", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if dbutil.IsConflict(err) {
		return appErr.ErrConflict
	}
	return err
}

func (r *LectureRepo) Get(ctx context.Context, lectureID string) (*model.Lecture, error) {
	where := map[string]interface{}{"id": lectureID}
	sqlStr, args, err := builder.BuildSelect("lectures", where, lectureFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	lec, err := scanLecture(r.db.QueryRowContext(ctx, sqlStr, args...))
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	return lec, err
}

func (r *LectureRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Lecture, error) {
	where := map[string]interface{}{
		"course_id": courseID,
		"_orderby":  "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("lectures", where, lectureFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lectures []model.Lecture
	for rows.Next() {
		lec, err := scanLecture(rows)
		if err != nil {
			return nil, err
		}
		lectures = append(lectures, *lec)
	}
	return lectures, rows.Err()
}

func (r *LectureRepo) UpdateTranscription(ctx context.Context, lectureID string, update map[string]interface{}) error {
	return r.update(ctx, lectureID, update)
}

// UpdateGenerationStatus transitions the generation state flag. When
// expectStatus is non-empty the update only applies if the lecture is
// currently in that state, which is what serializes concurrent
// regeneration requests.
func (r *LectureRepo) UpdateGenerationStatus(ctx context.Context, lectureID, expectStatus string, update map[string]interface{}) error {
	where := map[string]interface{}{"id": lectureID}
	if expectStatus != "" {
		where["generation_status"] = expectStatus
	}
	sqlStr, args, err := builder.BuildUpdate("lectures", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrConflict
	}
	return nil
}

func (r *LectureRepo) update(ctx context.Context, lectureID string, update map[string]interface{}) error {
	where := map[string]interface{}{"id": lectureID}
	sqlStr, args, err := builder.BuildUpdate("lectures", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// ClaimGeneration flips the generation flag to generating unless a run
// is already in flight. Zero rows means either the lecture is missing or
// another request holds the flag; callers disambiguate with Get.
func (r *LectureRepo) ClaimGeneration(ctx context.Context, lectureID string, now int64) error {
	const query = `
		UPDATE lectures
		SET generation_status = $1, generation_error = '', generation_started_at = $2
		WHERE id = $3 AND generation_status != $1
	`
	result, err := r.db.ExecContext(ctx, query, model.GenerationStatusGenerating, now, lectureID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrConflict
	}
	return nil
}

// ListStuckGenerating returns lectures that entered the generating state
// before the cutoff and never left it, so the sweeper can fail them.
func (r *LectureRepo) ListStuckGenerating(ctx context.Context, cutoff int64, limit int) ([]model.Lecture, error) {
	const query = `
		SELECT id, course_id, teacher_id, title, description,
		       audio_filename, audio_key, audio_duration_seconds,
		       transcript, transcription_status, transcription_error,
		       generation_status, generation_error,
		       ctime, transcribed_at, generation_started_at, generated_at
		FROM lectures
		WHERE generation_status = $1 AND generation_started_at < $2
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, model.GenerationStatusGenerating, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lectures []model.Lecture
	for rows.Next() {
		lec, err := scanLecture(rows)
		if err != nil {
			return nil, err
		}
		lectures = append(lectures, *lec)
	}
	return lectures, rows.Err()
}

func (r *LectureRepo) Delete(ctx context.Context, lectureID string) error {
	sqlStr, args, err := builder.BuildDelete("lectures", map[string]interface{}{"id": lectureID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *LectureRepo) ReplaceSegments(ctx context.Context, lectureID string, segments []model.TranscriptSegment) error {
	delStr, delArgs, err := builder.BuildDelete("lecture_segments", map[string]interface{}{"lecture_id": lectureID})
	if err != nil {
		return err
	}
	delStr, delArgs = dbutil.Finalize(delStr, delArgs)
	if _, err := r.db.ExecContext(ctx, delStr, delArgs...); err != nil {
		return err
	}
	if len(segments) == 0 {
		return nil
	}
	data := make([]map[string]interface{}, 0, len(segments))
	for i, seg := range segments {
		data = append(data, map[string]interface{}{
			"lecture_id": lectureID,
			"position":   i,
			"start_sec":  seg.Start,
			"end_sec":    seg.End,
			"content":    seg.Text,
		})
	}
	sqlStr, args, err := builder.BuildInsert("lecture_segments", data)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *LectureRepo) ListSegments(ctx context.Context, lectureID string) ([]model.TranscriptSegment, error) {
	where := map[string]interface{}{
		"lecture_id": lectureID,
		"_orderby":   "position asc",
	}
	sqlStr, args, err := builder.BuildSelect("lecture_segments", where, []string{"start_sec", "end_sec", "content"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var segments []model.TranscriptSegment
	for rows.Next() {
		var seg model.TranscriptSegment
		if err := rows.Scan(&seg.Start, &seg.End, &seg.Text); err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}
