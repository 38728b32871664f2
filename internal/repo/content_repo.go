package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/MohitNilvarn/TAP/internal/model"
	"github.com/MohitNilvarn/TAP/internal/pkg/dbutil"
	appErr "github.com/MohitNilvarn/TAP/internal/pkg/errors"
)

type ContentRepo struct {
	db *sqlx.DB
}

func NewContentRepo(db *sqlx.DB) *ContentRepo {
	return &ContentRepo{db: db}
}

var contentFields = []string{
	"id", "lecture_id", "course_id", "content_type",
	"content", "metadata", "version", "is_edited", "ctime", "mtime",
}

func scanContent(scanner interface{ Scan(...interface{}) error }) (*model.GeneratedContent, error) {
	var gc model.GeneratedContent
	var rawMeta []byte
	err := scanner.Scan(
		&gc.ID, &gc.LectureID, &gc.CourseID, &gc.ContentType,
		&gc.Content, &rawMeta, &gc.Version, &gc.IsEdited, &gc.Ctime, &gc.Mtime,
	)
	if err != nil {
		return nil, err
	}
	if len(rawMeta) > 0 {
		if err := json.Unmarshal(rawMeta, &gc.Metadata); err != nil {
			return nil, err
		}
	}
	return &gc, nil
}

// Upsert stores a freshly generated payload. On regeneration the row is
// replaced in place; version and is_edited move only through Edit, so a
// new run never touches the edit history.
func (r *ContentRepo) Upsert(ctx context.Context, gc *model.GeneratedContent) error {
	meta, err := json.Marshal(gc.Metadata)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO generated_content
			(id, lecture_id, course_id, content_type, content, metadata, version, is_edited, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (lecture_id, content_type) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			mtime = EXCLUDED.mtime
	`
	_, err = r.db.ExecContext(ctx, query,
		gc.ID, gc.LectureID, gc.CourseID, gc.ContentType,
		[]byte(gc.Content), meta, gc.Version, gc.IsEdited, gc.Ctime, gc.Mtime,
	)
	return err
}

func (r *ContentRepo) Get(ctx context.Context, lectureID, contentType string) (*model.GeneratedContent, error) {
	where := map[string]interface{}{
		"lecture_id":   lectureID,
		"content_type": contentType,
	}
	sqlStr, args, err := builder.BuildSelect("generated_content", where, contentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	gc, err := scanContent(r.db.QueryRowContext(ctx, sqlStr, args...))
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	return gc, err
}

func (r *ContentRepo) ListByLecture(ctx context.Context, lectureID string) ([]model.GeneratedContent, error) {
	where := map[string]interface{}{
		"lecture_id": lectureID,
		"_orderby":   "content_type asc",
	}
	sqlStr, args, err := builder.BuildSelect("generated_content", where, contentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.GeneratedContent
	for rows.Next() {
		gc, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *gc)
	}
	return items, rows.Err()
}

// Edit applies a manual change, bumping the version and flagging the row
// as edited so a later regeneration is visibly a reset.
func (r *ContentRepo) Edit(ctx context.Context, lectureID, contentType string, content json.RawMessage, mtime int64) error {
	const query = `
		UPDATE generated_content
		SET content = $1, version = version + 1, is_edited = TRUE, mtime = $2
		WHERE lecture_id = $3 AND content_type = $4
	`
	result, err := r.db.ExecContext(ctx, query, []byte(content), mtime, lectureID, contentType)
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

func (r *ContentRepo) Delete(ctx context.Context, lectureID, contentType string) error {
	where := map[string]interface{}{
		"lecture_id":   lectureID,
		"content_type": contentType,
	}
	sqlStr, args, err := builder.BuildDelete("generated_content", where)
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

func (r *ContentRepo) DeleteByLecture(ctx context.Context, lectureID string) error {
	sqlStr, args, err := builder.BuildDelete("generated_content", map[string]interface{}{"lecture_id": lectureID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
