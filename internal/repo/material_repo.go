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

type MaterialRepo struct {
	db *sqlx.DB
}

func NewMaterialRepo(db *sqlx.DB) *MaterialRepo {
	return &MaterialRepo{db: db}
}

var materialFields = []string{
	"id", "course_id", "teacher_id", "filename", "file_type", "file_key",
	"file_size_bytes", "content", "chunk_count",
	"processing_status", "processing_error", "ctime", "processed_at",
}

func scanMaterial(scanner interface{ Scan(...interface{}) error }) (*model.Material, error) {
	var mat model.Material
	err := scanner.Scan(
		&mat.ID, &mat.CourseID, &mat.TeacherID, &mat.Filename, &mat.FileType, &mat.FileKey,
		&mat.FileSizeBytes, &mat.Content, &mat.ChunkCount,
		&mat.ProcessingStatus, &mat.ProcessingError, &mat.Ctime, &mat.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &mat, nil
}

func (r *MaterialRepo) Create(ctx context.Context, mat *model.Material) error {
	data := map[string]interface{}{
		"id":                mat.ID,
		"course_id":         mat.CourseID,
		"teacher_id":        mat.TeacherID,
		"filename":          mat.Filename,
		"file_type":         mat.FileType,
		"file_key":          mat.FileKey,
		"file_size_bytes":   mat.FileSizeBytes,
		"content":           mat.Content,
		"chunk_count":       mat.ChunkCount,
		"processing_status": mat.ProcessingStatus,
		"processing_error":  mat.ProcessingError,
		"ctime":             mat.Ctime,
		"processed_at":      mat.ProcessedAt,
	}
	sqlStr, args, err := builder.BuildInsert("materials", []map[string]interface{}{data})
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

func (r *MaterialRepo) Get(ctx context.Context, materialID string) (*model.Material, error) {
	where := map[string]interface{}{"id": materialID}
	sqlStr, args, err := builder.BuildSelect("materials", where, materialFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	mat, err := scanMaterial(r.db.QueryRowContext(ctx, sqlStr, args...))
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	return mat, err
}

func (r *MaterialRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Material, error) {
	where := map[string]interface{}{
		"course_id": courseID,
		"_orderby":  "ctime desc",
	}
	return r.list(ctx, where)
}

// ListPending feeds the ingest sweeper. Oldest first so uploads are
// processed in arrival order.
func (r *MaterialRepo) ListPending(ctx context.Context, limit int) ([]model.Material, error) {
	where := map[string]interface{}{
		"processing_status": model.ProcessingStatusPending,
		"_orderby":          "ctime asc",
		"_limit":            []uint{uint(limit)},
	}
	return r.list(ctx, where)
}

func (r *MaterialRepo) list(ctx context.Context, where map[string]interface{}) ([]model.Material, error) {
	sqlStr, args, err := builder.BuildSelect("materials", where, materialFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var materials []model.Material
	for rows.Next() {
		mat, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, *mat)
	}
	return materials, rows.Err()
}

// ClaimForProcessing flips a pending material to processing; returns
// ErrConflict when another worker got there first.
func (r *MaterialRepo) ClaimForProcessing(ctx context.Context, materialID string) error {
	where := map[string]interface{}{
		"id":                materialID,
		"processing_status": model.ProcessingStatusPending,
	}
	update := map[string]interface{}{
		"processing_status": model.ProcessingStatusProcessing,
	}
	sqlStr, args, err := builder.BuildUpdate("materials", where, update)
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

func (r *MaterialRepo) Update(ctx context.Context, materialID string, update map[string]interface{}) error {
	where := map[string]interface{}{"id": materialID}
	sqlStr, args, err := builder.BuildUpdate("materials", where, update)
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

func (r *MaterialRepo) Delete(ctx context.Context, materialID string) error {
	sqlStr, args, err := builder.BuildDelete("materials", map[string]interface{}{"id": materialID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
