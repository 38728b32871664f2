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

type CourseRepo struct {
	db *sqlx.DB
}

func NewCourseRepo(db *sqlx.DB) *CourseRepo {
	return &CourseRepo{db: db}
}

var courseFields = []string{"id", "teacher_id", "title", "description", "ctime", "mtime"}

func (r *CourseRepo) Create(ctx context.Context, course *model.Course) error {
	data := map[string]interface{}{
		"id":          course.ID,
		"teacher_id":  course.TeacherID,
		"title":       course.Title,
		"description": course.Description,
		"ctime":       course.Ctime,
		"mtime":       course.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("courses", []map[string]interface{}{data})
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

func (r *CourseRepo) Get(ctx context.Context, courseID string) (*model.Course, error) {
	where := map[string]interface{}{"id": courseID}
	sqlStr, args, err := builder.BuildSelect("courses", where, courseFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var course model.Course
	if err := row.Scan(&course.ID, &course.TeacherID, &course.Title, &course.Description, &course.Ctime, &course.Mtime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepo) ListByTeacher(ctx context.Context, teacherID string) ([]model.Course, error) {
	where := map[string]interface{}{
		"teacher_id": teacherID,
		"_orderby":   "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("courses", where, courseFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var courses []model.Course
	for rows.Next() {
		var course model.Course
		if err := rows.Scan(&course.ID, &course.TeacherID, &course.Title, &course.Description, &course.Ctime, &course.Mtime); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

func (r *CourseRepo) Delete(ctx context.Context, courseID string) error {
	sqlStr, args, err := builder.BuildDelete("courses", map[string]interface{}{"id": courseID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
