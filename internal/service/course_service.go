package service

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/MohitNilvarn/TAP/internal/model"
	appErr "github.com/MohitNilvarn/TAP/internal/pkg/errors"
	"github.com/MohitNilvarn/TAP/internal/repo"
	"github.com/MohitNilvarn/TAP/internal/vector"
)

type CourseService struct {
	courses   *repo.CourseRepo
	lectures  *LectureService
	materials *MaterialService
	index     *vector.Index
}

func NewCourseService(courses *repo.CourseRepo, lectures *LectureService, materials *MaterialService, index *vector.Index) *CourseService {
	return &CourseService{
		courses:   courses,
		lectures:  lectures,
		materials: materials,
		index:     index,
	}
}

func (s *CourseService) Create(ctx context.Context, teacherID, title, description string) (*model.Course, error) {
	if title == "" {
		return nil, appErr.ErrInvalid
	}
	now := time.Now().UnixMilli()
	course := &model.Course{
		ID:          newID(),
		TeacherID:   teacherID,
		Title:       title,
		Description: description,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) Get(ctx context.Context, teacherID, courseID string) (*model.Course, error) {
	course, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.TeacherID != teacherID {
		return nil, appErr.ErrForbidden
	}
	return course, nil
}

func (s *CourseService) List(ctx context.Context, teacherID string) ([]model.Course, error) {
	return s.courses.ListByTeacher(ctx, teacherID)
}

// Stats reports how many documents the course collection holds.
func (s *CourseService) Stats(ctx context.Context, teacherID, courseID string) (int64, error) {
	if _, err := s.Get(ctx, teacherID, courseID); err != nil {
		return 0, err
	}
	return s.index.Stats(ctx, courseID)
}

// Delete removes the course and everything hanging off it: lectures with
// their generated content, materials with their files, and the whole
// vector collection.
func (s *CourseService) Delete(ctx context.Context, teacherID, courseID string) error {
	if _, err := s.Get(ctx, teacherID, courseID); err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("course_id", courseID))

	lectures, err := s.lectures.List(ctx, teacherID, courseID)
	if err != nil {
		return err
	}
	for _, lec := range lectures {
		if err := s.lectures.Delete(ctx, teacherID, lec.ID); err != nil {
			return err
		}
	}
	materials, err := s.materials.List(ctx, teacherID, courseID)
	if err != nil {
		return err
	}
	for _, mat := range materials {
		if err := s.materials.Delete(ctx, teacherID, mat.ID); err != nil {
			return err
		}
	}
	if _, err := s.index.Drop(ctx, courseID); err != nil {
		logger.Warn("failed to drop vector collection", zap.Error(err))
	}
	if err := s.courses.Delete(ctx, courseID); err != nil {
		return err
	}
	logger.Info("course deleted",
		zap.Int("lectures", len(lectures)), zap.Int("materials", len(materials)))
	return nil
}
