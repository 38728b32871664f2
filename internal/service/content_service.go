package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MohitNilvarn/TAP/internal/model"
	appErr "github.com/MohitNilvarn/TAP/internal/pkg/errors"
	"github.com/MohitNilvarn/TAP/internal/repo"
)

type ContentService struct {
	contents *repo.ContentRepo
	lectures *repo.LectureRepo
}

func NewContentService(contents *repo.ContentRepo, lectures *repo.LectureRepo) *ContentService {
	return &ContentService{contents: contents, lectures: lectures}
}

func (s *ContentService) checkOwnership(ctx context.Context, teacherID, lectureID string) error {
	lec, err := s.lectures.Get(ctx, lectureID)
	if err != nil {
		return err
	}
	if lec.TeacherID != teacherID {
		return appErr.ErrForbidden
	}
	return nil
}

func (s *ContentService) Get(ctx context.Context, teacherID, lectureID, contentType string) (*model.GeneratedContent, error) {
	if !model.IsValidContentType(contentType) {
		return nil, fmt.Errorf("%w: unknown content type %s", appErr.ErrInvalid, contentType)
	}
	if err := s.checkOwnership(ctx, teacherID, lectureID); err != nil {
		return nil, err
	}
	return s.contents.Get(ctx, lectureID, contentType)
}

func (s *ContentService) List(ctx context.Context, teacherID, lectureID string) ([]model.GeneratedContent, error) {
	if err := s.checkOwnership(ctx, teacherID, lectureID); err != nil {
		return nil, err
	}
	return s.contents.ListByLecture(ctx, lectureID)
}

// Edit replaces the payload with a hand-tuned version. Each edit bumps
// the version; a later regeneration resets it.
func (s *ContentService) Edit(ctx context.Context, teacherID, lectureID, contentType string, content json.RawMessage) (*model.GeneratedContent, error) {
	if !model.IsValidContentType(contentType) {
		return nil, fmt.Errorf("%w: unknown content type %s", appErr.ErrInvalid, contentType)
	}
	if !json.Valid(content) {
		return nil, fmt.Errorf("%w: content must be valid json", appErr.ErrInvalid)
	}
	if err := s.checkOwnership(ctx, teacherID, lectureID); err != nil {
		return nil, err
	}
	if err := s.contents.Edit(ctx, lectureID, contentType, content, time.Now().UnixMilli()); err != nil {
		return nil, err
	}
	return s.contents.Get(ctx, lectureID, contentType)
}

func (s *ContentService) Delete(ctx context.Context, teacherID, lectureID, contentType string) error {
	if !model.IsValidContentType(contentType) {
		return fmt.Errorf("%w: unknown content type %s", appErr.ErrInvalid, contentType)
	}
	if err := s.checkOwnership(ctx, teacherID, lectureID); err != nil {
		return err
	}
	return s.contents.Delete(ctx, lectureID, contentType)
}
