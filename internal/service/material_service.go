package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/MohitNilvarn/TAP/internal/filestore"
	"github.com/MohitNilvarn/TAP/internal/ingest"
	"github.com/MohitNilvarn/TAP/internal/model"
	appErr "github.com/MohitNilvarn/TAP/internal/pkg/errors"
	"github.com/MohitNilvarn/TAP/internal/repo"
	"github.com/MohitNilvarn/TAP/internal/vector"
)

type MaterialService struct {
	materials    *repo.MaterialRepo
	courses      *repo.CourseRepo
	store        filestore.Store
	index        *vector.Index
	chunkSize    int
	chunkOverlap int
}

func NewMaterialService(materials *repo.MaterialRepo, courses *repo.CourseRepo,
	store filestore.Store, index *vector.Index, chunkSize, chunkOverlap int) *MaterialService {
	return &MaterialService{
		materials:    materials,
		courses:      courses,
		store:        store,
		index:        index,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

func fileTypeOf(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// Upload stores the raw file and queues the material for processing. The
// file type is validated up front so a bad upload fails immediately
// instead of dying later in the sweep.
func (s *MaterialService) Upload(ctx context.Context, teacherID, courseID, filename string,
	file filestore.ReadSeekCloser, size int64) (*model.Material, error) {

	course, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.TeacherID != teacherID {
		return nil, appErr.ErrForbidden
	}
	fileType := fileTypeOf(filename)
	if _, err := ingest.NewExtractor(fileType); err != nil {
		return nil, err
	}

	id := newID()
	key := id + "." + fileType
	if err := s.store.Save(ctx, key, file, size); err != nil {
		return nil, fmt.Errorf("save material file: %w", err)
	}
	mat := &model.Material{
		ID:               id,
		CourseID:         courseID,
		TeacherID:        teacherID,
		Filename:         filename,
		FileType:         fileType,
		FileKey:          key,
		FileSizeBytes:    size,
		ProcessingStatus: model.ProcessingStatusPending,
		Ctime:            time.Now().UnixMilli(),
	}
	if err := s.materials.Create(ctx, mat); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("material uploaded",
		zap.String("material_id", id),
		zap.String("course_id", courseID),
		zap.String("file_type", fileType))
	return mat, nil
}

func (s *MaterialService) Get(ctx context.Context, teacherID, materialID string) (*model.Material, error) {
	mat, err := s.materials.Get(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if mat.TeacherID != teacherID {
		return nil, appErr.ErrForbidden
	}
	return mat, nil
}

func (s *MaterialService) List(ctx context.Context, teacherID, courseID string) ([]model.Material, error) {
	course, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.TeacherID != teacherID {
		return nil, appErr.ErrForbidden
	}
	return s.materials.ListByCourse(ctx, courseID)
}

// Process runs the ingestion path for one material: extract text, chunk,
// embed and index. The claim makes concurrent sweeps safe; losing the
// claim is not an error.
func (s *MaterialService) Process(ctx context.Context, materialID string) error {
	if err := s.materials.ClaimForProcessing(ctx, materialID); err != nil {
		if appErr.IsConflict(err) {
			return nil
		}
		return err
	}
	mat, err := s.materials.Get(ctx, materialID)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx).With(
		zap.String("material_id", materialID),
		zap.String("course_id", mat.CourseID))

	text, err := s.extractText(ctx, mat)
	if err == nil {
		err = s.indexMaterial(ctx, mat, text)
	}
	if err != nil {
		logger.Error("material processing failed", zap.Error(err))
		_ = s.materials.Update(ctx, materialID, map[string]interface{}{
			"processing_status": model.ProcessingStatusFailed,
			"processing_error":  err.Error(),
		})
		return err
	}

	chunkCount := len(ingest.Chunk(text, s.chunkSize, s.chunkOverlap))
	if err := s.materials.Update(ctx, materialID, map[string]interface{}{
		"content":           text,
		"chunk_count":       chunkCount,
		"processing_status": model.ProcessingStatusCompleted,
		"processing_error":  "",
		"processed_at":      time.Now().UnixMilli(),
	}); err != nil {
		return err
	}
	logger.Info("material processed", zap.Int("chunks", chunkCount))
	return nil
}

func (s *MaterialService) extractText(ctx context.Context, mat *model.Material) (string, error) {
	extractor, err := ingest.NewExtractor(mat.FileType)
	if err != nil {
		return "", err
	}
	src, err := s.store.Open(ctx, mat.FileKey)
	if err != nil {
		return "", fmt.Errorf("open material file: %w", err)
	}
	defer src.Close()

	// Extractors work on paths, so spool store content to a temp file.
	tmp, err := os.CreateTemp("", "material-*."+mat.FileType)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	return extractor.ExtractText(ctx, tmp.Name())
}

func (s *MaterialService) indexMaterial(ctx context.Context, mat *model.Material, text string) error {
	chunks := ingest.Chunk(text, s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		return fmt.Errorf("no extractable text in material")
	}
	ids := make([]string, 0, len(chunks))
	metas := make([]map[string]string, 0, len(chunks))
	for i := range chunks {
		ids = append(ids, materialChunkID(mat.ID, i))
		metas = append(metas, map[string]string{
			"source":      "material",
			"material_id": mat.ID,
			"course_id":   mat.CourseID,
			"filename":    mat.Filename,
			"chunk_index": strconv.Itoa(i),
		})
	}
	_, err := s.index.Add(ctx, mat.CourseID, ids, chunks, metas)
	return err
}

// Delete removes the material row, its vector documents and, when the
// store supports it, the uploaded file.
func (s *MaterialService) Delete(ctx context.Context, teacherID, materialID string) error {
	mat, err := s.Get(ctx, teacherID, materialID)
	if err != nil {
		return err
	}
	if mat.ChunkCount > 0 {
		ids := make([]string, 0, mat.ChunkCount)
		for i := 0; i < mat.ChunkCount; i++ {
			ids = append(ids, materialChunkID(mat.ID, i))
		}
		if err := s.index.Delete(ctx, mat.CourseID, ids); err != nil {
			return err
		}
	}
	if remover, ok := s.store.(filestore.Remover); ok {
		if err := remover.Remove(ctx, mat.FileKey); err != nil {
			logutil.GetLogger(ctx).Warn("failed to remove material file",
				zap.String("file_key", mat.FileKey), zap.Error(err))
		}
	}
	return s.materials.Delete(ctx, materialID)
}

func materialChunkID(materialID string, i int) string {
	return fmt.Sprintf("%s_material_%d", materialID, i)
}
