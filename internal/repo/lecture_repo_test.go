package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MohitNilvarn/TAP/internal/model"
	appErr "github.com/MohitNilvarn/TAP/internal/pkg/errors"
	"github.com/MohitNilvarn/TAP/internal/repo"
	"github.com/MohitNilvarn/TAP/internal/testutil"
)

func newTestLecture(id, courseID string) *model.Lecture {
	return &model.Lecture{
		ID:                  id,
		CourseID:            courseID,
		TeacherID:           "teacher-1",
		Title:               "Intro",
		TranscriptionStatus: model.TranscriptionStatusPending,
		GenerationStatus:    model.GenerationStatusNotStarted,
		Ctime:               time.Now().UnixMilli(),
	}
}

func TestLectureRepoCRUD(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	lectures := repo.NewLectureRepo(db)
	ctx := context.Background()

	lec := newTestLecture("lec-crud-1", "course-crud-1")
	require.NoError(t, lectures.Create(ctx, lec))
	defer func() { _ = lectures.Delete(ctx, lec.ID) }()

	got, err := lectures.Get(ctx, lec.ID)
	require.NoError(t, err)
	assert.Equal(t, lec.Title, got.Title)
	assert.Equal(t, model.GenerationStatusNotStarted, got.GenerationStatus)

	list, err := lectures.ListByCourse(ctx, "course-crud-1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, lectures.Delete(ctx, lec.ID))
	_, err = lectures.Get(ctx, lec.ID)
	assert.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestLectureRepoClaimGeneration(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	lectures := repo.NewLectureRepo(db)
	ctx := context.Background()

	lec := newTestLecture("lec-claim-1", "course-claim-1")
	require.NoError(t, lectures.Create(ctx, lec))
	defer func() { _ = lectures.Delete(ctx, lec.ID) }()

	now := time.Now().UnixMilli()
	require.NoError(t, lectures.ClaimGeneration(ctx, lec.ID, now))

	// Second claim loses while the flag is held.
	err := lectures.ClaimGeneration(ctx, lec.ID, now)
	assert.ErrorIs(t, err, appErr.ErrConflict)

	// Finishing the run releases the flag for the next claim.
	require.NoError(t, lectures.UpdateGenerationStatus(ctx, lec.ID, model.GenerationStatusGenerating, map[string]interface{}{
		"generation_status": model.GenerationStatusCompleted,
		"generated_at":      now,
	}))
	require.NoError(t, lectures.ClaimGeneration(ctx, lec.ID, now))
}

func TestLectureRepoSegments(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	lectures := repo.NewLectureRepo(db)
	ctx := context.Background()

	lec := newTestLecture("lec-seg-1", "course-seg-1")
	require.NoError(t, lectures.Create(ctx, lec))
	defer func() {
		_ = lectures.ReplaceSegments(ctx, lec.ID, nil)
		_ = lectures.Delete(ctx, lec.ID)
	}()

	segments := []model.TranscriptSegment{
		{Start: 0, End: 4.5, Text: "hello"},
		{Start: 4.5, End: 9.2, Text: "world"},
	}
	require.NoError(t, lectures.ReplaceSegments(ctx, lec.ID, segments))

	got, err := lectures.ListSegments(ctx, lec.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "hello", got[0].Text)
	assert.Equal(t, "world", got[1].Text)

	require.NoError(t, lectures.ReplaceSegments(ctx, lec.ID, nil))
	got, err = lectures.ListSegments(ctx, lec.ID)
	require.NoError(t, err)
	assert.Len(t, got, 0)
}
