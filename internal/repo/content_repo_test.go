package repo_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MohitNilvarn/TAP/internal/model"
	appErr "github.com/MohitNilvarn/TAP/internal/pkg/errors"
	"github.com/MohitNilvarn/TAP/internal/repo"
	"github.com/MohitNilvarn/TAP/internal/testutil"
)

func TestContentRepoUpsertAndEdit(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	contents := repo.NewContentRepo(db)
	ctx := context.Background()
	now := time.Now().UnixMilli()

	gc := &model.GeneratedContent{
		ID:          "gc-1",
		LectureID:   "lec-content-1",
		CourseID:    "course-content-1",
		ContentType: model.ContentTypeNotes,
		Content:     json.RawMessage(`{"title":"v1"}`),
		Metadata:    map[string]any{"context_docs_used": 2},
		Version:     1,
		Ctime:       now,
		Mtime:       now,
	}
	require.NoError(t, contents.Upsert(ctx, gc))
	defer func() { _ = contents.DeleteByLecture(ctx, "lec-content-1") }()

	// Manual edit bumps the version.
	require.NoError(t, contents.Edit(ctx, "lec-content-1", model.ContentTypeNotes,
		json.RawMessage(`{"title":"edited"}`), now+1))
	got, err := contents.Get(ctx, "lec-content-1", model.ContentTypeNotes)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.True(t, got.IsEdited)
	assert.JSONEq(t, `{"title":"edited"}`, string(got.Content))

	// Regeneration replaces the payload but leaves the edit history
	// alone; only Edit moves version and is_edited.
	gc.Content = json.RawMessage(`{"title":"v2"}`)
	gc.Mtime = now + 2
	require.NoError(t, contents.Upsert(ctx, gc))
	got, err = contents.Get(ctx, "lec-content-1", model.ContentTypeNotes)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.True(t, got.IsEdited)
	assert.JSONEq(t, `{"title":"v2"}`, string(got.Content))
}

func TestContentRepoEditMissing(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	contents := repo.NewContentRepo(db)
	err := contents.Edit(context.Background(), "lec-missing", model.ContentTypeNotes,
		json.RawMessage(`{}`), time.Now().UnixMilli())
	assert.ErrorIs(t, err, appErr.ErrNotFound)
}
