package repo

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/MohitNilvarn/TAP/internal/model"
	appErr "github.com/MohitNilvarn/TAP/internal/pkg/errors"
)

// EmbeddingCacheRepo persists embeddings keyed by (model, task type,
// content hash) so identical text never hits the provider twice.
type EmbeddingCacheRepo struct {
	db *sqlx.DB
}

func NewEmbeddingCacheRepo(db *sqlx.DB) *EmbeddingCacheRepo {
	return &EmbeddingCacheRepo{db: db}
}

func (r *EmbeddingCacheRepo) Get(ctx context.Context, modelName, taskType, contentHash string) (*model.EmbeddingCache, error) {
	const query = `
		SELECT model_name, task_type, content_hash, embedding, ctime
		FROM embedding_cache
		WHERE model_name = $1 AND task_type = $2 AND content_hash = $3
	`
	var entry model.EmbeddingCache
	var vec pgvector.Vector
	err := r.db.QueryRowContext(ctx, query, modelName, taskType, contentHash).
		Scan(&entry.ModelName, &entry.TaskType, &entry.ContentHash, &vec, &entry.Ctime)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	entry.Embedding = vec.Slice()
	return &entry, nil
}

func (r *EmbeddingCacheRepo) Put(ctx context.Context, entry *model.EmbeddingCache) error {
	const query = `
		INSERT INTO embedding_cache (model_name, task_type, content_hash, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (model_name, task_type, content_hash) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			ctime = EXCLUDED.ctime
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ModelName, entry.TaskType, entry.ContentHash,
		pgvector.NewVector(entry.Embedding), entry.Ctime)
	return err
}

// DeleteOlderThan evicts entries created before the cutoff, returning the
// number of rows removed for the cleanup job's log line.
func (r *EmbeddingCacheRepo) DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM embedding_cache WHERE ctime < $1", cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
