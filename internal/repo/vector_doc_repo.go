package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/MohitNilvarn/TAP/internal/model"
)

// VectorDocRepo stores indexed chunks in the vector_documents table. The
// seq column is a serial so insertion order is recoverable for stable
// tie-breaking at query time.
type VectorDocRepo struct {
	db *sqlx.DB
}

func NewVectorDocRepo(db *sqlx.DB) *VectorDocRepo {
	return &VectorDocRepo{db: db}
}

// UpsertBatch writes docs in one statement. Re-adding an existing doc id
// replaces its content and embedding.
func (r *VectorDocRepo) UpsertBatch(ctx context.Context, docs []model.VectorDocument) error {
	if len(docs) == 0 {
		return nil
	}
	values := make([]string, 0, len(docs))
	args := make([]interface{}, 0, len(docs)*5)
	for i, doc := range docs {
		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return err
		}
		base := i * 6
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, doc.Collection, doc.DocID, doc.Content,
			pgvector.NewVector(doc.Embedding), meta, doc.Ctime)
	}
	query := fmt.Sprintf(`
		INSERT INTO vector_documents (collection, doc_id, content, embedding, metadata, ctime)
		VALUES %s
		ON CONFLICT (collection, doc_id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata
	`, strings.Join(values, ", "))
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// ListByCollection returns every doc in seq order with embeddings loaded.
func (r *VectorDocRepo) ListByCollection(ctx context.Context, collection string) ([]model.VectorDocument, error) {
	const query = `
		SELECT seq, collection, doc_id, content, embedding, metadata, ctime
		FROM vector_documents
		WHERE collection = $1
		ORDER BY seq ASC
	`
	rows, err := r.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.VectorDocument
	for rows.Next() {
		var doc model.VectorDocument
		var vec pgvector.Vector
		var rawMeta []byte
		if err := rows.Scan(&doc.Seq, &doc.Collection, &doc.DocID, &doc.Content, &vec, &rawMeta, &doc.Ctime); err != nil {
			return nil, err
		}
		doc.Embedding = vec.Slice()
		if len(rawMeta) > 0 {
			if err := json.Unmarshal(rawMeta, &doc.Metadata); err != nil {
				return nil, err
			}
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteByIDs removes the named docs; unknown ids are ignored.
func (r *VectorDocRepo) DeleteByIDs(ctx context.Context, collection string, docIDs []string) error {
	if len(docIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(
		"DELETE FROM vector_documents WHERE collection = ? AND doc_id IN (?)",
		collection, docIDs,
	)
	if err != nil {
		return err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// DeleteCollection drops every doc in the collection and reports how many
// rows went away.
func (r *VectorDocRepo) DeleteCollection(ctx context.Context, collection string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM vector_documents WHERE collection = $1", collection)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *VectorDocRepo) CountByCollection(ctx context.Context, collection string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vector_documents WHERE collection = $1", collection).Scan(&count)
	return count, err
}
