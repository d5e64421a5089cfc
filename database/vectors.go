package database

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/fuser/helper"
	"github.com/siherrmann/fuser/model"
	"github.com/siherrmann/fuser/sql"
)

// VectorsDBHandlerFunctions defines the interface for vector database operations.
type VectorsDBHandlerFunctions interface {
	InsertVector(documentID string, embedding []float32, metadata model.Metadata) error
	SelectVectorsBySimilarity(embedding []float32, topK int) ([]*model.SearchResult, error)
	DeleteVector(documentID string) error
}

// VectorsDBHandler handles document embedding storage and similarity
// search backed by pgvector. It implements the vector search contract of
// the retrieval engine.
type VectorsDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewVectorsDBHandler creates a new vectors database handler for
// embeddings of the given dimensionality.
// If force is true, it will reload the SQL functions even if they already exist.
func NewVectorsDBHandler(db *helper.Database, embeddingDim int, force bool) (*VectorsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive"))
	}

	vectorsDbHandler := &VectorsDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := sql.LoadVectorsSql(vectorsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load vectors sql", err)
	}

	err = vectorsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized VectorsDBHandler")

	return vectorsDbHandler, nil
}

// CreateTable creates the 'vectors' table in the database.
// If the table already exists, it does not create it again.
func (h *VectorsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_vectors($1);`, h.embeddingDim)
	if err != nil {
		return helper.NewError("initialize vectors table", err)
	}

	h.db.Logger.Info("Checked/created table vectors")

	return nil
}

// InsertVector inserts or replaces the embedding for a document
func (h *VectorsDBHandler) InsertVector(documentID string, embedding []float32, metadata model.Metadata) error {
	if len(embedding) != h.embeddingDim {
		return helper.NewError("embedding validation", fmt.Errorf("expected %d dimensions, got %d", h.embeddingDim, len(embedding)))
	}
	if metadata == nil {
		metadata = model.Metadata{}
	}

	var (
		id        int64
		stored    pgvector.Vector
		createdAt time.Time
	)
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_vector($1, $2, $3)`,
		documentID,
		pgvector.NewVector(embedding),
		metadata,
	)

	err := row.Scan(
		&id,
		&documentID,
		&stored,
		&metadata,
		&createdAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectVectorsBySimilarity retrieves the topK most similar documents by
// cosine similarity
func (h *VectorsDBHandler) SelectVectorsBySimilarity(embedding []float32, topK int) ([]*model.SearchResult, error) {
	return h.selectBySimilarity(context.Background(), embedding, topK)
}

// Search implements the retrieval engine's vector search contract
func (h *VectorsDBHandler) Search(ctx context.Context, embedding []float32, topK int) ([]*model.SearchResult, error) {
	return h.selectBySimilarity(ctx, embedding, topK)
}

func (h *VectorsDBHandler) selectBySimilarity(ctx context.Context, embedding []float32, topK int) ([]*model.SearchResult, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_vectors_by_similarity($1, $2)`,
		pgvector.NewVector(embedding),
		topK,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []*model.SearchResult
	for rows.Next() {
		result := &model.SearchResult{}
		err := rows.Scan(
			&result.DocumentID,
			&result.Score,
			&result.Metadata,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("rows", err)
	}

	return results, nil
}

// DeleteVector deletes the embedding for a document
func (h *VectorsDBHandler) DeleteVector(documentID string) error {
	_, err := h.db.Instance.Exec(`SELECT delete_vector($1)`, documentID)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
