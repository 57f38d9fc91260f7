package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sqlink-ai/sqlink-engine/pkg/apperrors"
	"github.com/sqlink-ai/sqlink-engine/pkg/llm"
	"github.com/sqlink-ai/sqlink-engine/pkg/models"
)

// SemanticIndex ranks columns by relevance to a question using L2 distance
// between embeddings of their long descriptions. It is a flat index; every
// query scans all vectors.
type SemanticIndex struct {
	embedder llm.EmbeddingClient
	logger   *zap.Logger

	dim     int
	keys    []string
	vectors [][]float64
}

// NewSemanticIndex creates an empty semantic index over the given embedding
// capability.
func NewSemanticIndex(embedder llm.EmbeddingClient, logger *zap.Logger) *SemanticIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemanticIndex{
		embedder: embedder,
		logger:   logger.Named("semantic-index"),
	}
}

// Build embeds each column's long description and inserts the vector. A
// failed or mis-sized embedding skips that column, so the index may end up
// covering a subset of the descriptions. Build replaces any previous
// contents and returns an error only when ctx is done.
func (ix *SemanticIndex) Build(ctx context.Context, descriptions []*models.ColumnDescription) error {
	ix.dim = 0
	ix.keys = nil
	ix.vectors = nil

	for _, desc := range descriptions {
		if err := ctx.Err(); err != nil {
			return err
		}

		vector, err := ix.embedder.Embed(ctx, desc.Long)
		if err != nil {
			ix.logger.Warn("Skipping column with failed embedding",
				zap.String("column", desc.Key()),
				zap.Error(err))
			continue
		}
		if len(vector) == 0 {
			ix.logger.Warn("Skipping column with empty embedding",
				zap.String("column", desc.Key()))
			continue
		}
		if ix.dim == 0 {
			ix.dim = len(vector)
		}
		if len(vector) != ix.dim {
			ix.logger.Warn("Skipping column with mismatched embedding dimension",
				zap.String("column", desc.Key()),
				zap.Int("dimension", len(vector)),
				zap.Int("index_dimension", ix.dim))
			continue
		}

		ix.keys = append(ix.keys, desc.Key())
		ix.vectors = append(ix.vectors, Float64Vector(vector))
	}

	ix.logger.Info("Semantic index built",
		zap.Int("descriptions", len(descriptions)),
		zap.Int("indexed", len(ix.keys)),
		zap.Int("dimension", ix.dim))
	return nil
}

// Len returns the number of indexed columns.
func (ix *SemanticIndex) Len() int {
	return len(ix.keys)
}

// Query returns the k nearest column keys by L2 distance, nearest first.
// Exact distance ties keep insertion order. An empty index returns an empty
// result without error.
func (ix *SemanticIndex) Query(ctx context.Context, question string, k int) ([]string, error) {
	if len(ix.keys) == 0 || k <= 0 {
		return nil, nil
	}

	vector, err := ix.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vector) != ix.dim {
		return nil, fmt.Errorf("%w: question embedding has %d dimensions, index has %d",
			apperrors.ErrDimensionMismatch, len(vector), ix.dim)
	}

	nearest := NearestNeighbors(Float64Vector(vector), ix.vectors, k)
	keys := make([]string, len(nearest))
	for i, idx := range nearest {
		keys[i] = ix.keys[idx]
	}
	return keys, nil
}
