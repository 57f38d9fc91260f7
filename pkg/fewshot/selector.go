package fewshot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sqlink-ai/sqlink-engine/pkg/apperrors"
	"github.com/sqlink-ai/sqlink-engine/pkg/index"
	"github.com/sqlink-ai/sqlink-engine/pkg/llm"
)

// Selector ranks stored examples by L2 distance between the question
// embedding and each example question's embedding. Like the column index, it
// is a flat scan over all vectors.
type Selector struct {
	embedder llm.EmbeddingClient
	logger   *zap.Logger

	dim      int
	examples []Example
	vectors  [][]float64
}

// NewSelector creates an empty selector over the given embedding capability.
func NewSelector(embedder llm.EmbeddingClient, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{
		embedder: embedder,
		logger:   logger.Named("fewshot"),
	}
}

// Build embeds every example question in the store. A failed or mis-sized
// embedding drops that example from selection, so the selector may cover a
// subset of the pool. Build replaces any previous contents and returns an
// error only when ctx is done.
func (s *Selector) Build(ctx context.Context, store *Store) error {
	s.dim = 0
	s.examples = nil
	s.vectors = nil

	for _, ex := range store.Examples() {
		if err := ctx.Err(); err != nil {
			return err
		}

		vector, err := s.embedder.Embed(ctx, ex.Question)
		if err != nil {
			s.logger.Warn("Skipping example with failed embedding",
				zap.String("question", ex.Question),
				zap.Error(err))
			continue
		}
		if len(vector) == 0 {
			s.logger.Warn("Skipping example with empty embedding",
				zap.String("question", ex.Question))
			continue
		}
		if s.dim == 0 {
			s.dim = len(vector)
		}
		if len(vector) != s.dim {
			s.logger.Warn("Skipping example with mismatched embedding dimension",
				zap.String("question", ex.Question),
				zap.Int("dimension", len(vector)),
				zap.Int("index_dimension", s.dim))
			continue
		}

		s.examples = append(s.examples, ex)
		s.vectors = append(s.vectors, index.Float64Vector(vector))
	}

	s.logger.Info("Few-shot selector built",
		zap.Int("examples", store.Len()),
		zap.Int("indexed", len(s.examples)),
		zap.Int("dimension", s.dim))
	return nil
}

// Len returns the number of selectable examples.
func (s *Selector) Len() int {
	return len(s.examples)
}

// Select returns the k examples whose questions sit closest to the given
// question, nearest first. An empty selector returns an empty result without
// error.
func (s *Selector) Select(ctx context.Context, question string, k int) ([]Example, error) {
	if len(s.examples) == 0 || k <= 0 {
		return nil, nil
	}

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vector) != s.dim {
		return nil, fmt.Errorf("%w: question embedding has %d dimensions, index has %d",
			apperrors.ErrDimensionMismatch, len(vector), s.dim)
	}

	nearest := index.NearestNeighbors(index.Float64Vector(vector), s.vectors, k)
	out := make([]Example, len(nearest))
	for i, idx := range nearest {
		out[i] = s.examples[idx]
	}
	return out, nil
}
