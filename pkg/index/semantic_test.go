package index

import (
	"context"
	"errors"
	"testing"

	"github.com/sqlink-ai/sqlink-engine/pkg/apperrors"
	"github.com/sqlink-ai/sqlink-engine/pkg/llm"
	"github.com/sqlink-ai/sqlink-engine/pkg/models"
)

// vectorEmbedder returns canned vectors by input text and errors for inputs
// not in the table.
func vectorEmbedder(table map[string][]float32) *llm.MockEmbeddingClient {
	return &llm.MockEmbeddingClient{
		EmbedFunc: func(ctx context.Context, input string) ([]float32, error) {
			if v, ok := table[input]; ok {
				return v, nil
			}
			return nil, errors.New("embedding backend unavailable")
		},
	}
}

func descFor(table, column, long string) *models.ColumnDescription {
	return &models.ColumnDescription{TableName: table, ColumnName: column, Long: long}
}

func TestSemanticQueryRanksByDistance(t *testing.T) {
	embedder := vectorEmbedder(map[string][]float32{
		"city text":    {1, 0, 0},
		"gpa numeric":  {0, 1, 0},
		"name text":    {0.9, 0.1, 0},
		"the question": {1, 0, 0},
	})

	ix := NewSemanticIndex(embedder, nil)
	err := ix.Build(context.Background(), []*models.ColumnDescription{
		descFor("schools", "city", "city text"),
		descFor("students", "gpa", "gpa numeric"),
		descFor("students", "name", "name text"),
	})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if ix.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ix.Len())
	}

	got, err := ix.Query(context.Background(), "the question", 2)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	want := []string{"schools.city", "students.name"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Query = %v, want %v", got, want)
	}
}

func TestSemanticQueryTiesKeepInsertionOrder(t *testing.T) {
	embedder := vectorEmbedder(map[string][]float32{
		"same": {1, 1, 1},
		"q":    {0, 0, 0},
	})

	ix := NewSemanticIndex(embedder, nil)
	if err := ix.Build(context.Background(), []*models.ColumnDescription{
		descFor("b_table", "col", "same"),
		descFor("a_table", "col", "same"),
	}); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	got, err := ix.Query(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if got[0] != "b_table.col" || got[1] != "a_table.col" {
		t.Errorf("tie order = %v, want insertion order [b_table.col a_table.col]", got)
	}
}

func TestSemanticBuildSkipsFailedEmbeddings(t *testing.T) {
	embedder := vectorEmbedder(map[string][]float32{
		"good": {1, 0},
		"q":    {1, 0},
	})

	ix := NewSemanticIndex(embedder, nil)
	if err := ix.Build(context.Background(), []*models.ColumnDescription{
		descFor("t", "bad", "this one fails"),
		descFor("t", "good", "good"),
	}); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if ix.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (failed embedding skipped)", ix.Len())
	}

	got, err := ix.Query(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(got) != 1 || got[0] != "t.good" {
		t.Errorf("Query = %v, want [t.good]", got)
	}
}

func TestSemanticBuildSkipsMismatchedDimensions(t *testing.T) {
	embedder := vectorEmbedder(map[string][]float32{
		"three": {1, 0, 0},
		"two":   {1, 0},
	})

	ix := NewSemanticIndex(embedder, nil)
	if err := ix.Build(context.Background(), []*models.ColumnDescription{
		descFor("t", "a", "three"),
		descFor("t", "b", "two"),
	}); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if ix.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (mismatched dimension skipped)", ix.Len())
	}
}

func TestSemanticQueryEmptyIndex(t *testing.T) {
	ix := NewSemanticIndex(&llm.MockEmbeddingClient{}, nil)

	got, err := ix.Query(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Query on empty index returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Query on empty index = %v, want empty", got)
	}
}

func TestSemanticQueryEmbedFailure(t *testing.T) {
	embedder := vectorEmbedder(map[string][]float32{"doc": {1, 0}})

	ix := NewSemanticIndex(embedder, nil)
	if err := ix.Build(context.Background(), []*models.ColumnDescription{
		descFor("t", "a", "doc"),
	}); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if _, err := ix.Query(context.Background(), "unknown question", 1); err == nil {
		t.Fatal("expected error when question embedding fails")
	}
}

func TestSemanticQueryDimensionMismatch(t *testing.T) {
	embedder := vectorEmbedder(map[string][]float32{
		"doc": {1, 0, 0},
		"q":   {1, 0},
	})

	ix := NewSemanticIndex(embedder, nil)
	if err := ix.Build(context.Background(), []*models.ColumnDescription{
		descFor("t", "a", "doc"),
	}); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	_, err := ix.Query(context.Background(), "q", 1)
	if !errors.Is(err, apperrors.ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestSemanticQueryKExceedsSize(t *testing.T) {
	embedder := vectorEmbedder(map[string][]float32{
		"doc": {1, 0},
		"q":   {0, 1},
	})

	ix := NewSemanticIndex(embedder, nil)
	if err := ix.Build(context.Background(), []*models.ColumnDescription{
		descFor("t", "a", "doc"),
	}); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	got, err := ix.Query(context.Background(), "q", 20)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Query with oversized k = %v, want single result", got)
	}
}
