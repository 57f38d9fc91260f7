package fewshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlink-ai/sqlink-engine/pkg/apperrors"
	"github.com/sqlink-ai/sqlink-engine/pkg/llm"
)

const examplesYAML = `- question: How many students attend each school?
  sql: SELECT school_id, COUNT(*) FROM students GROUP BY school_id;
- question: List the names of all schools
  sql: SELECT name FROM schools;
`

func TestParse(t *testing.T) {
	store, err := Parse([]byte(examplesYAML))
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())
	assert.Equal(t, "How many students attend each school?", store.Examples()[0].Question)
	assert.Equal(t, "SELECT name FROM schools;", store.Examples()[1].SQL)
}

func TestParseRejectsBlankFields(t *testing.T) {
	_, err := Parse([]byte("- question: \"\"\n  sql: SELECT 1;\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "example 0")
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("question: ["))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse examples")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "examples.yaml")
	require.NoError(t, os.WriteFile(path, []byte(examplesYAML), 0o644))

	store, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func mapEmbedder(vectors map[string][]float32) *llm.MockEmbeddingClient {
	return &llm.MockEmbeddingClient{
		EmbedFunc: func(ctx context.Context, input string) ([]float32, error) {
			v, ok := vectors[input]
			if !ok {
				return nil, fmt.Errorf("no vector for %q", input)
			}
			return v, nil
		},
	}
}

func selectorStore(t *testing.T) *Store {
	t.Helper()
	store, err := Parse([]byte(`- question: How many students attend each school?
  sql: SELECT school_id, COUNT(*) FROM students GROUP BY school_id;
- question: List the names of all schools
  sql: SELECT name FROM schools;
- question: What is the average GPA of students?
  sql: SELECT AVG(gpa) FROM students;
`))
	require.NoError(t, err)
	return store
}

func TestSelectorSelectNearestFirst(t *testing.T) {
	embedder := mapEmbedder(map[string][]float32{
		"How many students attend each school?": {0, 0},
		"List the names of all schools":         {3, 0},
		"What is the average GPA of students?":  {0, 4},
		"Count the students per school":         {1, 0},
	})
	s := NewSelector(embedder, nil)
	require.NoError(t, s.Build(context.Background(), selectorStore(t)))
	require.Equal(t, 3, s.Len())

	selected, err := s.Select(context.Background(), "Count the students per school", 2)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, "How many students attend each school?", selected[0].Question)
	assert.Equal(t, "List the names of all schools", selected[1].Question)
}

func TestSelectorBuildSkipsFailedEmbeddings(t *testing.T) {
	// The GPA example has no vector, so its embedding call fails.
	embedder := mapEmbedder(map[string][]float32{
		"How many students attend each school?": {0, 0},
		"List the names of all schools":         {3, 0},
		"Count the students per school":         {1, 0},
	})
	s := NewSelector(embedder, nil)
	require.NoError(t, s.Build(context.Background(), selectorStore(t)))
	assert.Equal(t, 2, s.Len())

	selected, err := s.Select(context.Background(), "Count the students per school", 10)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	for _, ex := range selected {
		assert.NotContains(t, ex.Question, "GPA")
	}
}

func TestSelectorDimensionMismatch(t *testing.T) {
	embedder := mapEmbedder(map[string][]float32{
		"How many students attend each school?": {0, 0},
		"List the names of all schools":         {3, 0},
		"What is the average GPA of students?":  {0, 4},
		"Count the students per school":         {1, 0, 0},
	})
	s := NewSelector(embedder, nil)
	require.NoError(t, s.Build(context.Background(), selectorStore(t)))

	_, err := s.Select(context.Background(), "Count the students per school", 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDimensionMismatch))
}

func TestSelectorEmpty(t *testing.T) {
	s := NewSelector(mapEmbedder(nil), nil)

	selected, err := s.Select(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, selected)
}
