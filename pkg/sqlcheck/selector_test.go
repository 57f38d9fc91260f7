package sqlcheck

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlink-ai/sqlink-engine/pkg/apperrors"
	"github.com/sqlink-ai/sqlink-engine/pkg/models"
)

func testSelector() Selector {
	return NewSelector(NewValidator(nil), ScoreWeights{}, nil)
}

func TestSelectEmptyListFails(t *testing.T) {
	s := testSelector()

	_, err := s.Select(nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNoCandidates))
}

func TestSelectFallsBackToFirstRawCandidate(t *testing.T) {
	s := testSelector()
	candidates := []models.SQLCandidate{
		{QueryText: "SELEC broken one", IsValid: false},
		{QueryText: "SELEC broken two", IsValid: false},
	}

	got, err := s.Select(candidates, nil)
	require.NoError(t, err)
	assert.Same(t, &candidates[0], got)
}

func TestSelectSingleValidReturnedUnscored(t *testing.T) {
	s := testSelector()
	candidates := []models.SQLCandidate{
		{QueryText: "SELEC broken", IsValid: false},
		{QueryText: "SELECT name FROM schools;", IsValid: true},
	}

	got, err := s.Select(candidates, []string{"schools.name"})
	require.NoError(t, err)
	assert.Same(t, &candidates[1], got)
	assert.Equal(t, 0, got.StructuralScore)
}

func TestSelectPicksHighestScore(t *testing.T) {
	s := testSelector()
	candidates := []models.SQLCandidate{
		{QueryText: "SELECT 1", IsValid: true},
		{QueryText: "SELECT schools.city FROM schools WHERE schools.city = 'Fremont'", IsValid: true},
		{QueryText: "SELECT name FROM schools", IsValid: true},
	}

	got, err := s.Select(candidates, []string{"schools.city"})
	require.NoError(t, err)
	assert.Same(t, &candidates[1], got)

	// select(1) + from(1) + focused(3) + joins(2) + syntax(2) + complexity(1) + short(1)
	assert.Equal(t, 11, candidates[1].StructuralScore)
	// No FROM and no focused field for the bare SELECT.
	assert.Equal(t, 7, candidates[0].StructuralScore)
	assert.Equal(t, 8, candidates[2].StructuralScore)
}

func TestSelectTieKeepsGenerationOrder(t *testing.T) {
	s := testSelector()
	candidates := []models.SQLCandidate{
		{QueryText: "SELECT name FROM schools", IsValid: true},
		{QueryText: "SELECT name FROM schools", IsValid: true},
	}

	got, err := s.Select(candidates, nil)
	require.NoError(t, err)
	assert.Same(t, &candidates[0], got)
}

func TestSelectPenalizesLongQueries(t *testing.T) {
	cols := make([]string, 60)
	for i := range cols {
		cols[i] = fmt.Sprintf("c%d", i)
	}
	long := "SELECT " + strings.Join(cols, ", ") + " FROM t"

	s := testSelector()
	candidates := []models.SQLCandidate{
		{QueryText: long, IsValid: true},
		{QueryText: "SELECT name FROM schools", IsValid: true},
	}

	got, err := s.Select(candidates, nil)
	require.NoError(t, err)
	assert.Same(t, &candidates[1], got)

	// select + from + joins + syntax + complexity - long penalty
	assert.Equal(t, 6, candidates[0].StructuralScore)
	assert.Equal(t, 8, candidates[1].StructuralScore)
}

func TestSelectCustomWeights(t *testing.T) {
	weights := DefaultScoreWeights()
	weights.FocusedFields = 10
	s := NewSelector(NewValidator(nil), weights, nil)

	candidates := []models.SQLCandidate{
		{QueryText: "SELECT name FROM schools", IsValid: true},
		{QueryText: "SELECT schools.city FROM schools", IsValid: true},
	}

	got, err := s.Select(candidates, []string{"schools.city"})
	require.NoError(t, err)
	assert.Same(t, &candidates[1], got)
	assert.Equal(t, 8+10, candidates[1].StructuralScore)
}
