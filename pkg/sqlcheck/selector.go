package sqlcheck

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sqlink-ai/sqlink-engine/pkg/apperrors"
	"github.com/sqlink-ai/sqlink-engine/pkg/models"
)

// ScoreWeights are the structural-vote weights. The defaults bias selection
// toward schema-grounded, syntactically sound, reasonably short queries.
type ScoreWeights struct {
	Select        int
	From          int
	FocusedFields int
	ProperJoins   int
	NoSyntaxErr   int
	Complexity    int

	ShortBonus     int
	LongPenalty    int
	ShortWordLimit int
	LongWordLimit  int
}

// DefaultScoreWeights returns the standard vote weights.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Select:         1,
		From:           1,
		FocusedFields:  3,
		ProperJoins:    2,
		NoSyntaxErr:    2,
		Complexity:     1,
		ShortBonus:     1,
		LongPenalty:    1,
		ShortWordLimit: 20,
		LongWordLimit:  50,
	}
}

// Selector picks one final candidate by structural majority vote.
type Selector interface {
	// Select filters to syntactically valid candidates and returns the
	// highest scoring one; score ties keep the earliest generated. With zero
	// valid candidates it falls back to the first raw candidate with a
	// warning, and an empty candidate list returns ErrNoCandidates.
	Select(candidates []models.SQLCandidate, focusedFields []string) (*models.SQLCandidate, error)
}

type selector struct {
	validator Validator
	weights   ScoreWeights
	logger    *zap.Logger
}

// NewSelector creates a selector. Zero-value weights take the defaults.
func NewSelector(validator Validator, weights ScoreWeights, logger *zap.Logger) Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if weights == (ScoreWeights{}) {
		weights = DefaultScoreWeights()
	}
	return &selector{
		validator: validator,
		weights:   weights,
		logger:    logger.Named("sql-selector"),
	}
}

var _ Selector = (*selector)(nil)

func (s *selector) Select(candidates []models.SQLCandidate, focusedFields []string) (*models.SQLCandidate, error) {
	if len(candidates) == 0 {
		return nil, apperrors.ErrNoCandidates
	}

	valid := make([]*models.SQLCandidate, 0, len(candidates))
	for i := range candidates {
		if candidates[i].IsValid {
			valid = append(valid, &candidates[i])
		}
	}

	if len(valid) == 0 {
		s.logger.Warn("No syntactically valid candidates, falling back to first raw candidate",
			zap.Int("candidates", len(candidates)))
		return &candidates[0], nil
	}
	if len(valid) == 1 {
		return valid[0], nil
	}

	for _, c := range valid {
		c.StructuralScore = s.score(c.QueryText, focusedFields)
	}

	best := valid[0]
	for _, c := range valid[1:] {
		if c.StructuralScore > best.StructuralScore {
			best = c
		}
	}

	s.logger.Debug("Selected candidate by structural vote",
		zap.Int("score", best.StructuralScore),
		zap.Int("valid", len(valid)),
		zap.Int("candidates", len(candidates)))
	return best, nil
}

// score applies the vote weights to one candidate.
func (s *selector) score(sql string, focusedFields []string) int {
	checks := s.validator.CheckPatterns(sql, focusedFields)

	score := 0
	if checks[PatternHasSelect] {
		score += s.weights.Select
	}
	if checks[PatternHasFrom] {
		score += s.weights.From
	}
	if checks[PatternUsesFocusedFields] {
		score += s.weights.FocusedFields
	}
	if checks[PatternProperJoins] {
		score += s.weights.ProperJoins
	}
	if checks[PatternNoSyntaxErrors] {
		score += s.weights.NoSyntaxErr
	}
	if checks[PatternComplexity] {
		score += s.weights.Complexity
	}

	words := len(strings.Fields(sql))
	if words < s.weights.ShortWordLimit {
		score += s.weights.ShortBonus
	}
	if words > s.weights.LongWordLimit {
		score -= s.weights.LongPenalty
	}
	return score
}
