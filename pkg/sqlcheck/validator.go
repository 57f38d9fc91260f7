// Package sqlcheck classifies, scores, and gates generated SQL before
// anything downstream trusts it. The checks are heuristic pattern matching,
// not semantic analysis: a query can pass all of them and still be wrong.
package sqlcheck

import (
	"regexp"
	"strings"

	"github.com/xwb1989/sqlparser"
	"go.uber.org/zap"

	"github.com/sqlink-ai/sqlink-engine/pkg/models"
)

// Pattern names reported by CheckPatterns.
const (
	PatternHasSelect         = "has_select"
	PatternHasFrom           = "has_from"
	PatternUsesFocusedFields = "uses_focused_fields"
	PatternProperJoins       = "has_proper_joins"
	PatternNoSyntaxErrors    = "no_syntax_errors"
	PatternComplexity        = "reasonable_complexity"
)

// maxSelectOccurrences bounds nesting: four or more SELECT keywords in one
// statement reads as runaway subquery generation.
const maxSelectOccurrences = 4

var (
	selectPattern = regexp.MustCompile(`(?i)\bselect\b`)
	fromPattern   = regexp.MustCompile(`(?i)\bfrom\b`)
	joinPattern   = regexp.MustCompile(`(?i)\bjoin\b`)
	onPattern     = regexp.MustCompile(`(?i)\bon\b`)
)

// Validator checks candidate SQL without executing it.
type Validator interface {
	// ValidateSyntax reports whether the SQL parses. The message carries the
	// parse error when it does not; the method itself never fails.
	ValidateSyntax(sql string) (bool, string)

	// CheckPatterns evaluates the structural signals used for scoring.
	CheckPatterns(sql string, focusedFields []string) map[string]bool
}

type validator struct {
	logger *zap.Logger
}

// NewValidator creates a validator.
func NewValidator(logger *zap.Logger) Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &validator{logger: logger.Named("sql-validator")}
}

var _ Validator = (*validator)(nil)

func (v *validator) ValidateSyntax(sql string) (bool, string) {
	if strings.TrimSpace(sql) == "" {
		return false, "empty query"
	}
	if _, err := sqlparser.Parse(sql); err != nil {
		return false, err.Error()
	}
	return true, ""
}

func (v *validator) CheckPatterns(sql string, focusedFields []string) map[string]bool {
	syntaxOK, _ := v.ValidateSyntax(sql)

	return map[string]bool{
		PatternHasSelect:         selectPattern.MatchString(sql),
		PatternHasFrom:           fromPattern.MatchString(sql),
		PatternUsesFocusedFields: usesFocusedFields(sql, focusedFields),
		PatternProperJoins:       properJoins(sql),
		PatternNoSyntaxErrors:    syntaxOK,
		PatternComplexity:        len(selectPattern.FindAllStringIndex(sql, -1)) < maxSelectOccurrences,
	}
}

// usesFocusedFields reports whether any linked table.column key appears in
// the SQL as a substring.
func usesFocusedFields(sql string, focusedFields []string) bool {
	lowered := strings.ToLower(sql)
	for _, field := range focusedFields {
		if field == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(field)) {
			return true
		}
	}
	return false
}

// properJoins requires at least as many ON clauses as JOIN keywords. A query
// without joins passes trivially.
func properJoins(sql string) bool {
	joins := len(joinPattern.FindAllStringIndex(sql, -1))
	if joins == 0 {
		return true
	}
	return len(onPattern.FindAllStringIndex(sql, -1)) >= joins
}

// ValidateCandidates stamps IsValid and ValidationMessage on each candidate
// in place.
func ValidateCandidates(v Validator, candidates []models.SQLCandidate) {
	for i := range candidates {
		ok, msg := v.ValidateSyntax(candidates[i].QueryText)
		candidates[i].IsValid = ok
		candidates[i].ValidationMessage = msg
	}
}
