// Package evaluate scores predicted SQL against ground truth three ways:
// normalized string equality, execution-result equivalence against a live
// target, and schema-linking F1 over qualified column references.
package evaluate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sqlink-ai/sqlink-engine/pkg/adapters/datasource"
	"github.com/sqlink-ai/sqlink-engine/pkg/audit"
	"github.com/sqlink-ai/sqlink-engine/pkg/logging"
	"github.com/sqlink-ai/sqlink-engine/pkg/models"
	"github.com/sqlink-ai/sqlink-engine/pkg/sqlcheck"
)

const defaultExecutionTimeout = 10 * time.Second

// progressInterval is how many records pass between batch progress lines.
const progressInterval = 25

// Config tunes evaluation. Zero fields take defaults.
type Config struct {
	// ExecutionTimeout bounds each query run during execution accuracy.
	ExecutionTimeout time.Duration
	// Ordered switches result comparison to order-sensitive. The default is
	// unordered because neither query is assumed to carry ORDER BY.
	Ordered bool
}

// Item is one question to score.
type Item struct {
	Question       string
	PredictedSQL   string
	GroundTruthSQL string

	// Focused is the linked schema the prediction was generated from; nil
	// scores schema linking as an empty prediction.
	Focused *models.FocusedSchema
}

// Evaluator scores predictions. Per-item failures become false results with
// messages, never errors; only a done context aborts a batch.
type Evaluator interface {
	// ExactMatch compares both statements after normalization. Parsing
	// statements are reformatted through the SQL formatter and lowercased;
	// when either side fails to parse, both fall back to lexical
	// normalization. The comparison is symmetric.
	ExactMatch(predicted, groundTruth string) bool

	// ExecutionAccuracy runs both statements against the target and compares
	// result sets. Any execution failure, safety refusal, or mismatch returns
	// false with a message.
	ExecutionAccuracy(ctx context.Context, predicted, groundTruth string) (bool, string)

	// SchemaLinkingF1 scores the focused schema against the column references
	// of the ground-truth SQL. Both sides empty is 1.0, exactly one side
	// empty is 0.0.
	SchemaLinkingF1(focused *models.FocusedSchema, groundTruthSQL string) float64

	// Evaluate scores one item across all metrics.
	Evaluate(ctx context.Context, item Item) models.EvaluationRecord

	// EvaluateBatch scores every item under one run ID with progress logging.
	// The partial records are returned even when ctx ends the run early.
	EvaluateBatch(ctx context.Context, items []Item) (*models.BatchSummary, []models.EvaluationRecord, error)
}

type evaluator struct {
	executor  datasource.SQLExecutor
	validator sqlcheck.Validator
	auditor   *audit.SecurityAuditor
	cfg       Config
	logger    *zap.Logger
}

// New creates an evaluator. A nil executor disables execution accuracy;
// exact match and F1 still run.
func New(executor datasource.SQLExecutor, cfg Config, logger *zap.Logger) Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ExecutionTimeout == 0 {
		cfg.ExecutionTimeout = defaultExecutionTimeout
	}
	return &evaluator{
		executor:  executor,
		validator: sqlcheck.NewValidator(logger),
		auditor:   audit.NewSecurityAuditor(logger),
		cfg:       cfg,
		logger:    logger.Named("evaluator"),
	}
}

var _ Evaluator = (*evaluator)(nil)

func (e *evaluator) ExactMatch(predicted, groundTruth string) bool {
	predNorm, predOK := astNormalize(predicted)
	goldNorm, goldOK := astNormalize(groundTruth)
	if predOK && goldOK {
		return predNorm == goldNorm
	}
	return lexicalNormalize(predicted) == lexicalNormalize(groundTruth)
}

func (e *evaluator) ExecutionAccuracy(ctx context.Context, predicted, groundTruth string) (bool, string) {
	if e.executor == nil {
		return false, "no execution target configured"
	}
	if issue := sqlcheck.CheckExecutionSafety(predicted); issue != nil {
		if issue.Fingerprint != "" {
			e.auditor.LogInjectionAttempt(predicted, issue.Literal, issue.Fingerprint)
		} else {
			e.auditor.LogRefusedStatement(predicted, issue.Reason)
		}
		return false, fmt.Sprintf("predicted query refused execution: %s", issue.Reason)
	}

	predRes, err := e.run(ctx, predicted)
	if err != nil {
		return false, fmt.Sprintf("predicted query failed: %s", logging.SanitizeError(err))
	}
	goldRes, err := e.run(ctx, groundTruth)
	if err != nil {
		return false, fmt.Sprintf("ground truth query failed: %s", logging.SanitizeError(err))
	}

	predRows, goldRows := predRes.RowCount(), goldRes.RowCount()
	if predRows != goldRows {
		return false, fmt.Sprintf("row count mismatch: %d vs %d (similarity %.2f)",
			predRows, goldRows, rowCountSimilarity(predRows, goldRows))
	}

	if e.cfg.Ordered {
		for i := range predRes.Rows {
			if renderRow(predRes.Rows[i]) != renderRow(goldRes.Rows[i]) {
				return false, fmt.Sprintf("results differ at row %d", i)
			}
		}
		return true, ""
	}

	if !sameRowMultiset(predRes.Rows, goldRes.Rows) {
		return false, "result sets differ"
	}
	return true, ""
}

func (e *evaluator) run(ctx context.Context, sql string) (*datasource.QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.ExecutionTimeout)
	defer cancel()
	return e.executor.Execute(ctx, sql)
}

func (e *evaluator) SchemaLinkingF1(focused *models.FocusedSchema, groundTruthSQL string) float64 {
	var predicted []string
	if focused != nil {
		predicted = focused.ColumnKeys()
	}
	truth := ColumnRefs(groundTruthSQL)

	if len(predicted) == 0 && len(truth) == 0 {
		return 1.0
	}
	if len(predicted) == 0 || len(truth) == 0 {
		return 0.0
	}

	truthSet := make(map[string]struct{}, len(truth))
	for _, key := range truth {
		truthSet[strings.ToLower(key)] = struct{}{}
	}
	predSet := make(map[string]struct{}, len(predicted))
	for _, key := range predicted {
		predSet[strings.ToLower(key)] = struct{}{}
	}

	overlap := 0
	for key := range predSet {
		if _, ok := truthSet[key]; ok {
			overlap++
		}
	}
	if overlap == 0 {
		return 0.0
	}

	precision := float64(overlap) / float64(len(predSet))
	recall := float64(overlap) / float64(len(truthSet))
	return 2 * precision * recall / (precision + recall)
}

func (e *evaluator) Evaluate(ctx context.Context, item Item) models.EvaluationRecord {
	record := models.EvaluationRecord{
		Question:       item.Question,
		PredictedSQL:   item.PredictedSQL,
		GroundTruthSQL: item.GroundTruthSQL,
	}

	record.PredictedValid, _ = e.validator.ValidateSyntax(item.PredictedSQL)
	record.ExactMatch = e.ExactMatch(item.PredictedSQL, item.GroundTruthSQL)
	record.SchemaLinkingF1 = e.SchemaLinkingF1(item.Focused, item.GroundTruthSQL)

	if e.executor != nil {
		match, message := e.ExecutionAccuracy(ctx, item.PredictedSQL, item.GroundTruthSQL)
		record.ExecutionMatch = match
		if !match {
			record.FailureMessage = message
		}
	}

	return record
}

func (e *evaluator) EvaluateBatch(ctx context.Context, items []Item) (*models.BatchSummary, []models.EvaluationRecord, error) {
	runID := uuid.New()
	e.logger.Info("Starting evaluation run",
		zap.String("run_id", runID.String()),
		zap.Int("questions", len(items)))

	records := make([]models.EvaluationRecord, 0, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, records, err
		}

		record := e.Evaluate(ctx, item)
		record.RunID = runID
		records = append(records, record)

		if (i+1)%progressInterval == 0 {
			e.logger.Info("Evaluation progress",
				zap.Int("evaluated", i+1),
				zap.Int("total", len(items)))
		}
	}

	summary := Summarize(runID, records)
	e.logger.Info("Evaluation run complete",
		zap.String("run_id", runID.String()),
		zap.Int("total", summary.Total),
		zap.Float64("exact_match_rate", summary.ExactMatchRate),
		zap.Float64("execution_accuracy_rate", summary.ExecutionAccuracyRate),
		zap.Float64("validity_rate", summary.ValidityRate),
		zap.Float64("mean_schema_linking_f1", summary.MeanSchemaLinkingF1))
	return summary, records, nil
}

// rowCountSimilarity is min/max, reported for partial credit on mismatches.
func rowCountSimilarity(a, b int) float64 {
	if a > b {
		a, b = b, a
	}
	if b == 0 {
		return 1.0
	}
	return float64(a) / float64(b)
}

// renderRow flattens a row for comparison. Cells join on the unit separator
// so embedded delimiters in data cannot make distinct rows collide.
func renderRow(row []any) string {
	parts := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			parts[i] = "NULL"
		} else {
			parts[i] = datasource.Stringify(v)
		}
	}
	return strings.Join(parts, "\x1f")
}

func sameRowMultiset(a, b [][]any) bool {
	counts := make(map[string]int, len(a))
	for _, row := range a {
		counts[renderRow(row)]++
	}
	for _, row := range b {
		key := renderRow(row)
		counts[key]--
		if counts[key] < 0 {
			return false
		}
	}
	return true
}
