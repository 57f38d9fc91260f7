package evaluate

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/xwb1989/sqlparser"
	"gonum.org/v1/gonum/stat"

	"github.com/sqlink-ai/sqlink-engine/pkg/models"
)

// qualifiedRefPattern matches table.column pairs in SQL that the parser
// cannot handle.
var qualifiedRefPattern = regexp.MustCompile(`\w+\.\w+`)

// astNormalize reformats a statement through the parser so spelling
// differences in whitespace, casing, and keywords wash out. The second
// return reports whether the statement parsed.
func astNormalize(sql string) (string, bool) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return "", false
	}
	return strings.ToLower(sqlparser.String(stmt)), true
}

// lexicalNormalize collapses whitespace, drops a trailing semicolon, and
// lowercases. It is the fallback when a statement does not parse.
func lexicalNormalize(sql string) string {
	collapsed := strings.Join(strings.Fields(sql), " ")
	collapsed = strings.TrimSuffix(collapsed, ";")
	return strings.ToLower(strings.TrimSpace(collapsed))
}

// ColumnRefs extracts the qualified table.column references of a statement,
// lowercased and deduplicated in first-seen order. Statements the parser
// rejects fall back to a regex scan.
func ColumnRefs(sql string) []string {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return dedupeLower(qualifiedRefPattern.FindAllString(sql, -1))
	}

	var refs []string
	_ = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		col, ok := node.(*sqlparser.ColName)
		if !ok || col.Qualifier.IsEmpty() {
			return true, nil
		}
		refs = append(refs, col.Qualifier.Name.String()+"."+col.Name.String())
		return true, nil
	}, stmt)
	return dedupeLower(refs)
}

func dedupeLower(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		lower := strings.ToLower(key)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, lower)
	}
	return out
}

// Summarize aggregates per-question records into run-level rates.
func Summarize(runID uuid.UUID, records []models.EvaluationRecord) *models.BatchSummary {
	summary := &models.BatchSummary{
		RunID: runID,
		Total: len(records),
	}
	if len(records) == 0 {
		return summary
	}

	exact := make([]float64, len(records))
	execution := make([]float64, len(records))
	valid := make([]float64, len(records))
	f1 := make([]float64, len(records))
	for i, record := range records {
		exact[i] = boolToFloat(record.ExactMatch)
		execution[i] = boolToFloat(record.ExecutionMatch)
		valid[i] = boolToFloat(record.PredictedValid)
		f1[i] = record.SchemaLinkingF1
	}

	summary.ExactMatchRate = stat.Mean(exact, nil)
	summary.ExecutionAccuracyRate = stat.Mean(execution, nil)
	summary.ValidityRate = stat.Mean(valid, nil)
	summary.MeanSchemaLinkingF1 = stat.Mean(f1, nil)
	return summary
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
