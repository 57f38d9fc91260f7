package sqlite

import (
	"context"
	"fmt"

	"github.com/sqlink-ai/sqlink-engine/pkg/adapters/datasource"
)

// AnalyzeColumn gathers aggregate statistics for one column. The schemaName
// parameter is ignored for SQLite.
func (e *Executor) AnalyzeColumn(ctx context.Context, schemaName, tableName, columnName string, class datasource.ColumnClass) (*datasource.ColumnAnalysis, error) {
	tableRef := e.QuoteIdentifier(tableName)
	col := e.QuoteIdentifier(columnName)

	analysis := &datasource.ColumnAnalysis{}

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*), COUNT(%s), COUNT(DISTINCT %s) FROM %s",
		col, col, tableRef,
	)
	if err := e.db.QueryRowContext(ctx, countQuery).Scan(&analysis.RowCount, &analysis.NonNullCount, &analysis.DistinctCount); err != nil {
		return nil, fmt.Errorf("analyze counts of %s.%s: %w", tableName, columnName, err)
	}

	switch class {
	case datasource.ClassNumeric:
		query := fmt.Sprintf(
			"SELECT MIN(CAST(%s AS REAL)), MAX(CAST(%s AS REAL)), AVG(CAST(%s AS REAL)) FROM %s WHERE %s IS NOT NULL",
			col, col, col, tableRef, col,
		)
		if err := e.db.QueryRowContext(ctx, query).Scan(&analysis.MinValue, &analysis.MaxValue, &analysis.AvgValue); err != nil {
			return nil, fmt.Errorf("analyze range of %s.%s: %w", tableName, columnName, err)
		}
	case datasource.ClassText:
		query := fmt.Sprintf(
			"SELECT MIN(LENGTH(%s)), MAX(LENGTH(%s)), AVG(LENGTH(%s)) FROM %s WHERE %s IS NOT NULL",
			col, col, col, tableRef, col,
		)
		if err := e.db.QueryRowContext(ctx, query).Scan(&analysis.MinLength, &analysis.MaxLength, &analysis.AvgLength); err != nil {
			return nil, fmt.Errorf("analyze lengths of %s.%s: %w", tableName, columnName, err)
		}
	}

	return analysis, nil
}

// TopValues returns the k most frequent non-null values of a column, most
// frequent first. Ties order by value so harvesting is deterministic.
func (e *Executor) TopValues(ctx context.Context, schemaName, tableName, columnName string, k int) ([]datasource.ValueFrequency, error) {
	tableRef := e.QuoteIdentifier(tableName)
	col := e.QuoteIdentifier(columnName)

	query := fmt.Sprintf(
		"SELECT %s, COUNT(*) AS cnt FROM %s WHERE %s IS NOT NULL GROUP BY %s ORDER BY cnt DESC, %s LIMIT %d",
		col, tableRef, col, col, col, k,
	)

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("harvest top values of %s.%s: %w", tableName, columnName, err)
	}
	defer rows.Close()

	var values []datasource.ValueFrequency
	for rows.Next() {
		var (
			value any
			count int64
		)
		if err := rows.Scan(&value, &count); err != nil {
			return nil, fmt.Errorf("scan top value of %s.%s: %w", tableName, columnName, err)
		}
		values = append(values, datasource.ValueFrequency{
			Value: datasource.Stringify(value),
			Count: count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top values of %s.%s: %w", tableName, columnName, err)
	}

	return values, nil
}
