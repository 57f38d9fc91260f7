package postgres

import (
	"context"
	"fmt"

	"github.com/sqlink-ai/sqlink-engine/pkg/adapters/datasource"
)

// qualifiedTableName returns a properly quoted table reference. An empty
// schemaName yields just the quoted table name.
func (e *Executor) qualifiedTableName(schemaName, tableName string) string {
	if schemaName == "" {
		return e.QuoteIdentifier(tableName)
	}
	return e.QuoteIdentifier(schemaName) + "." + e.QuoteIdentifier(tableName)
}

// AnalyzeColumn gathers aggregate statistics for one column.
func (e *Executor) AnalyzeColumn(ctx context.Context, schemaName, tableName, columnName string, class datasource.ColumnClass) (*datasource.ColumnAnalysis, error) {
	tableRef := e.qualifiedTableName(schemaName, tableName)
	col := e.QuoteIdentifier(columnName)

	analysis := &datasource.ColumnAnalysis{}

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*), COUNT(%s), COUNT(DISTINCT %s) FROM %s",
		col, col, tableRef,
	)
	if err := e.pool.QueryRow(ctx, countQuery).Scan(&analysis.RowCount, &analysis.NonNullCount, &analysis.DistinctCount); err != nil {
		return nil, fmt.Errorf("analyze counts of %s.%s: %w", tableName, columnName, err)
	}

	switch class {
	case datasource.ClassNumeric:
		query := fmt.Sprintf(
			"SELECT MIN(%s::double precision), MAX(%s::double precision), AVG(%s::double precision) FROM %s WHERE %s IS NOT NULL",
			col, col, col, tableRef, col,
		)
		if err := e.pool.QueryRow(ctx, query).Scan(&analysis.MinValue, &analysis.MaxValue, &analysis.AvgValue); err != nil {
			return nil, fmt.Errorf("analyze range of %s.%s: %w", tableName, columnName, err)
		}
	case datasource.ClassText:
		query := fmt.Sprintf(
			"SELECT MIN(LENGTH(%s::text)), MAX(LENGTH(%s::text)), AVG(LENGTH(%s::text))::double precision FROM %s WHERE %s IS NOT NULL",
			col, col, col, tableRef, col,
		)
		if err := e.pool.QueryRow(ctx, query).Scan(&analysis.MinLength, &analysis.MaxLength, &analysis.AvgLength); err != nil {
			return nil, fmt.Errorf("analyze lengths of %s.%s: %w", tableName, columnName, err)
		}
	}

	return analysis, nil
}

// TopValues returns the k most frequent non-null values of a column, most
// frequent first. Ties order by value so harvesting is deterministic.
func (e *Executor) TopValues(ctx context.Context, schemaName, tableName, columnName string, k int) ([]datasource.ValueFrequency, error) {
	tableRef := e.qualifiedTableName(schemaName, tableName)
	col := e.QuoteIdentifier(columnName)

	query := fmt.Sprintf(
		"SELECT %s, COUNT(*) AS cnt FROM %s WHERE %s IS NOT NULL GROUP BY %s ORDER BY cnt DESC, %s::text LIMIT %d",
		col, tableRef, col, col, col, k,
	)

	rows, err := e.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("harvest top values of %s.%s: %w", tableName, columnName, err)
	}
	defer rows.Close()

	var values []datasource.ValueFrequency
	for rows.Next() {
		rowValues, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan top value of %s.%s: %w", tableName, columnName, err)
		}
		count, _ := rowValues[1].(int64)
		values = append(values, datasource.ValueFrequency{
			Value: datasource.Stringify(rowValues[0]),
			Count: count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top values of %s.%s: %w", tableName, columnName, err)
	}

	return values, nil
}
