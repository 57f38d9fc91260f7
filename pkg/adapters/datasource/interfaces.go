// Package datasource defines the capability interfaces the pipeline uses to
// talk to concrete databases, plus a registry that adapter subpackages
// (postgres, sqlite, mssql) populate from their init functions.
package datasource

import "context"

// QueryResult holds the outcome of a query with rows in column order, so
// callers can compare result sets positionally.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// RowCount returns the number of rows in the result.
func (r *QueryResult) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// SQLExecutor runs queries against a concrete database. Implementations wrap
// driver errors and never panic; callers bound execution time through ctx.
type SQLExecutor interface {
	// Execute runs a query and returns all rows. A failed query returns a
	// wrapped driver error; the result is nil in that case.
	Execute(ctx context.Context, query string) (*QueryResult, error)

	// QuoteIdentifier returns the identifier quoted for this dialect, safe
	// for interpolation into generated statements.
	QuoteIdentifier(name string) string

	// Close releases the underlying connection or pool.
	Close() error
}

// ColumnClass tells an analyzer which optional statistics apply to a column.
type ColumnClass string

const (
	ClassNumeric ColumnClass = "numeric"
	ClassText    ColumnClass = "text"
	ClassOther   ColumnClass = "other"
)

// ColumnAnalysis carries aggregate statistics for one column. Range fields
// are set for numeric columns, length fields for text columns; both stay nil
// otherwise or when the column has no non-null values.
type ColumnAnalysis struct {
	RowCount      int64
	NonNullCount  int64
	DistinctCount int64

	MinValue *float64
	MaxValue *float64
	AvgValue *float64

	MinLength *int64
	MaxLength *int64
	AvgLength *float64
}

// ValueFrequency is one harvested frequent value with its occurrence count.
type ValueFrequency struct {
	Value string
	Count int64
}

// SchemaSource lists the physical schema of a database and gathers
// per-column statistics with dialect-correct SQL. Profiling walks this
// before touching any data.
type SchemaSource interface {
	// Tables returns all user tables (excludes system schemas).
	Tables(ctx context.Context) ([]TableMetadata, error)

	// Columns returns columns for a specific table.
	Columns(ctx context.Context, schemaName, tableName string) ([]ColumnMetadata, error)

	// ForeignKeys returns all declared foreign key relationships.
	ForeignKeys(ctx context.Context) ([]ForeignKeyMetadata, error)

	// AnalyzeColumn gathers aggregate statistics for one column. The class
	// selects the optional statistics: value range for numeric columns,
	// string lengths for text columns.
	AnalyzeColumn(ctx context.Context, schemaName, tableName, columnName string, class ColumnClass) (*ColumnAnalysis, error)

	// TopValues returns the k most frequent non-null values of a column,
	// most frequent first.
	TopValues(ctx context.Context, schemaName, tableName, columnName string, k int) ([]ValueFrequency, error)

	// Close releases the database connection.
	Close() error
}
