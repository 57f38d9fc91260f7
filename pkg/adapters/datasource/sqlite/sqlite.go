// Package sqlite adapts SQLite database files (benchmark databases in
// particular) to the datasource capability interfaces. The driver is
// modernc.org/sqlite, so no cgo is involved.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/sqlink-ai/sqlink-engine/pkg/adapters/datasource"
)

// busyTimeoutMS is applied via pragma so a locked database file blocks
// instead of failing immediately with SQLITE_BUSY.
const busyTimeoutMS = 5000

// Executor runs queries against a single SQLite database file. It opens the
// file read-only; the pipeline never writes to a target database.
type Executor struct {
	db   *sql.DB
	path string
}

var _ datasource.SQLExecutor = (*Executor)(nil)
var _ datasource.SchemaSource = (*Executor)(nil)

// New opens a SQLite database file. The file must exist; opening is
// read-only and fails fast when the path is wrong.
func New(ctx context.Context, path string) (*Executor, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}

	db, err := sql.Open("sqlite", buildDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}

	// One connection serializes access; the pipeline runs queries serially.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}

	return &Executor{db: db, path: path}, nil
}

// buildDSN wraps a bare path into a file: URI with the pragmas we need.
// Paths already in URI form are passed through unchanged.
func buildDSN(path string) string {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	return fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(%d)", path, busyTimeoutMS)
}

// Execute runs a query and returns all rows in column order.
func (e *Executor) Execute(ctx context.Context, query string) (*datasource.QueryResult, error) {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	result := &datasource.QueryResult{Columns: columns, Rows: make([][]any, 0)}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		// Raw text and blobs scan as []byte; fold to string so results
		// compare by value.
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// QuoteIdentifier quotes an identifier with double quotes, SQLite style.
func (e *Executor) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Close releases the database handle.
func (e *Executor) Close() error {
	return e.db.Close()
}

// Tables returns all user tables with row counts. SQLite has no schemas, so
// SchemaName is always empty.
func (e *Executor) Tables(ctx context.Context) ([]datasource.TableMetadata, error) {
	const query = `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	tables := make([]datasource.TableMetadata, 0, len(names))
	for _, name := range names {
		var count int64
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", e.QuoteIdentifier(name))
		if err := e.db.QueryRowContext(ctx, countQuery).Scan(&count); err != nil {
			return nil, fmt.Errorf("count rows of %s: %w", name, err)
		}
		tables = append(tables, datasource.TableMetadata{TableName: name, RowCount: count})
	}

	return tables, nil
}

// Columns returns columns for a table via PRAGMA table_info. The schemaName
// parameter is ignored for SQLite.
func (e *Executor) Columns(ctx context.Context, schemaName, tableName string) ([]datasource.ColumnMetadata, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", e.QuoteIdentifier(tableName))

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query columns of %s: %w", tableName, err)
	}
	defer rows.Close()

	var columns []datasource.ColumnMetadata
	for rows.Next() {
		var (
			cid          int
			name         string
			declType     string
			notNull      int
			defaultValue sql.NullString
			pk           int
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &defaultValue, &pk); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", tableName, err)
		}
		columns = append(columns, datasource.ColumnMetadata{
			ColumnName:      name,
			DataType:        declType,
			IsNullable:      notNull == 0,
			IsPrimaryKey:    pk > 0,
			OrdinalPosition: cid + 1,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns of %s: %w", tableName, err)
	}

	return columns, nil
}

// ForeignKeys returns declared foreign keys across all tables via
// PRAGMA foreign_key_list. When a constraint omits the target column (it
// references the target's implicit primary key), the target table's primary
// key column is resolved and substituted.
func (e *Executor) ForeignKeys(ctx context.Context) ([]datasource.ForeignKeyMetadata, error) {
	tables, err := e.Tables(ctx)
	if err != nil {
		return nil, err
	}

	var fks []datasource.ForeignKeyMetadata
	for _, t := range tables {
		query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", e.QuoteIdentifier(t.TableName))

		rows, err := e.db.QueryContext(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("query foreign keys of %s: %w", t.TableName, err)
		}

		tableFKs, err := scanForeignKeys(rows, t.TableName)
		rows.Close()
		if err != nil {
			return nil, err
		}
		fks = append(fks, tableFKs...)
	}

	// Resolve constraints with no explicit target column.
	for i := range fks {
		if fks[i].TargetColumn != "" {
			continue
		}
		pkCol, err := e.primaryKeyColumn(ctx, fks[i].TargetTable)
		if err != nil {
			return nil, err
		}
		fks[i].TargetColumn = pkCol
	}

	return fks, nil
}

func scanForeignKeys(rows *sql.Rows, tableName string) ([]datasource.ForeignKeyMetadata, error) {
	var fks []datasource.ForeignKeyMetadata
	for rows.Next() {
		var (
			id, seq            int
			targetTable, from  string
			to                 sql.NullString
			onUpdate, onDelete string
			match              string
		)
		if err := rows.Scan(&id, &seq, &targetTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("scan foreign key of %s: %w", tableName, err)
		}
		fks = append(fks, datasource.ForeignKeyMetadata{
			ConstraintName: fmt.Sprintf("%s_fk_%d", tableName, id),
			SourceTable:    tableName,
			SourceColumn:   from,
			TargetTable:    targetTable,
			TargetColumn:   to.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys of %s: %w", tableName, err)
	}
	return fks, nil
}

func (e *Executor) primaryKeyColumn(ctx context.Context, tableName string) (string, error) {
	columns, err := e.Columns(ctx, "", tableName)
	if err != nil {
		return "", err
	}
	for _, c := range columns {
		if c.IsPrimaryKey {
			return c.ColumnName, nil
		}
	}
	return "", fmt.Errorf("table %s has no primary key to resolve foreign key target", tableName)
}
