package datasource

import (
	"context"
	"fmt"
)

// MockExecutor implements SQLExecutor for tests. Configure ExecuteFunc to
// control responses; Queries records every statement in call order.
type MockExecutor struct {
	ExecuteFunc func(ctx context.Context, query string) (*QueryResult, error)

	ExecuteCalls int
	Queries      []string
	Closed       bool
}

var _ SQLExecutor = (*MockExecutor)(nil)

func (m *MockExecutor) Execute(ctx context.Context, query string) (*QueryResult, error) {
	m.ExecuteCalls++
	m.Queries = append(m.Queries, query)
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, query)
	}
	return &QueryResult{}, nil
}

func (m *MockExecutor) QuoteIdentifier(name string) string {
	return fmt.Sprintf("%q", name)
}

func (m *MockExecutor) Close() error {
	m.Closed = true
	return nil
}

// Reset clears recorded calls.
func (m *MockExecutor) Reset() {
	m.ExecuteCalls = 0
	m.Queries = nil
	m.Closed = false
}

// MockSchemaSource implements SchemaSource backed by fixture maps keyed by
// table name (ColumnsResult) or "table.column" (analysis fixtures).
type MockSchemaSource struct {
	TablesResult      []TableMetadata
	ColumnsResult     map[string][]ColumnMetadata
	ForeignKeysResult []ForeignKeyMetadata
	AnalysisResult    map[string]*ColumnAnalysis
	TopValuesResult   map[string][]ValueFrequency

	TablesErr      error
	ColumnsErr     error
	ForeignKeysErr error
	AnalyzeErr     error
	TopValuesErr   error

	Closed bool
}

var _ SchemaSource = (*MockSchemaSource)(nil)

func (m *MockSchemaSource) Tables(ctx context.Context) ([]TableMetadata, error) {
	if m.TablesErr != nil {
		return nil, m.TablesErr
	}
	return m.TablesResult, nil
}

func (m *MockSchemaSource) Columns(ctx context.Context, schemaName, tableName string) ([]ColumnMetadata, error) {
	if m.ColumnsErr != nil {
		return nil, m.ColumnsErr
	}
	return m.ColumnsResult[tableName], nil
}

func (m *MockSchemaSource) ForeignKeys(ctx context.Context) ([]ForeignKeyMetadata, error) {
	if m.ForeignKeysErr != nil {
		return nil, m.ForeignKeysErr
	}
	return m.ForeignKeysResult, nil
}

func (m *MockSchemaSource) AnalyzeColumn(ctx context.Context, schemaName, tableName, columnName string, class ColumnClass) (*ColumnAnalysis, error) {
	if m.AnalyzeErr != nil {
		return nil, m.AnalyzeErr
	}
	if a, ok := m.AnalysisResult[tableName+"."+columnName]; ok {
		return a, nil
	}
	return &ColumnAnalysis{}, nil
}

func (m *MockSchemaSource) TopValues(ctx context.Context, schemaName, tableName, columnName string, k int) ([]ValueFrequency, error) {
	if m.TopValuesErr != nil {
		return nil, m.TopValuesErr
	}
	values := m.TopValuesResult[tableName+"."+columnName]
	if len(values) > k {
		values = values[:k]
	}
	return values, nil
}

func (m *MockSchemaSource) Close() error {
	m.Closed = true
	return nil
}
