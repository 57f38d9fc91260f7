package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlink-ai/sqlink-engine/pkg/adapters/datasource"
	"github.com/sqlink-ai/sqlink-engine/pkg/apperrors"
	"github.com/sqlink-ai/sqlink-engine/pkg/describe"
	"github.com/sqlink-ai/sqlink-engine/pkg/llm"
	"github.com/sqlink-ai/sqlink-engine/pkg/profiler"
	"github.com/sqlink-ai/sqlink-engine/pkg/schemalink"
	"github.com/sqlink-ai/sqlink-engine/pkg/sqlcheck"
	"github.com/sqlink-ai/sqlink-engine/pkg/sqlgen"
)

// storeSchema is a two-table source: customers plus orders referencing them.
func storeSchema() *datasource.MockSchemaSource {
	return &datasource.MockSchemaSource{
		TablesResult: []datasource.TableMetadata{
			{SchemaName: "main", TableName: "customers", RowCount: 42},
			{SchemaName: "main", TableName: "orders", RowCount: 100},
		},
		ColumnsResult: map[string][]datasource.ColumnMetadata{
			"customers": {
				{ColumnName: "id", DataType: "INTEGER", IsPrimaryKey: true, OrdinalPosition: 1},
				{ColumnName: "name", DataType: "TEXT", OrdinalPosition: 2},
				{ColumnName: "city", DataType: "TEXT", OrdinalPosition: 3},
			},
			"orders": {
				{ColumnName: "id", DataType: "INTEGER", IsPrimaryKey: true, OrdinalPosition: 1},
				{ColumnName: "customer_id", DataType: "INTEGER", OrdinalPosition: 2},
			},
		},
		ForeignKeysResult: []datasource.ForeignKeyMetadata{
			{ConstraintName: "fk_orders_customer", SourceTable: "orders", SourceColumn: "customer_id", TargetTable: "customers", TargetColumn: "id"},
		},
		AnalysisResult: map[string]*datasource.ColumnAnalysis{
			"customers.id": {RowCount: 42, NonNullCount: 42, DistinctCount: 42},
			"orders.id":    {RowCount: 100, NonNullCount: 100, DistinctCount: 100},
		},
		TopValuesResult: map[string][]datasource.ValueFrequency{
			"customers.city": {{Value: "Fremont", Count: 20}, {Value: "Pleasanton", Count: 12}},
		},
	}
}

// storeDescriptions maps column keys to canned description JSON. Only the
// customers descriptions mention customers, so the embedding stub can tell
// the two tables apart.
var storeDescriptions = map[string][2]string{
	"customers.id":       {"Customer identifier.", "Unique numeric identifier for each customer."},
	"customers.name":     {"Customer name.", "Full name of the customer."},
	"customers.city":     {"Customer city.", "City where the customer lives. Values include 'Fremont' and 'Pleasanton'."},
	"orders.id":          {"Order identifier.", "Unique numeric identifier for each order."},
	"orders.customer_id": {"Buyer reference.", "References the buyer who placed the order."},
}

func describeClient() *llm.MockClient {
	return &llm.MockClient{
		CompleteFunc: func(_ context.Context, req llm.CompletionRequest) (string, error) {
			for key, desc := range storeDescriptions {
				if strings.Contains(req.UserPrompt, "# Column: "+key+"\n") {
					return fmt.Sprintf(`{"short_description": %q, "long_description": %q}`, desc[0], desc[1]), nil
				}
			}
			return "", fmt.Errorf("no fixture for prompt")
		},
	}
}

// storeEmbedder separates customer-flavored text from everything else.
func storeEmbedder() *llm.MockEmbeddingClient {
	return &llm.MockEmbeddingClient{
		EmbedFunc: func(_ context.Context, input string) ([]float32, error) {
			if strings.Contains(strings.ToLower(input), "customer") {
				return []float32{1, 0}, nil
			}
			return []float32{0, 1}, nil
		},
	}
}

func storePipeline(t *testing.T, genClient llm.Client) Pipeline {
	t.Helper()
	prof := profiler.New(storeSchema(), profiler.Config{}, nil)
	describer := describe.New(describeClient(), nil, nil)
	generator := sqlgen.New(genClient, nil, nil, sqlgen.Config{}, nil)
	validator := sqlcheck.NewValidator(nil)
	selector := sqlcheck.NewSelector(validator, sqlcheck.ScoreWeights{}, nil)

	return New(prof, describer, storeEmbedder(), generator, validator, selector, Config{
		Link: schemalink.Options{SemanticTopK: 3, FKClosureHops: 1},
	}, nil)
}

func TestPrepareBuildsSession(t *testing.T) {
	p := storePipeline(t, &llm.MockClient{})

	session, err := p.Prepare(context.Background())
	require.NoError(t, err)

	require.NotNil(t, session.Table("customers"))
	assert.Equal(t, int64(42), session.Table("customers").RecordCount)
	assert.True(t, session.HasColumn("orders", "customer_id"))
	assert.Len(t, session.Descriptions, 5)
	assert.Equal(t, 5, session.Semantic.Len())
	require.NotEmpty(t, session.Edges)
	assert.Equal(t, "orders.customer_id -> customers.id", session.Edges[0].String())
}

func TestAnswerCountsCustomers(t *testing.T) {
	genClient := &llm.MockClient{
		CompleteFunc: func(_ context.Context, _ llm.CompletionRequest) (string, error) {
			return "```sql\nSELECT COUNT(*) FROM customers\n```", nil
		},
	}
	p := storePipeline(t, genClient)

	session, err := p.Prepare(context.Background())
	require.NoError(t, err)

	result, err := p.Answer(context.Background(), session, "How many customers are there?")
	require.NoError(t, err)

	assert.True(t, result.Focused.HasTable("customers"))
	assert.True(t, result.Focused.Has("customers", "id"))
	assert.True(t, result.Focused.Has("customers", "name"))
	assert.True(t, result.Focused.Has("customers", "city"))

	// One foreign-key hop pulls in orders with its edge and key columns.
	assert.True(t, result.Focused.Has("orders", "customer_id"))
	assert.True(t, result.Focused.Has("orders", "id"))
	assert.Equal(t, 5, result.Focused.ColumnCount())

	assert.Contains(t, result.SchemaContext, "Table: customers (42 rows)")
	assert.Contains(t, result.SchemaContext, "[references customers.id]")

	require.Len(t, result.Candidates, 5)
	require.NotNil(t, result.Selected)
	assert.Equal(t, "SELECT COUNT(*) FROM customers;", result.Selected.QueryText)
	assert.True(t, result.Selected.IsValid)

	// The generation prompt embeds the rendered schema.
	require.NotEmpty(t, genClient.Requests)
	assert.Contains(t, genClient.Requests[0].UserPrompt, "# Schema\n")
	assert.Contains(t, genClient.Requests[0].UserPrompt, "Table: customers")
	assert.Contains(t, genClient.Requests[0].UserPrompt, "# Question\nHow many customers are there?")
}

func TestAnswerFailsWithoutCandidates(t *testing.T) {
	genClient := &llm.MockClient{
		CompleteFunc: func(_ context.Context, _ llm.CompletionRequest) (string, error) {
			return "", llm.NewError(llm.ErrorTypeInvalidRequest, "bad request", false, nil)
		},
	}
	p := storePipeline(t, genClient)

	session, err := p.Prepare(context.Background())
	require.NoError(t, err)

	_, err = p.Answer(context.Background(), session, "How many customers are there?")
	require.ErrorIs(t, err, apperrors.ErrNoCandidates)
}

func TestAnswerRendersFullSchemaWhenLinkingIsEmpty(t *testing.T) {
	genClient := &llm.MockClient{
		CompleteFunc: func(_ context.Context, _ llm.CompletionRequest) (string, error) {
			return "SELECT COUNT(*) FROM customers;", nil
		},
	}
	p := storePipeline(t, genClient)

	// A session without indexes links nothing for any question.
	prepared, err := p.Prepare(context.Background())
	require.NoError(t, err)
	bare := schemalink.NewSession(prepared.Profiles, nil, nil, nil, nil)

	result, err := p.Answer(context.Background(), bare, "How many customers are there?")
	require.NoError(t, err)

	assert.True(t, result.Focused.IsEmpty())
	assert.Contains(t, result.SchemaContext, "Table: customers")
	assert.Contains(t, result.SchemaContext, "Table: orders")
	require.NotNil(t, result.Selected)
	assert.Equal(t, "SELECT COUNT(*) FROM customers;", result.Selected.QueryText)
}
