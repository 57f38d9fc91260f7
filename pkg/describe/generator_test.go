package describe

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlink-ai/sqlink-engine/pkg/llm"
	"github.com/sqlink-ai/sqlink-engine/pkg/models"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int64) *int64       { return &v }

func cityProfile() *models.ColumnProfile {
	return &models.ColumnProfile{
		TableName:     "schools",
		ColumnName:    "city",
		DataType:      models.DataTypeText,
		NonNullCount:  2,
		DistinctCount: 2,
		MinLength:     intPtr(7),
		MaxLength:     intPtr(10),
		AvgLength:     floatPtr(8.5),
		TopValues: []models.ValueCount{
			{Value: "Fremont", Count: 1},
			{Value: "Pleasanton", Count: 1},
		},
	}
}

const goodResponse = `{
  "short_description": "City where the school is located.",
  "long_description": "Holds city names between 7 and 10 characters, such as 'Fremont' and 'Pleasanton'."
}`

func TestDescribeGeneratesFromProfile(t *testing.T) {
	client := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (string, error) {
			return goodResponse, nil
		},
	}

	g := New(client, nil, nil)
	desc, err := g.Describe(context.Background(), cityProfile())
	require.NoError(t, err)

	assert.Equal(t, "schools", desc.TableName)
	assert.Equal(t, "city", desc.ColumnName)
	assert.Equal(t, "City where the school is located.", desc.Short)
	assert.Contains(t, desc.Long, "Fremont")

	require.Len(t, client.Requests, 1)
	prompt := client.Requests[0].UserPrompt
	assert.Contains(t, prompt, "schools.city")
	assert.Contains(t, prompt, "Text length: min 7, max 10")
	assert.Contains(t, prompt, "'Fremont' (1)")
	assert.InDelta(t, descriptionTemperature, client.Requests[0].Temperature, 0.001)
}

func TestDescribeCachesByKey(t *testing.T) {
	client := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (string, error) {
			return goodResponse, nil
		},
	}

	g := New(client, nil, nil)
	first, err := g.Describe(context.Background(), cityProfile())
	require.NoError(t, err)
	second, err := g.Describe(context.Background(), cityProfile())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, client.CompleteCalls)
}

func TestDescribeInvalidateRegenerates(t *testing.T) {
	client := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (string, error) {
			return goodResponse, nil
		},
	}

	g := New(client, nil, nil)
	first, err := g.Describe(context.Background(), cityProfile())
	require.NoError(t, err)

	g.Invalidate("schools.city")
	second, err := g.Describe(context.Background(), cityProfile())
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, client.CompleteCalls)
}

func TestDescribeParseFailure(t *testing.T) {
	client := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (string, error) {
			return "not json at all", nil
		},
	}

	g := New(client, nil, nil)
	_, err := g.Describe(context.Background(), cityProfile())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse description")
}

func TestDescribeIncompleteResponse(t *testing.T) {
	client := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (string, error) {
			return `{"short_description": "Something.", "long_description": ""}`, nil
		},
	}

	g := New(client, nil, nil)
	_, err := g.Describe(context.Background(), cityProfile())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete description")
}

func TestDescribeBreakerOpenFailsFast(t *testing.T) {
	client := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (string, error) {
			return "", llm.NewError(llm.ErrorTypeAuth, "authentication failed", false, nil)
		},
	}
	breaker := llm.NewCircuitBreaker(llm.CircuitBreakerConfig{Threshold: 1, ResetAfter: time.Minute})

	g := New(client, breaker, nil)
	_, err := g.Describe(context.Background(), cityProfile())
	require.Error(t, err)
	assert.Equal(t, llm.CircuitOpen, breaker.State())

	_, err = g.Describe(context.Background(), cityProfile())
	require.Error(t, err)
	assert.Equal(t, 1, client.CompleteCalls)
}

func TestDescribeTablesSkipsFailures(t *testing.T) {
	client := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (string, error) {
			if strings.Contains(req.UserPrompt, "broken_col") {
				return "", llm.NewError(llm.ErrorTypeAuth, "authentication failed", false, nil)
			}
			return goodResponse, nil
		},
	}

	tables := []models.TableProfile{
		{
			TableName:   "schools",
			RecordCount: 2,
			Columns: []models.ColumnProfile{
				*cityProfile(),
				{TableName: "schools", ColumnName: "broken_col", DataType: models.DataTypeText},
			},
		},
	}

	g := New(client, nil, nil)
	descs, err := g.DescribeTables(context.Background(), tables)
	require.NoError(t, err)
	require.Len(t, descs, 1)
	assert.Equal(t, "schools.city", descs[0].Key())
}

func TestBuildPromptNumericRange(t *testing.T) {
	profile := &models.ColumnProfile{
		TableName:    "students",
		ColumnName:   "gpa",
		DataType:     models.DataTypeNumeric,
		NonNullCount: 2,
		NullCount:    1,
		MinValue:     floatPtr(3.5),
		MaxValue:     floatPtr(3.9),
		AvgValue:     floatPtr(3.7),
	}

	prompt := buildPrompt(profile)
	assert.Contains(t, prompt, "Range: min 3.5, max 3.9, avg 3.7")
	assert.Contains(t, prompt, "Rows: 2 non-null, 1 null")
	assert.NotContains(t, prompt, "Text length")
}
