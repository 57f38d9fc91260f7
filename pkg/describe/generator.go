// Package describe turns column profiles into the natural-language
// description pairs the semantic index embeds. Short descriptions are for
// human scanning; long descriptions restate profile facts (ranges, sample
// values) so literal mentions in a question can ground against the embedding.
package describe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sqlink-ai/sqlink-engine/pkg/jsonutil"
	"github.com/sqlink-ai/sqlink-engine/pkg/llm"
	"github.com/sqlink-ai/sqlink-engine/pkg/models"
	"github.com/sqlink-ai/sqlink-engine/pkg/retry"
)

const descriptionTemperature = 0.3

// Generator derives column descriptions from profiles, one LLM call per
// column. Results are cached by table.column key; a cached description is
// returned as-is until Invalidate, and regeneration allocates a fresh
// instance rather than mutating the old one.
type Generator interface {
	// Describe returns the description pair for one profile, generating it
	// on first use.
	Describe(ctx context.Context, profile *models.ColumnProfile) (*models.ColumnDescription, error)

	// DescribeTables generates descriptions for every column of every table.
	// Columns that fail are logged and skipped; the call only errors when the
	// context is done.
	DescribeTables(ctx context.Context, tables []models.TableProfile) ([]*models.ColumnDescription, error)

	// Invalidate drops the cached description for a table.column key.
	Invalidate(key string)
}

type generator struct {
	client  llm.Client
	breaker *llm.CircuitBreaker
	logger  *zap.Logger

	mu    sync.Mutex
	cache map[string]*models.ColumnDescription
}

// New creates a description generator. The circuit breaker is shared with
// other LLM call sites so a dead provider is detected once, not per column.
func New(client llm.Client, breaker *llm.CircuitBreaker, logger *zap.Logger) Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if breaker == nil {
		breaker = llm.NewCircuitBreaker(llm.DefaultCircuitBreakerConfig())
	}
	return &generator{
		client:  client,
		breaker: breaker,
		logger:  logger.Named("describe"),
		cache:   make(map[string]*models.ColumnDescription),
	}
}

var _ Generator = (*generator)(nil)

// descriptionResponse is the JSON shape the model is instructed to return.
// The fields stay raw because models occasionally emit numbers or booleans
// where strings belong.
type descriptionResponse struct {
	Short json.RawMessage `json:"short_description"`
	Long  json.RawMessage `json:"long_description"`
}

func (g *generator) Describe(ctx context.Context, profile *models.ColumnProfile) (*models.ColumnDescription, error) {
	key := profile.Key()

	g.mu.Lock()
	if cached, ok := g.cache[key]; ok {
		g.mu.Unlock()
		return cached, nil
	}
	g.mu.Unlock()

	desc, err := g.generate(ctx, profile)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.cache[key] = desc
	g.mu.Unlock()
	return desc, nil
}

func (g *generator) DescribeTables(ctx context.Context, tables []models.TableProfile) ([]*models.ColumnDescription, error) {
	var descriptions []*models.ColumnDescription
	failed := 0

	for t := range tables {
		table := &tables[t]
		for c := range table.Columns {
			if ctx.Err() != nil {
				return descriptions, ctx.Err()
			}
			col := &table.Columns[c]
			desc, err := g.Describe(ctx, col)
			if err != nil {
				g.logger.Warn("Failed to describe column, skipping",
					zap.String("column", col.Key()),
					zap.Error(err))
				failed++
				continue
			}
			descriptions = append(descriptions, desc)
		}
	}

	g.logger.Info("Generated column descriptions",
		zap.Int("described", len(descriptions)),
		zap.Int("failed", failed))
	return descriptions, nil
}

func (g *generator) Invalidate(key string) {
	g.mu.Lock()
	delete(g.cache, key)
	g.mu.Unlock()
}

// generate makes the guarded LLM call for one column.
func (g *generator) generate(ctx context.Context, profile *models.ColumnProfile) (*models.ColumnDescription, error) {
	allowed, err := g.breaker.Allow()
	if !allowed {
		g.logger.Error("Circuit breaker prevented description call",
			zap.String("column", profile.Key()),
			zap.String("circuit_state", g.breaker.State().String()),
			zap.Error(err))
		return nil, err
	}

	retryConfig := &retry.Config{
		MaxRetries:   3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}

	content, err := retry.DoWithResultIfRetryable(ctx, retryConfig, func() (string, error) {
		return g.client.Complete(ctx, llm.CompletionRequest{
			SystemPrompt: describeSystemMessage,
			UserPrompt:   buildPrompt(profile),
			Temperature:  descriptionTemperature,
		})
	})
	if err != nil {
		g.breaker.RecordFailure()
		return nil, fmt.Errorf("describe %s: %w", profile.Key(), err)
	}
	g.breaker.RecordSuccess()

	response, err := llm.ParseJSONResponse[descriptionResponse](content)
	if err != nil {
		return nil, fmt.Errorf("parse description for %s: %w", profile.Key(), err)
	}
	short := strings.TrimSpace(jsonutil.FlexibleStringValue(response.Short))
	long := strings.TrimSpace(jsonutil.FlexibleStringValue(response.Long))
	if short == "" || long == "" {
		return nil, fmt.Errorf("incomplete description for %s", profile.Key())
	}

	return &models.ColumnDescription{
		TableName:  profile.TableName,
		ColumnName: profile.ColumnName,
		Short:      short,
		Long:       long,
	}, nil
}

const describeSystemMessage = `You are a database documentation expert. You write column descriptions that help a SQL-writing assistant pick the right tables and columns for a question.`

// buildPrompt renders the profile facts the long description must embed.
func buildPrompt(profile *models.ColumnProfile) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Column: %s\n", profile.Key()))
	sb.WriteString(fmt.Sprintf("Type class: %s\n", profile.DataType))
	sb.WriteString(fmt.Sprintf("Rows: %d non-null, %d null\n", profile.NonNullCount, profile.NullCount))
	sb.WriteString(fmt.Sprintf("Distinct values: %d\n", profile.DistinctCount))

	if profile.MinValue != nil && profile.MaxValue != nil {
		sb.WriteString(fmt.Sprintf("Range: min %g, max %g", *profile.MinValue, *profile.MaxValue))
		if profile.AvgValue != nil {
			sb.WriteString(fmt.Sprintf(", avg %g", *profile.AvgValue))
		}
		sb.WriteString("\n")
	}
	if profile.MinLength != nil && profile.MaxLength != nil {
		sb.WriteString(fmt.Sprintf("Text length: min %d, max %d", *profile.MinLength, *profile.MaxLength))
		if profile.AvgLength != nil {
			sb.WriteString(fmt.Sprintf(", avg %g", *profile.AvgLength))
		}
		sb.WriteString("\n")
	}
	if len(profile.TopValues) > 0 {
		samples := make([]string, 0, len(profile.TopValues))
		for _, tv := range profile.TopValues {
			samples = append(samples, fmt.Sprintf("'%s' (%d)", tv.Value, tv.Count))
		}
		sb.WriteString(fmt.Sprintf("Most frequent values: %s\n", strings.Join(samples, ", ")))
	}

	sb.WriteString(`
Respond with JSON:
{
  "short_description": "one sentence naming what the column stores",
  "long_description": "two to four sentences that restate the value range and quote several sample values verbatim, so literal mentions in a question can be matched to this column"
}`)

	return sb.String()
}
