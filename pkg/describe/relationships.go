package describe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sqlink-ai/sqlink-engine/pkg/jsonutil"
	"github.com/sqlink-ai/sqlink-engine/pkg/llm"
	"github.com/sqlink-ai/sqlink-engine/pkg/models"
	"github.com/sqlink-ai/sqlink-engine/pkg/retry"
)

const confirmTemperature = 0.2

// EdgeConfirmer asks the model to judge foreign-key edges inferred from
// column naming against the profiles that produced them. Declared
// constraints never pass through here.
type EdgeConfirmer struct {
	client  llm.Client
	breaker *llm.CircuitBreaker
	logger  *zap.Logger
}

// NewEdgeConfirmer creates a confirmer. The circuit breaker is shared with
// other LLM call sites.
func NewEdgeConfirmer(client llm.Client, breaker *llm.CircuitBreaker, logger *zap.Logger) *EdgeConfirmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if breaker == nil {
		breaker = llm.NewCircuitBreaker(llm.DefaultCircuitBreakerConfig())
	}
	return &EdgeConfirmer{
		client:  client,
		breaker: breaker,
		logger:  logger.Named("edge-confirm"),
	}
}

// edgeDecisionResponse is the JSON shape the model is instructed to return.
type edgeDecisionResponse struct {
	Decisions []edgeDecision `json:"decisions"`
}

// edgeDecision is the verdict on one candidate. Accept stays raw because
// models occasionally emit "true" as a string.
type edgeDecision struct {
	ID     string          `json:"id"`
	Accept json.RawMessage `json:"accept"`
	Reason string          `json:"reason"`
}

// ConfirmEdges returns the subset of candidates the model accepts, in one
// call covering all of them. A candidate without an explicit decision is
// rejected.
func (c *EdgeConfirmer) ConfirmEdges(ctx context.Context, profiles []models.TableProfile, candidates []models.ForeignKeyEdge) ([]models.ForeignKeyEdge, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	allowed, err := c.breaker.Allow()
	if !allowed {
		c.logger.Error("Circuit breaker prevented edge confirmation call",
			zap.String("circuit_state", c.breaker.State().String()),
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
		return c.client.Complete(ctx, llm.CompletionRequest{
			SystemPrompt: confirmSystemMessage,
			UserPrompt:   buildEdgePrompt(profiles, candidates),
			Temperature:  confirmTemperature,
		})
	})
	if err != nil {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("confirm edges: %w", err)
	}
	c.breaker.RecordSuccess()

	response, err := llm.ParseJSONResponse[edgeDecisionResponse](content)
	if err != nil {
		return nil, fmt.Errorf("parse edge decisions: %w", err)
	}

	verdicts := make(map[string]bool, len(response.Decisions))
	for _, d := range response.Decisions {
		verdicts[d.ID] = jsonutil.FlexibleStringValue(d.Accept) == "true"
	}

	accepted := make([]models.ForeignKeyEdge, 0, len(candidates))
	for i, edge := range candidates {
		if verdicts[edgeID(i)] {
			accepted = append(accepted, edge)
		}
	}

	c.logger.Info("Confirmed inferred edges",
		zap.Int("candidates", len(candidates)),
		zap.Int("accepted", len(accepted)))
	return accepted, nil
}

const confirmSystemMessage = `You are a database schema expert. You judge whether candidate foreign key relationships, inferred from column naming, are real based on the column statistics provided.`

func edgeID(i int) string {
	return fmt.Sprintf("e%d", i+1)
}

// buildEdgePrompt renders every table's column statistics followed by the
// numbered candidate list.
func buildEdgePrompt(profiles []models.TableProfile, candidates []models.ForeignKeyEdge) string {
	var sb strings.Builder

	sb.WriteString("# Inferred Foreign Key Review\n\n")
	sb.WriteString("The relationships below were inferred from column naming conventions. Decide for each whether it is a real foreign key.\n\n")

	sb.WriteString("## Tables\n\n")
	for t := range profiles {
		table := &profiles[t]
		sb.WriteString(fmt.Sprintf("### %s (%d rows)\n", table.TableName, table.RecordCount))
		for c := range table.Columns {
			col := &table.Columns[c]
			sb.WriteString(fmt.Sprintf("- %s: %s, %d distinct, %d null", col.ColumnName, col.DataType, col.DistinctCount, col.NullCount))
			if samples := col.SampleValues(); len(samples) > 0 {
				sb.WriteString(fmt.Sprintf(", e.g. %s", strings.Join(samples, ", ")))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Candidates\n\n")
	for i, edge := range candidates {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", edgeID(i), edge.String()))
	}

	sb.WriteString(`
Respond with JSON:
{
  "decisions": [{"id": "e1", "accept": true, "reason": "one short sentence"}]
}
Reject candidates whose value domains cannot line up, such as a free-text column pointing at a numeric key.`)

	return sb.String()
}
