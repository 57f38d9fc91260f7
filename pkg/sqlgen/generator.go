// Package sqlgen produces SQL candidates for a question, one guarded LLM call
// per decoding preset. Presets vary temperature so downstream majority voting
// sees diverse candidates instead of five copies of one query.
package sqlgen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sqlink-ai/sqlink-engine/pkg/fewshot"
	"github.com/sqlink-ai/sqlink-engine/pkg/llm"
	"github.com/sqlink-ai/sqlink-engine/pkg/models"
	"github.com/sqlink-ai/sqlink-engine/pkg/retry"
)

const defaultTopP = 0.9

const defaultFewShotK = 3

// DefaultTemperatures spreads the presets from conservative to exploratory
// decoding.
var DefaultTemperatures = []float64{0.1, 0.2, 0.3, 0.4, 0.5}

// ExampleSource yields worked examples relevant to a question.
// *fewshot.Selector implements it.
type ExampleSource interface {
	Select(ctx context.Context, question string, k int) ([]fewshot.Example, error)
}

// Config tunes candidate generation. Zero fields take defaults.
type Config struct {
	// Temperatures defines one decoding preset per entry.
	Temperatures []float64
	// TopP is shared across presets.
	TopP float64
	// FewShotK is how many worked examples are prepended to the prompt.
	FewShotK int
}

// CandidateGenerator turns a question plus rendered schema context into SQL
// candidates.
type CandidateGenerator interface {
	// Generate runs every decoding preset. A failed preset is logged and
	// omitted, so the result may hold fewer candidates than presets, down to
	// none. The error is non-nil only when ctx is done.
	Generate(ctx context.Context, question, schemaContext string) ([]models.SQLCandidate, error)
}

type generator struct {
	client   llm.Client
	breaker  *llm.CircuitBreaker
	examples ExampleSource
	cfg      Config
	logger   *zap.Logger
}

// New creates a candidate generator. The circuit breaker is shared with other
// LLM call sites so a dead provider is detected once. A nil example source
// prompts without worked examples.
func New(client llm.Client, breaker *llm.CircuitBreaker, examples ExampleSource, cfg Config, logger *zap.Logger) CandidateGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if breaker == nil {
		breaker = llm.NewCircuitBreaker(llm.DefaultCircuitBreakerConfig())
	}
	if len(cfg.Temperatures) == 0 {
		cfg.Temperatures = DefaultTemperatures
	}
	if cfg.TopP == 0 {
		cfg.TopP = defaultTopP
	}
	if cfg.FewShotK == 0 {
		cfg.FewShotK = defaultFewShotK
	}
	return &generator{
		client:   client,
		breaker:  breaker,
		examples: examples,
		cfg:      cfg,
		logger:   logger.Named("sqlgen"),
	}
}

var _ CandidateGenerator = (*generator)(nil)

func (g *generator) Generate(ctx context.Context, question, schemaContext string) ([]models.SQLCandidate, error) {
	prompt := buildPrompt(question, schemaContext, g.selectExamples(ctx, question))

	candidates := make([]models.SQLCandidate, 0, len(g.cfg.Temperatures))
	for _, temperature := range g.cfg.Temperatures {
		if err := ctx.Err(); err != nil {
			return candidates, err
		}

		params := models.GenerationParams{Temperature: temperature, TopP: g.cfg.TopP}
		sql, err := g.complete(ctx, prompt, params)
		if err != nil {
			g.logger.Warn("Candidate generation failed, omitting preset",
				zap.Float64("temperature", temperature),
				zap.Error(err))
			continue
		}
		if sql == "" {
			g.logger.Warn("Candidate came back empty, omitting preset",
				zap.Float64("temperature", temperature))
			continue
		}
		candidates = append(candidates, models.SQLCandidate{QueryText: sql, Params: params})
	}

	g.logger.Info("Generated SQL candidates",
		zap.Int("candidates", len(candidates)),
		zap.Int("presets", len(g.cfg.Temperatures)))
	return candidates, nil
}

// selectExamples is best-effort: a failed lookup prompts without examples
// rather than losing the question.
func (g *generator) selectExamples(ctx context.Context, question string) []fewshot.Example {
	if g.examples == nil || g.cfg.FewShotK <= 0 {
		return nil
	}
	examples, err := g.examples.Select(ctx, question, g.cfg.FewShotK)
	if err != nil {
		g.logger.Warn("Few-shot selection failed, prompting without examples",
			zap.Error(err))
		return nil
	}
	return examples
}

// complete makes the guarded LLM call for one preset.
func (g *generator) complete(ctx context.Context, prompt string, params models.GenerationParams) (string, error) {
	allowed, err := g.breaker.Allow()
	if !allowed {
		g.logger.Error("Circuit breaker prevented generation call",
			zap.String("circuit_state", g.breaker.State().String()),
			zap.Error(err))
		return "", err
	}

	retryConfig := &retry.Config{
		MaxRetries:   3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}

	content, err := retry.DoWithResultIfRetryable(ctx, retryConfig, func() (string, error) {
		return g.client.Complete(ctx, llm.CompletionRequest{
			SystemPrompt: generatorSystemMessage,
			UserPrompt:   prompt,
			Temperature:  params.Temperature,
			TopP:         params.TopP,
		})
	})
	if err != nil {
		g.breaker.RecordFailure()
		return "", err
	}
	g.breaker.RecordSuccess()

	return PostProcess(content), nil
}

// PostProcess normalizes raw model output into a single-line SQL string:
// markdown fences and think tags are stripped, whitespace runs collapse to
// single spaces, and exactly one trailing semicolon remains. Empty output
// stays empty.
func PostProcess(raw string) string {
	sql := llm.ExtractSQL(raw)
	sql = strings.Join(strings.Fields(sql), " ")
	sql = strings.TrimRight(sql, "; ")
	if sql == "" {
		return ""
	}
	return sql + ";"
}

const generatorSystemMessage = `You are an expert SQL developer. You translate a natural-language question into a single SQL query against the schema provided. Respond with only the SQL query.`

// buildPrompt assembles schema context, worked examples, and the question
// into one markdown prompt.
func buildPrompt(question, schemaContext string, examples []fewshot.Example) string {
	var sb strings.Builder

	if schemaContext != "" {
		sb.WriteString("# Schema\n")
		sb.WriteString(schemaContext)
		sb.WriteString("\n\n")
	}

	if len(examples) > 0 {
		sb.WriteString("# Examples\n")
		for _, ex := range examples {
			sb.WriteString(fmt.Sprintf("Question: %s\nSQL: %s\n\n", ex.Question, ex.SQL))
		}
	}

	sb.WriteString(fmt.Sprintf("# Question\n%s\n\nRespond with only the SQL query.", question))
	return sb.String()
}
