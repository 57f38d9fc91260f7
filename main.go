// sqlink-engine profiles a relational database, links natural-language
// questions to the schema slice they need, generates SQL candidates for them,
// and scores predictions against text-to-SQL benchmarks.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sqlink-ai/sqlink-engine/pkg/adapters/datasource"
	_ "github.com/sqlink-ai/sqlink-engine/pkg/adapters/datasource/mssql"
	_ "github.com/sqlink-ai/sqlink-engine/pkg/adapters/datasource/postgres"
	_ "github.com/sqlink-ai/sqlink-engine/pkg/adapters/datasource/sqlite"
	"github.com/sqlink-ai/sqlink-engine/pkg/bird"
	"github.com/sqlink-ai/sqlink-engine/pkg/config"
	"github.com/sqlink-ai/sqlink-engine/pkg/describe"
	"github.com/sqlink-ai/sqlink-engine/pkg/evaluate"
	"github.com/sqlink-ai/sqlink-engine/pkg/fewshot"
	"github.com/sqlink-ai/sqlink-engine/pkg/llm"
	"github.com/sqlink-ai/sqlink-engine/pkg/logging"
	"github.com/sqlink-ai/sqlink-engine/pkg/models"
	"github.com/sqlink-ai/sqlink-engine/pkg/pipeline"
	"github.com/sqlink-ai/sqlink-engine/pkg/profiler"
	"github.com/sqlink-ai/sqlink-engine/pkg/schemalink"
	"github.com/sqlink-ai/sqlink-engine/pkg/sqlcheck"
	"github.com/sqlink-ai/sqlink-engine/pkg/sqlgen"
)

// Version is set at build time via ldflags
var Version = "dev"

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: sqlink-engine <command> [flags]

Commands:
  profile    Profile the configured datasource and report table statistics
  link       Link a question to the tables and columns it needs
  generate   Generate SQL for a question against the configured datasource
  evaluate   Score generated SQL against a benchmark manifest

Configuration is read from config.yaml with environment variable overrides.
Run "sqlink-engine <command> -h" for command flags.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	command, args := os.Args[1], os.Args[2:]

	switch command {
	case "profile", "link", "generate", "evaluate":
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", command)
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load(Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	var runErr error
	switch command {
	case "profile":
		runErr = runProfile(ctx, cfg, logger, args)
	case "link":
		runErr = runLink(ctx, cfg, logger, args)
	case "generate":
		runErr = runGenerate(ctx, cfg, logger, args)
	case "evaluate":
		runErr = runEvaluate(ctx, cfg, logger, args)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", command, runErr)
		os.Exit(1)
	}
}

type profileReport struct {
	Tables               []tableReport `json:"tables"`
	ForeignKeys          []string      `json:"foreign_keys,omitempty"`
	InferredForeignKeys  []string      `json:"inferred_foreign_keys,omitempty"`
	ConfirmedForeignKeys []string      `json:"confirmed_foreign_keys,omitempty"`
}

type tableReport struct {
	Table    string         `json:"table"`
	RowCount int64          `json:"row_count"`
	Columns  []columnReport `json:"columns"`
}

type columnReport struct {
	Column        string   `json:"column"`
	DataType      string   `json:"data_type"`
	NullCount     int64    `json:"null_count"`
	DistinctCount int64    `json:"distinct_count"`
	TopValues     []string `json:"top_values,omitempty"`
}

func runProfile(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	confirmEdges := fs.Bool("confirm-edges", false, "Ask the LLM to confirm inferred foreign keys")
	out := fs.String("out", "", "Write the JSON report to this file instead of stdout")
	fs.Parse(args)

	schema, err := openSchemaSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer schema.Close()

	prof := profiler.New(schema, profilerConfig(cfg), logger)
	profiles, err := prof.ProfileDatabase(ctx)
	if err != nil {
		return fmt.Errorf("profile database: %w", err)
	}

	declared, err := prof.DeclaredForeignKeys(ctx)
	if err != nil {
		logger.Warn("Failed to list declared foreign keys", zap.Error(err))
	}

	inferred := schemalink.InferEdgesByNaming(profiles)
	report := profileReport{
		Tables:              make([]tableReport, 0, len(profiles)),
		ForeignKeys:         edgeStrings(declared),
		InferredForeignKeys: edgeStrings(inferred),
	}
	if *confirmEdges && len(inferred) > 0 {
		confirmed, err := confirmInferredEdges(ctx, cfg, profiles, inferred, logger)
		if err != nil {
			logger.Warn("Edge confirmation failed, reporting unconfirmed candidates only", zap.Error(err))
		} else {
			report.ConfirmedForeignKeys = edgeStrings(confirmed)
		}
	}
	for _, table := range profiles {
		tr := tableReport{Table: table.TableName, RowCount: table.RecordCount}
		for _, column := range table.Columns {
			tr.Columns = append(tr.Columns, columnReport{
				Column:        column.ColumnName,
				DataType:      string(column.DataType),
				NullCount:     column.NullCount,
				DistinctCount: column.DistinctCount,
				TopValues:     column.SampleValues(),
			})
		}
		report.Tables = append(report.Tables, tr)
	}
	return writeReport(report, *out)
}

// confirmInferredEdges runs the LLM review pass over naming-inferred edges.
// The profile command builds its own chat client because it otherwise needs
// no LLM capability at all.
func confirmInferredEdges(ctx context.Context, cfg *config.Config, profiles []models.TableProfile, inferred []models.ForeignKeyEdge, logger *zap.Logger) ([]models.ForeignKeyEdge, error) {
	chat, err := llm.NewClient(&llm.Config{
		Provider:  cfg.LLM.Provider,
		Endpoint:  cfg.LLM.Endpoint,
		Model:     cfg.LLM.Model,
		APIKey:    cfg.LLM.APIKey,
		MaxTokens: cfg.LLM.MaxTokens,
		TopP:      cfg.LLM.TopP,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	confirmer := describe.NewEdgeConfirmer(chat, llm.NewCircuitBreaker(llm.DefaultCircuitBreakerConfig()), logger)
	return confirmer.ConfirmEdges(ctx, profiles, inferred)
}

type linkReport struct {
	Question      string   `json:"question"`
	Tables        []string `json:"tables"`
	Columns       []string `json:"columns"`
	SchemaContext string   `json:"schema_context"`
}

func runLink(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("link", flag.ExitOnError)
	question := fs.String("question", "", "Natural-language question to link")
	scope := fs.String("scope", string(schemalink.ScopeFocused), "Schema context scope: focused or full")
	verbosity := fs.String("verbosity", string(schemalink.VerbosityFull), "Description verbosity: minimal, maximal, or full")
	out := fs.String("out", "", "Write the JSON report to this file instead of stdout")
	fs.Parse(args)

	if strings.TrimSpace(*question) == "" {
		return fmt.Errorf("-question is required")
	}
	if !schemalink.Scope(*scope).IsValid() {
		return fmt.Errorf("invalid scope %q", *scope)
	}
	if !schemalink.Verbosity(*verbosity).IsValid() {
		return fmt.Errorf("invalid verbosity %q", *verbosity)
	}

	schema, err := openSchemaSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer schema.Close()

	caps, err := buildCapabilities(ctx, cfg, logger)
	if err != nil {
		return err
	}

	pl := buildPipeline(schema, caps, cfg, schemalink.Scope(*scope), schemalink.Verbosity(*verbosity), logger)
	session, err := pl.Prepare(ctx)
	if err != nil {
		return err
	}

	linker := schemalink.New(session, linkOptions(cfg.Linker), logger)
	focused, err := linker.GetFocusedSchema(ctx, *question)
	if err != nil {
		return err
	}

	report := linkReport{
		Question:      *question,
		Tables:        focused.TableNames(),
		Columns:       focused.ColumnKeys(),
		SchemaContext: linker.GenerateSchemaContext(schemalink.Scope(*scope), schemalink.Verbosity(*verbosity), focused),
	}
	return writeReport(report, *out)
}

type generateReport struct {
	Question   string                `json:"question"`
	SQL        string                `json:"sql"`
	Valid      bool                  `json:"valid"`
	Tables     []string              `json:"tables,omitempty"`
	Candidates []models.SQLCandidate `json:"candidates"`
}

func runGenerate(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	question := fs.String("question", "", "Natural-language question to answer")
	scope := fs.String("scope", string(schemalink.ScopeFocused), "Schema context scope: focused or full")
	verbosity := fs.String("verbosity", string(schemalink.VerbosityFull), "Description verbosity: minimal, maximal, or full")
	out := fs.String("out", "", "Write the JSON report to this file instead of stdout")
	fs.Parse(args)

	if strings.TrimSpace(*question) == "" {
		return fmt.Errorf("-question is required")
	}
	if !schemalink.Scope(*scope).IsValid() {
		return fmt.Errorf("invalid scope %q", *scope)
	}
	if !schemalink.Verbosity(*verbosity).IsValid() {
		return fmt.Errorf("invalid verbosity %q", *verbosity)
	}

	schema, err := openSchemaSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer schema.Close()

	caps, err := buildCapabilities(ctx, cfg, logger)
	if err != nil {
		return err
	}

	pl := buildPipeline(schema, caps, cfg, schemalink.Scope(*scope), schemalink.Verbosity(*verbosity), logger)
	session, err := pl.Prepare(ctx)
	if err != nil {
		return err
	}

	result, err := pl.Answer(ctx, session, *question)
	if err != nil {
		return err
	}

	report := generateReport{
		Question:   result.Question,
		SQL:        result.Selected.QueryText,
		Valid:      result.Selected.IsValid,
		Tables:     result.Focused.TableNames(),
		Candidates: result.Candidates,
	}
	return writeReport(report, *out)
}

type evaluationReport struct {
	Benchmark string                    `json:"benchmark"`
	Questions int                       `json:"questions"`
	Databases []databaseReport          `json:"databases"`
	Overall   *models.BatchSummary      `json:"overall"`
	Records   []models.EvaluationRecord `json:"records,omitempty"`
}

type databaseReport struct {
	DatabaseID string               `json:"database_id"`
	Summary    *models.BatchSummary `json:"summary"`
}

func runEvaluate(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	manifestPath := fs.String("manifest", "benchmark.yaml", "Path to the benchmark manifest")
	databaseID := fs.String("db", "", "Restrict evaluation to one database id")
	limit := fs.Int("limit", 0, "Cap the number of questions, 0 means all")
	withRecords := fs.Bool("records", false, "Include per-question records in the report")
	out := fs.String("out", "", "Write the JSON report to this file instead of stdout")
	fs.Parse(args)

	manifest, err := bird.LoadManifest(*manifestPath)
	if err != nil {
		return err
	}
	questions, err := manifest.Questions()
	if err != nil {
		return err
	}
	questions = bird.Filter(questions, *databaseID, *limit)
	if len(questions) == 0 {
		return fmt.Errorf("no questions matched in %s", *manifestPath)
	}

	caps, err := buildCapabilities(ctx, cfg, logger)
	if err != nil {
		return err
	}

	databases := bird.DatabaseIDs(questions)
	fmt.Fprintf(os.Stderr, "Evaluating %d questions across %d databases (%s)\n",
		len(questions), len(databases), manifest.Benchmark)

	report := evaluationReport{
		Benchmark: manifest.Benchmark,
		Questions: len(questions),
		Databases: make([]databaseReport, 0, len(databases)),
	}
	var records []models.EvaluationRecord
	for _, db := range databases {
		dbQuestions := bird.Filter(questions, db, 0)
		fmt.Fprintf(os.Stderr, "\nDatabase %s (%d questions)\n", db, len(dbQuestions))

		summary, dbRecords, err := evaluateDatabase(ctx, cfg, caps, manifest, db, dbQuestions, logger)
		if err != nil {
			return err
		}
		report.Databases = append(report.Databases, databaseReport{DatabaseID: db, Summary: summary})
		records = append(records, dbRecords...)
	}

	report.Overall = evaluate.Summarize(uuid.New(), records)
	if *withRecords {
		report.Records = records
	}
	return writeReport(report, *out)
}

// evaluateDatabase prepares a linking session over one benchmark database,
// answers every question against it, and scores the predictions. A question
// that yields no prediction is scored with an empty one rather than aborting
// the run.
func evaluateDatabase(
	ctx context.Context,
	cfg *config.Config,
	caps *capabilities,
	manifest *bird.Manifest,
	databaseID string,
	questions []bird.Question,
	logger *zap.Logger,
) (*models.BatchSummary, []models.EvaluationRecord, error) {
	dbPath := manifest.DatabasePath(databaseID)
	if _, err := os.Stat(dbPath); err != nil {
		return nil, nil, fmt.Errorf("database %s: %w", databaseID, err)
	}

	schema, err := datasource.OpenSchemaSource(ctx, "sqlite", dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open schema source for %s: %w", databaseID, err)
	}
	defer schema.Close()

	executor, err := datasource.Open(ctx, "sqlite", dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open executor for %s: %w", databaseID, err)
	}
	defer executor.Close()

	pl := buildPipeline(schema, caps, cfg, schemalink.ScopeFocused, schemalink.VerbosityFull, logger)
	session, err := pl.Prepare(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("prepare %s: %w", databaseID, err)
	}

	items := make([]evaluate.Item, 0, len(questions))
	for i, question := range questions {
		fmt.Fprintf(os.Stderr, "  [%d/%d] %s\n", i+1, len(questions), truncate(question.Question, 72))

		prompt := question.Prompt()
		result, err := pl.Answer(ctx, session, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			logger.Warn("Question produced no prediction",
				zap.Int("question_id", question.QuestionID),
				zap.Error(err))
			items = append(items, evaluate.Item{
				Question:       prompt,
				GroundTruthSQL: question.SQL,
			})
			continue
		}

		items = append(items, evaluate.Item{
			Question:       prompt,
			PredictedSQL:   result.Selected.QueryText,
			GroundTruthSQL: question.SQL,
			Focused:        result.Focused,
		})
	}

	ev := evaluate.New(executor, evaluate.Config{
		ExecutionTimeout: time.Duration(cfg.Evaluator.ExecutionTimeoutSeconds) * time.Second,
		Ordered:          cfg.Evaluator.Ordered,
	}, logger)
	return ev.EvaluateBatch(ctx, items)
}

// capabilities bundles the LLM-facing dependencies shared by every command
// that prepares a linking session. The circuit breaker is shared so a dead
// provider is detected once across description and generation.
type capabilities struct {
	chat     llm.Client
	embedder llm.EmbeddingClient
	breaker  *llm.CircuitBreaker
	examples sqlgen.ExampleSource
}

func buildCapabilities(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*capabilities, error) {
	chat, err := llm.NewClient(&llm.Config{
		Provider:  cfg.LLM.Provider,
		Endpoint:  cfg.LLM.Endpoint,
		Model:     cfg.LLM.Model,
		APIKey:    cfg.LLM.APIKey,
		MaxTokens: cfg.LLM.MaxTokens,
		TopP:      cfg.LLM.TopP,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}

	embedder, err := llm.NewEmbedder(&llm.EmbeddingConfig{
		Endpoint: cfg.Embedding.Endpoint,
		Model:    cfg.Embedding.Model,
		APIKey:   cfg.Embedding.APIKey,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}

	caps := &capabilities{
		chat:     chat,
		embedder: embedder,
		breaker:  llm.NewCircuitBreaker(llm.DefaultCircuitBreakerConfig()),
	}

	store, err := fewshot.Load(cfg.FewShot.Path)
	switch {
	case err == nil:
		selector := fewshot.NewSelector(embedder, logger)
		if err := selector.Build(ctx, store); err != nil {
			return nil, err
		}
		caps.examples = selector
	case errors.Is(err, os.ErrNotExist):
		logger.Warn("Few-shot examples file not found, prompting without examples",
			zap.String("path", cfg.FewShot.Path))
	default:
		return nil, err
	}

	return caps, nil
}

func buildPipeline(
	schema datasource.SchemaSource,
	caps *capabilities,
	cfg *config.Config,
	scope schemalink.Scope,
	verbosity schemalink.Verbosity,
	logger *zap.Logger,
) pipeline.Pipeline {
	prof := profiler.New(schema, profilerConfig(cfg), logger)
	describer := describe.New(caps.chat, caps.breaker, logger)
	generator := sqlgen.New(caps.chat, caps.breaker, caps.examples, sqlgen.Config{
		Temperatures: cfg.Generator.Temperatures,
		TopP:         cfg.LLM.TopP,
		FewShotK:     cfg.Generator.FewShotK,
	}, logger)
	validator := sqlcheck.NewValidator(logger)
	selector := sqlcheck.NewSelector(validator, scoreWeights(cfg.Selector), logger)

	return pipeline.New(prof, describer, caps.embedder, generator, validator, selector, pipeline.Config{
		Link:                linkOptions(cfg.Linker),
		Scope:               scope,
		Verbosity:           verbosity,
		MinHashPermutations: cfg.Linker.MinHashPermutations,
		JaccardThreshold:    cfg.Linker.JaccardThreshold,
	}, logger)
}

func openSchemaSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (datasource.SchemaSource, error) {
	if cfg.Datasource.Type == "sqlite" && cfg.Datasource.Path == "" {
		return nil, fmt.Errorf("datasource.path is required for sqlite targets")
	}
	dsn := cfg.Datasource.ConnectionString()
	logger.Info("Opening datasource",
		zap.String("type", cfg.Datasource.Type),
		zap.String("target", logging.SanitizeConnectionString(dsn)))
	return datasource.OpenSchemaSource(ctx, cfg.Datasource.Type, dsn)
}

func profilerConfig(cfg *config.Config) profiler.Config {
	return profiler.Config{
		TopValuesK:          cfg.Profiler.TopValuesK,
		MinHashPermutations: cfg.Linker.MinHashPermutations,
	}
}

func linkOptions(c config.LinkerConfig) schemalink.Options {
	return schemalink.Options{
		SemanticTopK:         c.SemanticTopK,
		MaxColumnsPerTable:   c.MaxColumnsPerTable,
		LongDescriptionLimit: c.LongDescriptionLimit,
		FKClosureHops:        c.FKClosureHops,
	}
}

func scoreWeights(c config.SelectorConfig) sqlcheck.ScoreWeights {
	return sqlcheck.ScoreWeights{
		Select:         c.SelectWeight,
		From:           c.FromWeight,
		FocusedFields:  c.FocusedFieldsWeight,
		ProperJoins:    c.ProperJoinsWeight,
		NoSyntaxErr:    c.NoSyntaxErrWeight,
		Complexity:     c.ComplexityWeight,
		ShortBonus:     c.ShortBonus,
		LongPenalty:    c.LongPenalty,
		ShortWordLimit: c.ShortWordLimit,
		LongWordLimit:  c.LongWordLimit,
	}
}

func edgeStrings(edges []models.ForeignKeyEdge) []string {
	if len(edges) == 0 {
		return nil
	}
	out := make([]string, 0, len(edges))
	for _, edge := range edges {
		out = append(out, edge.String())
	}
	return out
}

func writeReport(report any, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if path == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Report written to %s\n", path)
	return nil
}

// truncate shortens a string to maxLen characters, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
