// Package pipeline wires profiling, description, indexing, linking,
// generation, and selection into one flow: a preparation pass that turns a
// live datasource into a reusable linking session, and a per-question pass
// that turns a natural-language question into one selected SQL candidate.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sqlink-ai/sqlink-engine/pkg/describe"
	"github.com/sqlink-ai/sqlink-engine/pkg/index"
	"github.com/sqlink-ai/sqlink-engine/pkg/llm"
	"github.com/sqlink-ai/sqlink-engine/pkg/models"
	"github.com/sqlink-ai/sqlink-engine/pkg/profiler"
	"github.com/sqlink-ai/sqlink-engine/pkg/schemalink"
	"github.com/sqlink-ai/sqlink-engine/pkg/sqlcheck"
	"github.com/sqlink-ai/sqlink-engine/pkg/sqlgen"
)

const (
	defaultMinHashPermutations = 128
	defaultJaccardThreshold    = 0.5
)

// Config tunes the stages the pipeline builds itself. Components injected
// through New carry their own configuration.
type Config struct {
	// Link tunes schema linking over the prepared session.
	Link schemalink.Options

	// Scope and Verbosity control the rendered schema context. When the
	// focused scope links nothing, rendering falls back to the full schema so
	// generation is never blind.
	Scope     schemalink.Scope
	Verbosity schemalink.Verbosity

	// MinHashPermutations and JaccardThreshold configure the literal index
	// built during preparation. The permutation count must match the
	// profiler's signature width for stored signatures to be reused.
	MinHashPermutations int
	JaccardThreshold    float64
}

// Result is one question's pass through linking, generation, and selection.
type Result struct {
	Question      string
	Focused       *models.FocusedSchema
	SchemaContext string
	Candidates    []models.SQLCandidate
	Selected      *models.SQLCandidate
}

// Pipeline answers natural-language questions against one profiled database.
type Pipeline interface {
	// Prepare profiles the datasource, writes column descriptions, and builds
	// both indexes into a linking session. Sessions are reusable across
	// questions until the underlying schema changes.
	Prepare(ctx context.Context) (*schemalink.Session, error)

	// Answer links the question against a prepared session, generates
	// candidates, validates them, and selects one. It fails only when the
	// context ends or no candidate at all could be produced.
	Answer(ctx context.Context, session *schemalink.Session, question string) (*Result, error)
}

type pipeline struct {
	profiler  profiler.Profiler
	describer describe.Generator
	embedder  llm.EmbeddingClient
	generator sqlgen.CandidateGenerator
	validator sqlcheck.Validator
	selector  sqlcheck.Selector
	cfg       Config
	logger    *zap.Logger
}

// New assembles the pipeline from its stages. Zero config fields fall back
// to defaults.
func New(
	prof profiler.Profiler,
	describer describe.Generator,
	embedder llm.EmbeddingClient,
	generator sqlgen.CandidateGenerator,
	validator sqlcheck.Validator,
	selector sqlcheck.Selector,
	cfg Config,
	logger *zap.Logger,
) Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Scope == "" {
		cfg.Scope = schemalink.ScopeFocused
	}
	if cfg.Verbosity == "" {
		cfg.Verbosity = schemalink.VerbosityFull
	}
	if cfg.MinHashPermutations <= 0 {
		cfg.MinHashPermutations = defaultMinHashPermutations
	}
	if cfg.JaccardThreshold <= 0 {
		cfg.JaccardThreshold = defaultJaccardThreshold
	}
	return &pipeline{
		profiler:  prof,
		describer: describer,
		embedder:  embedder,
		generator: generator,
		validator: validator,
		selector:  selector,
		cfg:       cfg,
		logger:    logger.Named("pipeline"),
	}
}

var _ Pipeline = (*pipeline)(nil)

func (p *pipeline) Prepare(ctx context.Context) (*schemalink.Session, error) {
	profiles, err := p.profiler.ProfileDatabase(ctx)
	if err != nil {
		return nil, fmt.Errorf("profile database: %w", err)
	}

	declared, err := p.profiler.DeclaredForeignKeys(ctx)
	if err != nil {
		p.logger.Warn("Failed to list declared foreign keys, inferring from names only",
			zap.Error(err))
	}
	edges := schemalink.MergeEdges(declared, schemalink.InferEdgesByNaming(profiles))

	descriptions, err := p.describer.DescribeTables(ctx, profiles)
	if err != nil {
		return nil, fmt.Errorf("describe columns: %w", err)
	}

	literal := index.NewLiteralIndex(p.cfg.MinHashPermutations, p.cfg.JaccardThreshold, p.logger)
	literal.Build(columnPointers(profiles))

	semantic := index.NewSemanticIndex(p.embedder, p.logger)
	if err := semantic.Build(ctx, descriptions); err != nil {
		return nil, fmt.Errorf("build semantic index: %w", err)
	}

	session := schemalink.NewSession(profiles, descriptions, edges, literal, semantic)
	p.logger.Info("Linking session ready",
		zap.String("session_id", session.ID.String()),
		zap.Int("tables", len(profiles)),
		zap.Int("descriptions", len(descriptions)),
		zap.Int("edges", len(edges)),
		zap.Int("literal_indexed", literal.Len()),
		zap.Int("semantic_indexed", semantic.Len()))
	return session, nil
}

func (p *pipeline) Answer(ctx context.Context, session *schemalink.Session, question string) (*Result, error) {
	linker := schemalink.New(session, p.cfg.Link, p.logger)

	focused, err := linker.GetFocusedSchema(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("link schema: %w", err)
	}

	scope := p.cfg.Scope
	if scope == schemalink.ScopeFocused && focused.IsEmpty() {
		p.logger.Warn("Linking surfaced no columns, rendering the full schema")
		scope = schemalink.ScopeFull
	}
	schemaContext := linker.GenerateSchemaContext(scope, p.cfg.Verbosity, focused)

	candidates, err := p.generator.Generate(ctx, question, schemaContext)
	if err != nil {
		return nil, fmt.Errorf("generate candidates: %w", err)
	}

	sqlcheck.ValidateCandidates(p.validator, candidates)

	selected, err := p.selector.Select(candidates, focused.ColumnKeys())
	if err != nil {
		return nil, err
	}

	p.logger.Info("Answered question",
		zap.Int("tables", len(focused.Tables)),
		zap.Int("candidates", len(candidates)),
		zap.Bool("selected_valid", selected.IsValid))

	return &Result{
		Question:      question,
		Focused:       focused,
		SchemaContext: schemaContext,
		Candidates:    candidates,
		Selected:      selected,
	}, nil
}

func columnPointers(profiles []models.TableProfile) []*models.ColumnProfile {
	var columns []*models.ColumnProfile
	for t := range profiles {
		for c := range profiles[t].Columns {
			columns = append(columns, &profiles[t].Columns[c])
		}
	}
	return columns
}
