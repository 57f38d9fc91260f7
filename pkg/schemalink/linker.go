// Package schemalink narrows a profiled database down to the tables and
// columns relevant to one question. Relevance accumulates from three
// independent sources: semantic nearest neighbors over column descriptions,
// literal matches against sampled values, and a single foreign-key hop from
// whatever those two surfaced.
package schemalink

import (
	"context"

	"go.uber.org/zap"

	"github.com/sqlink-ai/sqlink-engine/pkg/models"
)

// Scope selects how much schema the context renderer covers.
type Scope string

const (
	ScopeFocused Scope = "focused"
	ScopeFull    Scope = "full"
)

// ValidScopes lists every accepted scope.
var ValidScopes = []Scope{ScopeFocused, ScopeFull}

func (s Scope) IsValid() bool {
	for _, v := range ValidScopes {
		if s == v {
			return true
		}
	}
	return false
}

// Verbosity picks which description renders per column: short only, long
// only, or both.
type Verbosity string

const (
	VerbosityMinimal Verbosity = "minimal"
	VerbosityMaximal Verbosity = "maximal"
	VerbosityFull    Verbosity = "full"
)

// ValidVerbosities lists every accepted verbosity.
var ValidVerbosities = []Verbosity{VerbosityMinimal, VerbosityMaximal, VerbosityFull}

func (v Verbosity) IsValid() bool {
	for _, valid := range ValidVerbosities {
		if v == valid {
			return true
		}
	}
	return false
}

// Options tunes schema linking.
type Options struct {
	// SemanticTopK is how many columns the semantic index contributes.
	SemanticTopK int
	// MaxColumnsPerTable caps rendering per table in the schema context.
	MaxColumnsPerTable int
	// LongDescriptionLimit truncates long descriptions in the rendered
	// context.
	LongDescriptionLimit int
	// FKClosureHops is 1 to expand the schema by one foreign-key hop, 0 to
	// disable. Deeper closure is not supported; it grows prompts without
	// bound.
	FKClosureHops int
}

// DefaultOptions returns the tuning used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		SemanticTopK:         20,
		MaxColumnsPerTable:   10,
		LongDescriptionLimit: 200,
		FKClosureHops:        1,
	}
}

// SchemaLinker produces a focused schema and its textual rendering for a
// question.
type SchemaLinker interface {
	// GetFocusedSchema links a question to the profiled columns relevant to
	// it. An empty schema is a valid result, not an error.
	GetFocusedSchema(ctx context.Context, question string) (*models.FocusedSchema, error)

	// GenerateSchemaContext renders a schema as the table-grouped text block
	// embedded in generation prompts.
	GenerateSchemaContext(scope Scope, verbosity Verbosity, focused *models.FocusedSchema) string

	// FindFieldsWithLiteral returns the column keys whose sampled values
	// match one literal.
	FindFieldsWithLiteral(literal string) []string
}

type linker struct {
	session *Session
	opts    Options
	logger  *zap.Logger
}

// New creates a schema linker over one session. Zero-valued size options
// fall back to defaults; FKClosureHops is taken as given so zero disables
// closure.
func New(session *Session, opts Options, logger *zap.Logger) SchemaLinker {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultOptions()
	if opts.SemanticTopK <= 0 {
		opts.SemanticTopK = defaults.SemanticTopK
	}
	if opts.MaxColumnsPerTable <= 0 {
		opts.MaxColumnsPerTable = defaults.MaxColumnsPerTable
	}
	if opts.LongDescriptionLimit <= 0 {
		opts.LongDescriptionLimit = defaults.LongDescriptionLimit
	}
	return &linker{
		session: session,
		opts:    opts,
		logger:  logger.Named("schema-linker"),
	}
}

var _ SchemaLinker = (*linker)(nil)

func (l *linker) GetFocusedSchema(ctx context.Context, question string) (*models.FocusedSchema, error) {
	focused := models.NewFocusedSchema()

	if l.session.Semantic != nil {
		keys, err := l.session.Semantic.Query(ctx, question, l.opts.SemanticTopK)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			l.logger.Warn("Semantic lookup failed, linking on literals only",
				zap.Error(err))
		}
		for _, key := range keys {
			l.addKey(focused, key)
		}
	}

	literals := ExtractLiterals(question)
	if l.session.Literal != nil {
		for _, literal := range literals {
			for _, key := range l.session.Literal.QueryLiteral(literal) {
				l.addKey(focused, key)
			}
		}
	}

	if l.opts.FKClosureHops > 0 {
		l.expandForeignKeys(focused)
	}

	l.logger.Debug("Linked schema",
		zap.Int("literals", len(literals)),
		zap.Int("tables", len(focused.Tables)),
		zap.Int("columns", focused.ColumnCount()))
	return focused, nil
}

func (l *linker) FindFieldsWithLiteral(literal string) []string {
	if l.session.Literal == nil {
		return nil
	}
	return l.session.Literal.QueryLiteral(literal)
}

// addKey admits a column only when the session actually profiled it, which
// keeps the focused schema free of names the indexes never saw.
func (l *linker) addKey(focused *models.FocusedSchema, key string) {
	table, column, ok := models.SplitColumnKey(key)
	if !ok || !l.session.HasColumn(table, column) {
		return
	}
	focused.Add(table, column)
}

// expandForeignKeys pulls in tables one edge hop away from the linked set.
// The hop runs over a snapshot of the tables present before expansion, so
// additions never cascade into a second hop.
func (l *linker) expandForeignKeys(focused *models.FocusedSchema) {
	base := make(map[string]bool, len(focused.Tables))
	for table := range focused.Tables {
		base[table] = true
	}

	for _, edge := range l.session.Edges {
		switch {
		case base[edge.FromTable] && !base[edge.ToTable]:
			l.seedTable(focused, edge.ToTable, edge.ToColumn, base)
		case base[edge.ToTable] && !base[edge.FromTable]:
			l.seedTable(focused, edge.FromTable, edge.FromColumn, base)
		}
	}
}

// seedTable admits a reachable table with its edge column, its inferred key
// column, and any of its columns referencing a table already in the base
// set. Every addition is checked against the profiled set.
func (l *linker) seedTable(focused *models.FocusedSchema, table, edgeColumn string, base map[string]bool) {
	if l.session.HasColumn(table, edgeColumn) {
		focused.Add(table, edgeColumn)
	}

	if t := l.session.Table(table); t != nil {
		if pk := InferPrimaryKey(t); pk != "" && l.session.HasColumn(table, pk) {
			focused.Add(table, pk)
		}
	}

	for _, e := range l.session.Edges {
		if e.FromTable == table && base[e.ToTable] && l.session.HasColumn(table, e.FromColumn) {
			focused.Add(table, e.FromColumn)
		}
	}
}
