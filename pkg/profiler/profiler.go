// Package profiler builds column profiles from a live datasource. One pass
// walks every table, classifies each column, runs the per-class aggregate
// queries, samples the most frequent values, and fixes the MinHash signature
// the literal index matches against.
package profiler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sqlink-ai/sqlink-engine/pkg/adapters/datasource"
	"github.com/sqlink-ai/sqlink-engine/pkg/index"
	"github.com/sqlink-ai/sqlink-engine/pkg/models"
)

const (
	defaultTopValuesK          = 10
	defaultMinHashPermutations = 128
)

// Config tunes one profiling pass.
type Config struct {
	// TopValuesK caps the frequent-value sample per column.
	TopValuesK int
	// MinHashPermutations is the signature width. Profiles and the literal
	// index must agree on it for stored signatures to be reusable.
	MinHashPermutations int
}

// Profiler produces table profiles and declared relationships for one
// datasource.
type Profiler interface {
	// ProfileDatabase profiles every table the schema source reports.
	ProfileDatabase(ctx context.Context) ([]models.TableProfile, error)

	// ProfileTable profiles a single table.
	ProfileTable(ctx context.Context, table datasource.TableMetadata) (*models.TableProfile, error)

	// DeclaredForeignKeys returns the constraints declared in the datasource
	// as linkable edges.
	DeclaredForeignKeys(ctx context.Context) ([]models.ForeignKeyEdge, error)
}

type profiler struct {
	schema datasource.SchemaSource
	cfg    Config
	logger *zap.Logger
}

// New creates a profiler over the given schema source. Zero config fields
// fall back to the defaults.
func New(schema datasource.SchemaSource, cfg Config, logger *zap.Logger) Profiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TopValuesK <= 0 {
		cfg.TopValuesK = defaultTopValuesK
	}
	if cfg.MinHashPermutations <= 0 {
		cfg.MinHashPermutations = defaultMinHashPermutations
	}
	return &profiler{
		schema: schema,
		cfg:    cfg,
		logger: logger.Named("profiler"),
	}
}

func (p *profiler) ProfileDatabase(ctx context.Context) ([]models.TableProfile, error) {
	tables, err := p.schema.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	profiles := make([]models.TableProfile, 0, len(tables))
	for _, table := range tables {
		profile, err := p.ProfileTable(ctx, table)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}

	p.logger.Info("Profiled database",
		zap.Int("tables", len(profiles)))
	return profiles, nil
}

func (p *profiler) ProfileTable(ctx context.Context, table datasource.TableMetadata) (*models.TableProfile, error) {
	columns, err := p.schema.Columns(ctx, table.SchemaName, table.TableName)
	if err != nil {
		return nil, fmt.Errorf("list columns for %s: %w", table.TableName, err)
	}

	profile := &models.TableProfile{
		TableName:   table.TableName,
		RecordCount: table.RowCount,
		Columns:     make([]models.ColumnProfile, 0, len(columns)),
	}

	// Table listings may carry row-count estimates; the per-column COUNT(*)
	// is exact, so the first successful analysis overrides the listing.
	exactCount := int64(-1)
	for _, col := range columns {
		cp, analyzed := p.profileColumn(ctx, table, col)
		if analyzed && exactCount < 0 {
			exactCount = cp.NullCount + cp.NonNullCount
		}
		profile.Columns = append(profile.Columns, cp)
	}
	if exactCount >= 0 {
		profile.RecordCount = exactCount
	}

	p.logger.Debug("Profiled table",
		zap.String("table", table.TableName),
		zap.Int("columns", len(profile.Columns)),
		zap.Int64("records", profile.RecordCount))
	return profile, nil
}

// profileColumn never fails: statistics a source cannot compute are left at
// their zero values and logged, so one bad column does not lose the table.
// The second return reports whether the aggregate analysis succeeded.
func (p *profiler) profileColumn(ctx context.Context, table datasource.TableMetadata, col datasource.ColumnMetadata) (models.ColumnProfile, bool) {
	cp := models.ColumnProfile{
		TableName:  table.TableName,
		ColumnName: col.ColumnName,
		DataType:   Classify(col.DataType),
	}

	analysis, err := p.schema.AnalyzeColumn(ctx, table.SchemaName, table.TableName, col.ColumnName, analysisClass(cp.DataType))
	analyzed := err == nil && analysis != nil
	if err != nil {
		p.logger.Warn("Failed to analyze column, keeping zero statistics",
			zap.String("table", table.TableName),
			zap.String("column", col.ColumnName),
			zap.Error(err))
	} else if analysis != nil {
		cp.NonNullCount = analysis.NonNullCount
		cp.NullCount = analysis.RowCount - analysis.NonNullCount
		cp.DistinctCount = analysis.DistinctCount
		cp.MinValue = analysis.MinValue
		cp.MaxValue = analysis.MaxValue
		cp.AvgValue = analysis.AvgValue
		cp.MinLength = analysis.MinLength
		cp.MaxLength = analysis.MaxLength
		cp.AvgLength = analysis.AvgLength
	}

	topValues, err := p.schema.TopValues(ctx, table.SchemaName, table.TableName, col.ColumnName, p.cfg.TopValuesK)
	if err != nil {
		p.logger.Warn("Failed to sample top values for column",
			zap.String("table", table.TableName),
			zap.String("column", col.ColumnName),
			zap.Error(err))
	}
	for _, tv := range topValues {
		cp.TopValues = append(cp.TopValues, models.ValueCount{Value: tv.Value, Count: tv.Count})
	}

	cp.MinHashSignature = index.ComputeSignature(cp.SampleValues(), p.cfg.MinHashPermutations)
	return cp, analyzed
}

func (p *profiler) DeclaredForeignKeys(ctx context.Context) ([]models.ForeignKeyEdge, error) {
	keys, err := p.schema.ForeignKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list foreign keys: %w", err)
	}

	edges := make([]models.ForeignKeyEdge, 0, len(keys))
	for _, fk := range keys {
		edges = append(edges, models.ForeignKeyEdge{
			FromTable:  fk.SourceTable,
			FromColumn: fk.SourceColumn,
			ToTable:    fk.TargetTable,
			ToColumn:   fk.TargetColumn,
		})
	}
	return edges, nil
}
