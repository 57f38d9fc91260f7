package schemalink

import (
	"time"

	"github.com/google/uuid"

	"github.com/sqlink-ai/sqlink-engine/pkg/index"
	"github.com/sqlink-ai/sqlink-engine/pkg/models"
)

// Session bundles everything schema linking needs for one profiled database:
// profiles, cached descriptions, the edge set, and both built indexes. A
// session is read-only after construction; re-profiling produces a new one.
type Session struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	Profiles     []models.TableProfile
	Descriptions map[string]*models.ColumnDescription
	Edges        []models.ForeignKeyEdge

	Literal  *index.LiteralIndex
	Semantic *index.SemanticIndex

	tables  map[string]*models.TableProfile
	columns map[string]*models.ColumnProfile
}

// NewSession assembles a session from one profiling pass. Descriptions are
// keyed by table.column; indexes may be nil when a caller only needs part of
// the linking surface.
func NewSession(
	profiles []models.TableProfile,
	descriptions []*models.ColumnDescription,
	edges []models.ForeignKeyEdge,
	literal *index.LiteralIndex,
	semantic *index.SemanticIndex,
) *Session {
	s := &Session{
		ID:           uuid.New(),
		CreatedAt:    time.Now(),
		Profiles:     profiles,
		Descriptions: make(map[string]*models.ColumnDescription, len(descriptions)),
		Edges:        edges,
		Literal:      literal,
		Semantic:     semantic,
		tables:       make(map[string]*models.TableProfile, len(profiles)),
		columns:      make(map[string]*models.ColumnProfile),
	}

	for _, d := range descriptions {
		s.Descriptions[d.Key()] = d
	}
	for i := range profiles {
		t := &profiles[i]
		s.tables[t.TableName] = t
		for j := range t.Columns {
			c := &t.Columns[j]
			s.columns[c.Key()] = c
		}
	}
	return s
}

// Table returns the profile for a table name, nil when unknown.
func (s *Session) Table(name string) *models.TableProfile {
	return s.tables[name]
}

// Column returns the profile for a table.column pair, nil when unknown.
func (s *Session) Column(table, column string) *models.ColumnProfile {
	return s.columns[models.ColumnKey(table, column)]
}

// HasColumn reports whether the pair was profiled.
func (s *Session) HasColumn(table, column string) bool {
	return s.Column(table, column) != nil
}

// Description returns the cached description for a table.column key, nil
// when absent.
func (s *Session) Description(key string) *models.ColumnDescription {
	return s.Descriptions[key]
}
