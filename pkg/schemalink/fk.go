package schemalink

import (
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/sqlink-ai/sqlink-engine/pkg/models"
)

// EdgeInferrer derives foreign-key edges from table profiles. Implementations
// are interchangeable strategies: InferEdgesByNaming works from column names
// alone; declared constraints from the datasource slot in through MergeEdges.
type EdgeInferrer func(profiles []models.TableProfile) []models.ForeignKeyEdge

// fkSuffixes are the column-name endings treated as reference markers. The
// remainder before the suffix is matched against other table names.
var fkSuffixes = []string{"_id", "_code", "_num", "_no", "_key"}

// InferEdgesByNaming guesses edges from column naming conventions: a column
// ending in a reference suffix points at the table whose name matches the
// rest (singular/plural aware, substring as a last resort). Best-effort only;
// edges extend focused schemas and are never used to rewrite SQL.
func InferEdgesByNaming(profiles []models.TableProfile) []models.ForeignKeyEdge {
	var edges []models.ForeignKeyEdge
	seen := make(map[string]struct{})

	for i := range profiles {
		table := &profiles[i]
		for _, col := range table.Columns {
			lower := strings.ToLower(col.ColumnName)
			for _, suffix := range fkSuffixes {
				if !strings.HasSuffix(lower, suffix) || len(lower) == len(suffix) {
					continue
				}
				base := strings.TrimSuffix(lower, suffix)
				target := matchTable(base, table.TableName, profiles)
				if target == nil {
					break
				}
				pk := InferPrimaryKey(target)
				if pk == "" {
					break
				}
				edge := models.ForeignKeyEdge{
					FromTable:  table.TableName,
					FromColumn: col.ColumnName,
					ToTable:    target.TableName,
					ToColumn:   pk,
				}
				if _, dup := seen[edge.String()]; !dup {
					seen[edge.String()] = struct{}{}
					edges = append(edges, edge)
				}
				break
			}
		}
	}
	return edges
}

// matchTable resolves a reference base ("school" from school_id) to a table.
// Exact and singular/plural matches beat substring containment; within a
// tier the first table in profile order wins. The own table is excluded, so
// self-references only come from declared constraints.
func matchTable(base, ownTable string, profiles []models.TableProfile) *models.TableProfile {
	var substringHit *models.TableProfile
	for i := range profiles {
		t := &profiles[i]
		if t.TableName == ownTable {
			continue
		}
		name := strings.ToLower(t.TableName)
		if name == base || name == inflection.Plural(base) || inflection.Singular(name) == base {
			return t
		}
		if substringHit == nil && len(base) >= 3 &&
			(strings.Contains(name, base) || strings.Contains(base, name)) {
			substringHit = t
		}
	}
	return substringHit
}

// InferPrimaryKey guesses a table's key column: "id" first, then the
// singular table name with an _id suffix, then the table name itself with
// _id, finally the first profiled column.
func InferPrimaryKey(t *models.TableProfile) string {
	lowerTable := strings.ToLower(t.TableName)
	candidates := []string{
		"id",
		inflection.Singular(lowerTable) + "_id",
		lowerTable + "_id",
	}
	for _, cand := range candidates {
		for _, col := range t.Columns {
			if strings.ToLower(col.ColumnName) == cand {
				return col.ColumnName
			}
		}
	}
	if len(t.Columns) > 0 {
		return t.Columns[0].ColumnName
	}
	return ""
}

// MergeEdges combines edge sets keeping one edge per (from_table,
// from_column); earlier sets win, so callers list declared constraints before
// inferred ones.
func MergeEdges(sets ...[]models.ForeignKeyEdge) []models.ForeignKeyEdge {
	var merged []models.ForeignKeyEdge
	seen := make(map[string]struct{})

	for _, set := range sets {
		for _, edge := range set {
			key := models.ColumnKey(edge.FromTable, edge.FromColumn)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, edge)
		}
	}
	return merged
}
