package models

import "sort"

// FocusedSchema maps table names to the column names judged relevant to one
// question. It accumulates from three independent sources (semantic matches,
// literal matches, foreign-key closure); column order within a table follows
// first insertion, which keeps downstream truncation deterministic.
//
// A focused schema lives for one question and is discarded afterward.
type FocusedSchema struct {
	Tables map[string][]string `json:"tables"`
}

func NewFocusedSchema() *FocusedSchema {
	return &FocusedSchema{Tables: make(map[string][]string)}
}

// Add records a column under a table, ignoring duplicates.
func (s *FocusedSchema) Add(table, column string) {
	for _, existing := range s.Tables[table] {
		if existing == column {
			return
		}
	}
	s.Tables[table] = append(s.Tables[table], column)
}

// AddKey records a table.column key; malformed keys are ignored.
func (s *FocusedSchema) AddKey(key string) {
	table, column, ok := SplitColumnKey(key)
	if !ok {
		return
	}
	s.Add(table, column)
}

// Has reports whether the column is present under the table.
func (s *FocusedSchema) Has(table, column string) bool {
	for _, existing := range s.Tables[table] {
		if existing == column {
			return true
		}
	}
	return false
}

// HasTable reports whether any column of the table is present.
func (s *FocusedSchema) HasTable(table string) bool {
	return len(s.Tables[table]) > 0
}

// TableNames returns the tables in sorted order.
func (s *FocusedSchema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ColumnKeys flattens the schema into sorted table.column keys.
func (s *FocusedSchema) ColumnKeys() []string {
	keys := make([]string, 0)
	for table, columns := range s.Tables {
		for _, column := range columns {
			keys = append(keys, ColumnKey(table, column))
		}
	}
	sort.Strings(keys)
	return keys
}

// ColumnCount returns the total number of columns across all tables.
func (s *FocusedSchema) ColumnCount() int {
	n := 0
	for _, columns := range s.Tables {
		n += len(columns)
	}
	return n
}

// IsEmpty reports whether no columns were linked.
func (s *FocusedSchema) IsEmpty() bool {
	return s.ColumnCount() == 0
}

// ForeignKeyEdge is one (from_table, from_column) -> (to_table, to_column)
// relationship, either declared in the datasource or inferred from naming
// conventions. Edges are best-effort: used only to pull related tables into a
// focused schema, never to rewrite a SQL candidate.
type ForeignKeyEdge struct {
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
}

func (e ForeignKeyEdge) String() string {
	return ColumnKey(e.FromTable, e.FromColumn) + " -> " + ColumnKey(e.ToTable, e.ToColumn)
}
