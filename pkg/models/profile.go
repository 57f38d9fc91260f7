package models

import (
	"fmt"
	"strings"
)

// DataType is the coarse type class assigned to a profiled column. It decides
// which statistics apply (numeric bounds vs text lengths) and how literals
// extracted from a question are matched against the column.
type DataType string

const (
	DataTypeNumeric DataType = "numeric"
	DataTypeText    DataType = "text"
	DataTypeDate    DataType = "date"
	DataTypeBoolean DataType = "boolean"
)

// ValidDataTypes lists every accepted data type class.
var ValidDataTypes = []DataType{
	DataTypeNumeric,
	DataTypeText,
	DataTypeDate,
	DataTypeBoolean,
}

func (d DataType) IsValid() bool {
	for _, v := range ValidDataTypes {
		if d == v {
			return true
		}
	}
	return false
}

// ValueCount is one entry of a column's top-K frequent values, ordered most
// frequent first.
type ValueCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// ColumnProfile captures the statistical profile of a single column, produced
// by one profiling pass and immutable afterward. An identity is the
// (TableName, ColumnName) pair; Key() renders it in the table.column form
// used by the indexes and the focused schema.
//
// Numeric statistics (MinValue, MaxValue, AvgValue) are populated only for
// numeric columns; length statistics only for text columns. Absent statistics
// are nil, not zero.
type ColumnProfile struct {
	TableName  string   `json:"table_name"`
	ColumnName string   `json:"column_name"`
	DataType   DataType `json:"data_type"`

	NullCount     int64 `json:"null_count"`
	NonNullCount  int64 `json:"non_null_count"`
	DistinctCount int64 `json:"distinct_count"`

	MinValue *float64 `json:"min_value,omitempty"`
	MaxValue *float64 `json:"max_value,omitempty"`
	AvgValue *float64 `json:"avg_value,omitempty"`

	MinLength *int64   `json:"min_length,omitempty"`
	MaxLength *int64   `json:"max_length,omitempty"`
	AvgLength *float64 `json:"avg_length,omitempty"`

	// TopValues holds at most the configured K most frequent values.
	TopValues []ValueCount `json:"top_values,omitempty"`

	// MinHashSignature is the fixed-size signature over the sampled values,
	// length equal to the configured permutation count. Empty for columns
	// with no sampled values.
	MinHashSignature []uint64 `json:"minhash_signature,omitempty"`
}

// Key returns the table.column identity used across indexes and schemas.
func (p *ColumnProfile) Key() string {
	return ColumnKey(p.TableName, p.ColumnName)
}

// SampleValues returns the top values as plain strings, most frequent first.
func (p *ColumnProfile) SampleValues() []string {
	if len(p.TopValues) == 0 {
		return nil
	}
	values := make([]string, 0, len(p.TopValues))
	for _, tv := range p.TopValues {
		values = append(values, tv.Value)
	}
	return values
}

// TableProfile groups the column profiles of one table with the table's
// record count from the same profiling pass.
type TableProfile struct {
	TableName   string          `json:"table_name"`
	RecordCount int64           `json:"record_count"`
	Columns     []ColumnProfile `json:"columns"`
}

// Validate checks the profiling invariant: every column's null and non-null
// counts must sum to the table's record count.
func (t *TableProfile) Validate() error {
	for i := range t.Columns {
		c := &t.Columns[i]
		if c.NullCount+c.NonNullCount != t.RecordCount {
			return fmt.Errorf("column %s: null_count %d + non_null_count %d != record_count %d",
				c.Key(), c.NullCount, c.NonNullCount, t.RecordCount)
		}
		if !c.DataType.IsValid() {
			return fmt.Errorf("column %s: invalid data type %q", c.Key(), c.DataType)
		}
	}
	return nil
}

// ColumnKey renders the table.column identity.
func ColumnKey(table, column string) string {
	return table + "." + column
}

// SplitColumnKey splits a table.column key back into its parts. The second
// return is false when the key has no dot.
func SplitColumnKey(key string) (table, column string, ok bool) {
	idx := strings.Index(key, ".")
	if idx <= 0 || idx == len(key)-1 {
		return "", "", false
	}
	return key[:idx], key[idx+1:], true
}
