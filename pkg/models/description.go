package models

// ColumnDescription holds the two natural-language renderings of a column,
// derived 1:1 from its ColumnProfile by one LLM call. Short is for human
// scanning; Long embeds profile facts (ranges, sample values) so that literal
// mentions in a question can ground against the embedding.
//
// Descriptions are never mutated in place; regeneration produces a new
// instance that replaces the cached one.
type ColumnDescription struct {
	TableName  string `json:"table_name"`
	ColumnName string `json:"column_name"`
	Short      string `json:"short_description"`
	Long       string `json:"long_description"`
}

// Key returns the table.column identity shared with the ColumnProfile.
func (d *ColumnDescription) Key() string {
	return ColumnKey(d.TableName, d.ColumnName)
}
