package schemalink

import (
	"fmt"
	"strings"

	"github.com/sqlink-ai/sqlink-engine/pkg/models"
)

// GenerateSchemaContext renders either the focused schema or the whole
// profiled schema as a table-grouped text block. Focused tables render in
// name order with columns in linking order; at most MaxColumnsPerTable
// columns render per table to keep prompt size predictable.
func (l *linker) GenerateSchemaContext(scope Scope, verbosity Verbosity, focused *models.FocusedSchema) string {
	var sb strings.Builder

	switch scope {
	case ScopeFull:
		for i := range l.session.Profiles {
			t := &l.session.Profiles[i]
			columns := make([]string, 0, len(t.Columns))
			for _, c := range t.Columns {
				columns = append(columns, c.ColumnName)
			}
			l.renderTable(&sb, t.TableName, columns, verbosity)
		}
	default:
		if focused == nil {
			return ""
		}
		for _, table := range focused.TableNames() {
			l.renderTable(&sb, table, focused.Tables[table], verbosity)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (l *linker) renderTable(sb *strings.Builder, table string, columns []string, verbosity Verbosity) {
	if profile := l.session.Table(table); profile != nil {
		fmt.Fprintf(sb, "Table: %s (%d rows)\n", table, profile.RecordCount)
	} else {
		fmt.Fprintf(sb, "Table: %s\n", table)
	}

	rendered := columns
	if len(rendered) > l.opts.MaxColumnsPerTable {
		rendered = rendered[:l.opts.MaxColumnsPerTable]
	}
	for _, column := range rendered {
		l.renderColumn(sb, table, column, verbosity)
	}
	if len(columns) > len(rendered) {
		fmt.Fprintf(sb, "  ... and %d more columns\n", len(columns)-len(rendered))
	}
	sb.WriteString("\n")
}

func (l *linker) renderColumn(sb *strings.Builder, table, column string, verbosity Verbosity) {
	sb.WriteString("  - ")
	sb.WriteString(column)

	if profile := l.session.Column(table, column); profile != nil {
		fmt.Fprintf(sb, " (%s)", profile.DataType)
	}

	if desc := l.session.Description(models.ColumnKey(table, column)); desc != nil {
		if text := l.descriptionText(desc, verbosity); text != "" {
			sb.WriteString(": ")
			sb.WriteString(text)
		}
	}

	if ref := l.referenceFor(table, column); ref != "" {
		fmt.Fprintf(sb, " [references %s]", ref)
	}

	sb.WriteString("\n")
}

func (l *linker) descriptionText(desc *models.ColumnDescription, verbosity Verbosity) string {
	switch verbosity {
	case VerbosityMaximal:
		return truncate(desc.Long, l.opts.LongDescriptionLimit)
	case VerbosityFull:
		long := truncate(desc.Long, l.opts.LongDescriptionLimit)
		switch {
		case desc.Short == "":
			return long
		case long == "":
			return desc.Short
		default:
			return desc.Short + " " + long
		}
	default:
		return desc.Short
	}
}

// referenceFor returns the first known edge target for a column, rendered as
// table.column.
func (l *linker) referenceFor(table, column string) string {
	for _, edge := range l.session.Edges {
		if edge.FromTable == table && edge.FromColumn == column {
			return models.ColumnKey(edge.ToTable, edge.ToColumn)
		}
	}
	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
