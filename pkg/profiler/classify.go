package profiler

import (
	"strings"

	"github.com/sqlink-ai/sqlink-engine/pkg/adapters/datasource"
	"github.com/sqlink-ai/sqlink-engine/pkg/models"
)

// Substring fragments matched against the lowered declared type. Fragments
// rather than full names so dialect variants (int4, float8, varchar(255),
// timestamptz) land in the right class without enumerating every spelling.
var (
	booleanFragments = []string{"bool", "bit"}
	dateFragments    = []string{"date", "time", "year"}
	numericFragments = []string{"int", "serial", "real", "floa", "doub", "num", "dec", "money"}
)

// Classify maps a declared column type to its coarse class. Boolean and date
// fragments are checked before numeric ones so types like "datetime2" and
// "bit" are not swallowed by the "int"/"dec" fragments. Anything unmatched is
// treated as text, which keeps uuid, char, clob, and vendor-specific types
// flowing through the text statistics path.
func Classify(declaredType string) models.DataType {
	t := strings.ToLower(strings.TrimSpace(declaredType))

	for _, fragment := range booleanFragments {
		if strings.Contains(t, fragment) {
			return models.DataTypeBoolean
		}
	}
	for _, fragment := range dateFragments {
		if strings.Contains(t, fragment) {
			return models.DataTypeDate
		}
	}
	for _, fragment := range numericFragments {
		if strings.Contains(t, fragment) {
			return models.DataTypeNumeric
		}
	}
	return models.DataTypeText
}

// analysisClass maps a data type class to the aggregate set the datasource
// adapter should compute. Date and boolean columns only get counts.
func analysisClass(dt models.DataType) datasource.ColumnClass {
	switch dt {
	case models.DataTypeNumeric:
		return datasource.ClassNumeric
	case models.DataTypeText:
		return datasource.ClassText
	default:
		return datasource.ClassOther
	}
}
