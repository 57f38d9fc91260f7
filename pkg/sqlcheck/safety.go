package sqlcheck

import (
	"regexp"
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"
	"github.com/xwb1989/sqlparser"
)

// Refusal reasons reported by CheckExecutionSafety.
const (
	ReasonMultipleStatements = "multiple statements"
	ReasonInjectionPattern   = "injection pattern in string literal"
)

// SafetyIssue says why a candidate was refused execution.
type SafetyIssue struct {
	Reason      string
	Literal     string
	Fingerprint string
}

// CheckExecutionSafety decides whether generated SQL may run against a live
// database during evaluation. Multi-statement strings are refused outright,
// and every string literal is scanned for a SQL-injection fingerprint.
// Returns nil when the statement is safe to execute.
func CheckExecutionSafety(sql string) *SafetyIssue {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return nil
	}

	if hasSemicolonOutsideStrings(stripTrailingSemicolon(trimmed)) {
		return &SafetyIssue{Reason: ReasonMultipleStatements}
	}

	for _, literal := range stringLiterals(trimmed) {
		if isSQLi, fingerprint := libinjection.IsSQLi(literal); isSQLi {
			return &SafetyIssue{
				Reason:      ReasonInjectionPattern,
				Literal:     literal,
				Fingerprint: string(fingerprint),
			}
		}
	}
	return nil
}

var quotedLiteralPattern = regexp.MustCompile(`'([^']*)'`)

// stringLiterals pulls string literal values out of the statement, via the
// AST when it parses and a quote scan when it does not.
func stringLiterals(sql string) []string {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		var literals []string
		for _, m := range quotedLiteralPattern.FindAllStringSubmatch(sql, -1) {
			if m[1] != "" {
				literals = append(literals, m[1])
			}
		}
		return literals
	}

	var literals []string
	_ = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		if val, ok := node.(*sqlparser.SQLVal); ok && val.Type == sqlparser.StrVal {
			literals = append(literals, string(val.Val))
		}
		return true, nil
	}, stmt)
	return literals
}

// stripTrailingSemicolon removes one trailing semicolon and surrounding
// whitespace so only interior semicolons remain for the statement check.
func stripTrailingSemicolon(sql string) string {
	sql = strings.TrimRight(sql, " \t\n\r")
	if strings.HasSuffix(sql, ";") {
		sql = strings.TrimRight(strings.TrimSuffix(sql, ";"), " \t\n\r")
	}
	return sql
}

// hasSemicolonOutsideStrings reports whether any semicolon sits outside a
// string literal. Both backslash escapes and SQL doubled-quote escapes keep
// the scan inside the literal.
func hasSemicolonOutsideStrings(sql string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	prev := rune(0)

	for _, char := range sql {
		switch state {
		case stateNormal:
			switch char {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			// A doubled quote exits and immediately re-enters on the next
			// quote, which keeps the scan inside the literal.
			if char == '\'' && prev != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' && prev != '\\' {
				state = stateNormal
			}
		}
		prev = char
	}

	return false
}
