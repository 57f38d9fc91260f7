// Package audit records security events raised while generated SQL is
// screened before execution. Events are logged as structured JSON on a
// dedicated logger namespace so SIEM tooling can ingest them without
// custom parsing.
package audit

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/sqlink-ai/sqlink-engine/pkg/logging"
)

// EventType categorizes security events for filtering and alerting.
type EventType string

const (
	// EventInjectionAttempt is logged when libinjection flags a string
	// literal inside a generated statement.
	EventInjectionAttempt EventType = "injection_attempt"
	// EventRefusedStatement is logged when a generated statement is refused
	// execution for a structural reason, such as statement stacking.
	EventRefusedStatement EventType = "refused_statement"
)

// Event is one auditable occurrence in SIEM-ready form.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	EventType EventType `json:"event_type"`
	Details   any       `json:"details"`
	Severity  string    `json:"severity"` // warning or critical
}

// InjectionDetails carries the specifics of a detected injection pattern.
type InjectionDetails struct {
	Query       string `json:"query"`
	Literal     string `json:"literal"`
	Fingerprint string `json:"fingerprint"` // libinjection fingerprint for pattern analysis
}

// SecurityAuditor logs security events for SIEM consumption. Statements
// pass through the logging sanitizer before they are recorded.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates an auditor. Events land under the
// "security_audit" logger name for easy filtering in SIEM systems.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogInjectionAttempt records a libinjection hit inside generated SQL.
// This is logged at ERROR level with "critical" severity for immediate
// alerting: the statement was produced by a model, not typed by a user.
func (a *SecurityAuditor) LogInjectionAttempt(query, literal, fingerprint string) {
	details := InjectionDetails{
		Query:       logging.SanitizeQuery(query),
		Literal:     logging.TruncateString(literal, logging.MaxQueryLogLength),
		Fingerprint: fingerprint,
	}
	event := Event{
		Timestamp: time.Now().UTC(),
		EventType: EventInjectionAttempt,
		Details:   details,
		Severity:  "critical",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Error("SQL injection pattern in generated statement",
		zap.String("event_json", string(eventJSON)),
		zap.String("query", details.Query),
		zap.String("fingerprint", fingerprint),
		zap.String("severity", "critical"),
	)
}

// LogRefusedStatement records a statement the safety gate refused for a
// structural reason. This is logged at WARN level as these are typically
// malformed generations, not attacks.
func (a *SecurityAuditor) LogRefusedStatement(query, reason string) {
	sanitized := logging.SanitizeQuery(query)
	event := Event{
		Timestamp: time.Now().UTC(),
		EventType: EventRefusedStatement,
		Details: map[string]string{
			"query":  sanitized,
			"reason": reason,
		},
		Severity: "warning",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Generated statement refused execution",
		zap.String("event_json", string(eventJSON)),
		zap.String("query", sanitized),
		zap.String("reason", reason),
		zap.String("severity", "warning"),
	)
}
