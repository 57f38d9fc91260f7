package models

import "github.com/google/uuid"

// EvaluationRecord is the append-only outcome of scoring one question. Records
// are aggregated into summary statistics and never mutated individually.
type EvaluationRecord struct {
	RunID           uuid.UUID `json:"run_id"`
	Question        string    `json:"question"`
	PredictedSQL    string    `json:"predicted_sql"`
	GroundTruthSQL  string    `json:"ground_truth_sql"`
	PredictedValid  bool      `json:"predicted_valid"`
	ExactMatch      bool      `json:"exact_match"`
	ExecutionMatch  bool      `json:"execution_match"`
	SchemaLinkingF1 float64   `json:"schema_linking_f1"`

	// FailureMessage carries the execution or generation failure for this
	// record, empty on success paths.
	FailureMessage string `json:"failure_message,omitempty"`
}

// BatchSummary aggregates a run's records with unweighted arithmetic means.
type BatchSummary struct {
	RunID                 uuid.UUID `json:"run_id"`
	Total                 int       `json:"total"`
	ExactMatchRate        float64   `json:"exact_match_rate"`
	ExecutionAccuracyRate float64   `json:"execution_accuracy_rate"`
	ValidityRate          float64   `json:"validity_rate"`
	MeanSchemaLinkingF1   float64   `json:"mean_schema_linking_f1"`
}
