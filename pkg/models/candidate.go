package models

// GenerationParams are the decoding parameters one candidate was produced
// with. Presets vary temperature to diversify candidates for majority voting.
type GenerationParams struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

// SQLCandidate is one generated SQL string plus the signals attached to it as
// it moves through validation and selection. Candidates live for one
// generation call; the top-scoring valid one becomes the pipeline output and
// the rest are discarded.
type SQLCandidate struct {
	QueryText string           `json:"query_text"`
	Params    GenerationParams `json:"generation_params"`

	// IsValid and ValidationMessage are set by the validator. An invalid
	// candidate is not an error, it just scores zero for syntax.
	IsValid           bool   `json:"is_valid"`
	ValidationMessage string `json:"validation_message,omitempty"`

	// StructuralScore is set by the selector during majority voting.
	StructuralScore int `json:"structural_score"`
}
