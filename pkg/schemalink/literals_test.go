package schemalink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLiterals(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     []string
	}{
		{
			name:     "numbers and acronyms",
			question: "How many students have a GPA above 3.5?",
			want:     []string{"3.5", "GPA"},
		},
		{
			name:     "single quoted phrase",
			question: "Which students attend 'Mission Peak Academy'?",
			want:     []string{"Mission Peak Academy"},
		},
		{
			name:     "double quoted value",
			question: `Count schools in "Fremont"`,
			want:     []string{"Fremont"},
		},
		{
			name:     "capitalized tokens",
			question: "List schools located in Fremont or Pleasanton",
			want:     []string{"Fremont", "Pleasanton"},
		},
		{
			name:     "capitalized run joins into one literal",
			question: "Show Foothill High School enrollment for 2022",
			want:     []string{"2022", "Foothill High School"},
		},
		{
			name:     "question words are not literals",
			question: "How many are there?",
			want:     nil,
		},
		{
			name:     "duplicates collapse",
			question: "Fremont schools near Fremont",
			want:     []string{"Fremont"},
		},
		{
			name:     "possessive is stripped",
			question: "What is Fremont's population?",
			want:     []string{"Fremont"},
		},
		{
			name:     "empty question",
			question: "",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractLiterals(tt.question))
		})
	}
}
