// Package bird loads BIRD and Spider text-to-SQL benchmark checkouts: the
// dev.json question files and the per-database SQLite files beside them.
package bird

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Question is one benchmark entry. Spider entries are mapped onto the same
// shape with empty evidence and difficulty.
type Question struct {
	QuestionID int    `json:"question_id"`
	DatabaseID string `json:"db_id"`
	Question   string `json:"question"`
	Evidence   string `json:"evidence"`
	SQL        string `json:"SQL"`
	Difficulty string `json:"difficulty"`
}

// Prompt returns the question with its evidence appended. BIRD gold queries
// assume the evidence constraints, so generation has to see them.
func (q Question) Prompt() string {
	if strings.TrimSpace(q.Evidence) == "" {
		return q.Question
	}
	return q.Question + "\n\nEvidence: " + q.Evidence
}

// spiderQuestion is the Spider dev.json entry layout.
type spiderQuestion struct {
	DatabaseID string `json:"db_id"`
	Question   string `json:"question"`
	Query      string `json:"query"`
}

// LoadQuestions reads a BIRD-layout dev.json file.
func LoadQuestions(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return questions, nil
}

// LoadSpiderQuestions reads a Spider-layout dev.json file. Spider numbers
// nothing, so questions take their file position as ID.
func LoadSpiderQuestions(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	var entries []spiderQuestion
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	questions := make([]Question, len(entries))
	for i, entry := range entries {
		questions[i] = Question{
			QuestionID: i,
			DatabaseID: entry.DatabaseID,
			Question:   entry.Question,
			SQL:        entry.Query,
		}
	}
	return questions, nil
}

// Filter returns the questions for one database, capped at limit when limit
// is positive.
func Filter(questions []Question, databaseID string, limit int) []Question {
	var out []Question
	for _, q := range questions {
		if q.DatabaseID != databaseID {
			continue
		}
		out = append(out, q)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// DatabaseIDs returns the distinct database IDs in first-seen order.
func DatabaseIDs(questions []Question) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, q := range questions {
		if _, ok := seen[q.DatabaseID]; ok {
			continue
		}
		seen[q.DatabaseID] = struct{}{}
		out = append(out, q.DatabaseID)
	}
	return out
}

// DatabasePath resolves a database's SQLite file under the benchmark root,
// following the <root>/<db_id>/<db_id>.sqlite checkout layout.
func DatabasePath(root, databaseID string) string {
	return filepath.Join(root, databaseID, databaseID+".sqlite")
}
