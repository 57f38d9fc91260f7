// Package fewshot loads worked question/SQL pairs and picks the ones closest
// to an incoming question for prompt assembly.
package fewshot

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Example is one worked question/SQL pair.
type Example struct {
	Question string `yaml:"question" json:"question"`
	SQL      string `yaml:"sql" json:"sql"`
}

// Store holds the example pool for a run. The pool is read once at startup
// and never changes afterward.
type Store struct {
	examples []Example
}

// Load reads a YAML file containing a list of examples.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read examples file: %w", err)
	}
	store, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return store, nil
}

// Parse builds a store from raw YAML. An entry with a blank question or SQL
// fails the whole parse so a malformed pool surfaces at startup instead of
// producing empty prompt sections.
func Parse(data []byte) (*Store, error) {
	var examples []Example
	if err := yaml.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("parse examples: %w", err)
	}
	for i, ex := range examples {
		if strings.TrimSpace(ex.Question) == "" || strings.TrimSpace(ex.SQL) == "" {
			return nil, fmt.Errorf("example %d: question and sql are both required", i)
		}
	}
	return &Store{examples: examples}, nil
}

// Examples returns the pool in file order.
func (s *Store) Examples() []Example {
	return s.examples
}

// Len returns the number of stored examples.
func (s *Store) Len() int {
	return len(s.examples)
}
