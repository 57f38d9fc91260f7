package bird

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Benchmark layouts a manifest can declare.
const (
	BenchmarkBIRD   = "bird"
	BenchmarkSpider = "spider"
)

// Manifest points an evaluation run at a benchmark checkout.
type Manifest struct {
	// Benchmark selects the dev.json layout, "bird" or "spider". Empty
	// defaults to "bird".
	Benchmark string `yaml:"benchmark"`
	// QuestionsFile is the path to the dev.json question file.
	QuestionsFile string `yaml:"questions_file"`
	// DatabaseRoot is the directory holding one subdirectory per database ID.
	DatabaseRoot string `yaml:"database_root"`
}

// LoadManifest reads and validates a dataset manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Benchmark == "" {
		m.Benchmark = BenchmarkBIRD
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) Validate() error {
	if m.Benchmark != BenchmarkBIRD && m.Benchmark != BenchmarkSpider {
		return fmt.Errorf("benchmark must be %q or %q, got %q", BenchmarkBIRD, BenchmarkSpider, m.Benchmark)
	}
	if m.QuestionsFile == "" {
		return fmt.Errorf("questions_file is required")
	}
	if m.DatabaseRoot == "" {
		return fmt.Errorf("database_root is required")
	}
	return nil
}

// Questions loads the manifest's dev.json in the declared layout.
func (m *Manifest) Questions() ([]Question, error) {
	if m.Benchmark == BenchmarkSpider {
		return LoadSpiderQuestions(m.QuestionsFile)
	}
	return LoadQuestions(m.QuestionsFile)
}

// DatabasePath resolves one database's SQLite file under the manifest root.
func (m *Manifest) DatabasePath(databaseID string) string {
	return DatabasePath(m.DatabaseRoot, databaseID)
}
