package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_EnvOverridesYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
env: "test"
llm:
  model: "yaml-model"
linker:
  semantic_top_k: 15
datasource:
  type: "sqlite"
  path: "dev.sqlite"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Change to temp directory so Load() finds config.yaml
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})

	os.Unsetenv("LLM_MODEL")
	t.Setenv("ENVIRONMENT", "ci")
	t.Setenv("LINKER_SEMANTIC_TOP_K", "25")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Env != "ci" {
		t.Errorf("expected Env=ci (from env), got %s", cfg.Env)
	}
	if cfg.Linker.SemanticTopK != 25 {
		t.Errorf("expected SemanticTopK=25 (from env), got %d", cfg.Linker.SemanticTopK)
	}
	if cfg.LLM.Model != "yaml-model" {
		t.Errorf("expected Model=yaml-model (from yaml), got %s", cfg.LLM.Model)
	}
	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}

	// defaults fill fields the yaml does not set
	if cfg.Linker.MinHashPermutations != 128 {
		t.Errorf("expected default MinHashPermutations=128, got %d", cfg.Linker.MinHashPermutations)
	}
	if len(cfg.Generator.Temperatures) != 5 {
		t.Errorf("expected 5 default temperature presets, got %v", cfg.Generator.Temperatures)
	}
}

func validConfig() *Config {
	return &Config{
		Linker: LinkerConfig{
			SemanticTopK:        20,
			MinHashPermutations: 128,
			JaccardThreshold:    0.5,
			FKClosureHops:       1,
			MaxColumnsPerTable:  10,
		},
		Generator: GeneratorConfig{Temperatures: []float64{0.1, 0.2, 0.3, 0.4, 0.5}},
		Evaluator: EvaluatorConfig{ExecutionTimeoutSeconds: 10},
		Datasource: DatasourceConfig{
			Type: "sqlite",
			Path: "dev.sqlite",
		},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "closure hops zero allowed", mutate: func(c *Config) { c.Linker.FKClosureHops = 0 }, wantErr: false},
		{name: "closure hops two rejected", mutate: func(c *Config) { c.Linker.FKClosureHops = 2 }, wantErr: true},
		{name: "zero permutations rejected", mutate: func(c *Config) { c.Linker.MinHashPermutations = 0 }, wantErr: true},
		{name: "threshold above one rejected", mutate: func(c *Config) { c.Linker.JaccardThreshold = 1.5 }, wantErr: true},
		{name: "zero top-k rejected", mutate: func(c *Config) { c.Linker.SemanticTopK = 0 }, wantErr: true},
		{name: "no presets rejected", mutate: func(c *Config) { c.Generator.Temperatures = nil }, wantErr: true},
		{name: "negative temperature rejected", mutate: func(c *Config) { c.Generator.Temperatures = []float64{-0.1} }, wantErr: true},
		{name: "zero timeout rejected", mutate: func(c *Config) { c.Evaluator.ExecutionTimeoutSeconds = 0 }, wantErr: true},
		{name: "unknown datasource rejected", mutate: func(c *Config) { c.Datasource.Type = "oracle" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDatasourceConnectionString(t *testing.T) {
	pg := DatasourceConfig{Type: "postgres", Host: "db", Port: 5432, User: "svc", Password: "secret", Database: "retail", SSLMode: "disable"}
	want := "host=db port=5432 user=svc password=secret dbname=retail sslmode=disable"
	if got := pg.ConnectionString(); got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}

	ms := DatasourceConfig{Type: "mssql", Host: "db", Port: 1433, User: "svc", Password: "secret", Database: "retail"}
	want = "server=db;port=1433;user id=svc;password=secret;database=retail"
	if got := ms.ConnectionString(); got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}

	lite := DatasourceConfig{Type: "sqlite", Path: "/data/bird/card_games/card_games.sqlite"}
	if got := lite.ConnectionString(); got != lite.Path {
		t.Errorf("ConnectionString() = %q, want sqlite path", got)
	}
}

func TestResolveHostPassthrough(t *testing.T) {
	// Non-loopback hosts are never rewritten, containerized or not.
	if got := ResolveHost("db.internal"); got != "db.internal" {
		t.Errorf("ResolveHost(db.internal) = %q, want passthrough", got)
	}
}
