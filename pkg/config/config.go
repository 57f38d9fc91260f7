package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for sqlink-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, database passwords) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// LLM chat completion endpoint used for descriptions and SQL generation
	LLM LLMConfig `yaml:"llm"`

	// Embedding endpoint used by the semantic index and few-shot lookup
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Schema linker tuning
	Linker LinkerConfig `yaml:"linker"`

	// Profiling pass tuning
	Profiler ProfilerConfig `yaml:"profiler"`

	// Candidate generation presets
	Generator GeneratorConfig `yaml:"generator"`

	// Majority-vote selector weights
	Selector SelectorConfig `yaml:"selector"`

	// Offline evaluation settings
	Evaluator EvaluatorConfig `yaml:"evaluator"`

	// Profiling / evaluation target database
	Datasource DatasourceConfig `yaml:"datasource"`

	// Few-shot example store
	FewShot FewShotConfig `yaml:"few_shot"`
}

// LogConfig controls the root zap logger.
type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Encoding string `yaml:"encoding" env:"LOG_ENCODING" env-default:"console"`
}

// LLMConfig holds the chat completion endpoint settings. Provider selects the
// client implementation; "openai" covers any OpenAI-compatible endpoint.
type LLMConfig struct {
	Provider  string  `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint  string  `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model     string  `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o-mini"`
	APIKey    string  `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	MaxTokens int     `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"768"`
	TopP      float64 `yaml:"top_p" env:"LLM_TOP_P" env-default:"0.9"`
}

// EmbeddingConfig holds the embedding endpoint settings. Only
// OpenAI-compatible embedding APIs are supported.
type EmbeddingConfig struct {
	Endpoint string `yaml:"endpoint" env:"EMBEDDING_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model    string `yaml:"model" env:"EMBEDDING_MODEL" env-default:"text-embedding-3-small"`
	APIKey   string `yaml:"-" env:"EMBEDDING_API_KEY"` // Secret - not in YAML
}

// LinkerConfig tunes schema linking.
type LinkerConfig struct {
	// SemanticTopK is how many columns the semantic index contributes.
	SemanticTopK int `yaml:"semantic_top_k" env:"LINKER_SEMANTIC_TOP_K" env-default:"20"`
	// MinHashPermutations is the signature width shared by profiles and the
	// literal index. Changing it invalidates stored signatures.
	MinHashPermutations int `yaml:"minhash_permutations" env:"LINKER_MINHASH_PERMUTATIONS" env-default:"128"`
	// JaccardThreshold is the LSH similarity cut-off for literal matches.
	JaccardThreshold float64 `yaml:"jaccard_threshold" env:"LINKER_JACCARD_THRESHOLD" env-default:"0.5"`
	// FKClosureHops bounds foreign-key expansion of the focused schema.
	// Only 0 (off) and 1 are supported; deeper closure grows prompts without
	// bound.
	FKClosureHops int `yaml:"fk_closure_hops" env:"LINKER_FK_CLOSURE_HOPS" env-default:"1"`
	// MaxColumnsPerTable caps how many columns one table renders into the
	// schema context.
	MaxColumnsPerTable int `yaml:"max_columns_per_table" env:"LINKER_MAX_COLUMNS_PER_TABLE" env-default:"10"`
	// LongDescriptionLimit truncates long descriptions in the rendered
	// context.
	LongDescriptionLimit int `yaml:"long_description_limit" env:"LINKER_LONG_DESCRIPTION_LIMIT" env-default:"200"`
}

// ProfilerConfig tunes the profiling pass.
type ProfilerConfig struct {
	// TopValuesK is how many frequent values are sampled per column.
	TopValuesK int `yaml:"top_values_k" env:"PROFILER_TOP_VALUES_K" env-default:"10"`
}

// GeneratorConfig tunes candidate generation.
type GeneratorConfig struct {
	// Temperatures defines one generation preset per entry.
	Temperatures []float64 `yaml:"temperatures" env:"GENERATOR_TEMPERATURES" env-separator:"," env-default:"0.1,0.2,0.3,0.4,0.5"`
	// FewShotK is how many worked examples are selected per question.
	FewShotK int `yaml:"few_shot_k" env:"GENERATOR_FEW_SHOT_K" env-default:"3"`
}

// SelectorConfig exposes the majority-vote scoring weights. The defaults bias
// toward schema-grounded, syntactically sound, short queries.
type SelectorConfig struct {
	SelectWeight        int `yaml:"select_weight" env:"SELECTOR_SELECT_WEIGHT" env-default:"1"`
	FromWeight          int `yaml:"from_weight" env:"SELECTOR_FROM_WEIGHT" env-default:"1"`
	FocusedFieldsWeight int `yaml:"focused_fields_weight" env:"SELECTOR_FOCUSED_FIELDS_WEIGHT" env-default:"3"`
	ProperJoinsWeight   int `yaml:"proper_joins_weight" env:"SELECTOR_PROPER_JOINS_WEIGHT" env-default:"2"`
	NoSyntaxErrWeight   int `yaml:"no_syntax_err_weight" env:"SELECTOR_NO_SYNTAX_ERR_WEIGHT" env-default:"2"`
	ComplexityWeight    int `yaml:"complexity_weight" env:"SELECTOR_COMPLEXITY_WEIGHT" env-default:"1"`
	ShortBonus          int `yaml:"short_bonus" env:"SELECTOR_SHORT_BONUS" env-default:"1"`
	LongPenalty         int `yaml:"long_penalty" env:"SELECTOR_LONG_PENALTY" env-default:"1"`
	ShortWordLimit      int `yaml:"short_word_limit" env:"SELECTOR_SHORT_WORD_LIMIT" env-default:"20"`
	LongWordLimit       int `yaml:"long_word_limit" env:"SELECTOR_LONG_WORD_LIMIT" env-default:"50"`
}

// EvaluatorConfig tunes offline evaluation.
type EvaluatorConfig struct {
	// ExecutionTimeoutSeconds bounds each evaluation query.
	ExecutionTimeoutSeconds int `yaml:"execution_timeout_seconds" env:"EVALUATOR_EXECUTION_TIMEOUT_SECONDS" env-default:"10"`
	// Ordered switches result comparison to order-sensitive.
	Ordered bool `yaml:"ordered" env:"EVALUATOR_ORDERED" env-default:"false"`
}

// DatasourceConfig holds the profiling / evaluation target database.
type DatasourceConfig struct {
	// Type selects the adapter: postgres, sqlite, or mssql.
	Type string `yaml:"type" env:"DATASOURCE_TYPE" env-default:"sqlite"`

	// Path is the database file for sqlite targets.
	Path string `yaml:"path" env:"DATASOURCE_PATH" env-default:""`

	Host     string `yaml:"host" env:"DATASOURCE_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DATASOURCE_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DATASOURCE_USER" env-default:""`
	Password string `yaml:"-" env:"DATASOURCE_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"DATASOURCE_DATABASE" env-default:""`
	SSLMode  string `yaml:"ssl_mode" env:"DATASOURCE_SSL_MODE" env-default:"disable"`
}

// FewShotConfig points at the worked-example store.
type FewShotConfig struct {
	Path string `yaml:"path" env:"FEW_SHOT_PATH" env-default:"examples.yaml"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config. Secrets (LLM_API_KEY, DATASOURCE_PASSWORD) must come from
// environment variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations the pipeline cannot honor.
func (c *Config) Validate() error {
	if c.Linker.FKClosureHops != 0 && c.Linker.FKClosureHops != 1 {
		return fmt.Errorf("linker.fk_closure_hops must be 0 or 1, got %d", c.Linker.FKClosureHops)
	}
	if c.Linker.MinHashPermutations <= 0 {
		return fmt.Errorf("linker.minhash_permutations must be positive, got %d", c.Linker.MinHashPermutations)
	}
	if c.Linker.JaccardThreshold <= 0 || c.Linker.JaccardThreshold > 1 {
		return fmt.Errorf("linker.jaccard_threshold must be in (0, 1], got %g", c.Linker.JaccardThreshold)
	}
	if c.Linker.SemanticTopK <= 0 {
		return fmt.Errorf("linker.semantic_top_k must be positive, got %d", c.Linker.SemanticTopK)
	}
	if len(c.Generator.Temperatures) == 0 {
		return fmt.Errorf("generator.temperatures must list at least one preset")
	}
	for _, temp := range c.Generator.Temperatures {
		if temp < 0 || temp > 2 {
			return fmt.Errorf("generator temperature %g out of range [0, 2]", temp)
		}
	}
	if c.Evaluator.ExecutionTimeoutSeconds <= 0 {
		return fmt.Errorf("evaluator.execution_timeout_seconds must be positive, got %d", c.Evaluator.ExecutionTimeoutSeconds)
	}
	switch c.Datasource.Type {
	case "postgres", "sqlite", "mssql", "":
	default:
		return fmt.Errorf("datasource.type %q not supported", c.Datasource.Type)
	}
	return nil
}

// ConnectionString returns the connection string for the configured
// datasource type. For sqlite the connection string is the file path. For the
// server dialects a loopback host is rewritten to host.docker.internal when
// running inside Docker.
func (c *DatasourceConfig) ConnectionString() string {
	switch c.Type {
	case "sqlite":
		return c.Path
	case "mssql":
		return fmt.Sprintf(
			"server=%s;port=%d;user id=%s;password=%s;database=%s",
			ResolveHost(c.Host), c.Port, c.User, c.Password, c.Database,
		)
	default:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			ResolveHost(c.Host), c.Port, c.User, c.Password, c.Database, c.SSLMode,
		)
	}
}
