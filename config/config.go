package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for rdb.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Refiner   RefinerConfig   `yaml:"refiner"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// CorpusConfig describes where pre-chunked documentation lives.
type CorpusConfig struct {
	Dir      string   `yaml:"dir"`      // directory holding chunk JSON files
	Includes []string `yaml:"includes"` // doublestar patterns relative to Dir
	Excludes []string `yaml:"excludes"`
}

// IndexConfig holds vector index persistence settings.
type IndexConfig struct {
	Dir      string `yaml:"dir"`       // directory for index artifacts
	BaseName string `yaml:"base_name"` // artifact base name, e.g. "rdb" -> rdb_index.db + rdb_metadata.json
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider      string `yaml:"provider"`    // "openai", "jina", "ollama", "mock"
	Model         string `yaml:"model"`       // e.g. "text-embedding-3-small"
	APIKeyEnv     string `yaml:"api_key_env"` // environment variable for API key
	BaseURL       string `yaml:"base_url"`    // override for ollama/local endpoints
	Dimension     int    `yaml:"dimension"`
	BatchSize     int    `yaml:"batch_size"`
	QueryPrefix   string `yaml:"query_prefix"`   // e5-style "query: " prefix
	PassagePrefix string `yaml:"passage_prefix"` // e5-style "passage: " prefix
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK              int     `yaml:"top_k"`
	OverfetchFactor   int     `yaml:"overfetch_factor"` // candidate multiplier when dedup is on
	Deduplicate       bool    `yaml:"deduplicate"`
	MinScoreThreshold float64 `yaml:"min_score_threshold"` // filter results below this score (0 = disabled)
	CacheSize         int     `yaml:"cache_size"`          // query cache entries (0 = disabled)
	CacheTTLSeconds   int     `yaml:"cache_ttl_seconds"`
}

// RefinerConfig holds query refinement configuration.
type RefinerConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Provider       string  `yaml:"provider"` // "openai", "deepseek", "local"
	Model          string  `yaml:"model"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	BaseURL        string  `yaml:"base_url"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// ScoringConfig holds the multiplicative boost constants and heuristic
// tables. Every multiplier must stay strictly positive; a zero value in the
// file falls back to the default.
type ScoringConfig struct {
	AuthoritySpecificBoost float64 `yaml:"authority_specific_boost"` // canonical config/install pages
	AuthorityGeneralBoost  float64 `yaml:"authority_general_boost"`  // general guide pages
	TopicBoost             float64 `yaml:"topic_boost"`
	TopicContentWindow     int     `yaml:"topic_content_window"` // chars of content scanned for topic terms
	ComprehensiveBoost     float64 `yaml:"comprehensive_boost"`
	ComprehensiveMinHits   int     `yaml:"comprehensive_min_hits"`
	QualityLongBoost       float64 `yaml:"quality_long_boost"`
	QualityLongThreshold   int     `yaml:"quality_long_threshold"`
	QualityMediumBoost     float64 `yaml:"quality_medium_boost"`
	QualityMediumThreshold int     `yaml:"quality_medium_threshold"`
	ActionVerbBoost        float64 `yaml:"action_verb_boost"`
	ActionVerbMinHits      int     `yaml:"action_verb_min_hits"`
	CodeBoost              float64 `yaml:"code_boost"`
	OverviewLargeBoost     float64 `yaml:"overview_large_boost"`
	OverviewMediumBoost    float64 `yaml:"overview_medium_boost"`
	OverviewSmallFactor    float64 `yaml:"overview_small_factor"` // slight penalty, still positive
	NarrowSmallBoost       float64 `yaml:"narrow_small_boost"`
	RefinedMatchCeiling    float64 `yaml:"refined_match_ceiling"`  // max extra boost from refined-query title overlap
	OriginalMatchCeiling   float64 `yaml:"original_match_ceiling"` // max extra boost from original-query title overlap

	// Heuristic tables. Empty values fall back to the built-in defaults.
	AuthorityTitles []string            `yaml:"authority_titles,omitempty"`
	GuidePatterns   []string            `yaml:"guide_patterns,omitempty"`
	TopicClusters   map[string][]string `yaml:"topic_clusters,omitempty"`
	IndicatorWords  []string            `yaml:"indicator_words,omitempty"`
	ActionVerbs     []string            `yaml:"action_verbs,omitempty"`
	OverviewWords   []string            `yaml:"overview_words,omitempty"`
	ShellTokens     []string            `yaml:"shell_tokens,omitempty"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Dir:      "data/chunks",
			Includes: []string{"**/*.json"},
			Excludes: []string{"**/.*"},
		},
		Index: IndexConfig{
			Dir:      "data/index",
			BaseName: "rdb",
		},
		Embedding: EmbeddingConfig{
			Provider:      "openai",
			Model:         "text-embedding-3-small",
			APIKeyEnv:     "OPENAI_API_KEY",
			Dimension:     1536,
			BatchSize:     100,
			QueryPrefix:   "query: ",
			PassagePrefix: "passage: ",
		},
		Retrieve: RetrieveConfig{
			TopK:            5,
			OverfetchFactor: 3,
			Deduplicate:     true,
			CacheSize:       100,
			CacheTTLSeconds: 300,
		},
		Refiner: RefinerConfig{
			Enabled:        false,
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			APIKeyEnv:      "OPENAI_API_KEY",
			MaxTokens:      60,
			Temperature:    0.7,
			TimeoutSeconds: 30,
		},
		Scoring: ScoringConfig{
			AuthoritySpecificBoost: 1.5,
			AuthorityGeneralBoost:  1.3,
			TopicBoost:             1.2,
			TopicContentWindow:     300,
			ComprehensiveBoost:     1.25,
			ComprehensiveMinHits:   2,
			QualityLongBoost:       1.15,
			QualityLongThreshold:   1000,
			QualityMediumBoost:     1.1,
			QualityMediumThreshold: 500,
			ActionVerbBoost:        1.05,
			ActionVerbMinHits:      2,
			CodeBoost:              1.05,
			OverviewLargeBoost:     1.15,
			OverviewMediumBoost:    1.1,
			OverviewSmallFactor:    0.95,
			NarrowSmallBoost:       1.05,
			RefinedMatchCeiling:    0.5,
			OriginalMatchCeiling:   0.3,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for rdb.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "rdb.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".rdb", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexPaths returns the vector index and metadata artifact paths.
func (c *Config) IndexPaths() (indexPath, metadataPath string) {
	indexPath = filepath.Join(c.Index.Dir, c.Index.BaseName+"_index.db")
	metadataPath = filepath.Join(c.Index.Dir, c.Index.BaseName+"_metadata.json")
	return indexPath, metadataPath
}

// HistoryDBPath returns the path to the search history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Index.Dir, "history.db")
}
