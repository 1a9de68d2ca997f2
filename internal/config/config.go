package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate for unusable settings.
var ErrInvalid = errors.New("invalid config")

// EngineConfig is the retrieval surface: where the corpus lives and how
// selective answers are.
type EngineConfig struct {
	CorpusPath          string  `yaml:"corpus_path"`
	TopK                int     `yaml:"top_k"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// Validate checks the engine settings.
func (c EngineConfig) Validate() error {
	if c.CorpusPath == "" {
		return fmt.Errorf("%w: engine.corpus_path is required", ErrInvalid)
	}
	if c.TopK < 1 {
		return fmt.Errorf("%w: engine.top_k must be at least 1, got %d", ErrInvalid, c.TopK)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: engine.confidence_threshold must be in [0,1], got %g", ErrInvalid, c.ConfidenceThreshold)
	}
	return nil
}

// TFIDFConfig configures the lexical vectorizer.
type TFIDFConfig struct {
	MaxFeatures int  `yaml:"max_features"`
	NGramMax    int  `yaml:"ngram_max"`
	Stemming    bool `yaml:"stemming"`
}

// ScorerConfig selects the similarity strategy: "tfidf" or "embedding".
type ScorerConfig struct {
	Type  string      `yaml:"type"`
	TFIDF TFIDFConfig `yaml:"tfidf"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// EmbedderConfig selects and configures the embedder used by the embedding scorer.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
// Collection is a prefix; each grade gets "<prefix>_grade_<n>".
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	Distance    string `yaml:"distance"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects where embedding vectors are searched.
type VectorStoreConfig struct {
	Type     string        `yaml:"type"`
	BoltPath string        `yaml:"bolt_path"`
	Qdrant   *QdrantConfig `yaml:"qdrant,omitempty"`
}

// TranslatorConfig selects the translation backend: "none" or "libretranslate".
type TranslatorConfig struct {
	Type        string `yaml:"type"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	Canonical   string `yaml:"canonical"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// ServerConfig configures the HTTP adapter.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Engine      EngineConfig      `yaml:"engine"`
	Scorer      ScorerConfig      `yaml:"scorer"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Translator  TranslatorConfig  `yaml:"translator"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults. Environment overrides are applied last.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			if err := applyEnv(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/doubtsolver/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	if err := Save(userPath, defaultConfig()); err != nil {
		return nil, "", err
	}
	cfg, err := Load(userPath)
	return cfg, userPath, err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "doubtsolver", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Engine: EngineConfig{CorpusPath: "./chunks", TopK: 5, ConfidenceThreshold: 0.1},
		Scorer: ScorerConfig{
			Type:  "tfidf",
			TFIDF: TFIDFConfig{MaxFeatures: 10000, NGramMax: 2, Stemming: true},
		},
		Embedder:    EmbedderConfig{Type: "openai"},
		VectorStore: VectorStoreConfig{Type: "memory", BoltPath: "./embeddings/vectors.db"},
		Translator:  TranslatorConfig{Type: "none", TimeoutSecs: 10, Canonical: "en"},
		Summarizer:  SummarizerConfig{Type: "frequency", MaxSentences: 3},
		Server:      ServerConfig{Addr: ":5000"},
		Logging:     LoggingConfig{Level: "info"},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Scorer.Type == "" {
		cfg.Scorer.Type = "tfidf"
	}
	if cfg.Scorer.TFIDF.NGramMax == 0 {
		cfg.Scorer.TFIDF.NGramMax = 2
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.MaxRetries == 0 {
			cfg.Embedder.OpenAI.MaxRetries = 5
		}
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant != nil {
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "ncert"
		}
		if cfg.VectorStore.Qdrant.Distance == "" {
			cfg.VectorStore.Qdrant.Distance = "Cosine"
		}
	}
	if cfg.Translator.Type == "" {
		cfg.Translator.Type = "none"
	}
	if cfg.Translator.Canonical == "" {
		cfg.Translator.Canonical = "en"
	}
	if cfg.Translator.TimeoutSecs == 0 {
		cfg.Translator.TimeoutSecs = 10
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 3
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":5000"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// applyEnv lets the environment (and a .env file loaded into it) override
// the file.
func applyEnv(cfg *AppConfig) error {
	if v := os.Getenv("CHUNKS_PATH"); v != "" {
		cfg.Engine.CorpusPath = v
	}
	if v := os.Getenv("TOP_K_RESULTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: TOP_K_RESULTS=%q: %v", ErrInvalid, v, err)
		}
		cfg.Engine.TopK = n
	}
	if v := os.Getenv("CONFIDENCE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: CONFIDENCE_THRESHOLD=%q: %v", ErrInvalid, v, err)
		}
		cfg.Engine.ConfidenceThreshold = f
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	return nil
}
