package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	if cfg.Engine.CorpusPath != "./chunks" {
		t.Errorf("expected ./chunks, got %s", cfg.Engine.CorpusPath)
	}
	if cfg.Engine.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Engine.TopK)
	}
	if cfg.Engine.ConfidenceThreshold != 0.1 {
		t.Errorf("expected threshold 0.1, got %f", cfg.Engine.ConfidenceThreshold)
	}
	if cfg.Scorer.TFIDF.MaxFeatures != 10000 || cfg.Scorer.TFIDF.NGramMax != 2 {
		t.Errorf("unexpected tfidf defaults %+v", cfg.Scorer.TFIDF)
	}
	if err := cfg.Engine.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
engine:
  corpus_path: /data/chunks
  top_k: 3
scorer:
  type: embedding
embedder:
  type: openai
  openai:
    model: nomic-embed-text
vector_store:
  type: qdrant
  qdrant:
    url: http://localhost:6333
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine.CorpusPath != "/data/chunks" || cfg.Engine.TopK != 3 {
		t.Errorf("unexpected engine %+v", cfg.Engine)
	}
	if cfg.Engine.ConfidenceThreshold != 0.1 {
		t.Errorf("unset threshold should keep default, got %f", cfg.Engine.ConfidenceThreshold)
	}
	if cfg.Embedder.OpenAI.Model != "nomic-embed-text" || cfg.Embedder.OpenAI.TimeoutSecs != 30 {
		t.Errorf("unexpected embedder %+v", cfg.Embedder.OpenAI)
	}
	if cfg.VectorStore.Qdrant.Collection != "ncert" || cfg.VectorStore.Qdrant.Distance != "Cosine" {
		t.Errorf("unexpected qdrant defaults %+v", cfg.VectorStore.Qdrant)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("engine: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHUNKS_PATH", "/env/chunks")
	t.Setenv("TOP_K_RESULTS", "7")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.25")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SERVER_ADDR", ":8080")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.CorpusPath != "/env/chunks" || cfg.Engine.TopK != 7 || cfg.Engine.ConfidenceThreshold != 0.25 {
		t.Errorf("unexpected engine %+v", cfg.Engine)
	}
	if cfg.Logging.Level != "debug" || cfg.Server.Addr != ":8080" {
		t.Errorf("unexpected overrides %+v %+v", cfg.Logging, cfg.Server)
	}

	t.Setenv("TOP_K_RESULTS", "many")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []EngineConfig{
		{CorpusPath: "", TopK: 5, ConfidenceThreshold: 0.1},
		{CorpusPath: "x", TopK: 0, ConfidenceThreshold: 0.1},
		{CorpusPath: "x", TopK: 5, ConfidenceThreshold: -0.1},
		{CorpusPath: "x", TopK: 5, ConfidenceThreshold: 1.1},
	}
	for _, c := range cases {
		if err := c.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("expected ErrInvalid for %+v, got %v", c, err)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Engine.TopK = 9
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Engine.TopK != 9 {
		t.Errorf("expected TopK=9, got %d", loaded.Engine.TopK)
	}
}
