package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"doubtsolver/internal/answer"
	"doubtsolver/internal/config"
	"doubtsolver/internal/domain"
)

const gradeSix = `{"id":"6__Math__p12__c0","text":"Fractions represent a part of a whole.","metadata":{"grade":"6","subject":"Math","chapter":"Fractions","page_no":12}}
{"id":"6__Science__p3__c1","text":"Plants prepare food through photosynthesis in their leaves."}
{"id":"6__Science__p4__c2","text":"The water cycle moves water between the land and the sky."}
`

// keywordEmbeddings serves one-hot vectors keyed on a few topic words.
func keywordEmbeddings(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		v := []float64{0, 0, 0, 1}
		text := strings.ToLower(req.Input)
		for i, word := range []string{"fraction", "plant", "water"} {
			if strings.Contains(text, word) {
				v = []float64{0, 0, 0, 0}
				v[i] = 1
				break
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{{"embedding": v}}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, scorer, embedURL string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	corpusDir := filepath.Join(dir, "chunks")
	if err := os.MkdirAll(corpusDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(corpusDir, "class_6_chunks.jsonl"), []byte(gradeSix), 0o644); err != nil {
		t.Fatal(err)
	}
	yaml := `engine:
  corpus_path: ` + corpusDir + `
  top_k: 3
  confidence_threshold: 0.1
scorer:
  type: ` + scorer + `
  tfidf:
    max_features: 1000
    ngram_max: 2
    stemming: true
embedder:
  type: openai
  openai:
    base_url: ` + embedURL + `
    model: keyword
    timeout_secs: 5
vector_store:
  type: memory
  bolt_path: ` + filepath.Join(dir, "embeddings", "vectors.db") + `
logging:
  level: error
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	return path, dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	askJSON, askImageText = false, ""
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestAskTFIDF(t *testing.T) {
	path, _ := writeConfig(t, "tfidf", "http://127.0.0.1:1")
	out, err := execute(t, "--config", path, "ask", "-g", "6", "-q", "What is a fraction?", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var resp domain.Response
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if resp.Outcome != domain.OutcomeAnswered || !strings.Contains(resp.Answer, "Fractions represent") {
		t.Errorf("unexpected response %+v", resp)
	}
	if len(resp.Citations) != 1 || resp.Citations[0].Page != "12" {
		t.Errorf("citations = %+v", resp.Citations)
	}

	out, err = execute(t, "--config", path, "ask", "-g", "9", "-q", "What is a fraction?")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, answer.NotFoundMessage) {
		t.Errorf("expected the not-found message, got %q", out)
	}
	if strings.Contains(out, "Sources") {
		t.Errorf("not-found answer should list no sources: %q", out)
	}
}

func TestGrades(t *testing.T) {
	path, _ := writeConfig(t, "tfidf", "http://127.0.0.1:1")
	out, err := execute(t, "--config", path, "grades")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "GRADE") || !strings.Contains(out, "6      3") {
		t.Errorf("unexpected grades output:\n%s", out)
	}
}

func TestIndexThenAskWithEmbeddings(t *testing.T) {
	srv := keywordEmbeddings(t)
	path, dir := writeConfig(t, "embedding", srv.URL)

	out, err := execute(t, "--config", path, "index")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Embedding 3 chunks across 1 grades") {
		t.Errorf("unexpected index output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "embeddings", "vectors.db")); err != nil {
		t.Fatalf("vector file not written: %v", err)
	}

	out, err = execute(t, "--config", path, "ask", "-g", "6", "-q", "Tell me about plants", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var resp domain.Response
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if resp.Outcome != domain.OutcomeAnswered || !strings.Contains(resp.Answer, "photosynthesis") {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestBuildEngineRejectsUnknownComponents(t *testing.T) {
	logger := zaptest.NewLogger(t)
	base := config.AppConfig{
		Engine:     config.EngineConfig{CorpusPath: t.TempDir(), TopK: 3, ConfidenceThreshold: 0.1},
		Scorer:     config.ScorerConfig{Type: "tfidf"},
		Translator: config.TranslatorConfig{Type: "none"},
		Summarizer: config.SummarizerConfig{Type: "frequency"},
	}

	bad := base
	bad.Scorer.Type = "bm25"
	if _, _, err := buildEngine(&bad, logger); err == nil {
		t.Error("expected error for unknown scorer")
	}
	bad = base
	bad.Translator.Type = "babelfish"
	if _, _, err := buildEngine(&bad, logger); err == nil {
		t.Error("expected error for unknown translator")
	}
	bad = base
	bad.Translator = config.TranslatorConfig{Type: "libretranslate"}
	if _, _, err := buildEngine(&bad, logger); err == nil {
		t.Error("expected error for libretranslate without a base url")
	}

	eng, cleanup, err := buildEngine(&base, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	if got := eng.Grades(context.Background()); len(got) != 0 {
		t.Errorf("empty corpus should index no grades, got %v", got)
	}
}
