package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"doubtsolver/internal/config"
	"doubtsolver/internal/corpus"
	"doubtsolver/internal/domain"
	"doubtsolver/internal/embedding/openai"
	"doubtsolver/internal/embedding/tfidf"
	"doubtsolver/internal/index"
	"doubtsolver/internal/retrieval"
	"doubtsolver/internal/service"
	"doubtsolver/internal/summarizer"
	"doubtsolver/internal/translate"
	"doubtsolver/internal/vectorstore/bolt"
	"doubtsolver/internal/vectorstore/qdrant"
)

// buildEngine assembles the engine described by c. The returned cleanup
// releases the vector file, if one was opened.
func buildEngine(c *config.AppConfig, log *zap.Logger) (*service.Engine, func(), error) {
	cleanup := func() {}
	loader := corpus.NewLoader(c.Engine.CorpusPath, log)

	var builder index.Builder
	var scorer retrieval.Scorer
	switch c.Scorer.Type {
	case "tfidf", "":
		builder = index.NewLexicalBuilder(tfidfEmbedder(c.Scorer.TFIDF), log)
		scorer = retrieval.NewLexicalScorer()
	case "embedding":
		emb, err := newEmbedder(c.Embedder)
		if err != nil {
			return nil, cleanup, err
		}
		vectors, remote, err := openVectors(c.VectorStore)
		if err != nil {
			return nil, cleanup, err
		}
		if vectors != nil {
			cleanup = func() { _ = vectors.Close() }
		}
		builder = index.NewEmbeddingBuilder(emb, vectors, remote, log)
		scorer = retrieval.NewEmbeddingScorer(c.Engine.TopK)
	default:
		return nil, cleanup, fmt.Errorf("unknown scorer: %s", c.Scorer.Type)
	}

	tr, err := newTranslator(c.Translator, log)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	var sum domain.Summarizer
	switch c.Summarizer.Type {
	case "frequency", "":
		sum = summarizer.NewFrequencySummarizer()
	default:
		cleanup()
		return nil, func() {}, fmt.Errorf("unknown summarizer: %s", c.Summarizer.Type)
	}

	eng, err := service.NewEngine(c.Engine, service.Deps{
		Index:               index.NewLazy(index.FromCorpus(loader, builder), log),
		Scorer:              scorer,
		Translator:          tr,
		Summarizer:          sum,
		SummaryMaxSentences: c.Summarizer.MaxSentences,
		Logger:              log,
	})
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return eng, cleanup, nil
}

func tfidfEmbedder(c config.TFIDFConfig) *tfidf.Embedder {
	return tfidf.NewEmbedder(tfidf.Config{
		MaxFeatures: c.MaxFeatures,
		NGramMax:    c.NGramMax,
		Stemming:    c.Stemming,
	})
}

func newEmbedder(c config.EmbedderConfig) (domain.Embedder, error) {
	switch c.Type {
	case "openai", "":
		oc := config.OpenAIEmbedderConfig{}
		if c.OpenAI != nil {
			oc = *c.OpenAI
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:    oc.BaseURL,
			APIKeyEnv:  oc.APIKeyEnv,
			Model:      oc.Model,
			Timeout:    time.Duration(oc.TimeoutSecs) * time.Second,
			MaxRetries: oc.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", c.Type)
	}
}

// openVectors returns the local vector file for the memory store, or a
// per-grade qdrant factory.
func openVectors(c config.VectorStoreConfig) (*bolt.File, index.RemoteStore, error) {
	switch c.Type {
	case "memory", "bolt", "":
		if err := os.MkdirAll(filepath.Dir(c.BoltPath), 0o755); err != nil {
			return nil, nil, err
		}
		f, err := bolt.Open(c.BoltPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open vector file: %w", err)
		}
		return f, nil, nil
	case "qdrant":
		if c.Qdrant == nil {
			return nil, nil, fmt.Errorf("qdrant config missing")
		}
		q := *c.Qdrant
		remote := func(grade int) domain.VectorStore {
			return qdrant.NewStorage(qdrant.Config{
				URL:        q.URL,
				APIKey:     q.APIKey,
				Collection: qdrant.CollectionName(q.Collection, grade),
				Distance:   q.Distance,
				Timeout:    time.Duration(q.TimeoutSecs) * time.Second,
			})
		}
		return nil, remote, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector store: %s", c.Type)
	}
}

func newTranslator(c config.TranslatorConfig, log *zap.Logger) (*translate.Wrapper, error) {
	timeout := time.Duration(c.TimeoutSecs) * time.Second
	switch c.Type {
	case "none", "":
		return translate.NewWrapper(nil, nil, c.Canonical, timeout, log), nil
	case "libretranslate":
		lt, err := translate.NewLibreTranslate(translate.LibreConfig{
			BaseURL:   c.BaseURL,
			APIKeyEnv: c.APIKeyEnv,
			Timeout:   timeout,
		})
		if err != nil {
			return nil, err
		}
		return translate.NewWrapper(translate.NewLinguaDetector(), lt, c.Canonical, timeout, log), nil
	default:
		return nil, fmt.Errorf("unknown translator: %s", c.Type)
	}
}
