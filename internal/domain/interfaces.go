package domain

import "context"

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(text string) ([]float64, error)
}

// ContextEmbedder is implemented by embedders that call out to a service
// and can stop when the caller's context is done.
type ContextEmbedder interface {
	EmbedContext(ctx context.Context, text string) ([]float64, error)
}

// EmbedContext embeds text with e, honouring ctx when e supports it.
func EmbedContext(ctx context.Context, e Embedder, text string) ([]float64, error) {
	if ce, ok := e.(ContextEmbedder); ok {
		return ce.EmbedContext(ctx, text)
	}
	return e.Embed(text)
}

// VectorStore holds one grade's vectors and supports similarity search.
// A topK <= 0 asks for every stored row.
type VectorStore interface {
	Init(dimension int) error
	Upsert(chunks []Chunk, vectors [][]float64) error
	Search(vector []float64, topK int) ([]ScoredChunk, error)
	Clear() error
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// LanguageDetector guesses the ISO 639-1 code of a text.
type LanguageDetector interface {
	Detect(text string) (code string, ok bool)
}

// Translator translates text between two ISO 639-1 language codes.
type Translator interface {
	Name() string
	Translate(ctx context.Context, text, source, target string) (string, error)
}
