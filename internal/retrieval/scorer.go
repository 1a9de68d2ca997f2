package retrieval

import (
	"context"
	"fmt"
	"math"

	"doubtsolver/internal/domain"
	"doubtsolver/internal/index"
)

// Scorer ranks a grade's chunks against a query. Scores are in [0,1] and
// higher is more relevant. Scoring the same query against the same index
// always yields the same result.
type Scorer interface {
	Name() string
	Score(ctx context.Context, query string, gi *index.GradeIndex) ([]domain.ScoredChunk, error)
}

// LexicalScorer returns a cosine score for every chunk of the grade.
type LexicalScorer struct{}

func NewLexicalScorer() *LexicalScorer { return &LexicalScorer{} }

func (s *LexicalScorer) Name() string { return "tfidf" }

func (s *LexicalScorer) Score(ctx context.Context, query string, gi *index.GradeIndex) ([]domain.ScoredChunk, error) {
	return search(ctx, query, gi, 0)
}

// EmbeddingScorer returns the topK nearest chunks; the rest score 0.
type EmbeddingScorer struct {
	topK int
}

func NewEmbeddingScorer(topK int) *EmbeddingScorer { return &EmbeddingScorer{topK: topK} }

func (s *EmbeddingScorer) Name() string { return "embedding" }

func (s *EmbeddingScorer) Score(ctx context.Context, query string, gi *index.GradeIndex) ([]domain.ScoredChunk, error) {
	return search(ctx, query, gi, s.topK)
}

func search(ctx context.Context, query string, gi *index.GradeIndex, topK int) ([]domain.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec, err := domain.EmbedContext(ctx, gi.Embedder, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	found, err := gi.Store.Search(vec, topK)
	if err != nil {
		return nil, fmt.Errorf("search grade %d: %w", gi.Grade, err)
	}
	out := make([]domain.ScoredChunk, 0, len(found))
	for _, r := range found {
		// Remote stores only echo id and text; reattach the loaded chunk.
		ch, ok := gi.Chunk(r.Row)
		if !ok || ch.ID != r.Chunk.ID {
			row, known := gi.Row(r.Chunk.ID)
			if !known {
				continue
			}
			ch, r.Row = gi.Chunks[row], row
		}
		out = append(out, domain.ScoredChunk{Chunk: ch, Row: r.Row, Score: clamp(r.Score)})
	}
	return out, nil
}

func clamp(score float64) float64 {
	switch {
	case math.IsNaN(score), score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}
