package retrieval

import (
	"context"
	"math"
	"testing"

	"doubtsolver/internal/domain"
	"doubtsolver/internal/embedding/tfidf"
	"doubtsolver/internal/index"
	"doubtsolver/internal/vectorstore/memory"
)

func scored(row int, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{Chunk: domain.Chunk{ID: string(rune('a' + row))}, Row: row, Score: score}
}

func TestSelectorKeepsAboveThreshold(t *testing.T) {
	sel := Selector{TopK: 2, Threshold: 0.3}.Select([]domain.ScoredChunk{
		scored(0, 0.1), scored(1, 0.9), scored(2, 0.5), scored(3, 0.4),
	})
	if sel.Outcome != domain.OutcomeAnswered {
		t.Fatalf("unexpected outcome %s", sel.Outcome)
	}
	if len(sel.Chunks) != 2 || sel.Chunks[0].Row != 1 || sel.Chunks[1].Row != 2 {
		t.Fatalf("unexpected selection %+v", sel.Chunks)
	}
	if sel.MaxScore != 0.9 {
		t.Errorf("unexpected max %f", sel.MaxScore)
	}
}

func TestSelectorFallsBackToBestChunk(t *testing.T) {
	sel := Selector{TopK: 5, Threshold: 0.5}.Select([]domain.ScoredChunk{
		scored(0, 0.05), scored(1, 0.2), scored(2, 0.2),
	})
	if sel.Outcome != domain.OutcomeLowConfidence {
		t.Fatalf("unexpected outcome %s", sel.Outcome)
	}
	if len(sel.Chunks) != 1 || sel.Chunks[0].Row != 1 {
		t.Fatalf("expected lower row to win tie, got %+v", sel.Chunks)
	}
}

func TestSelectorNotFound(t *testing.T) {
	for name, ranked := range map[string][]domain.ScoredChunk{
		"empty":    nil,
		"all zero": {scored(0, 0), scored(1, 0)},
		"nan":      {scored(0, math.NaN())},
		"negative": {scored(0, -0.4)},
	} {
		t.Run(name, func(t *testing.T) {
			sel := Selector{TopK: 3, Threshold: 0}.Select(ranked)
			if sel.Outcome != domain.OutcomeNotFound || len(sel.Chunks) != 0 {
				t.Fatalf("expected not found, got %+v", sel)
			}
		})
	}
}

func TestSelectorIsMonotoneInThreshold(t *testing.T) {
	ranked := []domain.ScoredChunk{scored(0, 0.15), scored(1, 0.35), scored(2, 0.6), scored(3, 0.05)}
	prev := -1
	for _, th := range []float64{0.9, 0.5, 0.3, 0.1, 0} {
		sel := Selector{TopK: 4, Threshold: th}.Select(ranked)
		if len(sel.Chunks) == 0 {
			t.Fatalf("threshold %f selected nothing", th)
		}
		if len(sel.Chunks) < prev {
			t.Fatalf("lowering threshold to %f shrank the selection", th)
		}
		prev = len(sel.Chunks)
	}
}

func lexicalIndex(t *testing.T, texts ...string) *index.GradeIndex {
	t.Helper()
	emb := tfidf.NewEmbedder(tfidf.Config{NGramMax: 2, Stemming: true})
	if err := emb.Prepare(texts); err != nil {
		t.Fatal(err)
	}
	chunks := make([]domain.Chunk, len(texts))
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{ID: string(rune('a' + i)), Text: text}
		vectors[i], _ = emb.Embed(text)
	}
	store := memory.NewStorage()
	_ = store.Init(emb.Dimension())
	if err := store.Upsert(chunks, vectors); err != nil {
		t.Fatal(err)
	}
	return index.NewGradeIndex(5, chunks, store, emb)
}

func TestLexicalScorerSelfRetrieval(t *testing.T) {
	gi := lexicalIndex(t,
		"Fractions represent a part of a whole.",
		"Plants prepare food through photosynthesis.",
		"The water cycle moves water between land and sky.",
	)
	s := NewLexicalScorer()
	for row, ch := range gi.Chunks {
		res, err := s.Score(context.Background(), ch.Text, gi)
		if err != nil {
			t.Fatal(err)
		}
		if len(res) != gi.Len() {
			t.Fatalf("expected a score per chunk, got %d", len(res))
		}
		if res[0].Row != row || math.Abs(res[0].Score-1) > 1e-9 {
			t.Errorf("chunk %d did not retrieve itself: %+v", row, res[0])
		}
		for _, r := range res {
			if r.Score < 0 || r.Score > 1 {
				t.Errorf("score out of range: %f", r.Score)
			}
		}
	}
}

func TestLexicalScorerDeterministicAndUnknownVocabulary(t *testing.T) {
	gi := lexicalIndex(t, "Fractions represent a part of a whole.", "Decimals extend place value.")
	s := NewLexicalScorer()
	a, _ := s.Score(context.Background(), "what is a fraction", gi)
	b, _ := s.Score(context.Background(), "what is a fraction", gi)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic result at %d", i)
		}
	}
	res, err := s.Score(context.Background(), "zzz qqq", gi)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range res {
		if r.Score != 0 {
			t.Fatalf("expected all-zero scores, got %f", r.Score)
		}
	}
}

func TestEmbeddingScorerReattachesChunks(t *testing.T) {
	gi := lexicalIndex(t, "Fractions represent a part of a whole.", "Decimals extend place value.")
	gi.Chunks[0].Metadata = &domain.ChunkMetadata{Subject: "Math"}
	res, err := NewEmbeddingScorer(1).Score(context.Background(), "fractions", gi)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].Chunk.Metadata == nil || res[0].Chunk.Metadata.Subject != "Math" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestScorerHonoursCancellation(t *testing.T) {
	gi := lexicalIndex(t, "Fractions represent a part of a whole.")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLexicalScorer().Score(ctx, "fraction", gi); err == nil {
		t.Fatal("expected context error")
	}
}
