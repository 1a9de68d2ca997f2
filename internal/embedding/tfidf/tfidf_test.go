package tfidf

import (
	"math"
	"testing"
)

func TestEmbedderRequiresPrepare(t *testing.T) {
	e := NewEmbedder(Config{})
	if _, err := e.Embed("anything"); err == nil {
		t.Fatal("expected error before Prepare")
	}
	if err := e.Prepare(nil); err == nil {
		t.Fatal("expected error for empty corpus")
	}
	if err := e.Prepare([]string{"the a of"}); err == nil {
		t.Fatal("expected error for stopword-only corpus")
	}
}

func TestEmbedIsNormalized(t *testing.T) {
	e := NewEmbedder(Config{NGramMax: 2, Stemming: true})
	corpus := []string{
		"Fractions represent a part of a whole.",
		"Plants make food by photosynthesis.",
	}
	if err := e.Prepare(corpus); err != nil {
		t.Fatal(err)
	}
	vec, err := e.Embed(corpus[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != e.Dimension() {
		t.Fatalf("expected dimension %d, got %d", e.Dimension(), len(vec))
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	if math.Abs(norm-1) > 1e-9 {
		t.Errorf("expected unit norm, got %f", norm)
	}
}

func TestEmbedUnknownVocabularyIsZero(t *testing.T) {
	e := NewEmbedder(Config{})
	if err := e.Prepare([]string{"photosynthesis chlorophyll sunlight"}); err != nil {
		t.Fatal(err)
	}
	vec, err := e.Embed("volcano eruption")
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("expected zero vector, got %f at %d", v, i)
		}
	}
}

func TestStemmingMatchesPlurals(t *testing.T) {
	e := NewEmbedder(Config{NGramMax: 2, Stemming: true})
	if err := e.Prepare([]string{"Fractions represent a part of a whole."}); err != nil {
		t.Fatal(err)
	}
	q, _ := e.Embed("What is a fraction?")
	d, _ := e.Embed("Fractions represent a part of a whole.")
	if dot(q, d) < 0.1 {
		t.Errorf("expected stemmed query to match, cosine=%f", dot(q, d))
	}
}

func TestMaxFeaturesKeepsMostFrequent(t *testing.T) {
	e := NewEmbedder(Config{MaxFeatures: 2})
	corpus := []string{
		"water water water soil",
		"water soil soil",
		"rock",
	}
	if err := e.Prepare(corpus); err != nil {
		t.Fatal(err)
	}
	if e.Dimension() != 2 {
		t.Fatalf("expected 2 features, got %d", e.Dimension())
	}
	if _, ok := e.vocabulary["rock"]; ok {
		t.Error("least frequent term should be dropped")
	}
}

func TestBigramsAreFeatures(t *testing.T) {
	e := NewEmbedder(Config{NGramMax: 2})
	if err := e.Prepare([]string{"solar system planets"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.vocabulary["solar system"]; !ok {
		t.Errorf("expected bigram in vocabulary, got %v", e.vocabulary)
	}
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
