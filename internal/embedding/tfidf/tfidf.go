package tfidf

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/kljensen/snowball/english"
)

// Config controls the vocabulary the embedder builds.
type Config struct {
	// MaxFeatures caps the vocabulary to the most frequent terms; 0 keeps all.
	MaxFeatures int
	// NGramMax is the longest word n-gram used as a feature (1 = unigrams).
	NGramMax int
	// Stemming reduces words to their English stem before counting.
	Stemming bool
}

// Embedder implements a TF-IDF vectorizer over word n-grams.
// Prepare is called once over the whole corpus; Embed is safe for
// concurrent use afterwards.
type Embedder struct {
	cfg          Config
	vocabulary   map[string]int
	idf          []float64
	dimension    int
	prepared     bool
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewEmbedder creates an unprepared TF-IDF embedder.
func NewEmbedder(cfg Config) *Embedder {
	if cfg.NGramMax <= 0 {
		cfg.NGramMax = 1
	}
	return &Embedder{
		cfg:          cfg,
		vocabulary:   make(map[string]int),
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`),
		stopwords:    defaultStopwords(),
	}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// Prepare builds the vocabulary and IDF values from the provided corpus.
func (e *Embedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF prepare")
	}
	df := make(map[string]int)
	total := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, term := range e.terms(text) {
			total[term]++
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return errors.New("no tokens found in corpus; ensure tokenizer supports your language")
	}
	if e.cfg.MaxFeatures > 0 && len(terms) > e.cfg.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if total[terms[i]] != total[terms[j]] {
				return total[terms[i]] > total[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:e.cfg.MaxFeatures]
	}
	// Stable ordering for vocabulary
	sort.Strings(terms)
	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	N := float64(len(corpus))
	for i, term := range terms {
		e.vocabulary[term] = i
		// Smoothed IDF
		e.idf[i] = math.Log((1+N)/(1+float64(df[term]))) + 1.0
	}
	e.dimension = len(terms)
	e.prepared = true
	return nil
}

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes the L2-normalized TF-IDF vector for the given text.
// Text sharing no vocabulary with the corpus yields the zero vector.
func (e *Embedder) Embed(text string) ([]float64, error) {
	if !e.prepared {
		return nil, errors.New("tfidf embedder not prepared")
	}
	vec := make([]float64, e.dimension)
	tf := make(map[int]int)
	total := 0
	for _, term := range e.terms(text) {
		if idx, ok := e.vocabulary[term]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}
	for idx, count := range tf {
		tfv := float64(count) / float64(total)
		vec[idx] = tfv * e.idf[idx]
	}
	// L2 normalize
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

// terms returns the unigram..NGramMax features of text.
func (e *Embedder) terms(text string) []string {
	tokens := e.tokenize(text)
	if e.cfg.NGramMax == 1 {
		return tokens
	}
	out := make([]string, 0, len(tokens)*e.cfg.NGramMax)
	for n := 1; n <= e.cfg.NGramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			if n == 1 {
				out = append(out, tokens[i])
				continue
			}
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

func (e *Embedder) tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := e.tokenPattern.FindAllString(lower, -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, t := range raw {
		if len([]rune(t)) < 2 {
			continue
		}
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		if e.cfg.Stemming {
			t = english.Stem(t, false)
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"what", "which", "who", "whom", "when", "where", "why", "how", "do", "does", "did", "has", "have", "had", "not", "no", "you", "your", "we", "our", "they", "their", "he", "she", "his", "her", "i", "me", "my", "would", "could", "may", "might", "must", "also", "all", "each", "some", "more", "most", "other",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
