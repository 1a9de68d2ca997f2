package index

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"doubtsolver/internal/corpus"
	"doubtsolver/internal/domain"
	"doubtsolver/internal/vectorstore/bolt"
	"doubtsolver/internal/vectorstore/memory"
)

// Builder turns a loaded corpus into searchable per-grade indexes.
type Builder interface {
	Build(ctx context.Context, c *corpus.Corpus) (*Set, error)
}

// LexicalBuilder fits one vectorizer over every grade's text, then
// transforms each grade into its own in-memory matrix.
type LexicalBuilder struct {
	embedder domain.Embedder
	logger   *zap.Logger
}

func NewLexicalBuilder(embedder domain.Embedder, logger *zap.Logger) *LexicalBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LexicalBuilder{embedder: embedder, logger: logger}
}

func (b *LexicalBuilder) Build(ctx context.Context, c *corpus.Corpus) (*Set, error) {
	grades := c.SortedGrades()
	if len(grades) == 0 {
		return NewSet(), nil
	}
	var texts []string
	for _, g := range grades {
		for _, ch := range c.Grades[g] {
			texts = append(texts, ch.Text)
		}
	}
	if err := b.embedder.Prepare(texts); err != nil {
		return nil, fmt.Errorf("fit vectorizer: %w", err)
	}
	dim := b.embedder.Dimension()

	var mu sync.Mutex
	built := make([]*GradeIndex, 0, len(grades))
	eg, ctx := errgroup.WithContext(ctx)
	for _, g := range grades {
		g := g
		eg.Go(func() error {
			chunks := c.Grades[g]
			vectors := make([][]float64, len(chunks))
			for i, ch := range chunks {
				if err := ctx.Err(); err != nil {
					return err
				}
				v, err := b.embedder.Embed(ch.Text)
				if err != nil {
					return fmt.Errorf("grade %d row %d: %w", g, i, err)
				}
				vectors[i] = v
			}
			store := memory.NewStorage()
			if err := store.Init(dim); err != nil {
				return err
			}
			if err := store.Upsert(chunks, vectors); err != nil {
				return fmt.Errorf("grade %d: %w", g, err)
			}
			mu.Lock()
			built = append(built, NewGradeIndex(g, chunks, store, b.embedder))
			mu.Unlock()
			b.logger.Info("grade index built", zap.Int("grade", g), zap.Int("chunks", len(chunks)), zap.Int("features", dim))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return NewSet(built...), nil
}

// RemoteStore returns the remote vector store holding a grade's vectors.
type RemoteStore func(grade int) domain.VectorStore

// EmbeddingBuilder attaches precomputed vectors to each grade. Vectors come
// from the bbolt vector file, or already live in a remote store.
type EmbeddingBuilder struct {
	embedder domain.Embedder
	vectors  *bolt.File
	remote   RemoteStore
	logger   *zap.Logger
}

// NewEmbeddingBuilder needs either a vector file or a remote store factory.
func NewEmbeddingBuilder(embedder domain.Embedder, vectors *bolt.File, remote RemoteStore, logger *zap.Logger) *EmbeddingBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmbeddingBuilder{embedder: embedder, vectors: vectors, remote: remote, logger: logger}
}

func (b *EmbeddingBuilder) Build(ctx context.Context, c *corpus.Corpus) (*Set, error) {
	if b.vectors == nil && b.remote == nil {
		return nil, errors.New("embedding index needs a vector file or a remote store")
	}
	var built []*GradeIndex
	for _, g := range c.SortedGrades() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks := c.Grades[g]
		if b.remote != nil {
			built = append(built, NewGradeIndex(g, chunks, b.remote(g), b.embedder))
			continue
		}
		stored, err := b.vectors.LoadGrade(g)
		if errors.Is(err, bolt.ErrNoGrade) {
			b.logger.Warn("no precomputed vectors for grade", zap.Int("grade", g))
			continue
		}
		if err != nil {
			b.logger.Warn("cannot read grade vectors", zap.Int("grade", g), zap.Error(err))
			continue
		}
		if stored.Model != b.embedder.Name() {
			b.logger.Warn("grade vectors built with a different model",
				zap.Int("grade", g), zap.String("stored", stored.Model), zap.String("configured", b.embedder.Name()))
			continue
		}
		if !sameIDs(chunks, stored.IDs) {
			b.logger.Warn("grade vectors are stale for the corpus, rerun index", zap.Int("grade", g))
			continue
		}
		store := memory.NewStorage()
		if err := store.Init(stored.Dimension); err != nil {
			b.logger.Warn("invalid grade vectors", zap.Int("grade", g), zap.Error(err))
			continue
		}
		if err := store.Upsert(chunks, stored.Vectors); err != nil {
			b.logger.Warn("invalid grade vectors", zap.Int("grade", g), zap.Error(err))
			continue
		}
		built = append(built, NewGradeIndex(g, chunks, store, b.embedder))
		b.logger.Info("grade vectors loaded", zap.Int("grade", g), zap.Int("chunks", len(chunks)))
	}
	return NewSet(built...), nil
}

func sameIDs(chunks []domain.Chunk, ids []string) bool {
	if len(chunks) != len(ids) {
		return false
	}
	for i := range chunks {
		if chunks[i].ID != ids[i] {
			return false
		}
	}
	return true
}
