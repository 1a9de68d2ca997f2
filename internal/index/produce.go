package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"doubtsolver/internal/corpus"
	"doubtsolver/internal/domain"
	"doubtsolver/internal/vectorstore/bolt"
)

// Producer embeds every chunk of the corpus and persists the vectors per
// grade, so the embedding index can be loaded without re-embedding.
type Producer struct {
	embedder domain.Embedder
	vectors  *bolt.File
	remote   RemoteStore
	logger   *zap.Logger
	// Progress, when set, is called once per embedded chunk.
	Progress func()
}

func NewProducer(embedder domain.Embedder, vectors *bolt.File, remote RemoteStore, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{embedder: embedder, vectors: vectors, remote: remote, logger: logger}
}

// Produce writes each grade to the vector file and, when configured,
// replaces the grade's remote collection.
func (p *Producer) Produce(ctx context.Context, c *corpus.Corpus) error {
	texts := make([]string, 0, c.Len())
	for _, g := range c.SortedGrades() {
		for _, ch := range c.Grades[g] {
			texts = append(texts, ch.Text)
		}
	}
	if err := p.embedder.Prepare(texts); err != nil {
		return fmt.Errorf("prepare embedder: %w", err)
	}
	for _, g := range c.SortedGrades() {
		chunks := c.Grades[g]
		ids := make([]string, len(chunks))
		vectors := make([][]float64, len(chunks))
		for i, ch := range chunks {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := domain.EmbedContext(ctx, p.embedder, ch.Text)
			if err != nil {
				return fmt.Errorf("embed grade %d chunk %s: %w", g, ch.ID, err)
			}
			ids[i] = ch.ID
			vectors[i] = v
			if p.Progress != nil {
				p.Progress()
			}
		}
		if p.vectors != nil {
			if err := p.vectors.PutGrade(g, p.embedder.Name(), ids, vectors); err != nil {
				return fmt.Errorf("write grade %d vectors: %w", g, err)
			}
		}
		if p.remote != nil && len(vectors) > 0 {
			store := p.remote(g)
			if err := store.Clear(); err != nil {
				return fmt.Errorf("clear grade %d collection: %w", g, err)
			}
			if err := store.Init(len(vectors[0])); err != nil {
				return fmt.Errorf("create grade %d collection: %w", g, err)
			}
			if err := store.Upsert(chunks, vectors); err != nil {
				return fmt.Errorf("upsert grade %d: %w", g, err)
			}
		}
		p.logger.Info("grade embedded", zap.Int("grade", g), zap.Int("chunks", len(chunks)))
	}
	return nil
}
