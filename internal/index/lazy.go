package index

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"doubtsolver/internal/corpus"
)

// BuildFunc produces the full index set.
type BuildFunc func(ctx context.Context) (*Set, error)

// FromCorpus loads the corpus with loader and indexes it with builder.
func FromCorpus(loader *corpus.Loader, builder Builder) BuildFunc {
	return func(ctx context.Context) (*Set, error) {
		c, err := loader.Load()
		if err != nil {
			return nil, fmt.Errorf("load corpus: %w", err)
		}
		return builder.Build(ctx, c)
	}
}

// Lazy builds the index set exactly once on first use. Concurrent first
// callers block on the same build and never observe a partial set.
type Lazy struct {
	once   sync.Once
	build  BuildFunc
	logger *zap.Logger
	set    *Set
	err    error
}

func NewLazy(build BuildFunc, logger *zap.Logger) *Lazy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lazy{build: build, logger: logger}
}

// Get returns the index set, building it on the first call. A failed build
// is logged and yields an empty set, so every lookup misses.
func (l *Lazy) Get(ctx context.Context) *Set {
	l.once.Do(func() {
		// The first caller's cancellation must not poison the shared build.
		set, err := l.build(context.WithoutCancel(ctx))
		if err != nil {
			l.logger.Error("index build failed, serving without corpus", zap.Error(err))
			l.err = err
			set = NewSet()
		}
		l.set = set
	})
	return l.set
}

// Err reports the build error, if the build has run and failed.
func (l *Lazy) Err() error {
	return l.err
}
