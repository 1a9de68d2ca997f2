package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"doubtsolver/internal/answer"
	"doubtsolver/internal/config"
	"doubtsolver/internal/conversation"
	"doubtsolver/internal/domain"
	"doubtsolver/internal/index"
	"doubtsolver/internal/retrieval"
	"doubtsolver/internal/translate"
)

// ErrUnknownGrade is returned for a grade with no indexed corpus.
var ErrUnknownGrade = errors.New("grade not indexed")

// overviewChunkLimit bounds how much of a grade is summarized.
const overviewChunkLimit = 200

// Deps are the collaborators of an Engine. Index and Scorer are required.
type Deps struct {
	Index               *index.Lazy
	Scorer              retrieval.Scorer
	Translator          *translate.Wrapper
	Conversations       *conversation.Store
	Summarizer          domain.Summarizer
	SummaryMaxSentences int
	Logger              *zap.Logger
}

// Engine answers grade-scoped questions from the textbook corpus. It is
// safe for concurrent use.
type Engine struct {
	cfg          config.EngineConfig
	index        *index.Lazy
	scorer       retrieval.Scorer
	selector     retrieval.Selector
	synth        *answer.Synthesizer
	translator   *translate.Wrapper
	convs        *conversation.Store
	summarizer   domain.Summarizer
	maxSentences int
	logger       *zap.Logger
	overviews    sync.Map // grade -> string
}

// NewEngine validates cfg and assembles the engine. cfg is copied and
// never changes afterwards.
func NewEngine(cfg config.EngineConfig, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Index == nil || deps.Scorer == nil {
		return nil, errors.New("engine needs an index and a scorer")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Translator == nil {
		deps.Translator = translate.NewWrapper(nil, nil, translate.Canonical, 0, deps.Logger)
	}
	if deps.Conversations == nil {
		deps.Conversations = conversation.NewStore()
	}
	return &Engine{
		cfg:          cfg,
		index:        deps.Index,
		scorer:       deps.Scorer,
		selector:     retrieval.Selector{TopK: cfg.TopK, Threshold: cfg.ConfidenceThreshold},
		synth:        answer.NewSynthesizer(),
		translator:   deps.Translator,
		convs:        deps.Conversations,
		summarizer:   deps.Summarizer,
		maxSentences: deps.SummaryMaxSentences,
		logger:       deps.Logger,
	}, nil
}

// Config returns the engine settings.
func (e *Engine) Config() config.EngineConfig { return e.cfg }

// Query answers one question. It never fails: every error degrades to the
// generic not-found response, which is not translated.
func (e *Engine) Query(ctx context.Context, q domain.QueryContext) domain.Response {
	log := e.logger.With(zap.Int("grade", q.Grade), zap.String("subject", q.Subject))
	if strings.TrimSpace(q.Question) == "" {
		return e.notFound(q, translate.OutcomeSkipped)
	}
	norm := e.translator.Normalize(ctx, q.Question)
	if norm.Outcome == translate.OutcomeDegraded {
		log.Warn("question kept in its original language", zap.String("detected", norm.Detected))
	}

	gi, ok := e.index.Get(ctx).Lookup(q.Grade)
	if !ok {
		log.Warn("no index for grade")
		return e.notFound(q, norm.Outcome)
	}
	ranked, err := e.scorer.Score(ctx, norm.Question, gi)
	if err != nil {
		log.Error("scoring failed", zap.String("scorer", e.scorer.Name()), zap.Error(err))
		return e.notFound(q, norm.Outcome)
	}
	sel := e.selector.Select(ranked)
	if sel.Outcome == domain.OutcomeNotFound {
		log.Info("no relevant chunks")
		return e.notFound(q, norm.Outcome)
	}
	if sel.Outcome == domain.OutcomeLowConfidence {
		log.Info("nothing above threshold, answering from best chunk", zap.Float64("score", sel.MaxScore))
	}

	restored := e.translator.Restore(ctx, e.synth.Answer(sel.Chunks, q.Grade), q.Language)
	if restored.Outcome == translate.OutcomeDegraded {
		log.Warn("answer kept in canonical language", zap.String("requested", q.Language))
	}
	resp := domain.Response{
		Answer:      restored.Answer,
		Citations:   e.synth.Citations(sel.Chunks),
		Confidence:  answer.Confidence(sel.Chunks),
		Language:    translate.LanguageName(restored.Language),
		Outcome:     sel.Outcome,
		Translation: translate.Combine(norm.Outcome, restored.Outcome),
		Metadata:    domain.ResponseMetadata{Grade: q.Grade, Subject: q.Subject, NumSources: len(sel.Chunks)},
	}
	log.Debug("answered",
		zap.String("outcome", string(resp.Outcome)),
		zap.Float64("confidence", resp.Confidence),
		zap.Int("sources", len(sel.Chunks)),
		zap.String("translation", string(resp.Translation)))
	return resp
}

// notFound is never translated, so it is labelled with the canonical
// language; normalized carries the outcome of translating the question.
func (e *Engine) notFound(q domain.QueryContext, normalized translate.Outcome) domain.Response {
	return domain.Response{
		Answer:      answer.NotFoundMessage,
		Citations:   []domain.Citation{},
		Language:    translate.LanguageName(e.translator.Canonical()),
		Outcome:     domain.OutcomeNotFound,
		Translation: normalized,
		Metadata:    domain.ResponseMetadata{Grade: q.Grade, Subject: q.Subject},
	}
}

// Chat records the question in the conversation, answers it with the
// earlier turns as history, then records the answer.
func (e *Engine) Chat(ctx context.Context, conversationID string, q domain.QueryContext) domain.Response {
	q.History = e.convs.AppendUser(conversationID, domain.Turn{
		Role:      domain.RoleUser,
		Message:   q.Question,
		Timestamp: time.Now().UTC(),
	})
	resp := e.Query(ctx, q)
	e.convs.Append(conversationID, domain.Turn{
		Role:      domain.RoleAssistant,
		Message:   resp.Answer,
		Citations: resp.Citations,
		Timestamp: time.Now().UTC(),
	})
	return resp
}

// Conversation returns the turns of a conversation or conversation.ErrNotFound.
func (e *Engine) Conversation(id string) ([]domain.Turn, error) {
	return e.convs.Get(id)
}

// GradeInfo describes one indexed grade.
type GradeInfo struct {
	Grade  int `json:"grade"`
	Chunks int `json:"chunks"`
}

// Grades lists the indexed grades, building the index if needed.
func (e *Engine) Grades(ctx context.Context) []GradeInfo {
	set := e.index.Get(ctx)
	out := make([]GradeInfo, 0, set.Len())
	for _, g := range set.Grades() {
		gi, _ := set.Lookup(g)
		out = append(out, GradeInfo{Grade: g, Chunks: gi.Len()})
	}
	return out
}

// Overview summarizes the opening of a grade's corpus.
func (e *Engine) Overview(ctx context.Context, grade int) (string, error) {
	if v, ok := e.overviews.Load(grade); ok {
		return v.(string), nil
	}
	gi, ok := e.index.Get(ctx).Lookup(grade)
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownGrade, grade)
	}
	if e.summarizer == nil {
		return "", nil
	}
	n := gi.Len()
	if n > overviewChunkLimit {
		n = overviewChunkLimit
	}
	var b strings.Builder
	for _, ch := range gi.Chunks[:n] {
		b.WriteString(ch.Text)
		b.WriteString("\n")
	}
	summary, err := e.summarizer.Summarize(b.String(), e.maxSentences)
	if err != nil {
		return "", fmt.Errorf("summarize grade %d: %w", grade, err)
	}
	e.overviews.Store(grade, summary)
	return summary, nil
}

// Warm builds the index ahead of the first query and reports its size.
func (e *Engine) Warm(ctx context.Context) (grades int, err error) {
	set := e.index.Get(ctx)
	return set.Len(), e.index.Err()
}

// MergeImageText appends text extracted from an uploaded image to the
// question, the way the chat endpoint accepts it.
func MergeImageText(message, imageText string) string {
	if strings.TrimSpace(imageText) == "" {
		return message
	}
	if strings.TrimSpace(message) == "" {
		return imageText
	}
	return message + "\n\n" + imageText
}
