package translate

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"doubtsolver/internal/domain"
)

// Outcome records what a translation step did.
type Outcome = domain.TranslationOutcome

const (
	// OutcomeSkipped means the text was already in the target language.
	OutcomeSkipped = domain.TranslationSkipped
	// OutcomeTranslated means the translator produced the text.
	OutcomeTranslated = domain.TranslationTranslated
	// OutcomeDegraded means translation was needed but failed; the input
	// was passed through unchanged.
	OutcomeDegraded = domain.TranslationDegraded
)

// Combine folds the outcomes of several steps into one: degraded wins over
// translated, which wins over skipped.
func Combine(outcomes ...Outcome) Outcome {
	out := OutcomeSkipped
	for _, o := range outcomes {
		switch {
		case o == OutcomeDegraded:
			return OutcomeDegraded
		case o == OutcomeTranslated:
			out = OutcomeTranslated
		}
	}
	return out
}

// Wrapper lets the engine work in the canonical language whatever the
// student writes in. It never fails: every error degrades to passthrough.
type Wrapper struct {
	detector   domain.LanguageDetector
	translator domain.Translator
	canonical  string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewWrapper builds a wrapper. A nil detector treats every question as
// canonical; a nil translator passes text through.
func NewWrapper(detector domain.LanguageDetector, translator domain.Translator, canonical string, timeout time.Duration, logger *zap.Logger) *Wrapper {
	if canonical == "" {
		canonical = Canonical
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Wrapper{detector: detector, translator: translator, canonical: canonical, timeout: timeout, logger: logger}
}

// Normalized is a question in the canonical language.
type Normalized struct {
	Detected string
	Question string
	Outcome  Outcome
}

// Normalize detects the question's language and translates it to canonical.
func (w *Wrapper) Normalize(ctx context.Context, question string) Normalized {
	detected := w.canonical
	if w.detector != nil {
		if code, ok := w.detector.Detect(question); ok {
			detected = code
		} else {
			w.logger.Debug("language detection inconclusive, assuming canonical")
		}
	}
	if detected == w.canonical {
		return Normalized{Detected: detected, Question: question, Outcome: OutcomeSkipped}
	}
	text, outcome := w.translate(ctx, question, detected, w.canonical)
	return Normalized{Detected: detected, Question: text, Outcome: outcome}
}

// Restored is an answer and the code of the language it is written in.
type Restored struct {
	Answer   string
	Language string
	Outcome  Outcome
}

// Canonical returns the code of the language the engine works in.
func (w *Wrapper) Canonical() string { return w.canonical }

// Restore translates a canonical answer into the requested language, given
// as a name or code. Canonical and unknown languages make no call.
func (w *Wrapper) Restore(ctx context.Context, answer, requested string) Restored {
	code, ok := ResolveCode(requested)
	if !ok {
		if strings.TrimSpace(requested) != "" {
			w.logger.Warn("unsupported response language, answering in canonical", zap.String("language", requested))
		}
		return Restored{Answer: answer, Language: w.canonical, Outcome: OutcomeSkipped}
	}
	if code == w.canonical {
		return Restored{Answer: answer, Language: w.canonical, Outcome: OutcomeSkipped}
	}
	text, outcome := w.translate(ctx, answer, w.canonical, code)
	if outcome != OutcomeTranslated {
		code = w.canonical
	}
	return Restored{Answer: text, Language: code, Outcome: outcome}
}

func (w *Wrapper) translate(ctx context.Context, text, source, target string) (string, Outcome) {
	if w.translator == nil {
		w.logger.Debug("no translator configured", zap.String("source", source), zap.String("target", target))
		return text, OutcomeDegraded
	}
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	out, err := w.translator.Translate(ctx, text, source, target)
	if err != nil || strings.TrimSpace(out) == "" {
		w.logger.Warn("translation failed, passing text through",
			zap.String("translator", w.translator.Name()),
			zap.String("source", source), zap.String("target", target), zap.Error(err))
		return text, OutcomeDegraded
	}
	return out, OutcomeTranslated
}
