package answer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"doubtsolver/internal/corpus"
	"doubtsolver/internal/domain"
)

// NotFoundMessage is the answer when nothing relevant was retrieved.
const NotFoundMessage = "I don't have information about this in the NCERT textbooks. Please ask questions related to your NCERT curriculum."

const (
	truncationMarker = "..."
	noPage           = "N/A"
)

// Synthesizer builds the extractive answer and its citations from the
// selected chunks. It never generates text beyond quoting them.
type Synthesizer struct {
	MaxChunks       int
	MaxExcerpt      int
	MaxCitations    int
	CitationExcerpt int
}

// NewSynthesizer returns a synthesizer quoting up to 3 chunks in an 800
// character excerpt and citing up to 3 chunks with 100 character snippets.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{MaxChunks: 3, MaxExcerpt: 800, MaxCitations: 3, CitationExcerpt: 100}
}

// Answer frames the selected text for grade. The grade recorded in the
// first chunk's metadata wins over the requested one.
func (s *Synthesizer) Answer(selected []domain.ScoredChunk, grade int) string {
	if len(selected) == 0 {
		return NotFoundMessage
	}
	if md := selected[0].Chunk.Metadata; md != nil {
		if g, ok := corpus.GradeNumber(md.Grade); ok {
			grade = g
		}
	}
	n := len(selected)
	if n > s.MaxChunks {
		n = s.MaxChunks
	}
	texts := make([]string, n)
	for i := 0; i < n; i++ {
		texts[i] = selected[i].Chunk.Text
	}
	excerpt := truncate(strings.Join(texts, "\n\n"), s.MaxExcerpt)

	var b strings.Builder
	fmt.Fprintf(&b, "Based on the NCERT textbook content for Grade %d, here is the answer to your question:\n\n", grade)
	b.WriteString(excerpt)
	b.WriteString("\n\nPlease refer to the citations below for the exact source of this information.")
	return b.String()
}

// Citations projects at most MaxCitations selected chunks. The result is
// never nil.
func (s *Synthesizer) Citations(selected []domain.ScoredChunk) []domain.Citation {
	n := len(selected)
	if n > s.MaxCitations {
		n = s.MaxCitations
	}
	out := make([]domain.Citation, 0, n)
	for _, sc := range selected[:n] {
		out = append(out, s.cite(sc.Chunk))
	}
	return out
}

func (s *Synthesizer) cite(ch domain.Chunk) domain.Citation {
	c := domain.Citation{Source: corpus.DefaultSource, Page: noPage, Text: truncate(ch.Text, s.CitationExcerpt)}
	prov, conventional := corpus.ParseID(ch.ID)
	if conventional {
		if prov.Subject != "" {
			c.Source = prov.Subject
		}
		if prov.Page > 0 {
			c.Page = strconv.Itoa(prov.Page)
		}
	}
	if md := ch.Metadata; md != nil {
		if md.Subject != "" {
			c.Source = md.Subject
		}
		if md.PageNo > 0 {
			c.Page = strconv.Itoa(md.PageNo)
		}
		c.Chapter = md.Chapter
	}
	return c
}

// Confidence is the mean selected score clamped to [0,1]; 0 when empty.
func Confidence(selected []domain.ScoredChunk) float64 {
	if len(selected) == 0 {
		return 0
	}
	sum := 0.0
	for _, sc := range selected {
		sum += sc.Score
	}
	mean := sum / float64(len(selected))
	switch {
	case math.IsNaN(mean), mean < 0:
		return 0
	case mean > 1:
		return 1
	}
	return mean
}

// truncate cuts text to limit runes and marks the cut.
func truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + truncationMarker
}
