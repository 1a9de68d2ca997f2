package retrieval

import (
	"sort"

	"doubtsolver/internal/domain"
)

// Selector applies the top-K cut and the confidence threshold.
type Selector struct {
	TopK      int
	Threshold float64
}

// Selection is the chunks chosen for synthesis and how they were chosen.
type Selection struct {
	Chunks   []domain.ScoredChunk
	Outcome  domain.Outcome
	MaxScore float64
}

// Select keeps the top-K chunks scoring at least the threshold. When none
// pass but something scored above zero, the single best chunk is returned
// as a low-confidence answer. Ties go to the lower row.
func (s Selector) Select(ranked []domain.ScoredChunk) Selection {
	sorted := make([]domain.ScoredChunk, len(ranked))
	for i, r := range ranked {
		r.Score = clamp(r.Score)
		sorted[i] = r
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Row < sorted[j].Row
	})
	if len(sorted) == 0 || sorted[0].Score <= 0 {
		return Selection{Outcome: domain.OutcomeNotFound}
	}
	best := sorted[0]
	top := sorted
	if s.TopK > 0 && len(top) > s.TopK {
		top = top[:s.TopK]
	}
	var kept []domain.ScoredChunk
	for _, r := range top {
		if r.Score >= s.Threshold {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return Selection{Chunks: []domain.ScoredChunk{best}, Outcome: domain.OutcomeLowConfidence, MaxScore: best.Score}
	}
	return Selection{Chunks: kept, Outcome: domain.OutcomeAnswered, MaxScore: best.Score}
}
