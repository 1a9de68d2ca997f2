package index

import (
	"sort"

	"doubtsolver/internal/domain"
)

// GradeIndex is one grade's chunks and the vectors searched for them.
// Store rows are in the same order as Chunks. It is read-only once built.
type GradeIndex struct {
	Grade    int
	Chunks   []domain.Chunk
	Store    domain.VectorStore
	Embedder domain.Embedder
	byID     map[string]int
}

func NewGradeIndex(grade int, chunks []domain.Chunk, store domain.VectorStore, embedder domain.Embedder) *GradeIndex {
	byID := make(map[string]int, len(chunks))
	for i, ch := range chunks {
		byID[ch.ID] = i
	}
	return &GradeIndex{Grade: grade, Chunks: chunks, Store: store, Embedder: embedder, byID: byID}
}

// Len returns the number of chunks.
func (g *GradeIndex) Len() int { return len(g.Chunks) }

// Row returns the row of the chunk with the given id.
func (g *GradeIndex) Row(id string) (int, bool) {
	row, ok := g.byID[id]
	return row, ok
}

// Chunk returns the chunk at row.
func (g *GradeIndex) Chunk(row int) (domain.Chunk, bool) {
	if row < 0 || row >= len(g.Chunks) {
		return domain.Chunk{}, false
	}
	return g.Chunks[row], true
}

// Set maps grades to their indexes. A grade absent from the set has no
// corpus, which is a valid state.
type Set struct {
	grades map[int]*GradeIndex
}

func NewSet(indexes ...*GradeIndex) *Set {
	s := &Set{grades: make(map[int]*GradeIndex, len(indexes))}
	for _, gi := range indexes {
		s.grades[gi.Grade] = gi
	}
	return s
}

// Lookup returns the index for grade.
func (s *Set) Lookup(grade int) (*GradeIndex, bool) {
	gi, ok := s.grades[grade]
	return gi, ok
}

// Grades returns the indexed grades in ascending order.
func (s *Set) Grades() []int {
	out := make([]int, 0, len(s.grades))
	for g := range s.grades {
		out = append(out, g)
	}
	sort.Ints(out)
	return out
}

// Len returns the number of indexed grades.
func (s *Set) Len() int { return len(s.grades) }
