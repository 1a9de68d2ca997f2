package memory

import (
	"testing"

	"doubtsolver/internal/domain"
)

func chunks(ids ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(ids))
	for i, id := range ids {
		out[i] = domain.Chunk{ID: id, Text: id}
	}
	return out
}

func TestSearchOrdersByScoreThenRow(t *testing.T) {
	s := NewStorage()
	if err := s.Init(2); err != nil {
		t.Fatal(err)
	}
	vecs := [][]float64{{0, 1}, {1, 0}, {0, 1}, {0.6, 0.8}}
	if err := s.Upsert(chunks("a", "b", "c", "d"), vecs); err != nil {
		t.Fatal(err)
	}
	res, err := s.Search([]float64{0, 1}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 4 {
		t.Fatalf("expected all rows, got %d", len(res))
	}
	want := []string{"a", "c", "d", "b"}
	for i, id := range want {
		if res[i].Chunk.ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, res[i].Chunk.ID)
		}
	}
	if res[0].Row != 0 || res[1].Row != 2 {
		t.Errorf("unexpected rows %d, %d", res[0].Row, res[1].Row)
	}
}

func TestSearchTopK(t *testing.T) {
	s := NewStorage()
	_ = s.Init(1)
	_ = s.Upsert(chunks("a", "b", "c"), [][]float64{{0.1}, {0.9}, {0.5}})
	res, err := s.Search([]float64{1}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 || res[0].Chunk.ID != "b" || res[1].Chunk.ID != "c" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestUpsertValidatesShapes(t *testing.T) {
	s := NewStorage()
	if err := s.Init(0); err == nil {
		t.Fatal("expected error for zero dimension")
	}
	_ = s.Init(2)
	if err := s.Upsert(chunks("a"), nil); err == nil {
		t.Error("expected length mismatch error")
	}
	if err := s.Upsert(chunks("a"), [][]float64{{1}}); err == nil {
		t.Error("expected dimension mismatch error")
	}
	if _, err := s.Search([]float64{1, 0, 0}, 0); err != nil {
		t.Errorf("empty store should not fail: %v", err)
	}
}

func TestClear(t *testing.T) {
	s := NewStorage()
	_ = s.Init(1)
	_ = s.Upsert(chunks("a"), [][]float64{{1}})
	if s.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", s.Len())
	}
	_ = s.Clear()
	if s.Len() != 0 {
		t.Fatalf("expected empty store after Clear")
	}
}
