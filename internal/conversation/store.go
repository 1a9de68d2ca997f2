package conversation

import (
	"errors"
	"sync"

	"doubtsolver/internal/domain"
)

// ErrNotFound is returned for a conversation id that was never appended to.
var ErrNotFound = errors.New("conversation not found")

type conversation struct {
	mu    sync.Mutex
	turns []domain.Turn
}

// Store keeps append-only conversations in memory. Each conversation has
// its own lock so different ids never contend.
type Store struct {
	convs sync.Map // id -> *conversation
}

func NewStore() *Store { return &Store{} }

func (s *Store) conversation(id string) *conversation {
	c, _ := s.convs.LoadOrStore(id, &conversation{})
	return c.(*conversation)
}

// Append adds turn to the conversation, creating it if needed.
func (s *Store) Append(id string, turn domain.Turn) {
	c := s.conversation(id)
	c.mu.Lock()
	c.turns = append(c.turns, turn)
	c.mu.Unlock()
}

// AppendUser adds turn and returns the turns that preceded it, read in
// the same critical section.
func (s *Store) AppendUser(id string, turn domain.Turn) []domain.Turn {
	c := s.conversation(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	prior := make([]domain.Turn, len(c.turns))
	copy(prior, c.turns)
	c.turns = append(c.turns, turn)
	return prior
}

// Get returns a copy of the conversation's turns.
func (s *Store) Get(id string) ([]domain.Turn, error) {
	v, ok := s.convs.Load(id)
	if !ok {
		return nil, ErrNotFound
	}
	c := v.(*conversation)
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Turn, len(c.turns))
	copy(out, c.turns)
	return out, nil
}

// Len returns the number of turns in a conversation, 0 when unknown.
func (s *Store) Len(id string) int {
	v, ok := s.convs.Load(id)
	if !ok {
		return 0
	}
	c := v.(*conversation)
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}
