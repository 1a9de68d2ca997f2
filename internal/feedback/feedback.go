package feedback

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalid is returned for feedback that cannot be recorded.
var ErrInvalid = errors.New("invalid feedback")

// Entry is a student's rating of one assistant message.
type Entry struct {
	ConversationID string    `json:"conversation_id"`
	MessageIndex   int       `json:"message_index"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Log is an in-memory append-only feedback log.
type Log struct {
	mu      sync.Mutex
	entries []Entry
}

func NewLog() *Log { return &Log{} }

// Record validates and appends e, stamping it with the current time.
func (l *Log) Record(e Entry) (Entry, error) {
	if e.ConversationID == "" {
		return Entry{}, fmt.Errorf("%w: conversation id is required", ErrInvalid)
	}
	if e.Rating < 1 || e.Rating > 5 {
		return Entry{}, fmt.Errorf("%w: rating must be between 1 and 5, got %d", ErrInvalid, e.Rating)
	}
	if e.MessageIndex < 0 {
		return Entry{}, fmt.Errorf("%w: negative message index", ErrInvalid)
	}
	e.Timestamp = time.Now().UTC()
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
	return e, nil
}

// Entries returns a copy of the log.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
