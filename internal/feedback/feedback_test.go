package feedback

import (
	"errors"
	"testing"
)

func TestRecord(t *testing.T) {
	l := NewLog()
	e, err := l.Record(Entry{ConversationID: "c1", MessageIndex: 1, Rating: 5, Comment: "clear"})
	if err != nil {
		t.Fatal(err)
	}
	if e.Timestamp.IsZero() {
		t.Error("expected timestamp")
	}
	if got := l.Entries(); len(got) != 1 || got[0].Comment != "clear" {
		t.Fatalf("unexpected entries %+v", got)
	}
}

func TestRecordValidates(t *testing.T) {
	l := NewLog()
	for _, e := range []Entry{
		{ConversationID: "c1", Rating: 0},
		{ConversationID: "c1", Rating: 6},
		{Rating: 3},
		{ConversationID: "c1", Rating: 3, MessageIndex: -1},
	} {
		if _, err := l.Record(e); !errors.Is(err, ErrInvalid) {
			t.Errorf("expected ErrInvalid for %+v, got %v", e, err)
		}
	}
	if len(l.Entries()) != 0 {
		t.Fatal("invalid entries must not be stored")
	}
}
