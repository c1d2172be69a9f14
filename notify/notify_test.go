package notify

import (
	"testing"
	"time"
)

func TestSink_PushAndExpire(t *testing.T) {
	sink := NewSinkWithTTL(50 * time.Millisecond)

	sink.Push(Notification{Title: "Trade updated", Description: "Trade declined", Level: LevelSuccess})
	sink.Push(Notification{Title: "Error", Description: "Failed to load", Level: LevelError})

	entries := sink.Entries()
	if len(entries) != 2 {
		t.Fatalf("Entries() = %d entries, want 2", len(entries))
	}
	if entries[0].ID == entries[1].ID {
		t.Error("notifications must get distinct IDs")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(sink.Entries()) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("entries did not expire: %v", sink.Entries())
}

func TestSink_EntriesIsASnapshot(t *testing.T) {
	sink := NewSink()
	sink.Push(Notification{Description: "one"})

	entries := sink.Entries()
	entries[0].Description = "mutated"

	if got := sink.Entries()[0].Description; got != "one" {
		t.Errorf("sink mutated through snapshot: %q", got)
	}
}
