package events

import (
	"sync"

	"github.com/google/uuid"

	"norifarm/core/types"
)

const defaultJournalCapacity = 1024

// Entry is a journaled event together with its delivery metadata.
type Entry struct {
	ID       string       `json:"id"`
	Sequence uint64       `json:"sequence"`
	Event    *types.Event `json:"event"`
}

// Journal is a bounded in-memory event log. Once full, the oldest entries are
// discarded. It satisfies Emitter so ledgers can write to it directly.
type Journal struct {
	mu       sync.RWMutex
	capacity int
	next     uint64
	entries  []Entry
}

// NewJournal constructs a journal retaining at most capacity entries. A
// non-positive capacity selects the default.
func NewJournal(capacity int) *Journal {
	if capacity <= 0 {
		capacity = defaultJournalCapacity
	}
	return &Journal{capacity: capacity}
}

// Emit implements the Emitter interface. Events without an attribute form are
// ignored.
func (j *Journal) Emit(evt Event) {
	if j == nil {
		return
	}
	rendered := Render(evt)
	if rendered == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.next++
	j.entries = append(j.entries, Entry{
		ID:       uuid.NewString(),
		Sequence: j.next,
		Event:    rendered,
	})
	if overflow := len(j.entries) - j.capacity; overflow > 0 {
		j.entries = append([]Entry(nil), j.entries[overflow:]...)
	}
}

// Since returns up to limit entries with a sequence greater than after, oldest
// first. A non-positive limit returns every matching entry.
func (j *Journal) Since(after uint64, limit int) []Entry {
	if j == nil {
		return nil
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Entry, 0)
	for _, entry := range j.entries {
		if entry.Sequence <= after {
			continue
		}
		out = append(out, Entry{ID: entry.ID, Sequence: entry.Sequence, Event: entry.Event.Clone()})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Len reports the number of retained entries.
func (j *Journal) Len() int {
	if j == nil {
		return 0
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}
