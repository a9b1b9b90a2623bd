package events

import "norifarm/core/types"

// Event represents a structured state change emitted by a ledger.
type Event interface {
	EventType() string
}

// Renderable events can be flattened into the broadcastable attribute form.
type Renderable interface {
	Event
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Fanout delivers every event to each wrapped emitter in order. Nil entries
// are skipped.
type Fanout []Emitter

// Emit implements the Emitter interface.
func (f Fanout) Emit(evt Event) {
	for _, emitter := range f {
		if emitter == nil {
			continue
		}
		emitter.Emit(evt)
	}
}

// Render converts evt into its attribute form, returning nil for events that
// do not support rendering.
func Render(evt Event) *types.Event {
	if r, ok := evt.(Renderable); ok {
		return r.Event()
	}
	return nil
}
