package shell

import (
	"sync"

	"github.com/aperture-desktop/shell/internal/runtime"
	"github.com/aperture-desktop/shell/internal/types"
)

// EventType enumerates lifecycle events published by the service.
type EventType string

const (
	EventWindowAdded         EventType = "window_added"
	EventWindowRemoved       EventType = "window_removed"
	EventMultiWindowEnabled  EventType = "multiwindow_enabled"
	EventMultiWindowDisabled EventType = "multiwindow_disabled"
)

// WindowInfo is a serializable snapshot of one window.
type WindowInfo struct {
	ID        string       `json:"id"`
	Category  string       `json:"category"`
	Visible   bool         `json:"visible"`
	Focused   bool         `json:"focused"`
	Minimized bool         `json:"minimized"`
	Params    types.Params `json:"params"`
}

func snapshotWindow(w runtime.Window) WindowInfo {
	return WindowInfo{
		ID:        w.ID(),
		Category:  w.Category(),
		Visible:   w.IsVisible(),
		Focused:   w.IsFocused(),
		Minimized: w.IsMinimized(),
		Params:    w.Params(),
	}
}

// Event is one lifecycle notification.
type Event struct {
	Type   EventType   `json:"type"`
	Window *WindowInfo `json:"window,omitempty"`
}

// bus fans events out to subscribers. Slow subscribers drop events
// rather than stall the publisher.
type bus struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

func newBus() *bus {
	return &bus{subs: make(map[int]chan Event)}
}

func (b *bus) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	ch := make(chan Event, 16)
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *bus) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
