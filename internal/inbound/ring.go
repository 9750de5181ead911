package inbound

import (
	"sync"
	"time"

	"github.com/zaptalkhq/zaptalk/internal/wagateway"
)

// Event is one diagnostic record of a processed webhook delivery.
type Event struct {
	At        time.Time           `json:"at"`
	Kind      wagateway.EventKind `json:"kind"`
	MessageID string              `json:"message_id,omitempty"`
	ChatID    string              `json:"chat_id,omitempty"`
	Note      string              `json:"note,omitempty"`
}

// Ring keeps the last N processed events per gateway instance, for
// operator debugging of payload-shape drift. Memory only, lost on
// restart.
type Ring struct {
	mu    sync.Mutex
	size  int
	rings map[string]*instanceRing
}

type instanceRing struct {
	events []Event
	next   int
	full   bool
}

// NewRing creates a diagnostic ring keeping size events per instance.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = 100
	}
	return &Ring{
		size:  size,
		rings: make(map[string]*instanceRing),
	}
}

// Add records an event for an instance, evicting the oldest when full.
func (r *Ring) Add(instanceID string, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ir, ok := r.rings[instanceID]
	if !ok {
		ir = &instanceRing{events: make([]Event, r.size)}
		r.rings[instanceID] = ir
	}
	ir.events[ir.next] = e
	ir.next = (ir.next + 1) % r.size
	if ir.next == 0 {
		ir.full = true
	}
}

// Recent returns an instance's events, newest first.
func (r *Ring) Recent(instanceID string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	ir, ok := r.rings[instanceID]
	if !ok {
		return nil
	}
	count := ir.next
	if ir.full {
		count = r.size
	}
	out := make([]Event, 0, count)
	for i := 1; i <= count; i++ {
		idx := (ir.next - i + r.size) % r.size
		out = append(out, ir.events[idx])
	}
	return out
}
