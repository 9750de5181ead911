package inbound

import (
	"fmt"
	"testing"
	"time"

	"github.com/zaptalkhq/zaptalk/internal/wagateway"
)

func TestRingKeepsNewestFirst(t *testing.T) {
	t.Parallel()

	ring := NewRing(3)
	for i := 0; i < 5; i++ {
		ring.Add("inst1", Event{
			At:        time.Now(),
			Kind:      wagateway.EventMessageReceived,
			MessageID: fmt.Sprintf("m%d", i),
		})
	}

	events := ring.Recent("inst1")
	if len(events) != 3 {
		t.Fatalf("len = %d, want 3", len(events))
	}
	for i, want := range []string{"m4", "m3", "m2"} {
		if events[i].MessageID != want {
			t.Errorf("events[%d] = %q, want %q", i, events[i].MessageID, want)
		}
	}
}

func TestRingPartiallyFilled(t *testing.T) {
	t.Parallel()

	ring := NewRing(10)
	ring.Add("inst1", Event{MessageID: "a"})
	ring.Add("inst1", Event{MessageID: "b"})

	events := ring.Recent("inst1")
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].MessageID != "b" || events[1].MessageID != "a" {
		t.Errorf("order = %v", events)
	}
}

func TestRingIsolatesInstances(t *testing.T) {
	t.Parallel()

	ring := NewRing(4)
	ring.Add("inst1", Event{MessageID: "a"})
	ring.Add("inst2", Event{MessageID: "b"})

	if got := ring.Recent("inst1"); len(got) != 1 || got[0].MessageID != "a" {
		t.Errorf("inst1 events = %v", got)
	}
	if got := ring.Recent("unknown"); got != nil {
		t.Errorf("unknown instance events = %v", got)
	}
}
