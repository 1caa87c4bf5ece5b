package services

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingHub struct {
	mu     sync.Mutex
	events map[string][]interface{}
}

func (h *recordingHub) BroadcastToUser(userID string, data interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.events == nil {
		h.events = map[string][]interface{}{}
	}
	h.events[userID] = append(h.events[userID], data)
}

type memDevices struct {
	mu      sync.Mutex
	tokens  []string
	removed chan string
}

func (d *memDevices) Devices(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.tokens...), nil
}

func (d *memDevices) RemoveDevice(ctx context.Context, token string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.tokens[:0]
	for _, t := range d.tokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	d.tokens = kept
	d.removed <- token
	return nil
}

type stalePush struct{ stale []string }

func (p stalePush) SendInspectionEvent(ctx context.Context, tokens []string, event ChangeEvent) ([]string, error) {
	return p.stale, nil
}

func TestChangeNotifier_BroadcastAndPrune(t *testing.T) {
	hub := &recordingHub{}
	devices := &memDevices{tokens: []string{"good", "gone"}, removed: make(chan string, 1)}
	n := NewChangeNotifier(hub, stalePush{stale: []string{"gone"}})

	event := ChangeEvent{Type: EventInspectionSaved, ID: "r1", UpdatedAt: time.Now()}
	n.Notify("alice", devices, event)

	hub.mu.Lock()
	got := hub.events["alice"]
	hub.mu.Unlock()
	if len(got) != 1 || got[0].(ChangeEvent).ID != "r1" {
		t.Fatalf("broadcast = %v", got)
	}

	select {
	case token := <-devices.removed:
		if token != "gone" {
			t.Fatalf("removed %q", token)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stale token not removed")
	}
}

func TestChangeNotifier_WithoutPush(t *testing.T) {
	hub := &recordingHub{}
	n := NewChangeNotifier(hub, nil)
	n.Notify("bob", nil, ChangeEvent{Type: EventInspectionDeleted, ID: "r2"})
	if len(hub.events["bob"]) != 1 {
		t.Fatal("websocket broadcast missing")
	}
}
