package services

import (
	"context"
	"log"
	"time"
)

const (
	EventInspectionSaved   = "inspection_saved"
	EventInspectionDeleted = "inspection_deleted"
)

// ChangeEvent tells a user's other devices that a record changed
type ChangeEvent struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Broadcaster pushes a payload to every live connection of a user
type Broadcaster interface {
	BroadcastToUser(userID string, data interface{})
}

// DeviceRegistry returns and prunes the push tokens of a user
type DeviceRegistry interface {
	Devices(ctx context.Context) ([]string, error)
	RemoveDevice(ctx context.Context, token string) error
}

// PushSender delivers an event to push tokens and reports stale ones
type PushSender interface {
	SendInspectionEvent(ctx context.Context, tokens []string, event ChangeEvent) ([]string, error)
}

// ChangeNotifier fans a change out to websocket clients and, when push is
// configured, to registered devices.
type ChangeNotifier struct {
	hub     Broadcaster
	push    PushSender
	timeout time.Duration
}

// NewChangeNotifier builds a notifier; push may be nil
func NewChangeNotifier(hub Broadcaster, push PushSender) *ChangeNotifier {
	return &ChangeNotifier{hub: hub, push: push, timeout: 10 * time.Second}
}

// Notify broadcasts immediately and sends push messages in the background
func (n *ChangeNotifier) Notify(userID string, devices DeviceRegistry, event ChangeEvent) {
	if n.hub != nil {
		n.hub.BroadcastToUser(userID, event)
	}
	if n.push == nil || devices == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		n.sendPush(ctx, devices, event)
	}()
}

func (n *ChangeNotifier) sendPush(ctx context.Context, devices DeviceRegistry, event ChangeEvent) {
	tokens, err := devices.Devices(ctx)
	if err != nil {
		log.Printf("⚠️  Could not load devices: %v", err)
		return
	}
	stale, err := n.push.SendInspectionEvent(ctx, tokens, event)
	if err != nil {
		log.Printf("⚠️  Push notification failed: %v", err)
		return
	}
	for _, token := range stale {
		if err := devices.RemoveDevice(ctx, token); err != nil {
			log.Printf("⚠️  Could not remove stale device: %v", err)
		}
	}
}
