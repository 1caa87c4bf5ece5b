package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"vgp-backend/internal/checklist"
)

// InspectionStore keeps inspection records and a summary list per user
// namespace. The list is a read-modify-write value, so updates go through
// mu.
type InspectionStore struct {
	kv  KV
	mu  sync.Mutex
	now func() time.Time
}

func NewInspectionStore(kv KV) *InspectionStore {
	return &InspectionStore{kv: kv, now: time.Now}
}

// ForUser returns the repository of one user namespace
func (s *InspectionStore) ForUser(userNs string) *UserInspections {
	return &UserInspections{store: s, ns: userNs}
}

// UserInspections implements checklist.Repository for a single user
type UserInspections struct {
	store *InspectionStore
	ns    string
}

var _ checklist.Repository = (*UserInspections)(nil)

// Save stores a copy of rec. A record without id gets a new UUID and the
// server stamps updatedAt. Existing list entries are updated in place, new
// ones go first.
func (u *UserInspections) Save(ctx context.Context, rec *checklist.Record) (checklist.Ack, error) {
	snapshot := rec.Clone()
	if snapshot.ID == "" {
		snapshot.ID = uuid.New().String()
	}
	now := u.store.now().UTC()
	snapshot.UpdatedAt = &now
	loads := checklist.RecordLoads(snapshot)
	snapshot.Loads = &loads

	data, err := json.Marshal(snapshot)
	if err != nil {
		return checklist.Ack{}, fmt.Errorf("failed to encode inspection: %w", err)
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	if err := u.store.kv.Put(ctx, InspectionKey(u.ns, snapshot.ID), data, 0); err != nil {
		return checklist.Ack{}, err
	}

	list, err := u.list(ctx)
	if err != nil {
		return checklist.Ack{}, err
	}
	entry := snapshot.Summarize()
	replaced := false
	for i := range list {
		if list[i].ID == entry.ID {
			list[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		list = append([]checklist.Summary{entry}, list...)
	}
	if err := u.putList(ctx, list); err != nil {
		return checklist.Ack{}, err
	}

	return checklist.Ack{ID: snapshot.ID, UpdatedAt: now}, nil
}

// Load returns the stored record or checklist.ErrNotFound
func (u *UserInspections) Load(ctx context.Context, id string) (*checklist.Record, error) {
	data, err := u.store.kv.Get(ctx, InspectionKey(u.ns, id))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", checklist.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var rec checklist.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode inspection %s: %w", id, err)
	}
	rec.Normalize()
	return &rec, nil
}

// List returns the summaries, most recently created first
func (u *UserInspections) List(ctx context.Context) ([]checklist.Summary, error) {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	return u.list(ctx)
}

// Delete removes a record and its list entry. Unknown ids are not an error.
func (u *UserInspections) Delete(ctx context.Context, id string) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	if err := u.store.kv.Delete(ctx, InspectionKey(u.ns, id)); err != nil {
		return err
	}
	list, err := u.list(ctx)
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, s := range list {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	return u.putList(ctx, kept)
}

func (u *UserInspections) list(ctx context.Context) ([]checklist.Summary, error) {
	data, err := u.store.kv.Get(ctx, ListKey(u.ns))
	if errors.Is(err, ErrKeyNotFound) {
		return []checklist.Summary{}, nil
	}
	if err != nil {
		return nil, err
	}
	var list []checklist.Summary
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode inspection list: %w", err)
	}
	return list, nil
}

func (u *UserInspections) putList(ctx context.Context, list []checklist.Summary) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode inspection list: %w", err)
	}
	return u.store.kv.Put(ctx, ListKey(u.ns), data, 0)
}

// Devices returns the FCM tokens registered by the user
func (u *UserInspections) Devices(ctx context.Context) ([]string, error) {
	data, err := u.store.kv.Get(ctx, DevicesKey(u.ns))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode devices: %w", err)
	}
	return tokens, nil
}

// AddDevice registers an FCM token once
func (u *UserInspections) AddDevice(ctx context.Context, token string) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	tokens, err := u.Devices(ctx)
	if err != nil {
		return err
	}
	for _, t := range tokens {
		if t == token {
			return nil
		}
	}
	return u.putDevices(ctx, append(tokens, token))
}

// RemoveDevice drops a token, typically one FCM reported as unregistered
func (u *UserInspections) RemoveDevice(ctx context.Context, token string) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	tokens, err := u.Devices(ctx)
	if err != nil {
		return err
	}
	kept := tokens[:0]
	for _, t := range tokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	return u.putDevices(ctx, kept)
}

func (u *UserInspections) putDevices(ctx context.Context, tokens []string) error {
	data, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	return u.store.kv.Put(ctx, DevicesKey(u.ns), data, 0)
}
