package database

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned for missing or expired keys
var ErrKeyNotFound = errors.New("key not found")

// KV is the key-value store behind the API. A zero ttl never expires.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Take deletes key and returns its value. Of several concurrent callers
	// only one gets the value, the others get ErrKeyNotFound.
	Take(ctx context.Context, key string) ([]byte, error)
	Close() error
}

// Key layout, shared by every backend.
func MagicLinkKey(id string) string { return "magic:" + id }
func ListKey(userNs string) string { return userNs + ":list" }
func InspectionKey(userNs, id string) string { return userNs + ":inspection:" + id }
func DevicesKey(userNs string) string { return userNs + ":devices" }
