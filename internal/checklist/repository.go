package checklist

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by repositories for unknown record ids
var ErrNotFound = errors.New("inspection not found")

// Ack confirms a stored record
type Ack struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Repository persists inspection records. The storage medium is opaque.
type Repository interface {
	Save(ctx context.Context, rec *Record) (Ack, error)
	Load(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]Summary, error)
}

// SaveResult is delivered once by SaveAsync
type SaveResult struct {
	Ack Ack
	Err error
}

// SaveAsync hands a snapshot of rec to repo without blocking the caller.
// The caller's record is never modified, so a failed save can be retried
// with another call.
func SaveAsync(ctx context.Context, repo Repository, rec *Record) <-chan SaveResult {
	snapshot := rec.Clone()
	out := make(chan SaveResult, 1)
	go func() {
		defer close(out)
		ack, err := repo.Save(ctx, snapshot)
		out <- SaveResult{Ack: ack, Err: err}
	}()
	return out
}
