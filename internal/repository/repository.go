// Package repository holds the contracts shared by every durable cart backend.
package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Slot.Read when no record has been written yet.
var ErrNotFound = errors.New("record not found")

// Slot is a single durable key. Write replaces the whole value atomically.
type Slot interface {
	Key() string
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, payload []byte) error
}

// Watcher is implemented by slots whose backend can report writes made by
// other execution contexts. Writes made through the watching slot itself are
// never reported back to it.
//
// Watch blocks until ctx is cancelled or the underlying feed fails.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}
