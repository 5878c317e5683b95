// Package repository provides the player stores behind the depth chart engine.
package repository

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/okian/depthchart/internal/domain/depthchart"
)

// Store is a depth chart player store with lifecycle and bookkeeping methods.
type Store interface {
	depthchart.Store

	// Count returns the number of stored players.
	Count(ctx context.Context) (int, error)

	// Close releases resources held by the store.
	Close() error
}

// Sequence hands out insertion sequence numbers. Values must be unique and
// strictly increasing across calls.
type Sequence interface {
	Next() int64
}

// counter is the default Sequence, an atomically incremented integer.
type counter struct {
	n atomic.Int64
}

// NewCounter returns a Sequence starting after start.
func NewCounter(start int64) Sequence {
	c := &counter{}
	c.n.Store(start)
	return c
}

func (c *counter) Next() int64 {
	return c.n.Add(1)
}

// Store kinds accepted by Open.
const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
)

// Open builds the store named by kind. path is only used by the SQLite store.
func Open(ctx context.Context, kind, path string, opts ...Option) (Store, error) {
	switch kind {
	case KindMemory, "":
		return NewMemoryStore(ctx, opts...), nil
	case KindSQLite:
		s, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, kind)
	}
}
