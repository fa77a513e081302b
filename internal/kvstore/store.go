// Package kvstore defines the synchronous key-value storage interface the
// rest of the system depends on, plus an in-memory implementation.
//
// The interface models browser origin storage: string keys, string values,
// no transactions. A read-modify-write sequence over a log is therefore not
// atomic; two handles writing the same key concurrently lose one update.
// That property is part of the observable behavior and is preserved by every
// backend.
package kvstore

import "context"

// Store is a synchronous, string-keyed, string-valued dictionary.
// Get returns errs.ErrNotFound for absent keys.
type Store interface {
	// Get returns the value stored under key.
	Get(ctx context.Context, key string) (string, error)
	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
}

// Dual pairs the two storage lifetimes of the host: Durable survives the
// process, Session is cleared when the owning "tab" goes away.
type Dual struct {
	Durable Store
	Session Store
}

// NewDual builds a Dual from explicit backends.
func NewDual(durable, session Store) Dual {
	return Dual{Durable: durable, Session: session}
}
