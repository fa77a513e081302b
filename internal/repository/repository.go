// Package repository provides typed access to the key-value substrate.
//
// It is the only place that knows the storage key layout and the JSON shapes
// of stored values; services above it never see raw strings. Reads of
// missing or malformed entries yield the empty collection; the substrate
// treats absence as "nothing yet", never as a failure.
package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/akulikov-dev/localchat/internal/errs"
	"github.com/akulikov-dev/localchat/internal/kvstore"
)

// load reads and decodes the entry at key into out. Absent and malformed
// entries leave out at its zero value. Only real store failures propagate.
func load[T any](ctx context.Context, s kvstore.Store, key string, out *T) error {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	var decoded T
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil
	}
	*out = decoded
	return nil
}

// save encodes v and writes it under key.
func save(ctx context.Context, s kvstore.Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, string(b))
}
