package repository

import (
	"context"

	"github.com/akulikov-dev/localchat/internal/kvstore"
	"github.com/akulikov-dev/localchat/internal/model"
)

// Groups reads and writes the per-member denormalized group lists. Every
// member owns a full copy of each group record; there is no canonical one.
type Groups struct{ store kvstore.Store }

// NewGroups constructs a groups repository over the durable store.
func NewGroups(store kvstore.Store) *Groups { return &Groups{store: store} }

// List returns the member's group copies.
func (r *Groups) List(ctx context.Context, member string) ([]model.Group, error) {
	var groups []model.Group
	if err := load(ctx, r.store, groupsKey(member), &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Save replaces the member's group list.
func (r *Groups) Save(ctx context.Context, member string, groups []model.Group) error {
	return save(ctx, r.store, groupsKey(member), groups)
}
