package repository

import (
	"context"

	"github.com/akulikov-dev/localchat/internal/kvstore"
	"github.com/akulikov-dev/localchat/internal/model"
)

// Users reads and writes the shared account list.
type Users struct{ store kvstore.Store }

// NewUsers constructs a user repository over the durable store.
func NewUsers(store kvstore.Store) *Users { return &Users{store: store} }

// All returns every registered user, in signup order.
func (r *Users) All(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := load(ctx, r.store, usersKey, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Append adds a user to the shared list. Uniqueness is the caller's concern;
// the list itself enforces nothing.
func (r *Users) Append(ctx context.Context, u model.User) error {
	users, err := r.All(ctx)
	if err != nil {
		return err
	}
	return save(ctx, r.store, usersKey, append(users, u))
}

// SeedMailbox writes the empty per-user message container created at signup.
func (r *Users) SeedMailbox(ctx context.Context, username string) error {
	return save(ctx, r.store, mailboxKey(username), model.NewMailbox())
}
