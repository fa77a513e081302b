package repository

import (
	"context"

	"github.com/akulikov-dev/localchat/internal/errs"
	"github.com/akulikov-dev/localchat/internal/kvstore"
	"github.com/akulikov-dev/localchat/internal/model"
)

// Session tracks the logged-in user in the session-scoped store.
type Session struct{ store kvstore.Store }

// NewSession constructs a session repository over the session store.
func NewSession(store kvstore.Store) *Session { return &Session{store: store} }

// Current returns the logged-in user, or errs.ErrNotFound when nobody is.
func (r *Session) Current(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := load(ctx, r.store, loggedInUserKey, &u); err != nil {
		return nil, err
	}
	if u.Username == "" {
		return nil, errs.ErrNotFound
	}
	return &u, nil
}

// Set records the logged-in user.
func (r *Session) Set(ctx context.Context, u model.User) error {
	return save(ctx, r.store, loggedInUserKey, u)
}

// Clear removes the logged-in user record.
func (r *Session) Clear(ctx context.Context) error {
	return r.store.Delete(ctx, loggedInUserKey)
}
