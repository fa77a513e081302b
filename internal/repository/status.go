package repository

import (
	"context"

	"github.com/akulikov-dev/localchat/internal/kvstore"
	"github.com/akulikov-dev/localchat/internal/model"
)

// Status reads and writes the two global maps: userStatuses (presence) and
// typingStatuses. Both are last-write-wins at whole-map granularity.
type Status struct{ store kvstore.Store }

// NewStatus constructs a status repository over the durable store.
//
// The original app was inconsistent about the typing map's lifetime
// (session-scoped reads in one place, durable writes in another); here both
// maps are durable, which matches where its reads actually went.
func NewStatus(store kvstore.Store) *Status { return &Status{store: store} }

// Presences returns the full presence map.
func (r *Status) Presences(ctx context.Context) (map[string]model.Presence, error) {
	statuses := map[string]model.Presence{}
	if err := load(ctx, r.store, userStatusesKey, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

// SetPresence updates one user's entry in the presence map.
func (r *Status) SetPresence(ctx context.Context, username string, p model.Presence) error {
	statuses, err := r.Presences(ctx)
	if err != nil {
		return err
	}
	statuses[username] = p
	return save(ctx, r.store, userStatusesKey, statuses)
}

// Typing returns the typing entry for the (sender, receiver) pair, with ok
// reporting whether it exists.
func (r *Status) Typing(ctx context.Context, sender, receiver string) (model.Typing, bool, error) {
	statuses := map[string]model.Typing{}
	if err := load(ctx, r.store, typingStatusesKey, &statuses); err != nil {
		return model.Typing{}, false, err
	}
	t, ok := statuses[typingKey(sender, receiver)]
	return t, ok, nil
}

// SetTyping updates the typing entry for the (sender, receiver) pair.
func (r *Status) SetTyping(ctx context.Context, sender, receiver string, t model.Typing) error {
	statuses := map[string]model.Typing{}
	if err := load(ctx, r.store, typingStatusesKey, &statuses); err != nil {
		return err
	}
	statuses[typingKey(sender, receiver)] = t
	return save(ctx, r.store, typingStatusesKey, statuses)
}
