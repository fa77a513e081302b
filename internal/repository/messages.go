package repository

import (
	"context"

	"github.com/akulikov-dev/localchat/internal/kvstore"
	"github.com/akulikov-dev/localchat/internal/model"
)

// Messages reads and writes the directional and group message logs.
//
// Appends are read-modify-write over the full log with no locking, matching
// the substrate: two handles appending to the same log concurrently will
// silently drop one write.
type Messages struct{ store kvstore.Store }

// NewMessages constructs a message repository over the durable store.
func NewMessages(store kvstore.Store) *Messages { return &Messages{store: store} }

// DirectLog returns the log authored by sender towards receiver.
func (r *Messages) DirectLog(ctx context.Context, sender, receiver string) ([]model.Message, error) {
	var msgs []model.Message
	if err := load(ctx, r.store, chatKey(sender, receiver), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SaveDirectLog replaces the log authored by sender towards receiver.
func (r *Messages) SaveDirectLog(ctx context.Context, sender, receiver string, msgs []model.Message) error {
	return save(ctx, r.store, chatKey(sender, receiver), msgs)
}

// DeleteDirectLog removes the sender-authored log entirely.
func (r *Messages) DeleteDirectLog(ctx context.Context, sender, receiver string) error {
	return r.store.Delete(ctx, chatKey(sender, receiver))
}

// GroupLog returns the single log of a group chat, in append order.
func (r *Messages) GroupLog(ctx context.Context, groupID string) ([]model.GroupMessage, error) {
	var msgs []model.GroupMessage
	if err := load(ctx, r.store, groupChatKey(groupID), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SaveGroupLog replaces the group chat log.
func (r *Messages) SaveGroupLog(ctx context.Context, groupID string, msgs []model.GroupMessage) error {
	return save(ctx, r.store, groupChatKey(groupID), msgs)
}
