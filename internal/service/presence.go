package service

import (
	"context"
	"time"

	"github.com/akulikov-dev/localchat/internal/model"
	"github.com/akulikov-dev/localchat/internal/repository"
	"github.com/akulikov-dev/localchat/internal/timefmt"
)

// typingStaleness is the window in which a typing flag counts as live. A
// client that never sends the follow-up "stopped typing" update self-corrects
// after this long.
const typingStaleness = 3 * time.Second

// Presence defines online/last-seen and typing-indicator operations.
type Presence interface {
	// SetOnline records the user's online flag and refreshes last-seen.
	SetOnline(ctx context.Context, username string, online bool) error
	// Status returns the user's presence record; the zero value means never seen.
	Status(ctx context.Context, username string) (model.Presence, error)
	// SetTyping records the directed typing flag for the pair.
	SetTyping(ctx context.Context, sender, receiver string, typing bool) error
	// IsTyping reports whether sender is typing to receiver right now.
	IsTyping(ctx context.Context, sender, receiver string) (bool, error)
}

type PresenceImpl struct {
	status *repository.Status
	now    func() time.Time
}

// NewPresence constructs Presence over the status repository.
func NewPresence(status *repository.Status) *PresenceImpl {
	return &PresenceImpl{status: status, now: time.Now}
}

// SetOnline is a last-write-wins update of the user's presence entry.
func (s *PresenceImpl) SetOnline(ctx context.Context, username string, online bool) error {
	return s.status.SetPresence(ctx, username, model.Presence{
		Online:   online,
		LastSeen: timefmt.Stamp(s.now()),
	})
}

// Status returns the user's presence record.
func (s *PresenceImpl) Status(ctx context.Context, username string) (model.Presence, error) {
	all, err := s.status.Presences(ctx)
	if err != nil {
		return model.Presence{}, err
	}
	return all[username], nil
}

// SetTyping is a last-write-wins update of the pair's typing entry.
func (s *PresenceImpl) SetTyping(ctx context.Context, sender, receiver string, typing bool) error {
	return s.status.SetTyping(ctx, sender, receiver, model.Typing{
		IsTyping:  typing,
		Timestamp: timefmt.Stamp(s.now()),
	})
}

// IsTyping is true only while the pair's entry is set and fresher than the
// staleness window. Expiry alone turns the signal off; no cancel is needed.
func (s *PresenceImpl) IsTyping(ctx context.Context, sender, receiver string) (bool, error) {
	t, ok, err := s.status.Typing(ctx, sender, receiver)
	if err != nil {
		return false, err
	}
	if !ok || !t.IsTyping {
		return false, nil
	}
	at := timefmt.Parse(t.Timestamp)
	if at.IsZero() {
		return false, nil
	}
	return s.now().Sub(at) < typingStaleness, nil
}
