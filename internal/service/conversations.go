package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/akulikov-dev/localchat/internal/model"
	"github.com/akulikov-dev/localchat/internal/repository"
	"github.com/akulikov-dev/localchat/internal/timefmt"
)

// RosterEntry is one row of the contact/group sidebar: the target plus its
// last-message preview and, for contacts, live presence.
type RosterEntry struct {
	IsGroup bool
	Contact model.Contact // set when !IsGroup
	Group   model.Group   // set when IsGroup

	LastSender    string
	LastText      string
	LastTimestamp string // empty when no messages yet
	Presence      model.Presence
}

// Conversations defines message storage and read-side merge operations.
type Conversations interface {
	// AppendDirect appends to the sender-authored directional log.
	// Empty or whitespace-only text is silently ignored.
	AppendDirect(ctx context.Context, sender, receiver, text string) error
	// AppendGroup appends to the group's single log.
	AppendGroup(ctx context.Context, groupID, sender, text string) error
	// Conversation merges both directional logs, ascending by timestamp.
	Conversation(ctx context.Context, a, b string) ([]model.Message, error)
	// GroupConversation returns the group log as stored, append order.
	GroupConversation(ctx context.Context, groupID string) ([]model.GroupMessage, error)
	// MarkRead flags every message in the sender-authored log whose timestamp
	// matches exactly. Absent or already-read messages are a no-op.
	MarkRead(ctx context.Context, sender, viewer, timestamp string) error
	// MarkDisplayed flags everything peer has sent to viewer as read, the
	// side effect of the conversation being rendered.
	MarkDisplayed(ctx context.Context, viewer, peer string) error
	// HasNewDirect reports whether the merged conversation outgrew rendered.
	HasNewDirect(ctx context.Context, a, b string, rendered int) (bool, error)
	// HasNewGroup reports whether the group log outgrew rendered.
	HasNewGroup(ctx context.Context, groupID string, rendered int) (bool, error)
	// Roster returns contacts and groups with previews, most recent first.
	Roster(ctx context.Context, viewer string) ([]RosterEntry, error)
}

type ConversationsImpl struct {
	messages *repository.Messages
	contacts *repository.Contacts
	groups   *repository.Groups
	status   *repository.Status
	now      func() time.Time
}

// NewConversations constructs Conversations with required repositories.
func NewConversations(messages *repository.Messages, contacts *repository.Contacts, groups *repository.Groups, status *repository.Status) *ConversationsImpl {
	return &ConversationsImpl{messages: messages, contacts: contacts, groups: groups, status: status, now: time.Now}
}

// AppendDirect writes the message into the sender-authored log only; the
// mirror log is untouched. The write is read-modify-write, not atomic.
func (s *ConversationsImpl) AppendDirect(ctx context.Context, sender, receiver, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	log, err := s.messages.DirectLog(ctx, sender, receiver)
	if err != nil {
		return err
	}
	log = append(log, model.Message{
		Sender:    sender,
		Receiver:  receiver,
		Text:      text,
		Timestamp: timefmt.Stamp(s.now()),
	})
	return s.messages.SaveDirectLog(ctx, sender, receiver, log)
}

// AppendGroup writes the message into the group's single log.
func (s *ConversationsImpl) AppendGroup(ctx context.Context, groupID, sender, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	log, err := s.messages.GroupLog(ctx, groupID)
	if err != nil {
		return err
	}
	log = append(log, model.GroupMessage{
		Sender:    sender,
		Text:      text,
		Timestamp: timefmt.Stamp(s.now()),
	})
	return s.messages.SaveGroupLog(ctx, groupID, log)
}

// Conversation reconstructs the full exchange by merging the two directional
// logs. Nothing merged is ever persisted; every read recomputes.
func (s *ConversationsImpl) Conversation(ctx context.Context, a, b string) ([]model.Message, error) {
	own, err := s.messages.DirectLog(ctx, a, b)
	if err != nil {
		return nil, err
	}
	reverse, err := s.messages.DirectLog(ctx, b, a)
	if err != nil {
		return nil, err
	}
	merged := append(own, reverse...)
	// ISO timestamps sort chronologically as strings; stable keeps the
	// directional order for equal stamps.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged, nil
}

// GroupConversation returns the log as stored; append order is trusted to be
// chronological.
func (s *ConversationsImpl) GroupConversation(ctx context.Context, groupID string) ([]model.GroupMessage, error) {
	return s.messages.GroupLog(ctx, groupID)
}

// MarkRead flags every matching message; the timestamp is the de facto
// message id, so equal-timestamp ties are all affected.
func (s *ConversationsImpl) MarkRead(ctx context.Context, sender, viewer, timestamp string) error {
	log, err := s.messages.DirectLog(ctx, sender, viewer)
	if err != nil {
		return err
	}
	updated := false
	for i := range log {
		if log[i].Timestamp == timestamp && !log[i].Read {
			log[i].Read = true
			updated = true
		}
	}
	if !updated {
		return nil
	}
	return s.messages.SaveDirectLog(ctx, sender, viewer, log)
}

// MarkDisplayed marks the whole peer-authored log read in one pass.
func (s *ConversationsImpl) MarkDisplayed(ctx context.Context, viewer, peer string) error {
	log, err := s.messages.DirectLog(ctx, peer, viewer)
	if err != nil {
		return err
	}
	updated := false
	for i := range log {
		if !log[i].Read {
			log[i].Read = true
			updated = true
		}
	}
	if !updated {
		return nil
	}
	return s.messages.SaveDirectLog(ctx, peer, viewer, log)
}

// HasNewDirect compares the merged count against what the view rendered.
func (s *ConversationsImpl) HasNewDirect(ctx context.Context, a, b string, rendered int) (bool, error) {
	merged, err := s.Conversation(ctx, a, b)
	if err != nil {
		return false, err
	}
	return len(merged) > rendered, nil
}

// HasNewGroup compares the group log count against what the view rendered.
func (s *ConversationsImpl) HasNewGroup(ctx context.Context, groupID string, rendered int) (bool, error) {
	log, err := s.messages.GroupLog(ctx, groupID)
	if err != nil {
		return false, err
	}
	return len(log) > rendered, nil
}

// Roster builds the sidebar: every contact and group with its latest message
// preview, contacts carrying presence, sorted most recently active first.
// Targets with no messages sort last.
func (s *ConversationsImpl) Roster(ctx context.Context, viewer string) ([]RosterEntry, error) {
	contacts, err := s.contacts.List(ctx, viewer)
	if err != nil {
		return nil, err
	}
	groups, err := s.groups.List(ctx, viewer)
	if err != nil {
		return nil, err
	}
	presences, err := s.status.Presences(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]RosterEntry, 0, len(contacts)+len(groups))
	for _, c := range contacts {
		merged, err := s.Conversation(ctx, viewer, c.Username)
		if err != nil {
			return nil, err
		}
		e := RosterEntry{Contact: c, Presence: presences[c.Username]}
		if n := len(merged); n > 0 {
			last := merged[n-1]
			e.LastSender, e.LastText, e.LastTimestamp = last.Sender, last.Text, last.Timestamp
		}
		entries = append(entries, e)
	}
	for _, g := range groups {
		log, err := s.messages.GroupLog(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		e := RosterEntry{IsGroup: true, Group: g}
		if n := len(log); n > 0 {
			last := log[n-1]
			e.LastSender, e.LastText, e.LastTimestamp = last.Sender, last.Text, last.Timestamp
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LastTimestamp > entries[j].LastTimestamp
	})
	return entries, nil
}
