package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/akulikov-dev/localchat/internal/errs"
	"github.com/akulikov-dev/localchat/internal/model"
	"github.com/akulikov-dev/localchat/internal/repository"
	"github.com/akulikov-dev/localchat/internal/timefmt"
)

// Groups defines group lifecycle operations.
type Groups interface {
	// Create forms a group of the creator plus the selected members and fans
	// the record out to every member's group list.
	Create(ctx context.Context, creator, name string, members []string) (model.Group, error)
	// Leave removes user from the group, updating all remaining copies.
	Leave(ctx context.Context, groupID, user string) error
	// List returns the member's group records.
	List(ctx context.Context, member string) ([]model.Group, error)
}

type GroupsImpl struct {
	groups   *repository.Groups
	messages *repository.Messages
	now      func() time.Time

	mu     sync.Mutex
	lastID int64
}

// NewGroups constructs Groups with required repositories.
func NewGroups(groups *repository.Groups, messages *repository.Messages) *GroupsImpl {
	return &GroupsImpl{groups: groups, messages: messages, now: time.Now}
}

// Create validates inputs, derives a time-based id, fans the group record
// out to every member and seeds the group chat with a creation notice.
func (s *GroupsImpl) Create(ctx context.Context, creator, name string, members []string) (model.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Group{}, errs.ErrEmptyGroupName
	}
	// The creator is always a member; the selection must add somebody else.
	members = dedupMembers(creator, members)
	if len(members) == 0 {
		return model.Group{}, errs.ErrNoMembersSelected
	}

	now := s.now()
	group := model.Group{
		ID:        s.nextID(now),
		Name:      name,
		Creator:   creator,
		Members:   append([]string{creator}, members...),
		CreatedAt: timefmt.Stamp(now),
	}

	for _, member := range group.Members {
		list, err := s.groups.List(ctx, member)
		if err != nil {
			return model.Group{}, err
		}
		if err := s.groups.Save(ctx, member, append(list, group)); err != nil {
			return model.Group{}, err
		}
	}

	seed := []model.GroupMessage{{
		Sender:    model.SystemSender,
		Text:      fmt.Sprintf("Group %q created by %s", name, creator),
		Timestamp: timefmt.Stamp(now),
		IsSystem:  true,
	}}
	if err := s.messages.SaveGroupLog(ctx, group.ID, seed); err != nil {
		return model.Group{}, err
	}
	return group, nil
}

// Leave removes user from the group's member list. When members remain,
// every remaining copy is rewritten and a system notice is appended; when
// the group empties there is nothing left to fan out to. The group is always
// removed from the leaver's own list.
func (s *GroupsImpl) Leave(ctx context.Context, groupID, user string) error {
	groups, err := s.groups.List(ctx, user)
	if err != nil {
		return err
	}

	for _, group := range groups {
		if group.ID != groupID {
			continue
		}
		var remaining []string
		for _, m := range group.Members {
			if m != user {
				remaining = append(remaining, m)
			}
		}
		if len(remaining) > 0 {
			for _, member := range remaining {
				if err := s.updateMemberCopy(ctx, member, groupID, remaining); err != nil {
					return err
				}
			}
			log, err := s.messages.GroupLog(ctx, groupID)
			if err != nil {
				return err
			}
			log = append(log, model.GroupMessage{
				Sender:    model.SystemSender,
				Text:      fmt.Sprintf("%s has left the group", user),
				Timestamp: timefmt.Stamp(s.now()),
				IsSystem:  true,
			})
			if err := s.messages.SaveGroupLog(ctx, groupID, log); err != nil {
				return err
			}
		}
		break
	}

	kept := groups[:0]
	for _, g := range groups {
		if g.ID != groupID {
			kept = append(kept, g)
		}
	}
	return s.groups.Save(ctx, user, kept)
}

// List returns the member's group records.
func (s *GroupsImpl) List(ctx context.Context, member string) ([]model.Group, error) {
	return s.groups.List(ctx, member)
}

func (s *GroupsImpl) updateMemberCopy(ctx context.Context, member, groupID string, members []string) error {
	list, err := s.groups.List(ctx, member)
	if err != nil {
		return err
	}
	changed := false
	for i := range list {
		if list[i].ID == groupID {
			list[i].Members = members
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.groups.Save(ctx, member, list)
}

// dedupMembers drops the creator and repeated names from the selection,
// preserving order.
func dedupMembers(creator string, members []string) []string {
	seen := map[string]bool{creator: true}
	out := make([]string, 0, len(members))
	for _, m := range members {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// nextID derives the time-based group id, bumped when two creations land in
// the same millisecond so ids stay unique within the process.
func (s *GroupsImpl) nextID(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := now.UnixMilli()
	if ms <= s.lastID {
		ms = s.lastID + 1
	}
	s.lastID = ms
	return fmt.Sprintf("group_%d", ms)
}
