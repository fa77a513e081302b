package syncloop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akulikov-dev/localchat/internal/errs"
	"github.com/akulikov-dev/localchat/internal/kvstore"
	"github.com/akulikov-dev/localchat/internal/model"
	"github.com/akulikov-dev/localchat/internal/repository"
	"github.com/akulikov-dev/localchat/internal/service"
)

type renderCall struct {
	what string
	n    int // message/roster count, where it applies
}

type fakeRenderer struct {
	calls      []renderCall
	lastTyping bool
}

func (r *fakeRenderer) RenderConversation(_ string, msgs []model.Message) {
	r.calls = append(r.calls, renderCall{"conversation", len(msgs)})
}
func (r *fakeRenderer) RenderGroupConversation(_ model.Group, msgs []model.GroupMessage) {
	r.calls = append(r.calls, renderCall{"group", len(msgs)})
}
func (r *fakeRenderer) RenderRoster(entries []service.RosterEntry) {
	r.calls = append(r.calls, renderCall{"roster", len(entries)})
}
func (r *fakeRenderer) RenderPresence(_ string, _ model.Presence, typing bool) {
	r.lastTyping = typing
	r.calls = append(r.calls, renderCall{"presence", 0})
}
func (r *fakeRenderer) Reset() {
	r.calls = append(r.calls, renderCall{"reset", 0})
}

func (r *fakeRenderer) count(what string) int {
	n := 0
	for _, c := range r.calls {
		if c.what == what {
			n++
		}
	}
	return n
}

func (r *fakeRenderer) last(what string) (renderCall, bool) {
	for i := len(r.calls) - 1; i >= 0; i-- {
		if r.calls[i].what == what {
			return r.calls[i], true
		}
	}
	return renderCall{}, false
}

func newLoop(t *testing.T) (*Loop, *fakeRenderer, *kvstore.Memory) {
	t.Helper()
	store := kvstore.NewMemory()
	conv := service.NewConversations(
		repository.NewMessages(store),
		repository.NewContacts(store),
		repository.NewGroups(store),
		repository.NewStatus(store),
	)
	presence := service.NewPresence(repository.NewStatus(store))
	r := &fakeRenderer{}
	return New("alice", conv, presence, r, zap.NewNop()), r, store
}

func TestLoop_SendWithoutSelection(t *testing.T) {
	t.Parallel()
	loop, _, _ := newLoop(t)
	err := loop.Send(context.Background(), "hello")
	require.ErrorIs(t, err, errs.ErrNoTargetSelected)
}

func TestLoop_SelectContactRendersAndMarksDisplayed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	loop, r, store := newLoop(t)

	msgs := repository.NewMessages(store)
	require.NoError(t, msgs.SaveDirectLog(ctx, "bob", "alice", []model.Message{
		{Sender: "bob", Receiver: "alice", Text: "hi", Timestamp: "2025-03-05T10:00:00.000Z"},
	}))

	loop.SelectContact(ctx, "bob")

	call, ok := r.last("conversation")
	require.True(t, ok)
	require.Equal(t, 1, call.n)
	require.Equal(t, 1, r.count("presence"))

	// displaying marked bob's message read
	fromBob, err := msgs.DirectLog(ctx, "bob", "alice")
	require.NoError(t, err)
	require.True(t, fromBob[0].Read)
}

func TestLoop_TickRerendersOnlyOnGrowth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	loop, r, store := newLoop(t)
	loop.SelectContact(ctx, "bob")
	before := r.count("conversation")

	// nothing new: roster refreshes, conversation does not
	loop.tickMessages(ctx)
	require.Equal(t, before, r.count("conversation"))
	require.Equal(t, 1, r.count("roster"))

	msgs := repository.NewMessages(store)
	require.NoError(t, msgs.SaveDirectLog(ctx, "bob", "alice", []model.Message{
		{Sender: "bob", Receiver: "alice", Text: "new", Timestamp: "2025-03-05T10:00:01.000Z"},
	}))
	loop.tickMessages(ctx)
	require.Equal(t, before+1, r.count("conversation"))

	// rendered count caught up; another tick is quiet again
	loop.tickMessages(ctx)
	require.Equal(t, before+1, r.count("conversation"))
}

func TestLoop_SendAppendsAndRerenders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	loop, r, _ := newLoop(t)
	loop.SelectContact(ctx, "bob")

	require.NoError(t, loop.Send(ctx, "hello"))

	call, ok := r.last("conversation")
	require.True(t, ok)
	require.Equal(t, 1, call.n)
}

func TestLoop_GroupSelection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	loop, r, store := newLoop(t)
	g := model.Group{ID: "group_1", Name: "Team", Creator: "alice", Members: []string{"alice", "bob"}}

	loop.SelectGroup(ctx, g)
	require.Equal(t, 1, r.count("group"))

	require.NoError(t, loop.Send(ctx, "hello group"))
	call, ok := r.last("group")
	require.True(t, ok)
	require.Equal(t, 1, call.n)

	log, err := repository.NewMessages(store).GroupLog(ctx, "group_1")
	require.NoError(t, err)
	require.Len(t, log, 1)
	require.Equal(t, "alice", log[0].Sender)
}

func TestLoop_SelectionResetsViewState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	loop, r, _ := newLoop(t)

	loop.SelectContact(ctx, "bob")
	require.NoError(t, loop.Send(ctx, "one"))

	// switching target starts from a clean rendered count
	loop.SelectContact(ctx, "carol")
	isGroup, id, ok := loop.ActiveTarget()
	require.True(t, ok)
	require.False(t, isGroup)
	require.Equal(t, "carol", id)

	loop.ClearSelection()
	_, _, ok = loop.ActiveTarget()
	require.False(t, ok)
	require.Equal(t, 1, r.count("reset"))

	require.ErrorIs(t, loop.Send(ctx, "nope"), errs.ErrNoTargetSelected)
}

func TestLoop_PresenceTickRendersTypingIndicator(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	loop, r, store := newLoop(t)
	loop.SelectContact(ctx, "bob")

	// bob starts typing to alice
	presence := service.NewPresence(repository.NewStatus(store))
	require.NoError(t, presence.SetTyping(ctx, "bob", "alice", true))

	loop.tickPresence(ctx)
	require.True(t, r.lastTyping)

	// own presence was re-asserted
	p, err := presence.Status(ctx, "alice")
	require.NoError(t, err)
	require.True(t, p.Online)
}

func TestLoop_NoteTypingAndNoteSent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	loop, _, store := newLoop(t)
	loop.SelectContact(ctx, "bob")

	presence := service.NewPresence(repository.NewStatus(store))

	loop.NoteTyping(ctx)
	typing, err := presence.IsTyping(ctx, "alice", "bob")
	require.NoError(t, err)
	require.True(t, typing)

	loop.NoteSent(ctx)
	typing, err = presence.IsTyping(ctx, "alice", "bob")
	require.NoError(t, err)
	require.False(t, typing)
}
