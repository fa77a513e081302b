package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akulikov-dev/localchat/internal/kvstore"
	"github.com/akulikov-dev/localchat/internal/model"
	"github.com/akulikov-dev/localchat/internal/repository"
)

func newConversations(t *testing.T) (*ConversationsImpl, *kvstore.Memory) {
	t.Helper()
	store := kvstore.NewMemory()
	return NewConversations(
		repository.NewMessages(store),
		repository.NewContacts(store),
		repository.NewGroups(store),
		repository.NewStatus(store),
	), store
}

// tick makes every append land on a distinct, increasing timestamp.
func tick(svc *ConversationsImpl, base time.Time) {
	n := 0
	svc.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Millisecond)
	}
}

func TestConversations_AppendAndReadBackInOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newConversations(t)
	tick(svc, time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC))

	const n = 7
	for i := 0; i < n; i++ {
		sender, receiver := "alice", "bob"
		if i%2 == 1 {
			sender, receiver = "bob", "alice"
		}
		require.NoError(t, svc.AppendDirect(ctx, sender, receiver, fmt.Sprintf("msg %d", i)))
	}

	merged, err := svc.Conversation(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, merged, n)
	for i := 1; i < n; i++ {
		require.LessOrEqual(t, merged[i-1].Timestamp, merged[i].Timestamp)
	}
	for i := 0; i < n; i++ {
		require.Equal(t, fmt.Sprintf("msg %d", i), merged[i].Text)
	}
}

func TestConversations_MergeIsSymmetric(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newConversations(t)
	tick(svc, time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC))

	require.NoError(t, svc.AppendDirect(ctx, "alice", "bob", "hi"))
	require.NoError(t, svc.AppendDirect(ctx, "bob", "alice", "hello"))
	require.NoError(t, svc.AppendDirect(ctx, "alice", "bob", "how are you"))

	ab, err := svc.Conversation(ctx, "alice", "bob")
	require.NoError(t, err)
	ba, err := svc.Conversation(ctx, "bob", "alice")
	require.NoError(t, err)
	require.Equal(t, ab, ba)
}

func TestConversations_EmptyMessageSilentlyIgnored(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newConversations(t)

	require.NoError(t, svc.AppendDirect(ctx, "alice", "bob", "   "))
	require.NoError(t, svc.AppendGroup(ctx, "group_1", "alice", ""))

	merged, err := svc.Conversation(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Empty(t, merged)
	log, err := svc.GroupConversation(ctx, "group_1")
	require.NoError(t, err)
	require.Empty(t, log)
}

func TestConversations_MessageLivesInSenderLogOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, store := newConversations(t)
	require.NoError(t, svc.AppendDirect(ctx, "alice", "bob", "hi"))

	msgs := repository.NewMessages(store)
	own, err := msgs.DirectLog(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, own, 1)
	reverse, err := msgs.DirectLog(ctx, "bob", "alice")
	require.NoError(t, err)
	require.Empty(t, reverse)
}

func TestConversations_MarkReadByTimestampAffectsAllTies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, store := newConversations(t)
	msgs := repository.NewMessages(store)

	stamp := "2025-03-05T10:00:00.000Z"
	require.NoError(t, msgs.SaveDirectLog(ctx, "bob", "alice", []model.Message{
		{Sender: "bob", Receiver: "alice", Text: "one", Timestamp: stamp},
		{Sender: "bob", Receiver: "alice", Text: "two", Timestamp: stamp},
		{Sender: "bob", Receiver: "alice", Text: "later", Timestamp: "2025-03-05T10:00:01.000Z"},
	}))

	require.NoError(t, svc.MarkRead(ctx, "bob", "alice", stamp))

	log, err := msgs.DirectLog(ctx, "bob", "alice")
	require.NoError(t, err)
	require.True(t, log[0].Read)
	require.True(t, log[1].Read)
	require.False(t, log[2].Read)

	// absent timestamp is a no-op, not an error
	require.NoError(t, svc.MarkRead(ctx, "bob", "alice", "2030-01-01T00:00:00.000Z"))
}

func TestConversations_MarkDisplayedReadsWholePeerLog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, store := newConversations(t)
	tick(svc, time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC))

	require.NoError(t, svc.AppendDirect(ctx, "bob", "alice", "one"))
	require.NoError(t, svc.AppendDirect(ctx, "bob", "alice", "two"))
	require.NoError(t, svc.AppendDirect(ctx, "alice", "bob", "reply"))

	require.NoError(t, svc.MarkDisplayed(ctx, "alice", "bob"))

	msgs := repository.NewMessages(store)
	fromBob, err := msgs.DirectLog(ctx, "bob", "alice")
	require.NoError(t, err)
	for _, m := range fromBob {
		require.True(t, m.Read)
	}
	// alice's own outgoing message is not touched
	fromAlice, err := msgs.DirectLog(ctx, "alice", "bob")
	require.NoError(t, err)
	require.False(t, fromAlice[0].Read)
}

func TestConversations_HasNewCounts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newConversations(t)
	tick(svc, time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC))

	require.NoError(t, svc.AppendDirect(ctx, "alice", "bob", "hi"))
	require.NoError(t, svc.AppendDirect(ctx, "bob", "alice", "hello"))

	grew, err := svc.HasNewDirect(ctx, "alice", "bob", 1)
	require.NoError(t, err)
	require.True(t, grew)
	grew, err = svc.HasNewDirect(ctx, "alice", "bob", 2)
	require.NoError(t, err)
	require.False(t, grew)

	require.NoError(t, svc.AppendGroup(ctx, "group_1", "alice", "yo"))
	grew, err = svc.HasNewGroup(ctx, "group_1", 0)
	require.NoError(t, err)
	require.True(t, grew)
}

func TestConversations_RosterSortsByLastActivity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, store := newConversations(t)
	tick(svc, time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC))

	contacts := repository.NewContacts(store)
	require.NoError(t, contacts.Save(ctx, "alice", []model.Contact{
		{Username: "bob", Email: "b@x.io"},
		{Username: "carol", Email: "c@x.io"},
		{Username: "dave", Email: "d@x.io"}, // never messaged
	}))
	groups := repository.NewGroups(store)
	require.NoError(t, groups.Save(ctx, "alice", []model.Group{
		{ID: "group_1", Name: "Team", Creator: "alice", Members: []string{"alice", "bob"}},
	}))
	status := repository.NewStatus(store)
	require.NoError(t, status.SetPresence(ctx, "bob", model.Presence{Online: true, LastSeen: "2025-03-05T09:59:00.000Z"}))

	require.NoError(t, svc.AppendDirect(ctx, "alice", "bob", "oldest"))
	require.NoError(t, svc.AppendGroup(ctx, "group_1", "bob", "middle"))
	require.NoError(t, svc.AppendDirect(ctx, "carol", "alice", "newest"))

	roster, err := svc.Roster(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, roster, 4)

	require.Equal(t, "carol", roster[0].Contact.Username)
	require.Equal(t, "newest", roster[0].LastText)
	require.True(t, roster[1].IsGroup)
	require.Equal(t, "middle", roster[1].LastText)
	require.Equal(t, "bob", roster[2].Contact.Username)
	require.True(t, roster[2].Presence.Online)
	require.Equal(t, "dave", roster[3].Contact.Username) // no messages sorts last
	require.Empty(t, roster[3].LastTimestamp)
}

// Two handles appending to the same log interleave their read-modify-write
// sequences and one write vanishes. The substrate has no transactions; this
// is the documented single-active-tab assumption, not a bug to fix here.
func TestConversations_ConcurrentAppendLosesOneWrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kvstore.NewMemory()
	msgs := repository.NewMessages(store)

	logA, err := msgs.DirectLog(ctx, "alice", "bob")
	require.NoError(t, err)
	logB, err := msgs.DirectLog(ctx, "alice", "bob")
	require.NoError(t, err)

	require.NoError(t, msgs.SaveDirectLog(ctx, "alice", "bob",
		append(logA, model.Message{Sender: "alice", Receiver: "bob", Text: "from tab A", Timestamp: "2025-03-05T10:00:00.000Z"})))
	require.NoError(t, msgs.SaveDirectLog(ctx, "alice", "bob",
		append(logB, model.Message{Sender: "alice", Receiver: "bob", Text: "from tab B", Timestamp: "2025-03-05T10:00:00.001Z"})))

	final, err := msgs.DirectLog(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, final, 1)
	require.Equal(t, "from tab B", final[0].Text)
}
