// Package syncloop reconciles rendered chat state with storage by polling.
//
// There is no push channel between storage writers, so the loop re-derives
// the open conversation on a fixed cadence and re-renders when the message
// count grew. Intervals are fixed constants with no backoff or jitter; every
// tick runs to completion.
package syncloop

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/akulikov-dev/localchat/internal/errs"
	"github.com/akulikov-dev/localchat/internal/model"
	"github.com/akulikov-dev/localchat/internal/service"
)

const (
	// messagePollInterval is how often the open conversation and roster refresh.
	messagePollInterval = 2 * time.Second
	// presencePollInterval is how often own presence is re-asserted and the
	// open contact's presence/typing indicators refresh.
	presencePollInterval = 5 * time.Second
	// typingDebounce is the inactivity window after which the own typing flag
	// is lowered.
	typingDebounce = 2 * time.Second
)

// Renderer is the presentation-side sink. Implementations consume read-side
// data only; the loop never exposes write operations through it.
type Renderer interface {
	// RenderConversation replaces the displayed direct conversation.
	RenderConversation(peer string, msgs []model.Message)
	// RenderGroupConversation replaces the displayed group conversation.
	RenderGroupConversation(group model.Group, msgs []model.GroupMessage)
	// RenderRoster replaces the contact/group sidebar.
	RenderRoster(entries []service.RosterEntry)
	// RenderPresence updates the open contact's presence line and typing flag.
	RenderPresence(peer string, p model.Presence, typing bool)
	// Reset returns the view to the no-selection state.
	Reset()
}

type targetKind int

const (
	targetNone targetKind = iota
	targetContact
	targetGroup
)

// Loop owns the chat view state machine and the polling timers.
type Loop struct {
	self     string
	conv     service.Conversations
	presence service.Presence
	renderer Renderer
	log      *zap.Logger

	mu          sync.Mutex
	kind        targetKind
	peer        string
	group       model.Group
	rendered    int
	typingTimer *time.Timer
}

// New constructs the loop for the logged-in user.
func New(self string, conv service.Conversations, presence service.Presence, renderer Renderer, log *zap.Logger) *Loop {
	return &Loop{self: self, conv: conv, presence: presence, renderer: renderer, log: log}
}

// Run asserts own presence, renders the initial roster, then polls until ctx
// is done. Teardown lowers own presence best-effort, like a closing tab.
func (l *Loop) Run(ctx context.Context) {
	if err := l.presence.SetOnline(ctx, l.self, true); err != nil {
		l.log.Warn("set online", zap.Error(err))
	}
	l.refreshRoster(ctx)

	messages := time.NewTicker(messagePollInterval)
	defer messages.Stop()
	statuses := time.NewTicker(presencePollInterval)
	defer statuses.Stop()

	for {
		select {
		case <-ctx.Done():
			l.stopTypingTimer()
			// best-effort: the surrounding process may die before this lands
			if err := l.presence.SetOnline(context.Background(), l.self, false); err != nil {
				l.log.Warn("set offline", zap.Error(err))
			}
			return
		case <-messages.C:
			l.tickMessages(ctx)
		case <-statuses.C:
			l.tickPresence(ctx)
		}
	}
}

// SelectContact opens the one-on-one conversation with peer. Any previous
// selection's view state is fully reset first.
func (l *Loop) SelectContact(ctx context.Context, peer string) {
	l.mu.Lock()
	l.resetLocked()
	l.kind = targetContact
	l.peer = peer
	l.mu.Unlock()

	l.renderConversation(ctx, true)
	l.tickPresence(ctx)
}

// SelectGroup opens the group conversation.
func (l *Loop) SelectGroup(ctx context.Context, g model.Group) {
	l.mu.Lock()
	l.resetLocked()
	l.kind = targetGroup
	l.group = g
	l.mu.Unlock()

	l.renderConversation(ctx, true)
}

// ClearSelection returns to the no-selection state, e.g. after the open
// contact was removed or the open group was left.
func (l *Loop) ClearSelection() {
	l.mu.Lock()
	l.resetLocked()
	l.mu.Unlock()
	l.renderer.Reset()
}

// ActiveTarget reports the open target, if any.
func (l *Loop) ActiveTarget() (isGroup bool, id string, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.kind {
	case targetContact:
		return false, l.peer, true
	case targetGroup:
		return true, l.group.ID, true
	default:
		return false, "", false
	}
}

// Send appends text to the open conversation and lowers the typing flag.
func (l *Loop) Send(ctx context.Context, text string) error {
	l.mu.Lock()
	kind, peer, group := l.kind, l.peer, l.group
	l.mu.Unlock()

	switch kind {
	case targetContact:
		if err := l.conv.AppendDirect(ctx, l.self, peer, text); err != nil {
			return err
		}
	case targetGroup:
		if err := l.conv.AppendGroup(ctx, group.ID, l.self, text); err != nil {
			return err
		}
	default:
		return errs.ErrNoTargetSelected
	}

	l.NoteSent(ctx)
	l.renderConversation(ctx, true)
	return nil
}

// NoteTyping raises the own typing flag towards the open target and re-arms
// the inactivity debounce that lowers it again.
func (l *Loop) NoteTyping(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	target := l.targetIDLocked()
	if target == "" {
		return
	}
	if err := l.presence.SetTyping(ctx, l.self, target, true); err != nil {
		l.log.Warn("set typing", zap.Error(err))
	}
	if l.typingTimer != nil {
		l.typingTimer.Stop()
	}
	l.typingTimer = time.AfterFunc(typingDebounce, func() {
		l.mu.Lock()
		t := l.targetIDLocked()
		l.mu.Unlock()
		if t == "" {
			return
		}
		if err := l.presence.SetTyping(context.Background(), l.self, t, false); err != nil {
			l.log.Warn("clear typing", zap.Error(err))
		}
	})
}

// NoteSent lowers the typing flag immediately, bypassing the debounce.
func (l *Loop) NoteSent(ctx context.Context) {
	l.mu.Lock()
	target := l.targetIDLocked()
	if l.typingTimer != nil {
		l.typingTimer.Stop()
		l.typingTimer = nil
	}
	l.mu.Unlock()
	if target == "" {
		return
	}
	if err := l.presence.SetTyping(ctx, l.self, target, false); err != nil {
		l.log.Warn("clear typing", zap.Error(err))
	}
}

// tickMessages re-renders the open conversation when it grew and always
// refreshes the roster, so previews update for closed conversations too.
func (l *Loop) tickMessages(ctx context.Context) {
	l.renderConversation(ctx, false)
	l.refreshRoster(ctx)
}

// tickPresence re-asserts own presence and refreshes the open contact's
// presence and typing indicators.
func (l *Loop) tickPresence(ctx context.Context) {
	if err := l.presence.SetOnline(ctx, l.self, true); err != nil {
		l.log.Warn("set online", zap.Error(err))
	}

	l.mu.Lock()
	kind, peer := l.kind, l.peer
	l.mu.Unlock()
	if kind != targetContact {
		return
	}

	p, err := l.presence.Status(ctx, peer)
	if err != nil {
		l.log.Warn("presence poll", zap.Error(err))
		return
	}
	typing, err := l.presence.IsTyping(ctx, peer, l.self)
	if err != nil {
		l.log.Warn("typing poll", zap.Error(err))
		return
	}
	l.renderer.RenderPresence(peer, p, typing)
}

// renderConversation re-derives the open conversation and renders it when it
// grew (or unconditionally when force is set, on selection and sends).
// Rendering a direct conversation marks the peer's messages read.
func (l *Loop) renderConversation(ctx context.Context, force bool) {
	l.mu.Lock()
	kind, peer, group, rendered := l.kind, l.peer, l.group, l.rendered
	l.mu.Unlock()

	switch kind {
	case targetContact:
		msgs, err := l.conv.Conversation(ctx, l.self, peer)
		if err != nil {
			l.log.Warn("message poll", zap.Error(err))
			return
		}
		if !force && len(msgs) <= rendered {
			return
		}
		l.renderer.RenderConversation(peer, msgs)
		if err := l.conv.MarkDisplayed(ctx, l.self, peer); err != nil {
			l.log.Warn("mark displayed", zap.Error(err))
		}
		l.setRendered(kind, peer, len(msgs))
	case targetGroup:
		msgs, err := l.conv.GroupConversation(ctx, group.ID)
		if err != nil {
			l.log.Warn("message poll", zap.Error(err))
			return
		}
		if !force && len(msgs) <= rendered {
			return
		}
		l.renderer.RenderGroupConversation(group, msgs)
		l.setRendered(kind, group.ID, len(msgs))
	}
}

func (l *Loop) refreshRoster(ctx context.Context) {
	entries, err := l.conv.Roster(ctx, l.self)
	if err != nil {
		l.log.Warn("roster poll", zap.Error(err))
		return
	}
	l.renderer.RenderRoster(entries)
}

// setRendered records the rendered count unless the selection changed while
// the render was in flight.
func (l *Loop) setRendered(kind targetKind, id string, n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.kind != kind || l.targetIDLocked() != id {
		return
	}
	l.rendered = n
}

func (l *Loop) targetIDLocked() string {
	switch l.kind {
	case targetContact:
		return l.peer
	case targetGroup:
		return l.group.ID
	default:
		return ""
	}
}

// resetLocked wipes all view state: selection, rendered count, typing timer.
func (l *Loop) resetLocked() {
	l.kind = targetNone
	l.peer = ""
	l.group = model.Group{}
	l.rendered = 0
	if l.typingTimer != nil {
		l.typingTimer.Stop()
		l.typingTimer = nil
	}
}

func (l *Loop) stopTypingTimer() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.typingTimer != nil {
		l.typingTimer.Stop()
		l.typingTimer = nil
	}
}
