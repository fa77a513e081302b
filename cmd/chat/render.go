package main

import (
	"fmt"
	"os"
	"time"

	"github.com/akulikov-dev/localchat/internal/model"
	"github.com/akulikov-dev/localchat/internal/service"
	"github.com/akulikov-dev/localchat/internal/syncloop"
	"github.com/akulikov-dev/localchat/internal/timefmt"
)

// terminalRenderer prints view updates to stdout. It consumes read-side data
// only; all writes go through the services.
type terminalRenderer struct {
	self string
}

func newTerminalRenderer(self string) *terminalRenderer {
	return &terminalRenderer{self: self}
}

func (r *terminalRenderer) RenderConversation(peer string, msgs []model.Message) {
	now := time.Now()
	fmt.Printf("--- chat with %s ---\n", peer)
	if len(msgs) == 0 {
		fmt.Printf("Start a conversation with %s...\n", peer)
		return
	}
	lastDay := ""
	for _, m := range msgs {
		at := timefmt.Parse(m.Timestamp)
		if day := at.In(now.Location()).Format("2006-01-02"); day != lastDay {
			fmt.Printf("== %s ==\n", day)
			lastDay = day
		}
		line := fmt.Sprintf("[%s] %s: %s", timefmt.MessageTime(at, now), m.Sender, m.Text)
		if m.Sender == r.self {
			if m.Read {
				line += " (Read)"
			} else {
				line += " (Sent)"
			}
		}
		fmt.Println(line)
	}
}

func (r *terminalRenderer) RenderGroupConversation(group model.Group, msgs []model.GroupMessage) {
	now := time.Now()
	fmt.Printf("--- %s (Group, %d members) ---\n", group.Name, len(group.Members))
	if len(msgs) == 0 {
		fmt.Println("No messages in this group yet")
		return
	}
	for _, m := range msgs {
		if m.IsSystem {
			fmt.Printf("* %s\n", m.Text)
			continue
		}
		at := timefmt.Parse(m.Timestamp)
		fmt.Printf("[%s] %s: %s\n", timefmt.MessageTime(at, now), m.Sender, m.Text)
	}
}

func (r *terminalRenderer) RenderRoster(entries []service.RosterEntry) {
	now := time.Now()
	if len(entries) == 0 {
		fmt.Println("No friends or groups added yet")
		return
	}
	fmt.Println("--- contacts ---")
	for _, e := range entries {
		preview := "No messages yet"
		if e.LastTimestamp != "" {
			sender := e.LastSender
			if sender == r.self {
				sender = "You"
			}
			preview = fmt.Sprintf("%s: %s", sender, e.LastText)
		}
		if e.IsGroup {
			fmt.Printf("%s (Group, %d members)  %s\n", e.Group.Name, len(e.Group.Members), preview)
			continue
		}
		fmt.Printf("%s [%s]  %s\n", e.Contact.Username, presenceLabel(e.Presence, now), preview)
	}
}

func (r *terminalRenderer) RenderPresence(peer string, p model.Presence, typing bool) {
	fmt.Printf("%s: %s\n", peer, presenceLabel(p, time.Now()))
	if typing {
		fmt.Printf("%s is typing...\n", peer)
	}
}

func (r *terminalRenderer) Reset() {
	fmt.Println("(no conversation selected)")
}

func presenceLabel(p model.Presence, now time.Time) string {
	if p.Online {
		return "Online"
	}
	if p.LastSeen == "" {
		return "Last seen: Never"
	}
	return "Last seen: " + timefmt.LastSeen(timefmt.Parse(p.LastSeen), now)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

var _ syncloop.Renderer = (*terminalRenderer)(nil)
