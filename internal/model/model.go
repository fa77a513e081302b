// Package model defines domain entities used by services and repositories.
//
// JSON field names mirror the records the original browser app persisted,
// because the stored key-value layout is the compatibility contract. All
// timestamps are ISO-8601 strings (UTC, millisecond precision), which sort
// chronologically as plain strings.
package model

// User is an account record stored in the shared "users" list.
// The password field holds the reversible obfuscated form, not a hash.
type User struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Username   string `json:"username"` // primary key, unique case-insensitively
	Password   string `json:"password"`
	ProfilePic string `json:"profilePic"`
	Online     bool   `json:"online"`
	CreatedAt  string `json:"createdAt"`
}

// Contact is one side of a friendship edge, stored under the owner's
// contact list. Edges are created in pairs but removed one-sided.
type Contact struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Group is a denormalized group record. An identical copy lives under every
// member's own group list; membership changes fan out to all copies.
type Group struct {
	ID        string   `json:"id"` // "group_" + creation unix millis
	Name      string   `json:"name"`
	Creator   string   `json:"creator"`
	Members   []string `json:"members"`
	CreatedAt string   `json:"createdAt"`
}

// Message is a direct message. It lives in exactly one directional log, the
// one keyed by its own sender; the conversation is merged at read time.
type Message struct {
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Read      bool   `json:"read"`
}

// GroupMessage is a group-chat entry. Sender is "System" for synthetic
// membership events. There is no read state for group messages.
type GroupMessage struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	IsSystem  bool   `json:"isSystem,omitempty"`
}

// SystemSender is the sender name used for synthetic group events.
const SystemSender = "System"

// Presence is a user's entry in the global status map. Last write wins.
type Presence struct {
	Online   bool   `json:"online"`
	LastSeen string `json:"lastSeen"`
}

// Typing is an entry in the global typing map, keyed by "{sender}_{receiver}".
// It is valid only within a short staleness window; see service.Presence.
type Typing struct {
	IsTyping  bool   `json:"isTyping"`
	Timestamp string `json:"timestamp"`
}

// Mailbox is the per-user message container seeded at signup. The original
// app created it and never read it back; it is kept for schema fidelity.
type Mailbox struct {
	Group   []GroupMessage       `json:"group"`
	Private map[string][]Message `json:"private"`
}

// NewMailbox returns the empty container written under "messages_{username}".
func NewMailbox() Mailbox {
	return Mailbox{Group: []GroupMessage{}, Private: map[string][]Message{}}
}
