package repository

import "fmt"

// Storage key layout of the original app. These exact strings are the
// compatibility contract with unmigrated data.
const (
	usersKey          = "users"
	userStatusesKey   = "userStatuses"
	typingStatusesKey = "typingStatuses"
	loggedInUserKey   = "loggedInUser"
)

func contactsKey(username string) string { return fmt.Sprintf("contacts_%s", username) }

func groupsKey(username string) string { return fmt.Sprintf("groups_%s", username) }

// chatKey names the directional log authored by sender towards receiver.
func chatKey(sender, receiver string) string { return fmt.Sprintf("chat_%s_%s", sender, receiver) }

func groupChatKey(groupID string) string { return fmt.Sprintf("group_chat_%s", groupID) }

func mailboxKey(username string) string { return fmt.Sprintf("messages_%s", username) }

// typingKey names an entry inside the typingStatuses map, not a storage key.
func typingKey(sender, receiver string) string { return fmt.Sprintf("%s_%s", sender, receiver) }
