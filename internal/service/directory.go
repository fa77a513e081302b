// Package service contains application services for the directory, groups,
// presence and conversations.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akulikov-dev/localchat/internal/errs"
	"github.com/akulikov-dev/localchat/internal/model"
	"github.com/akulikov-dev/localchat/internal/obfuscate"
	"github.com/akulikov-dev/localchat/internal/repository"
	"github.com/akulikov-dev/localchat/internal/timefmt"
)

// Directory defines account and contact operations.
type Directory interface {
	// Register creates a new account after a case-insensitive uniqueness check.
	Register(ctx context.Context, fullName, email, username, password string) (model.User, error)
	// Authenticate matches identifier against username or email, case-insensitively.
	Authenticate(ctx context.Context, identifier, password string) (model.User, error)
	// AddContact creates the friendship edge under both users. Idempotent.
	AddContact(ctx context.Context, owner, peer string) error
	// RemoveContact removes only the owner's edge and the owner-authored chat log.
	RemoveContact(ctx context.Context, owner, peer string) error
	// Contacts returns the owner's contact list.
	Contacts(ctx context.Context, owner string) ([]model.Contact, error)
	// SearchUsers returns addable users matching term on username or email.
	SearchUsers(ctx context.Context, viewer, term string) ([]model.User, error)
}

type DirectoryImpl struct {
	users    *repository.Users
	contacts *repository.Contacts
	messages *repository.Messages
	now      func() time.Time
}

// NewDirectory constructs Directory with required repositories.
func NewDirectory(users *repository.Users, contacts *repository.Contacts, messages *repository.Messages) *DirectoryImpl {
	return &DirectoryImpl{users: users, contacts: contacts, messages: messages, now: time.Now}
}

// Register creates the account and seeds its empty message container.
func (s *DirectoryImpl) Register(ctx context.Context, fullName, email, username, password string) (model.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	existing, err := s.users.All(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range existing {
		if strings.EqualFold(u.Username, username) {
			return model.User{}, errs.ErrUsernameTaken
		}
	}

	u := model.User{
		FullName:  fullName,
		Email:     email,
		Username:  username,
		Password:  obfuscate.Apply(password),
		CreatedAt: timefmt.Stamp(s.now()),
	}
	if err := s.users.Append(ctx, u); err != nil {
		return model.User{}, err
	}
	if err := s.users.SeedMailbox(ctx, username); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// Authenticate looks up by username or email and compares the stored
// obfuscated password. Unknown identifier and wrong password are
// indistinguishable to the caller.
func (s *DirectoryImpl) Authenticate(ctx context.Context, identifier, password string) (model.User, error) {
	identifier = strings.TrimSpace(identifier)
	users, err := s.users.All(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, identifier) || (u.Email != "" && strings.EqualFold(u.Email, identifier)) {
			if u.Password == obfuscate.Apply(password) {
				return u, nil
			}
			return model.User{}, errs.ErrInvalidCredentials
		}
	}
	return model.User{}, errs.ErrInvalidCredentials
}

// AddContact writes the edge under both users' lists. A self-edge and an
// already-present edge are both no-ops; when the owner's side is already
// present the reciprocal write is skipped too, matching the original.
func (s *DirectoryImpl) AddContact(ctx context.Context, owner, peer string) error {
	if owner == peer {
		return nil
	}
	ownerUser, err := s.findUser(ctx, owner)
	if err != nil {
		return fmt.Errorf("add contact: owner: %w", err)
	}
	peerUser, err := s.findUser(ctx, peer)
	if err != nil {
		return fmt.Errorf("add contact: peer: %w", err)
	}

	ownerContacts, err := s.contacts.List(ctx, owner)
	if err != nil {
		return err
	}
	if hasContact(ownerContacts, peer) {
		return nil
	}
	ownerContacts = append(ownerContacts, model.Contact{Username: peerUser.Username, Email: peerUser.Email})
	if err := s.contacts.Save(ctx, owner, ownerContacts); err != nil {
		return err
	}

	peerContacts, err := s.contacts.List(ctx, peer)
	if err != nil {
		return err
	}
	if !hasContact(peerContacts, owner) {
		peerContacts = append(peerContacts, model.Contact{Username: ownerUser.Username, Email: ownerUser.Email})
		if err := s.contacts.Save(ctx, peer, peerContacts); err != nil {
			return err
		}
	}
	return nil
}

// RemoveContact drops the owner's edge and the owner-authored log only. The
// peer keeps their edge and their own log; the asymmetry is deliberate.
func (s *DirectoryImpl) RemoveContact(ctx context.Context, owner, peer string) error {
	contacts, err := s.contacts.List(ctx, owner)
	if err != nil {
		return err
	}
	kept := contacts[:0]
	for _, c := range contacts {
		if c.Username != peer {
			kept = append(kept, c)
		}
	}
	if err := s.contacts.Save(ctx, owner, kept); err != nil {
		return err
	}
	return s.messages.DeleteDirectLog(ctx, owner, peer)
}

// Contacts returns the owner's contact list.
func (s *DirectoryImpl) Contacts(ctx context.Context, owner string) ([]model.Contact, error) {
	return s.contacts.List(ctx, owner)
}

// SearchUsers filters the directory to users the viewer could add: not the
// viewer, not already a contact, matching term on username or email. An
// empty term matches everyone.
func (s *DirectoryImpl) SearchUsers(ctx context.Context, viewer, term string) ([]model.User, error) {
	users, err := s.users.All(ctx)
	if err != nil {
		return nil, err
	}
	contacts, err := s.contacts.List(ctx, viewer)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(term)

	var out []model.User
	for _, u := range users {
		if u.Username == viewer || hasContact(contacts, u.Username) {
			continue
		}
		if term == "" ||
			strings.Contains(strings.ToLower(u.Username), term) ||
			(u.Email != "" && strings.Contains(strings.ToLower(u.Email), term)) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *DirectoryImpl) findUser(ctx context.Context, username string) (model.User, error) {
	users, err := s.users.All(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, errs.ErrNotFound
}

func hasContact(contacts []model.Contact, username string) bool {
	for _, c := range contacts {
		if c.Username == username {
			return true
		}
	}
	return false
}
