package repository

import (
	"context"

	"github.com/akulikov-dev/localchat/internal/kvstore"
	"github.com/akulikov-dev/localchat/internal/model"
)

// Contacts reads and writes per-user contact lists.
type Contacts struct{ store kvstore.Store }

// NewContacts constructs a contacts repository over the durable store.
func NewContacts(store kvstore.Store) *Contacts { return &Contacts{store: store} }

// List returns the owner's contact edges, oldest first.
func (r *Contacts) List(ctx context.Context, owner string) ([]model.Contact, error) {
	var contacts []model.Contact
	if err := load(ctx, r.store, contactsKey(owner), &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// Save replaces the owner's contact list.
func (r *Contacts) Save(ctx context.Context, owner string, contacts []model.Contact) error {
	return save(ctx, r.store, contactsKey(owner), contacts)
}
