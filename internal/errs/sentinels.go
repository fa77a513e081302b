// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across store/repository/service layers.
var (
	// ErrNotFound indicates the requested storage entry or entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials is returned for both unknown identifier and wrong
	// password, so callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUsernameTaken indicates a case-insensitive username collision at signup.
	ErrUsernameTaken = errors.New("username taken")

	// ErrEmptyGroupName indicates a group name that is blank after trimming.
	ErrEmptyGroupName = errors.New("empty group name")

	// ErrNoMembersSelected indicates group creation without any member besides the creator.
	ErrNoMembersSelected = errors.New("no members selected")

	// ErrNoTargetSelected indicates a send attempt with no open conversation.
	ErrNoTargetSelected = errors.New("no target selected")
)
