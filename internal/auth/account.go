// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/samber/oops"
)

// DefaultTier is the least-privileged permission tier assigned to new
// accounts. Smaller tiers are more privileged; tier 0 is root.
const DefaultTier = 5

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// usernameRegex matches usernames that start with a letter and contain
// only letters, numbers, and underscores.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Account is an identity record. Sequence, Username and Email are each
// globally unique; Sequence is the 4-digit public identifier and is
// immutable once assigned.
type Account struct {
	ID           int
	Sequence     int
	Username     string
	Email        string
	PasswordHash string
	Nickname     string
	Tier         int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidateUsername validates a username against registration rules.
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create inserts a new account and returns it with storage-assigned
	// fields populated. A unique violation on the sequence column is
	// reported as ErrSequenceTaken; any other unique violation as
	// ErrConflict.
	Create(ctx context.Context, account *Account) (*Account, error)

	// GetByID retrieves an account by primary key.
	GetByID(ctx context.Context, id int) (*Account, error)

	// GetByIdentity retrieves an account whose username, email or
	// display sequence matches the identity. Identity fields are each
	// unique, so at most one account matches.
	GetByIdentity(ctx context.Context, identity string) (*Account, error)

	// ExistsSequence reports whether any account holds the sequence.
	ExistsSequence(ctx context.Context, sequence int) (bool, error)

	// ExistsRegistration reports whether an account matches username,
	// email and nickname simultaneously. Registration treats only the
	// full triple as a collision; accounts may share individual fields
	// subject to the column-level unique constraints.
	ExistsRegistration(ctx context.Context, username, email, nickname string) (bool, error)
}
