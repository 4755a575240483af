// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/quantumix/quantumix/internal/access"
)

// registerInsertAttempts bounds the allocate-then-insert loop in
// Register. Each pass draws a fresh sequence, so a retry here only
// happens when a concurrent registration won the same draw at insert
// time.
const registerInsertAttempts = 8

// Service ties the hasher, sequence allocator and session manager
// together to implement registration and login.
type Service struct {
	accounts  AccountRepository
	hasher    PasswordHasher
	sequences *SequenceAllocator
	sessions  *SessionManager
	emails    EmailValidator
	logger    *slog.Logger
}

// NewService creates an authentication Service.
func NewService(
	accounts AccountRepository,
	hasher PasswordHasher,
	sequences *SequenceAllocator,
	sessions *SessionManager,
	emails EmailValidator,
	logger *slog.Logger,
) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("account repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("password hasher is required")
	}
	if sequences == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("sequence allocator is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("session manager is required")
	}
	if emails == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("email validator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		accounts:  accounts,
		hasher:    hasher,
		sequences: sequences,
		sessions:  sessions,
		emails:    emails,
		logger:    logger,
	}, nil
}

// Register creates a new account with a freshly allocated display
// sequence.
//
// Registration collides only when an existing account matches username,
// email AND nickname simultaneously; a match on any single field is
// caught by that column's unique constraint at insert time instead.
func (s *Service) Register(ctx context.Context, username, email, password, nickname string) (*Account, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if !s.emails.IsAcceptedAddress(email) {
		return nil, oops.Code("AUTH_INVALID_EMAIL").
			With("email", email).
			Errorf("email address is not accepted for registration")
	}

	taken, err := s.accounts.ExistsRegistration(ctx, username, email, nickname)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "check registration conflict").
			Wrap(err)
	}
	if taken {
		return nil, oops.Code("AUTH_CONFLICT").
			With("username", username).
			Wrap(ErrConflict)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		// The underlying cause stays in the wrapped chain for logs; the
		// caller sees a generic hashing failure.
		return nil, oops.Code("AUTH_HASH_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	// Allocate-then-insert is racy by design: the store's unique
	// constraint on the sequence column is the arbiter. A loser re-draws.
	for attempt := 0; attempt < registerInsertAttempts; attempt++ {
		sequence, err := s.sequences.Allocate(ctx)
		if err != nil {
			return nil, err
		}

		account := &Account{
			Sequence:     sequence,
			Username:     username,
			Email:        email,
			PasswordHash: passwordHash,
			Nickname:     nickname,
			Tier:         DefaultTier,
		}

		created, err := s.accounts.Create(ctx, account)
		if err != nil {
			if errors.Is(err, ErrSequenceTaken) {
				continue
			}
			if errors.Is(err, ErrConflict) {
				return nil, oops.Code("AUTH_CONFLICT").
					With("username", username).
					Wrap(err)
			}
			return nil, oops.Code("AUTH_REGISTER_FAILED").
				With("operation", "insert account").
				Wrap(err)
		}

		s.logger.Info("account registered",
			"account_id", created.ID,
			"username", created.Username,
			"sequence", created.Sequence)
		return created, nil
	}

	return nil, oops.Code("AUTH_SEQUENCE_EXHAUSTED").
		With("attempts", registerInsertAttempts).
		Errorf("could not insert account with a unique sequence")
}

// Login authenticates by username, email or display sequence and
// returns a session token for the device.
func (s *Service) Login(ctx context.Context, identity, password, deviceID string) (string, error) {
	account, err := s.accounts.GetByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", oops.Code("AUTH_ACCOUNT_NOT_FOUND").
				With("identity", identity).
				Wrap(ErrNotFound)
		}
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get account by identity").
			Wrap(err)
	}

	valid, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		// A malformed stored hash must read as a failed authentication,
		// not a server fault.
		s.logger.Warn("stored password hash failed to parse", "account_id", account.ID)
		return "", oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid credentials")
	}
	if !valid {
		return "", oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid credentials")
	}

	token, err := s.sessions.CreateOrRotate(ctx, account.ID, deviceID)
	if err != nil {
		return "", err
	}

	s.logger.Info("login succeeded", "account_id", account.ID, "sequence", account.Sequence)
	return token, nil
}

// Authorize reports whether an actor may touch a resource. The
// effective tier is the actor's own tier tightened by any explicitly
// requested tier; the resource's required tier gates the action.
func (s *Service) Authorize(actorTier int, requestedTier, requiredTier *int) bool {
	return access.Allowed(access.Resolve(actorTier, requestedTier), requiredTier)
}
