// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package auth

import (
	"context"
	"time"
)

// DefaultSessionTTL is the validity window for a session token.
const DefaultSessionTTL = 31 * 24 * time.Hour

// Clock supplies the current time. Injected so session expiry is
// deterministic under test.
type Clock func() time.Time

// Session proves a prior successful authentication for one
// (account, device) pair. At most one session row exists per pair; an
// expired session is rotated in place rather than duplicated.
type Session struct {
	ID        int
	Token     string
	AccountID int
	DeviceID  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpiredAt reports whether the session is expired at the given time.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create inserts a new session and returns it with its primary key
	// populated.
	Create(ctx context.Context, session *Session) (*Session, error)

	// GetByToken retrieves a session by its opaque token.
	GetByToken(ctx context.Context, token string) (*Session, error)

	// GetByAccountAndDevice retrieves the session for an
	// (account, device) pair.
	GetByAccountAndDevice(ctx context.Context, accountID int, deviceID string) (*Session, error)

	// UpdateTokenAndExpiry overwrites the token and expiry of an
	// existing session row. This is the rotation primitive: the row
	// keeps its primary key.
	UpdateTokenAndExpiry(ctx context.Context, id int, token string, expiresAt time.Time) error

	// Delete removes a session by primary key.
	Delete(ctx context.Context, id int) error

	// DeleteExpired removes every session past its expiry at the given
	// time and returns the count of deleted rows.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
