// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/quantumix/quantumix/internal/auth"
)

const sessionColumns = `id, token, account_id, device_id, expires_at, created_at`

// SessionRepository implements auth.SessionRepository using PostgreSQL.
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session and returns it with its primary key.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) (*auth.Session, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO sessions (token, account_id, device_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+sessionColumns,
		session.Token,
		session.AccountID,
		session.DeviceID,
		session.ExpiresAt,
		session.CreatedAt,
	)

	created, err := scanSession(row)
	if err != nil {
		return nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("account_id", session.AccountID).
			Wrap(err)
	}
	return created, nil
}

// GetByToken retrieves a session by its opaque token.
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*auth.Session, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE token = $1
	`, token)

	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_TOKEN_FAILED").
			With("operation", "get session by token").
			Wrap(err)
	}
	return session, nil
}

// GetByAccountAndDevice retrieves the session for an (account, device)
// pair. The pair is unique, so at most one row matches.
func (r *SessionRepository) GetByAccountAndDevice(ctx context.Context, accountID int, deviceID string) (*auth.Session, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE account_id = $1 AND device_id = $2
	`, accountID, deviceID)

	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").
			With("account_id", accountID).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_DEVICE_FAILED").
			With("operation", "get session by account and device").
			With("account_id", accountID).
			Wrap(err)
	}
	return session, nil
}

// UpdateTokenAndExpiry overwrites the token and expiry of an existing
// session row in place.
func (r *SessionRepository) UpdateTokenAndExpiry(ctx context.Context, id int, token string, expiresAt time.Time) error {
	result, err := r.db.Exec(ctx, `
		UPDATE sessions SET token = $2, expires_at = $3
		WHERE id = $1
	`, id, token, expiresAt)
	if err != nil {
		return oops.Code("SESSION_ROTATE_FAILED").
			With("operation", "update token and expiry").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes a session by primary key.
func (r *SessionRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.Exec(ctx, `
		DELETE FROM sessions WHERE id = $1
	`, id)
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes every session past its expiry and returns the
// count of deleted rows.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM sessions WHERE expires_at < $1
	`, now)
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// scanSession scans a single row into a Session. Callers are
// responsible for handling pgx.ErrNoRows.
func scanSession(row pgx.Row) (*auth.Session, error) {
	var s auth.Session
	err := row.Scan(
		&s.ID,
		&s.Token,
		&s.AccountID,
		&s.DeviceID,
		&s.ExpiresAt,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context-specific info
	}
	return &s, nil
}

// Compile-time interface check.
var _ auth.SessionRepository = (*SessionRepository)(nil)
