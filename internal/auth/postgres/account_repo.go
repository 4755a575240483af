// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/quantumix/quantumix/internal/auth"
)

const accountColumns = `id, sequence, username, email, password_hash, nickname, tier, created_at, updated_at`

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account. Unique violations on the sequence
// column surface as auth.ErrSequenceTaken (a retry signal for the
// allocator); any other unique violation surfaces as auth.ErrConflict.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO accounts (sequence, username, email, password_hash, nickname, tier)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+accountColumns,
		account.Sequence,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Nickname,
		account.Tier,
	)

	created, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "sequence") {
				return nil, oops.Code("AUTH_SEQUENCE_TAKEN").
					With("sequence", account.Sequence).
					Wrap(auth.ErrSequenceTaken)
			}
			return nil, oops.Code("AUTH_CONFLICT").
				With("constraint", pgErr.ConstraintName).
				Wrap(auth.ErrConflict)
		}
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("username", account.Username).
			Wrap(err)
	}
	return created, nil
}

// GetByID retrieves an account by primary key.
func (r *AccountRepository) GetByID(ctx context.Context, id int) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
	`, id)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("operation", "get account by id").
			With("id", id).
			Wrap(err)
	}
	return account, nil
}

// GetByIdentity retrieves an account matching username, email or
// display sequence. The identity columns are each unique, so at most
// one row matches.
func (r *AccountRepository) GetByIdentity(ctx context.Context, identity string) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE username = $1 OR email = $1 OR sequence::text = $1
	`, identity)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("identity", identity).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_IDENTITY_FAILED").
			With("operation", "get account by identity").
			Wrap(err)
	}
	return account, nil
}

// ExistsSequence reports whether any account holds the sequence.
func (r *AccountRepository) ExistsSequence(ctx context.Context, sequence int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM accounts WHERE sequence = $1)
	`, sequence).Scan(&exists)
	if err != nil {
		return false, oops.Code("ACCOUNT_EXISTS_SEQUENCE_FAILED").
			With("operation", "check sequence existence").
			With("sequence", sequence).
			Wrap(err)
	}
	return exists, nil
}

// ExistsRegistration reports whether an account matches username, email
// and nickname simultaneously.
func (r *AccountRepository) ExistsRegistration(ctx context.Context, username, email, nickname string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM accounts
			WHERE username = $1 AND email = $2 AND nickname = $3
		)
	`, username, email, nickname).Scan(&exists)
	if err != nil {
		return false, oops.Code("ACCOUNT_EXISTS_REGISTRATION_FAILED").
			With("operation", "check registration triple").
			With("username", username).
			Wrap(err)
	}
	return exists, nil
}

// scanAccount scans a single row into an Account. Callers are
// responsible for handling pgx.ErrNoRows.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var a auth.Account
	err := row.Scan(
		&a.ID,
		&a.Sequence,
		&a.Username,
		&a.Email,
		&a.PasswordHash,
		&a.Nickname,
		&a.Tier,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context-specific info
	}
	return &a, nil
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
