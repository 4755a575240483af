// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package auth_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/quantumix/quantumix/internal/auth"
)

// memAccountRepo is an in-memory AccountRepository. createErrs lets a
// test inject failures for successive Create calls before falling
// through to the real insert.
type memAccountRepo struct {
	mu         sync.Mutex
	accounts   []*auth.Account
	nextID     int
	createErrs []error
}

var _ auth.AccountRepository = (*memAccountRepo)(nil)

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{nextID: 1}
}

func (r *memAccountRepo) Create(_ context.Context, account *auth.Account) (*auth.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	for _, existing := range r.accounts {
		if existing.Sequence == account.Sequence {
			return nil, auth.ErrSequenceTaken
		}
		if existing.Username == account.Username || existing.Email == account.Email {
			return nil, auth.ErrConflict
		}
	}

	created := *account
	created.ID = r.nextID
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.nextID++
	r.accounts = append(r.accounts, &created)

	out := created
	return &out, nil
}

func (r *memAccountRepo) GetByID(_ context.Context, id int) (*auth.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.ID == id {
			out := *a
			return &out, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r *memAccountRepo) GetByIdentity(_ context.Context, identity string) (*auth.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.Username == identity || a.Email == identity || fmt.Sprintf("%d", a.Sequence) == identity {
			out := *a
			return &out, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r *memAccountRepo) ExistsSequence(_ context.Context, sequence int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.Sequence == sequence {
			return true, nil
		}
	}
	return false, nil
}

func (r *memAccountRepo) ExistsRegistration(_ context.Context, username, email, nickname string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.Username == username && a.Email == email && a.Nickname == nickname {
			return true, nil
		}
	}
	return false, nil
}

// memSessionRepo is an in-memory SessionRepository.
type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[int]*auth.Session
	nextID   int
}

var _ auth.SessionRepository = (*memSessionRepo)(nil)

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[int]*auth.Session), nextID: 1}
}

func (r *memSessionRepo) Create(_ context.Context, session *auth.Session) (*auth.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := *session
	created.ID = r.nextID
	r.nextID++
	r.sessions[created.ID] = &created

	out := created
	return &out, nil
}

func (r *memSessionRepo) GetByToken(_ context.Context, token string) (*auth.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		if s.Token == token {
			out := *s
			return &out, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r *memSessionRepo) GetByAccountAndDevice(_ context.Context, accountID int, deviceID string) (*auth.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		if s.AccountID == accountID && s.DeviceID == deviceID {
			out := *s
			return &out, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r *memSessionRepo) UpdateTokenAndExpiry(_ context.Context, id int, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return auth.ErrNotFound
	}
	s.Token = token
	s.ExpiresAt = expiresAt
	return nil
}

func (r *memSessionRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return auth.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *memSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, s := range r.sessions {
		if s.IsExpiredAt(now) {
			delete(r.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// fakeHasher is a deterministic PasswordHasher that is cheap enough for
// tight test loops. Each Hash call appends a counter so repeated hashes
// of the same input differ, mirroring salted hashing.
type fakeHasher struct {
	mu      sync.Mutex
	counter int
	hashErr error
}

var _ auth.PasswordHasher = (*fakeHasher)(nil)

func (h *fakeHasher) Hash(password string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.hashErr != nil {
		return "", h.hashErr
	}
	if password == "" {
		return "", errors.New("empty password")
	}
	h.counter++
	return fmt.Sprintf("fake$%s$%d", password, h.counter), nil
}

func (h *fakeHasher) Verify(password, hash string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 3 || parts[0] != "fake" {
		return false, errors.New("malformed hash")
	}
	return parts[1] == password, nil
}
