// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package tracker_test

import (
	"context"
	"sync"
	"time"

	"github.com/quantumix/quantumix/internal/auth"
	"github.com/quantumix/quantumix/internal/tracker"
)

// memProjectRepo is an in-memory ProjectRepository recording the last
// Filter call for assertions.
type memProjectRepo struct {
	mu            sync.Mutex
	projects      map[int]*tracker.Project
	nextID        int
	lastActorTier int
	lastFilter    tracker.ProjectFilter
}

var _ tracker.ProjectRepository = (*memProjectRepo)(nil)

func newMemProjectRepo() *memProjectRepo {
	return &memProjectRepo{projects: make(map[int]*tracker.Project), nextID: 1}
}

func (r *memProjectRepo) Create(_ context.Context, project *tracker.Project) (*tracker.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := *project
	created.ID = r.nextID
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.nextID++
	r.projects[created.ID] = &created

	out := created
	return &out, nil
}

func (r *memProjectRepo) GetByID(_ context.Context, id int) (*tracker.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[id]
	if !ok {
		return nil, tracker.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *memProjectRepo) SetLeader(_ context.Context, id, leaderID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[id]
	if !ok {
		return tracker.ErrNotFound
	}
	p.LeaderID = &leaderID
	return nil
}

func (r *memProjectRepo) SetChecked(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[id]
	if !ok {
		return tracker.ErrNotFound
	}
	p.IsChecked = true
	return nil
}

func (r *memProjectRepo) Filter(_ context.Context, actorTier int, filter tracker.ProjectFilter) ([]*tracker.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActorTier = actorTier
	r.lastFilter = filter

	var out []*tracker.Project
	for _, p := range r.projects {
		if p.Tier != nil && *p.Tier < actorTier {
			continue
		}
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}

// memTodoRepo is an in-memory TodoRepository.
type memTodoRepo struct {
	mu            sync.Mutex
	todos         map[int]*tracker.Todo
	nextID        int
	lastActorTier int
	lastFilter    tracker.TodoFilter
}

var _ tracker.TodoRepository = (*memTodoRepo)(nil)

func newMemTodoRepo() *memTodoRepo {
	return &memTodoRepo{todos: make(map[int]*tracker.Todo), nextID: 1}
}

func (r *memTodoRepo) Create(_ context.Context, todo *tracker.Todo) (*tracker.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := *todo
	created.ID = r.nextID
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.nextID++
	r.todos[created.ID] = &created

	out := created
	return &out, nil
}

func (r *memTodoRepo) GetByID(_ context.Context, id int) (*tracker.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	td, ok := r.todos[id]
	if !ok {
		return nil, tracker.ErrNotFound
	}
	out := *td
	return &out, nil
}

func (r *memTodoRepo) SetOwner(_ context.Context, id, ownerID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	td, ok := r.todos[id]
	if !ok {
		return tracker.ErrNotFound
	}
	td.OwnerID = &ownerID
	return nil
}

func (r *memTodoRepo) SetChecked(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	td, ok := r.todos[id]
	if !ok {
		return tracker.ErrNotFound
	}
	td.IsChecked = true
	return nil
}

func (r *memTodoRepo) Filter(_ context.Context, actorTier int, filter tracker.TodoFilter) ([]*tracker.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActorTier = actorTier
	r.lastFilter = filter

	var out []*tracker.Todo
	for _, td := range r.todos {
		if td.Tier != nil && *td.Tier < actorTier {
			continue
		}
		copied := *td
		out = append(out, &copied)
	}
	return out, nil
}

// stubAccounts exposes a fixed account map through the read side of
// auth.AccountRepository; the write side is unused by the tracker.
type stubAccounts struct {
	accounts map[int]*auth.Account
}

var _ auth.AccountRepository = (*stubAccounts)(nil)

func (s *stubAccounts) Create(_ context.Context, _ *auth.Account) (*auth.Account, error) {
	return nil, auth.ErrConflict
}

func (s *stubAccounts) GetByID(_ context.Context, id int) (*auth.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (s *stubAccounts) GetByIdentity(_ context.Context, _ string) (*auth.Account, error) {
	return nil, auth.ErrNotFound
}

func (s *stubAccounts) ExistsSequence(_ context.Context, _ int) (bool, error) {
	return false, nil
}

func (s *stubAccounts) ExistsRegistration(_ context.Context, _, _, _ string) (bool, error) {
	return false, nil
}
