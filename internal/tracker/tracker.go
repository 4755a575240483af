// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

// Package tracker implements projects and todos: tiered visibility,
// claiming unassigned work, and completion. Resources carry an optional
// permission tier (nil = unrestricted); every read and mutation is
// gated through the access package.
package tracker

import (
	"context"
	"time"
)

// Project is a unit of tracked work owned by its creator and optionally
// claimed by a leader.
type Project struct {
	ID        int
	Name      string
	CreatorID *int
	LeaderID  *int
	Priority  int
	Content   string
	StartTime *time.Time
	Tier      *int
	IsChecked bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Todo is a single task, optionally attached to a project and claimed
// by an owner.
type Todo struct {
	ID          int
	Name        string
	ProjectID   *int
	CreatorID   *int
	OwnerID     *int
	Priority    int
	Content     string
	Description string
	Startline   *time.Time
	Endline     *time.Time
	Tier        *int
	IsChecked   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectFilter narrows a project listing. Nil fields are ignored.
// Listings are always additionally constrained to rows whose tier is
// nil or no more privileged than the actor's.
type ProjectFilter struct {
	ID        *int
	CreatorID *int
	Priority  *int
	Name      *string
	IsChecked *bool
	Page      uint64
	Size      uint64
}

// TodoFilter narrows a todo listing. Nil fields are ignored.
type TodoFilter struct {
	ID          *int
	ProjectID   *int
	CreatorID   *int
	OwnerID     *int
	Priority    *int
	Name        *string
	Content     *string
	Description *string
	Startline   *time.Time
	Endline     *time.Time
	IsChecked   *bool
	Page        uint64
	Size        uint64
}

// ProjectRepository manages project persistence.
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) (*Project, error)
	GetByID(ctx context.Context, id int) (*Project, error)
	SetLeader(ctx context.Context, id, leaderID int) error
	SetChecked(ctx context.Context, id int) error
	Filter(ctx context.Context, actorTier int, filter ProjectFilter) ([]*Project, error)
}

// TodoRepository manages todo persistence.
type TodoRepository interface {
	Create(ctx context.Context, todo *Todo) (*Todo, error)
	GetByID(ctx context.Context, id int) (*Todo, error)
	SetOwner(ctx context.Context, id, ownerID int) error
	SetChecked(ctx context.Context, id int) error
	Filter(ctx context.Context, actorTier int, filter TodoFilter) ([]*Todo, error)
}
