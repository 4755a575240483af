// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

// Package postgres implements the tracker repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/quantumix/quantumix/internal/tracker"
)

// DB is the subset of pgxpool.Pool the repositories need. Both
// *pgxpool.Pool and pgxmock satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const projectColumns = `id, name, creator_id, leader_id, priority, content, start_time, tier, is_checked, created_at, updated_at`

// ProjectRepository implements tracker.ProjectRepository using
// PostgreSQL.
type ProjectRepository struct {
	db DB
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a new project.
func (r *ProjectRepository) Create(ctx context.Context, project *tracker.Project) (*tracker.Project, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO projects (name, creator_id, leader_id, priority, content, start_time, tier)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+projectColumns,
		project.Name,
		project.CreatorID,
		project.LeaderID,
		project.Priority,
		project.Content,
		project.StartTime,
		project.Tier,
	)

	created, err := scanProject(row)
	if err != nil {
		return nil, oops.Code("PROJECT_CREATE_FAILED").
			With("operation", "insert project").
			With("name", project.Name).
			Wrap(err)
	}
	return created, nil
}

// GetByID retrieves a project by primary key.
func (r *ProjectRepository) GetByID(ctx context.Context, id int) (*tracker.Project, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1
	`, id)

	project, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PROJECT_NOT_FOUND").
			With("id", id).
			Wrap(tracker.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PROJECT_GET_BY_ID_FAILED").
			With("operation", "get project by id").
			With("id", id).
			Wrap(err)
	}
	return project, nil
}

// SetLeader assigns a leader to a project.
func (r *ProjectRepository) SetLeader(ctx context.Context, id, leaderID int) error {
	result, err := r.db.Exec(ctx, `
		UPDATE projects SET leader_id = $2
		WHERE id = $1
	`, id, leaderID)
	if err != nil {
		return oops.Code("PROJECT_SET_LEADER_FAILED").
			With("operation", "update leader_id").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PROJECT_NOT_FOUND").
			With("id", id).
			Wrap(tracker.ErrNotFound)
	}
	return nil
}

// SetChecked marks a project as completed.
func (r *ProjectRepository) SetChecked(ctx context.Context, id int) error {
	result, err := r.db.Exec(ctx, `
		UPDATE projects SET is_checked = TRUE
		WHERE id = $1
	`, id)
	if err != nil {
		return oops.Code("PROJECT_SET_CHECKED_FAILED").
			With("operation", "update is_checked").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PROJECT_NOT_FOUND").
			With("id", id).
			Wrap(tracker.ErrNotFound)
	}
	return nil
}

// Filter lists projects whose tier is visible to the actor, narrowed by
// the optional filter fields, newest first, paginated.
func (r *ProjectRepository) Filter(ctx context.Context, actorTier int, filter tracker.ProjectFilter) ([]*tracker.Project, error) {
	where := []string{"(tier >= $1 OR tier IS NULL)"}
	args := []any{actorTier}

	appendCond := func(column string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.ID != nil {
		appendCond("id", *filter.ID)
	}
	if filter.CreatorID != nil {
		appendCond("creator_id", *filter.CreatorID)
	}
	if filter.Priority != nil {
		appendCond("priority", *filter.Priority)
	}
	if filter.Name != nil {
		appendCond("name", *filter.Name)
	}
	if filter.IsChecked != nil {
		appendCond("is_checked", *filter.IsChecked)
	}

	args = append(args, filter.Size, (filter.Page-1)*filter.Size)
	query := fmt.Sprintf(`
		SELECT `+projectColumns+`
		FROM projects
		WHERE %s
		ORDER BY id DESC
		LIMIT $%d OFFSET $%d
	`, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, oops.Code("PROJECT_FILTER_FAILED").
			With("operation", "filter projects").
			Wrap(err)
	}
	defer rows.Close()

	var projects []*tracker.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, oops.Code("PROJECT_SCAN_FAILED").
				With("operation", "scan project row").
				Wrap(err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("PROJECT_ROWS_ERROR").
			With("operation", "iterate project rows").
			Wrap(err)
	}
	return projects, nil
}

// scanProject scans a single row into a Project. Callers are
// responsible for handling pgx.ErrNoRows.
func scanProject(row pgx.Row) (*tracker.Project, error) {
	var p tracker.Project
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.CreatorID,
		&p.LeaderID,
		&p.Priority,
		&p.Content,
		&p.StartTime,
		&p.Tier,
		&p.IsChecked,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context-specific info
	}
	return &p, nil
}

// Compile-time interface check.
var _ tracker.ProjectRepository = (*ProjectRepository)(nil)
