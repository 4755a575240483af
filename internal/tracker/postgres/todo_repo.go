// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/quantumix/quantumix/internal/tracker"
)

const todoColumns = `id, name, project_id, creator_id, owner_id, priority, content, description, startline, endline, tier, is_checked, created_at, updated_at`

// TodoRepository implements tracker.TodoRepository using PostgreSQL.
type TodoRepository struct {
	db DB
}

// NewTodoRepository creates a new TodoRepository.
func NewTodoRepository(db DB) *TodoRepository {
	return &TodoRepository{db: db}
}

// Create inserts a new todo.
func (r *TodoRepository) Create(ctx context.Context, todo *tracker.Todo) (*tracker.Todo, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO todos (name, project_id, creator_id, owner_id, priority, content, description, startline, endline, tier)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+todoColumns,
		todo.Name,
		todo.ProjectID,
		todo.CreatorID,
		todo.OwnerID,
		todo.Priority,
		todo.Content,
		todo.Description,
		todo.Startline,
		todo.Endline,
		todo.Tier,
	)

	created, err := scanTodo(row)
	if err != nil {
		return nil, oops.Code("TODO_CREATE_FAILED").
			With("operation", "insert todo").
			With("name", todo.Name).
			Wrap(err)
	}
	return created, nil
}

// GetByID retrieves a todo by primary key.
func (r *TodoRepository) GetByID(ctx context.Context, id int) (*tracker.Todo, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+todoColumns+`
		FROM todos
		WHERE id = $1
	`, id)

	todo, err := scanTodo(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TODO_NOT_FOUND").
			With("id", id).
			Wrap(tracker.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TODO_GET_BY_ID_FAILED").
			With("operation", "get todo by id").
			With("id", id).
			Wrap(err)
	}
	return todo, nil
}

// SetOwner assigns an owner to a todo.
func (r *TodoRepository) SetOwner(ctx context.Context, id, ownerID int) error {
	result, err := r.db.Exec(ctx, `
		UPDATE todos SET owner_id = $2
		WHERE id = $1
	`, id, ownerID)
	if err != nil {
		return oops.Code("TODO_SET_OWNER_FAILED").
			With("operation", "update owner_id").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("TODO_NOT_FOUND").
			With("id", id).
			Wrap(tracker.ErrNotFound)
	}
	return nil
}

// SetChecked marks a todo as completed.
func (r *TodoRepository) SetChecked(ctx context.Context, id int) error {
	result, err := r.db.Exec(ctx, `
		UPDATE todos SET is_checked = TRUE
		WHERE id = $1
	`, id)
	if err != nil {
		return oops.Code("TODO_SET_CHECKED_FAILED").
			With("operation", "update is_checked").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("TODO_NOT_FOUND").
			With("id", id).
			Wrap(tracker.ErrNotFound)
	}
	return nil
}

// Filter lists todos whose tier is visible to the actor, narrowed by
// the optional filter fields, newest first, paginated.
func (r *TodoRepository) Filter(ctx context.Context, actorTier int, filter tracker.TodoFilter) ([]*tracker.Todo, error) {
	where := []string{"(tier >= $1 OR tier IS NULL)"}
	args := []any{actorTier}

	appendCond := func(column string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.ID != nil {
		appendCond("id", *filter.ID)
	}
	if filter.ProjectID != nil {
		appendCond("project_id", *filter.ProjectID)
	}
	if filter.CreatorID != nil {
		appendCond("creator_id", *filter.CreatorID)
	}
	if filter.OwnerID != nil {
		appendCond("owner_id", *filter.OwnerID)
	}
	if filter.Priority != nil {
		appendCond("priority", *filter.Priority)
	}
	if filter.Name != nil {
		appendCond("name", *filter.Name)
	}
	if filter.Content != nil {
		appendCond("content", *filter.Content)
	}
	if filter.Description != nil {
		appendCond("description", *filter.Description)
	}
	if filter.Startline != nil {
		appendCond("startline", *filter.Startline)
	}
	if filter.Endline != nil {
		appendCond("endline", *filter.Endline)
	}
	if filter.IsChecked != nil {
		appendCond("is_checked", *filter.IsChecked)
	}

	args = append(args, filter.Size, (filter.Page-1)*filter.Size)
	query := fmt.Sprintf(`
		SELECT `+todoColumns+`
		FROM todos
		WHERE %s
		ORDER BY id DESC
		LIMIT $%d OFFSET $%d
	`, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, oops.Code("TODO_FILTER_FAILED").
			With("operation", "filter todos").
			Wrap(err)
	}
	defer rows.Close()

	var todos []*tracker.Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, oops.Code("TODO_SCAN_FAILED").
				With("operation", "scan todo row").
				Wrap(err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("TODO_ROWS_ERROR").
			With("operation", "iterate todo rows").
			Wrap(err)
	}
	return todos, nil
}

// scanTodo scans a single row into a Todo. Callers are responsible for
// handling pgx.ErrNoRows.
func scanTodo(row pgx.Row) (*tracker.Todo, error) {
	var t tracker.Todo
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.ProjectID,
		&t.CreatorID,
		&t.OwnerID,
		&t.Priority,
		&t.Content,
		&t.Description,
		&t.Startline,
		&t.Endline,
		&t.Tier,
		&t.IsChecked,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context-specific info
	}
	return &t, nil
}

// Compile-time interface check.
var _ tracker.TodoRepository = (*TodoRepository)(nil)
