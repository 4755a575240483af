// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package tracker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/quantumix/quantumix/internal/access"
	"github.com/quantumix/quantumix/internal/auth"
)

// DefaultPageSize bounds a listing when the caller supplies none.
const DefaultPageSize = 20

// Service orchestrates project and todo operations on behalf of an
// authenticated actor.
type Service struct {
	projects ProjectRepository
	todos    TodoRepository
	accounts auth.AccountRepository
	logger   *slog.Logger
}

// NewService creates a tracker Service.
func NewService(projects ProjectRepository, todos TodoRepository, accounts auth.AccountRepository, logger *slog.Logger) (*Service, error) {
	if projects == nil {
		return nil, oops.Code("TRACKER_NIL_DEPENDENCY").Errorf("project repository is required")
	}
	if todos == nil {
		return nil, oops.Code("TRACKER_NIL_DEPENDENCY").Errorf("todo repository is required")
	}
	if accounts == nil {
		return nil, oops.Code("TRACKER_NIL_DEPENDENCY").Errorf("account repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{projects: projects, todos: todos, accounts: accounts, logger: logger}, nil
}

// NewProjectInput carries the caller-supplied fields for CreateProject.
type NewProjectInput struct {
	Name      string
	LeaderID  *int
	Priority  int
	Content   string
	StartTime *time.Time
	Tier      *int
}

// CreateProject inserts a project on behalf of the creator. When the
// input carries an explicit tier, the stored tier is the creator's own
// tier tightened by the request: a creator can restrict data it owns
// but can never mark it more privileged than itself.
func (s *Service) CreateProject(ctx context.Context, creator *auth.Account, input NewProjectInput) (*Project, error) {
	project := &Project{
		Name:      input.Name,
		CreatorID: &creator.ID,
		LeaderID:  input.LeaderID,
		Priority:  input.Priority,
		Content:   input.Content,
		StartTime: input.StartTime,
		Tier:      effectiveTier(creator.Tier, input.Tier),
	}

	created, err := s.projects.Create(ctx, project)
	if err != nil {
		return nil, oops.Code("PROJECT_CREATE_FAILED").
			With("name", input.Name).
			Wrap(err)
	}
	s.logger.Info("project created", "project_id", created.ID, "creator_id", creator.ID)
	return created, nil
}

// TakeProject claims an unassigned project for the leader. Returns
// false when the project is already claimed.
func (s *Service) TakeProject(ctx context.Context, leaderID, projectID int) (bool, error) {
	leader, err := s.accounts.GetByID(ctx, leaderID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return false, oops.Code("ACCOUNT_NOT_FOUND").
				With("id", leaderID).
				Wrap(ErrNotFound)
		}
		return false, oops.Code("PROJECT_TAKE_FAILED").
			With("operation", "get leader account").
			Wrap(err)
	}

	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return false, err
	}
	if project.LeaderID != nil {
		return false, nil
	}

	if err := s.projects.SetLeader(ctx, project.ID, leader.ID); err != nil {
		return false, oops.Code("PROJECT_TAKE_FAILED").
			With("project_id", project.ID).
			Wrap(err)
	}
	return true, nil
}

// FinishProject marks a project checked. Refused (false) when the
// project is already checked or its tier is more privileged than the
// actor's.
func (s *Service) FinishProject(ctx context.Context, actorTier, projectID int) (bool, error) {
	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return false, err
	}
	if project.IsChecked {
		return false, nil
	}
	if !access.Allowed(actorTier, project.Tier) {
		return false, nil
	}

	if err := s.projects.SetChecked(ctx, project.ID); err != nil {
		return false, oops.Code("PROJECT_FINISH_FAILED").
			With("project_id", project.ID).
			Wrap(err)
	}
	return true, nil
}

// FilterProjects lists projects visible to the actor's tier, narrowed
// by the filter and paginated.
func (s *Service) FilterProjects(ctx context.Context, actorTier int, filter ProjectFilter) ([]*Project, error) {
	if filter.Size == 0 {
		filter.Size = DefaultPageSize
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	projects, err := s.projects.Filter(ctx, actorTier, filter)
	if err != nil {
		return nil, oops.Code("PROJECT_FILTER_FAILED").Wrap(err)
	}
	return projects, nil
}

// NewTodoInput carries the caller-supplied fields for CreateTodo.
type NewTodoInput struct {
	Name        string
	ProjectID   *int
	OwnerID     *int
	Priority    int
	Content     string
	Description string
	Startline   *time.Time
	Endline     *time.Time
	Tier        *int
}

// CreateTodo inserts a todo on behalf of the creator, with the same
// tier-tightening rule as CreateProject.
func (s *Service) CreateTodo(ctx context.Context, creator *auth.Account, input NewTodoInput) (*Todo, error) {
	todo := &Todo{
		Name:        input.Name,
		ProjectID:   input.ProjectID,
		CreatorID:   &creator.ID,
		OwnerID:     input.OwnerID,
		Priority:    input.Priority,
		Content:     input.Content,
		Description: input.Description,
		Startline:   input.Startline,
		Endline:     input.Endline,
		Tier:        effectiveTier(creator.Tier, input.Tier),
	}

	created, err := s.todos.Create(ctx, todo)
	if err != nil {
		return nil, oops.Code("TODO_CREATE_FAILED").
			With("name", input.Name).
			Wrap(err)
	}
	s.logger.Info("todo created", "todo_id", created.ID, "creator_id", creator.ID)
	return created, nil
}

// TakeTodo claims an unowned todo. Returns false when already owned.
func (s *Service) TakeTodo(ctx context.Context, ownerID, todoID int) (bool, error) {
	owner, err := s.accounts.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return false, oops.Code("ACCOUNT_NOT_FOUND").
				With("id", ownerID).
				Wrap(ErrNotFound)
		}
		return false, oops.Code("TODO_TAKE_FAILED").
			With("operation", "get owner account").
			Wrap(err)
	}

	todo, err := s.getTodo(ctx, todoID)
	if err != nil {
		return false, err
	}
	if todo.OwnerID != nil {
		return false, nil
	}

	if err := s.todos.SetOwner(ctx, todo.ID, owner.ID); err != nil {
		return false, oops.Code("TODO_TAKE_FAILED").
			With("todo_id", todo.ID).
			Wrap(err)
	}
	return true, nil
}

// FinishTodo marks a todo checked with the same gating as
// FinishProject.
func (s *Service) FinishTodo(ctx context.Context, actorTier, todoID int) (bool, error) {
	todo, err := s.getTodo(ctx, todoID)
	if err != nil {
		return false, err
	}
	if todo.IsChecked {
		return false, nil
	}
	if !access.Allowed(actorTier, todo.Tier) {
		return false, nil
	}

	if err := s.todos.SetChecked(ctx, todo.ID); err != nil {
		return false, oops.Code("TODO_FINISH_FAILED").
			With("todo_id", todo.ID).
			Wrap(err)
	}
	return true, nil
}

// FilterTodos lists todos visible to the actor's tier.
func (s *Service) FilterTodos(ctx context.Context, actorTier int, filter TodoFilter) ([]*Todo, error) {
	if filter.Size == 0 {
		filter.Size = DefaultPageSize
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	todos, err := s.todos.Filter(ctx, actorTier, filter)
	if err != nil {
		return nil, oops.Code("TODO_FILTER_FAILED").Wrap(err)
	}
	return todos, nil
}

func (s *Service) getProject(ctx context.Context, id int) (*Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("PROJECT_NOT_FOUND").
				With("id", id).
				Wrap(ErrNotFound)
		}
		return nil, oops.Code("PROJECT_GET_FAILED").
			With("id", id).
			Wrap(err)
	}
	return project, nil
}

func (s *Service) getTodo(ctx context.Context, id int) (*Todo, error) {
	todo, err := s.todos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("TODO_NOT_FOUND").
				With("id", id).
				Wrap(ErrNotFound)
		}
		return nil, oops.Code("TODO_GET_FAILED").
			With("id", id).
			Wrap(err)
	}
	return todo, nil
}

// effectiveTier applies the tier-tightening rule to an optional
// requested tier. A nil request leaves the resource unrestricted; an
// explicit request is stored no more privileged than the actor's own
// tier.
func effectiveTier(actorTier int, requested *int) *int {
	if requested == nil {
		return nil
	}
	resolved := access.Resolve(actorTier, requested)
	return &resolved
}
