// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/quantumix/quantumix/internal/tracker"
)

type newTodoRequest struct {
	SessionKey  string     `json:"session_key"`
	Name        string     `json:"name"`
	ProjectID   *int       `json:"project_id"`
	OwnerID     *int       `json:"owner_id"`
	Priority    int        `json:"priority"`
	Content     string     `json:"content"`
	Description string     `json:"description"`
	Startline   *time.Time `json:"start_line"`
	Endline     *time.Time `json:"end_line"`
	Permission  *int       `json:"permission"`
}

type takeTodoRequest struct {
	SessionKey string `json:"session_key"`
	TodoID     int    `json:"todo_id"`
}

type finishTodoRequest struct {
	SessionKey string `json:"session_key"`
	TodoID     int    `json:"todo_id"`
}

type filterTodosRequest struct {
	SessionKey  string     `json:"session_key"`
	TodoID      *int       `json:"todo_id"`
	ProjectID   *int       `json:"project_id"`
	CreatorID   *int       `json:"creator_id"`
	OwnerID     *int       `json:"owner_id"`
	Priority    *int       `json:"priority"`
	Name        *string    `json:"name"`
	Content     *string    `json:"content"`
	Description *string    `json:"description"`
	Startline   *time.Time `json:"start_line"`
	Endline     *time.Time `json:"end_line"`
	IsChecked   *bool      `json:"is_checked"`
	Page        uint64     `json:"page"`
	Size        uint64     `json:"size"`
}

func (s *Server) handleNewTodo(w http.ResponseWriter, r *http.Request) {
	var req newTodoRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}

	actor, err := s.actorFromSession(r.Context(), req.SessionKey)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	todo, err := s.tracker.CreateTodo(r.Context(), actor, tracker.NewTodoInput{
		Name:        req.Name,
		ProjectID:   req.ProjectID,
		OwnerID:     req.OwnerID,
		Priority:    req.Priority,
		Content:     req.Content,
		Description: req.Description,
		Startline:   req.Startline,
		Endline:     req.Endline,
		Tier:        req.Permission,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, fmt.Sprintf("todo %d-%q created", todo.ID, todo.Name))
}

func (s *Server) handleTakeTodo(w http.ResponseWriter, r *http.Request) {
	var req takeTodoRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.TodoID == 0 {
		writeBadRequest(w, "todo_id is required")
		return
	}

	actor, err := s.actorFromSession(r.Context(), req.SessionKey)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	taken, err := s.tracker.TakeTodo(r.Context(), actor.ID, req.TodoID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !taken {
		writeJSON(w, http.StatusOK, response{Status: false, Msg: "todo is already owned"})
		return
	}
	writeOK(w, "todo claimed")
}

func (s *Server) handleFinishTodo(w http.ResponseWriter, r *http.Request) {
	var req finishTodoRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.TodoID == 0 {
		writeBadRequest(w, "todo_id is required")
		return
	}

	actor, err := s.actorFromSession(r.Context(), req.SessionKey)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	done, err := s.tracker.FinishTodo(r.Context(), actor.Tier, req.TodoID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !done {
		writeJSON(w, http.StatusOK, response{Status: false, Msg: "todo is already finished or not permitted"})
		return
	}
	writeOK(w, "todo finished")
}

func (s *Server) handleFilterTodos(w http.ResponseWriter, r *http.Request) {
	var req filterTodosRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	actor, err := s.actorFromSession(r.Context(), req.SessionKey)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	todos, err := s.tracker.FilterTodos(r.Context(), actor.Tier, tracker.TodoFilter{
		ID:          req.TodoID,
		ProjectID:   req.ProjectID,
		CreatorID:   req.CreatorID,
		OwnerID:     req.OwnerID,
		Priority:    req.Priority,
		Name:        req.Name,
		Content:     req.Content,
		Description: req.Description,
		Startline:   req.Startline,
		Endline:     req.Endline,
		IsChecked:   req.IsChecked,
		Page:        req.Page,
		Size:        req.Size,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Status: true, Msg: "ok", Data: todos})
}
