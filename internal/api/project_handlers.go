// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/quantumix/quantumix/internal/tracker"
)

type newProjectRequest struct {
	SessionKey string     `json:"session_key"`
	Name       string     `json:"name"`
	LeaderID   *int       `json:"leader_id"`
	Priority   int        `json:"priority"`
	Content    string     `json:"content"`
	StartTime  *time.Time `json:"start_time"`
	Permission *int       `json:"permission"`
}

type takeProjectRequest struct {
	SessionKey string `json:"session_key"`
	ProjectID  int    `json:"project_id"`
}

type finishProjectRequest struct {
	SessionKey string `json:"session_key"`
	ProjectID  int    `json:"project_id"`
}

type filterProjectsRequest struct {
	SessionKey string  `json:"session_key"`
	ProjectID  *int    `json:"project_id"`
	CreatorID  *int    `json:"creator_id"`
	Priority   *int    `json:"priority"`
	Name       *string `json:"name"`
	IsChecked  *bool   `json:"is_checked"`
	Page       uint64  `json:"page"`
	Size       uint64  `json:"size"`
}

func (s *Server) handleNewProject(w http.ResponseWriter, r *http.Request) {
	var req newProjectRequest
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

	project, err := s.tracker.CreateProject(r.Context(), actor, tracker.NewProjectInput{
		Name:      req.Name,
		LeaderID:  req.LeaderID,
		Priority:  req.Priority,
		Content:   req.Content,
		StartTime: req.StartTime,
		Tier:      req.Permission,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, fmt.Sprintf("project %d-%q created", project.ID, project.Name))
}

func (s *Server) handleTakeProject(w http.ResponseWriter, r *http.Request) {
	var req takeProjectRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ProjectID == 0 {
		writeBadRequest(w, "project_id is required")
		return
	}

	actor, err := s.actorFromSession(r.Context(), req.SessionKey)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	taken, err := s.tracker.TakeProject(r.Context(), actor.ID, req.ProjectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !taken {
		writeJSON(w, http.StatusOK, response{Status: false, Msg: "project is already claimed"})
		return
	}
	writeOK(w, "project claimed")
}

func (s *Server) handleFinishProject(w http.ResponseWriter, r *http.Request) {
	var req finishProjectRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ProjectID == 0 {
		writeBadRequest(w, "project_id is required")
		return
	}

	actor, err := s.actorFromSession(r.Context(), req.SessionKey)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	done, err := s.tracker.FinishProject(r.Context(), actor.Tier, req.ProjectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !done {
		writeJSON(w, http.StatusOK, response{Status: false, Msg: "project is already finished or not permitted"})
		return
	}
	writeOK(w, "project finished")
}

func (s *Server) handleFilterProjects(w http.ResponseWriter, r *http.Request) {
	var req filterProjectsRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	actor, err := s.actorFromSession(r.Context(), req.SessionKey)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	projects, err := s.tracker.FilterProjects(r.Context(), actor.Tier, tracker.ProjectFilter{
		ID:        req.ProjectID,
		CreatorID: req.CreatorID,
		Priority:  req.Priority,
		Name:      req.Name,
		IsChecked: req.IsChecked,
		Page:      req.Page,
		Size:      req.Size,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Status: true, Msg: "ok", Data: projects})
}
