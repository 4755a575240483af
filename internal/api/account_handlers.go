// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package api

import (
	"fmt"
	"net/http"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type loginRequest struct {
	Identity string `json:"identity"`
	Password string `json:"password"`
	UniqueID string `json:"unique_id"`
}

type sessionRequest struct {
	SessionKey string `json:"session_key"`
}

// handleRegister creates a new account.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Username == "" {
		writeBadRequest(w, "username is required")
		return
	}
	if req.Email == "" {
		writeBadRequest(w, "email is required")
		return
	}
	if req.Password == "" {
		writeBadRequest(w, "password is required")
		return
	}
	if req.Nickname == "" {
		writeBadRequest(w, "nickname is required")
		return
	}

	account, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password, req.Nickname)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if s.metrics != nil {
		s.metrics.RegistrationsTotal.Inc()
	}
	writeOK(w, fmt.Sprintf("account %q created with sequence %d", account.Username, account.Sequence))
}

// handleLogin authenticates and returns a session key for the device.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Identity == "" {
		writeBadRequest(w, "identity is required")
		return
	}
	if req.Password == "" {
		writeBadRequest(w, "password is required")
		return
	}
	if req.UniqueID == "" {
		writeBadRequest(w, "unique_id is required")
		return
	}

	token, err := s.auth.Login(r.Context(), req.Identity, req.Password, req.UniqueID)
	if err != nil {
		if s.metrics != nil {
			s.metrics.LoginsTotal.WithLabelValues("failure").Inc()
		}
		s.writeError(w, r, err)
		return
	}

	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues("success").Inc()
	}
	writeJSON(w, http.StatusOK, response{
		Status:     true,
		Msg:        "authentication succeeded",
		SessionKey: token,
	})
}

// handleSessionCheck reports whether a session key is live. Expired
// rows are left in place; only authenticated endpoints clean up.
func (s *Server) handleSessionCheck(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.SessionKey == "" {
		writeBadRequest(w, "session_key is required")
		return
	}

	live, err := s.sessions.Validate(r.Context(), req.SessionKey)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !live {
		writeUnauthenticated(w)
		return
	}
	writeOK(w, "session is valid")
}
