// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/quantumix/quantumix/internal/auth"
	"github.com/quantumix/quantumix/internal/tracker"
	"github.com/quantumix/quantumix/pkg/errutil"
)

// response is the envelope every endpoint returns. Every payload
// carries at least status and msg; login adds session_key, listings add
// data.
type response struct {
	Status     bool   `json:"status"`
	Msg        string `json:"msg"`
	SessionKey string `json:"session_key,omitempty"`
	Data       any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body) //nolint:errcheck // response already committed
}

func writeOK(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, response{Status: true, Msg: msg})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, response{Status: false, Msg: msg})
}

func writeUnauthenticated(w http.ResponseWriter) {
	writeJSON(w, http.StatusForbidden, response{Status: false, Msg: "session expired or missing, please log in again"})
}

// writeError maps a core error to a user-visible response. Internal
// causes are logged, never exposed.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch errutil.CodeOf(err) {
	case "AUTH_ACCOUNT_NOT_FOUND":
		writeJSON(w, http.StatusForbidden, response{Status: false, Msg: "no account matches that identity"})
	case "AUTH_INVALID_CREDENTIALS":
		writeJSON(w, http.StatusForbidden, response{Status: false, Msg: "authentication failed"})
	case "AUTH_CONFLICT":
		writeJSON(w, http.StatusConflict, response{Status: false, Msg: "conflicting account information"})
	case "AUTH_INVALID_EMAIL":
		writeBadRequest(w, "email address is not accepted")
	case "AUTH_INVALID_USERNAME":
		writeBadRequest(w, "invalid username")
	case "SESSION_NOT_FOUND":
		writeUnauthenticated(w)
	case "PROJECT_NOT_FOUND", "TODO_NOT_FOUND", "ACCOUNT_NOT_FOUND":
		writeJSON(w, http.StatusNotFound, response{Status: false, Msg: "requested record does not exist"})
	default:
		if errors.Is(err, auth.ErrNotFound) || errors.Is(err, tracker.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, response{Status: false, Msg: "requested record does not exist"})
			return
		}
		errutil.LogError(s.logger.With(slog.String("path", r.URL.Path)), "request failed", err)
		writeJSON(w, http.StatusInternalServerError, response{Status: false, Msg: "internal error, please contact an administrator"})
	}
}

// decode parses the JSON request body into v.
func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v) //nolint:wrapcheck // boundary validation error
}
