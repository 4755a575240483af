// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

// Package errutil bridges oops errors to slog and exposes helpers for
// inspecting error codes.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// CodeOf returns the oops code of an error, or "" for plain errors.
func CodeOf(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok {
			return code
		}
	}
	return ""
}

// LogError logs an error with structured context when it is an oops
// error, otherwise the plain error string.
func LogError(logger *slog.Logger, msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{
			"error", oopsErr.Error(),
		}
		if code := oopsErr.Code(); code != "" {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
		logger.Error(msg, attrs...)
	} else {
		logger.Error(msg, "error", err)
	}
}
