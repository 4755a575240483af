// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert collides with an existing
// unique value (username, email or registration triple).
var ErrConflict = errors.New("conflict")

// ErrSequenceTaken signals that a candidate display sequence collided
// with an existing account. Callers retry with a fresh draw.
var ErrSequenceTaken = errors.New("sequence taken")
