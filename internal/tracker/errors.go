// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package tracker

import "errors"

// ErrNotFound is returned when a requested project or todo does not
// exist.
var ErrNotFound = errors.New("not found")
