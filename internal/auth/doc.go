// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

// Package auth implements the authentication core: argon2id credential
// hashing, account registration with unique display sequences, and
// device-bound rotating sessions.
//
// Components are wired by dependency injection; nothing in this package
// reads ambient process state. Uniqueness of sequence, username, email
// and session token is enforced by the persistence layer's constraints,
// not by in-process locking.
package auth
