// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Display sequence range. The range must stay large relative to the
// expected account count so collision retries remain O(1).
const (
	SequenceMin = 1000
	SequenceMax = 9998
)

// DefaultSequenceAttempts bounds the allocation retry loop. The ceiling
// turns pathological range saturation into a distinct error instead of
// a hung request.
const DefaultSequenceAttempts = 64

// SequenceAllocator hands out display sequences that are unique among
// existing accounts, by randomized draw and retry. Uniqueness under
// concurrency is guaranteed by the store's unique constraint on the
// sequence column, not by this allocator: callers must treat an
// insert-time ErrSequenceTaken as a signal to allocate again.
type SequenceAllocator struct {
	accounts AccountRepository
	min      int
	max      int
	attempts uint64
}

// NewSequenceAllocator creates an allocator over the given range. Zero
// values fall back to SequenceMin, SequenceMax and
// DefaultSequenceAttempts.
func NewSequenceAllocator(accounts AccountRepository, min, max int, attempts uint64) (*SequenceAllocator, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("account repository is required")
	}
	if min == 0 && max == 0 {
		min, max = SequenceMin, SequenceMax
	}
	if min >= max {
		return nil, oops.Code("AUTH_SEQUENCE_RANGE").
			With("min", min).
			With("max", max).
			Errorf("sequence range is empty")
	}
	if attempts == 0 {
		attempts = DefaultSequenceAttempts
	}
	return &SequenceAllocator{accounts: accounts, min: min, max: max, attempts: attempts}, nil
}

// Allocate draws a cryptographically random sequence not currently held
// by any account. Collisions retry with a fresh draw; exhausting the
// attempts budget fails with AUTH_SEQUENCE_EXHAUSTED.
func (a *SequenceAllocator) Allocate(ctx context.Context) (int, error) {
	var sequence int

	backoff := retry.WithMaxRetries(a.attempts, retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		n, err := a.draw()
		if err != nil {
			return err
		}
		exists, err := a.accounts.ExistsSequence(ctx, n)
		if err != nil {
			return oops.Code("AUTH_SEQUENCE_LOOKUP_FAILED").
				With("sequence", n).
				Wrap(err)
		}
		if exists {
			return retry.RetryableError(ErrSequenceTaken)
		}
		sequence = n
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSequenceTaken) {
			return 0, oops.Code("AUTH_SEQUENCE_EXHAUSTED").
				With("attempts", a.attempts).
				With("min", a.min).
				With("max", a.max).
				Errorf("no free sequence after %d attempts", a.attempts)
		}
		return 0, err
	}
	return sequence, nil
}

// draw returns a uniform random integer in [min, max].
func (a *SequenceAllocator) draw() (int, error) {
	span := big.NewInt(int64(a.max - a.min + 1))
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, oops.Code("AUTH_SEQUENCE_DRAW_FAILED").Wrap(err)
	}
	return a.min + int(n.Int64()), nil
}
