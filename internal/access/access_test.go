// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantumix/quantumix/internal/access"
)

func intPtr(n int) *int { return &n }

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		actor     int
		requested *int
		want      int
	}{
		{"nil requested returns actor tier", 3, nil, 3},
		{"nil requested for root", access.TierRoot, nil, access.TierRoot},
		{"requested more privileged is clamped to actor", 3, intPtr(1), 3},
		{"requested less privileged wins", 1, intPtr(3), 3},
		{"equal tiers", 2, intPtr(2), 2},
		{"root actor can tighten", access.TierRoot, intPtr(4), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, access.Resolve(tt.actor, tt.requested))
		})
	}
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		name      string
		effective int
		required  *int
		want      bool
	}{
		{"nil requirement allows anyone", 9, nil, true},
		{"more privileged actor passes", 1, intPtr(2), true},
		{"equal tier passes", 2, intPtr(2), true},
		{"less privileged actor is refused", 5, intPtr(2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, access.Allowed(tt.effective, tt.required))
		})
	}
}

// A restricted resource is visible exactly to actors whose resolved
// tier is at least as privileged as the requirement.
func TestResolveComposedWithAllowed(t *testing.T) {
	required := intPtr(2)

	assert.True(t, access.Allowed(access.Resolve(1, nil), required))
	assert.False(t, access.Allowed(access.Resolve(5, nil), required))

	// An explicit request cannot regain access the actor's own tier
	// would not grant.
	assert.False(t, access.Allowed(access.Resolve(5, intPtr(1)), required))
}
