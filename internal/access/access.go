// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

// Package access computes effective permission tiers. Tiers are a total
// order of integers where smaller is more privileged: tier 0 is root.
// Resources carry an optional required tier; nil means "no restriction
// beyond default".
package access

// Tier landmarks. Accounts default to the least-privileged tier.
const (
	TierRoot    = 0
	TierDefault = 5
)

// Resolve computes the effective tier to apply when an actor supplies
// an optional explicit tier for a resource. With no requested tier the
// actor's own tier applies. Otherwise the result is the less privileged
// of the two: an actor can tighten a restriction on data it owns, but a
// request parameter can never loosen the actor's own privilege floor.
//
// Pure and total; no failure mode.
func Resolve(actorTier int, requestedTier *int) int {
	if requestedTier == nil {
		return actorTier
	}
	if actorTier > *requestedTier {
		return actorTier
	}
	return *requestedTier
}

// Allowed gates an action against a resource. A nil required tier means
// the resource is unrestricted; otherwise the effective tier must be at
// least as privileged as the requirement.
func Allowed(effectiveTier int, requiredTier *int) bool {
	if requiredTier == nil {
		return true
	}
	return effectiveTier <= *requiredTier
}
