// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package auth

import (
	"regexp"
	"strings"
)

// emailRegex is a pragmatic syntax check; the authoritative filter is
// the accepted-domain allowlist.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// DefaultAcceptedDomains lists the mail domains accepted for
// registration when no allowlist is configured.
var DefaultAcceptedDomains = []string{"tutanota.com", "tuta.com"}

// EmailValidator decides whether an address is accepted for
// registration.
type EmailValidator interface {
	IsAcceptedAddress(address string) bool
}

// DomainAllowlistValidator accepts syntactically valid addresses whose
// domain appears in its allowlist. Construct once at startup and inject
// where needed; instances are immutable and safe for concurrent use.
type DomainAllowlistValidator struct {
	domains map[string]struct{}
}

// NewDomainAllowlistValidator creates a validator for the given
// domains. An empty list falls back to DefaultAcceptedDomains.
func NewDomainAllowlistValidator(domains []string) *DomainAllowlistValidator {
	if len(domains) == 0 {
		domains = DefaultAcceptedDomains
	}
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		set[strings.ToLower(d)] = struct{}{}
	}
	return &DomainAllowlistValidator{domains: set}
}

// IsAcceptedAddress reports whether the address is syntactically valid
// and belongs to an accepted domain.
func (v *DomainAllowlistValidator) IsAcceptedAddress(address string) bool {
	if !emailRegex.MatchString(address) {
		return false
	}
	at := strings.LastIndex(address, "@")
	if at < 0 {
		return false
	}
	_, ok := v.domains[strings.ToLower(address[at+1:])]
	return ok
}
