// Package emailcheck asks an external service whether an address can receive
// mail. Registration consults it after the local uniqueness checks.
package emailcheck

import (
	"context"
	"fmt"
	"strings"
)

type Verdict int

const (
	// Unknown means the verifier answered but could not decide.
	Unknown Verdict = iota
	Valid
	Invalid
)

func (v Verdict) String() string {
	switch v {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

func parseVerdict(s string) Verdict {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "valid", "deliverable":
		return Valid
	case "invalid", "undeliverable":
		return Invalid
	default:
		return Unknown
	}
}

// Verifier checks a single address. An error means no verdict could be
// obtained at all (network, timeout, bad response).
type Verifier interface {
	Verify(ctx context.Context, email string) (Verdict, error)
}

// Policy decides what registration does when the verifier cannot give a
// definitive answer.
type Policy string

const (
	// PolicyOff skips verification entirely.
	PolicyOff Policy = "off"
	// PolicyFailOpen admits the address when the verifier is down or unsure.
	PolicyFailOpen Policy = "fail_open"
	// PolicyFailClosed rejects anything that is not positively valid,
	// including verifier downtime.
	PolicyFailClosed Policy = "fail_closed"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyOff, PolicyFailOpen, PolicyFailClosed:
		return p, nil
	case "":
		return PolicyOff, nil
	default:
		return "", fmt.Errorf("emailcheck: unknown policy %q", s)
	}
}

// Admit applies the policy to a verifier outcome. Invalid is always refused.
func (p Policy) Admit(v Verdict, err error) bool {
	if p == PolicyOff {
		return true
	}
	if err == nil && v == Valid {
		return true
	}
	if err == nil && v == Invalid {
		return false
	}
	return p == PolicyFailOpen
}
