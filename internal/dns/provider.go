// Package dns defines the provider boundary for DNS-01 challenge records
// and the propagation wait that follows a record write.
package dns

import "context"

// ChallengePrefix is the well-known label prepended to a domain to form the
// DNS-01 challenge record name.
const ChallengePrefix = "_acme-challenge"

// ChallengeRecord returns the TXT record name for a domain's DNS-01
// challenge, e.g. "_acme-challenge.example.com".
func ChallengeRecord(domain string) string {
	return ChallengePrefix + "." + domain
}

// Provider is the interface a DNS provider must implement to satisfy
// DNS-01 challenges. Present publishes the validation value as a TXT record
// for the domain's challenge name; CleanUp retracts it. Both must be
// idempotent: presenting an already-present value and cleaning an
// already-absent record succeed without error.
type Provider interface {
	Present(ctx context.Context, domain, token, value string) error
	CleanUp(ctx context.Context, domain, token, value string) error
}
