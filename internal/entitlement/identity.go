// Package entitlement decides whether an identity may invoke a catalog
// service right now: ban flag first, then the paid subscription window,
// then the per-service free-trial allowance.
package entitlement

import "strings"

// Identity is the normalized key under which entitlement state is tracked.
// Email-derived and anonymous keys live in disjoint namespaces so the two
// kinds can never collide in the ledger.
type Identity string

const (
	emailPrefix = "email:"
	anonPrefix  = "anon:"
)

// EmailIdentity returns the identity key for a registered email address.
// Addresses are compared after trimming and lowercasing only.
func EmailIdentity(email string) Identity {
	return Identity(emailPrefix + strings.ToLower(strings.TrimSpace(email)))
}

// AnonIdentity returns the identity key derived from a request's network
// origin, used when no email is supplied.
func AnonIdentity(origin string) Identity {
	return Identity(anonPrefix + strings.TrimSpace(origin))
}

// ResolveIdentity picks the identity key for a request: the email when one
// is present, otherwise the network origin. Always returns a usable key.
func ResolveIdentity(email, origin string) Identity {
	if strings.TrimSpace(email) != "" {
		return EmailIdentity(email)
	}
	return AnonIdentity(origin)
}

// IsEmail reports whether the identity was derived from an email address.
func (id Identity) IsEmail() bool {
	return strings.HasPrefix(string(id), emailPrefix)
}

// Email returns the bare address for email-derived identities, "" otherwise.
func (id Identity) Email() string {
	if !id.IsEmail() {
		return ""
	}
	return strings.TrimPrefix(string(id), emailPrefix)
}

func (id Identity) String() string {
	return string(id)
}
