// Package vault stores wallet secret seeds at rest. The real platform
// keystore is an external collaborator; this package defines the handle the
// rest of the core is wired against, plus an in-memory store and an
// encrypted-file fallback for hosts without a secure enclave.
package vault

import "errors"

// ErrUnavailable means the backing store could not be opened at all,
// e.g. the vault file exists but cannot be decrypted.
var ErrUnavailable = errors.New("vault: store unavailable")

// Vault is a named-secret store. Retrieve of an unset name returns
// ok=false, not an error; Remove is idempotent.
type Vault interface {
	Store(name, value string) error
	Retrieve(name string) (value string, ok bool, err error)
	Remove(name string) error

	// Degraded reports that the implementation is a less-secure fallback
	// rather than a platform keystore.
	Degraded() bool
}

// KeyFor is the deterministic vault entry name for a managed address, so
// the address-to-secret mapping needs no separate index.
func KeyFor(address string) string {
	return "stellar_secret_" + address
}
