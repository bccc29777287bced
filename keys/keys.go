// Package keys generates Stellar signing keypairs and derives addresses
// from secret seeds.
package keys

import (
	"errors"
	"fmt"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"
)

var (
	// ErrEntropyUnavailable means the platform could not supply secure
	// random bytes. Non-retryable without operator intervention.
	ErrEntropyUnavailable = errors.New("keys: secure randomness unavailable")

	// ErrInvalidSecret means a secret seed does not decode to a valid
	// ed25519 seed (wrong length, alphabet or checksum).
	ErrInvalidSecret = errors.New("keys: invalid secret seed")
)

// Keypair is a generated signing keypair. PublicKey is always derivable
// from SecretSeed; the two are created together and must be persisted
// together. The secret half goes to the vault and is never logged.
type Keypair struct {
	PublicKey  string
	SecretSeed string
}

// Generate draws a fresh keypair from crypto/rand. Safe for concurrent use;
// it holds no shared state.
func Generate() (Keypair, error) {
	full, err := keypair.Random()
	if err != nil {
		return Keypair{}, fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}
	return Keypair{PublicKey: full.Address(), SecretSeed: full.Seed()}, nil
}

// DeriveAddress recomputes the public address for a secret seed. Pure
// function, no I/O.
func DeriveAddress(secretSeed string) (string, error) {
	if !strkey.IsValidEd25519SecretSeed(secretSeed) {
		return "", ErrInvalidSecret
	}
	full, err := keypair.ParseFull(secretSeed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return full.Address(), nil
}

// IsValidAddress reports whether s is a well-formed ed25519 public address.
func IsValidAddress(s string) bool {
	return strkey.IsValidEd25519PublicKey(s)
}
