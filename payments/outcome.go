package payments

import (
	"errors"

	"github.com/cryppy/wallet-core/horizon"
	"github.com/cryppy/wallet-core/keys"
	"github.com/cryppy/wallet-core/txbuilder"
	"github.com/cryppy/wallet-core/vault"
)

// Outcome is the user-facing classification of a payment attempt, so the
// presentation layer can render specific guidance instead of a generic
// failure.
type Outcome string

const (
	OutcomeConfirmed         Outcome = "confirmed"
	OutcomeInvalidInput      Outcome = "invalid_input"
	OutcomeInsufficientFunds Outcome = "insufficient_funds"
	OutcomeSecretUnavailable Outcome = "secret_unavailable"
	OutcomeAccountNotFound   Outcome = "account_not_found"
	OutcomeRejectedByLedger  Outcome = "rejected_by_ledger"
	OutcomeNetworkError      Outcome = "network_error"
	OutcomeVaultUnavailable  Outcome = "vault_unavailable"
	OutcomeInternalError     Outcome = "internal_error"
)

// Classify maps an error returned by Send (or nil) onto an Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeConfirmed
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, txbuilder.ErrInvalidDestination),
		errors.Is(err, txbuilder.ErrInvalidAmount),
		errors.Is(err, txbuilder.ErrInvalidMemo):
		return OutcomeInvalidInput
	case errors.Is(err, txbuilder.ErrInsufficientFunds):
		return OutcomeInsufficientFunds
	case errors.Is(err, ErrSecretUnavailable):
		return OutcomeSecretUnavailable
	case errors.Is(err, horizon.ErrAccountNotFound):
		return OutcomeAccountNotFound
	case errors.Is(err, vault.ErrUnavailable):
		return OutcomeVaultUnavailable
	case errors.Is(err, keys.ErrInvalidSecret), errors.Is(err, keys.ErrEntropyUnavailable):
		return OutcomeInternalError
	}

	var submission *horizon.SubmissionError
	if errors.As(err, &submission) {
		return OutcomeRejectedByLedger
	}
	var ambiguous *AmbiguousSubmissionError
	if errors.As(err, &ambiguous) {
		return OutcomeNetworkError
	}
	var transport *horizon.TransportError
	if errors.As(err, &transport) {
		return OutcomeNetworkError
	}
	return OutcomeInternalError
}
