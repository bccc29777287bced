package horizon

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAccountNotFound means the gateway reports the address does not exist
// on-ledger. Unfunded accounts do not exist until first funded, so this is
// an expected, recoverable condition.
var ErrAccountNotFound = errors.New("horizon: account not found")

// TransportError is a network-level failure: the request never reached the
// gateway, timed out, or the gateway answered without a usable body.
// Retryable by the caller with backoff. For submissions it is ambiguous:
// the transaction may still have been accepted.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("horizon: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SubmissionError is a ledger-level refusal of a submitted envelope. It
// carries the gateway's structured reason and must never be auto-retried:
// the refusal is authoritative.
type SubmissionError struct {
	Status          int
	Detail          string
	TransactionCode string
	OperationCodes  []string
}

func (e *SubmissionError) Error() string {
	msg := fmt.Sprintf("horizon: submission rejected (%d): %s", e.Status, e.Detail)
	if e.TransactionCode != "" {
		msg += ": " + e.TransactionCode
	}
	if len(e.OperationCodes) > 0 {
		msg += " [" + strings.Join(e.OperationCodes, ", ") + "]"
	}
	return msg
}
