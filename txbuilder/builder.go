// Package txbuilder constructs, signs and serializes single-payment
// transaction envelopes. All validation happens here, before any network
// call: a payment that cannot succeed is rejected locally.
package txbuilder

import (
	"errors"
	"fmt"
	"time"

	"github.com/stellar/go/amount"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/txnbuild"

	"github.com/cryppy/wallet-core/keys"
	"github.com/cryppy/wallet-core/models"
)

var (
	// ErrInvalidDestination means the destination is not a well-formed
	// ed25519 public address.
	ErrInvalidDestination = errors.New("txbuilder: invalid destination address")

	// ErrInvalidAmount means the amount is not a positive decimal
	// representable in 7 fractional digits.
	ErrInvalidAmount = errors.New("txbuilder: invalid amount")

	// ErrInsufficientFunds means the amount exceeds the spendable balance,
	// i.e. balance minus fee minus the account's minimum reserve.
	ErrInsufficientFunds = errors.New("txbuilder: insufficient funds")

	// ErrInvalidMemo means the text memo exceeds the 28-byte XDR limit.
	ErrInvalidMemo = errors.New("txbuilder: memo too long")
)

// Accounts hold a base reserve for themselves plus one per subentry; the
// ledger enforces two base reserves as the floor.
const reserveBaseEntries = 2

// Text memos are capped at 28 bytes in the XDR.
const memoTextLimit = 28

// DefaultTimeout bounds an envelope's validity so an unsubmitted one
// cannot be replayed indefinitely.
const DefaultTimeout = 60 * time.Second

// Params are the inputs to BuildPayment. BaseFee and BaseReserve are in
// stroops; Amount is a decimal string.
type Params struct {
	Snapshot          models.AccountSnapshot
	Destination       string
	Amount            string
	BaseFee           int64
	BaseReserve       int64
	NetworkPassphrase string
	Memo              string
	Timeout           time.Duration
}

// Envelope is an immutable payment envelope bound to one network. Signing
// returns a new Envelope; existing signatures are never mutated.
type Envelope struct {
	tx                *txnbuild.Transaction
	networkPassphrase string
}

// BuildPayment validates p and constructs an unsigned envelope declaring
// sequence number snapshot.Sequence+1.
func BuildPayment(p Params) (*Envelope, error) {
	if !strkey.IsValidEd25519PublicKey(p.Destination) {
		return nil, ErrInvalidDestination
	}

	stroops, err := amount.ParseInt64(p.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if stroops <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}

	balance, err := amount.ParseInt64(p.Snapshot.NativeBalance())
	if err != nil {
		return nil, fmt.Errorf("unreadable balance in snapshot: %w", err)
	}
	reserve := (reserveBaseEntries + p.Snapshot.SubentryCount) * p.BaseReserve
	spendable := balance - p.BaseFee - reserve
	if stroops > spendable {
		return nil, fmt.Errorf("%w: %s exceeds spendable %s",
			ErrInsufficientFunds, p.Amount, amount.StringFromInt64(max64(spendable, 0)))
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	params := txnbuild.TransactionParams{
		SourceAccount: &txnbuild.SimpleAccount{
			AccountID: p.Snapshot.AccountID,
			Sequence:  p.Snapshot.Sequence,
		},
		IncrementSequenceNum: true,
		Operations: []txnbuild.Operation{
			&txnbuild.Payment{
				Destination: p.Destination,
				Amount:      p.Amount,
				Asset:       txnbuild.NativeAsset{},
			},
		},
		BaseFee: p.BaseFee,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimeout(int64(timeout.Seconds())),
		},
	}
	if p.Memo != "" {
		if len(p.Memo) > memoTextLimit {
			return nil, ErrInvalidMemo
		}
		params.Memo = txnbuild.MemoText(p.Memo)
	}

	tx, err := txnbuild.NewTransaction(params)
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}
	return &Envelope{tx: tx, networkPassphrase: p.NetworkPassphrase}, nil
}

// Sign appends a signature over the envelope's canonical bytes keyed by its
// network passphrase and returns the signed copy.
func Sign(env *Envelope, secretSeed string) (*Envelope, error) {
	if !strkey.IsValidEd25519SecretSeed(secretSeed) {
		return nil, keys.ErrInvalidSecret
	}
	full, err := keypair.ParseFull(secretSeed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keys.ErrInvalidSecret, err)
	}
	signed, err := env.tx.Sign(env.networkPassphrase, full)
	if err != nil {
		return nil, fmt.Errorf("failed to sign envelope: %w", err)
	}
	return &Envelope{tx: signed, networkPassphrase: env.networkPassphrase}, nil
}

// Deserialize parses a transport string back into an envelope bound to the
// given network.
func Deserialize(transport, networkPassphrase string) (*Envelope, error) {
	generic, err := txnbuild.TransactionFromXDR(transport)
	if err != nil {
		return nil, fmt.Errorf("failed to parse envelope: %w", err)
	}
	tx, ok := generic.Transaction()
	if !ok {
		return nil, errors.New("txbuilder: not a simple transaction envelope")
	}
	return &Envelope{tx: tx, networkPassphrase: networkPassphrase}, nil
}

// Sequence is the declared sequence number.
func (e *Envelope) Sequence() int64 {
	return e.tx.SequenceNumber()
}

// SourceAccount is the declared source address.
func (e *Envelope) SourceAccount() string {
	sa := e.tx.SourceAccount()
	return sa.AccountID
}

// Fee is the total declared fee in stroops.
func (e *Envelope) Fee() int64 {
	return e.tx.BaseFee() * int64(len(e.tx.Operations()))
}

// SignatureCount reports how many signatures the envelope carries.
func (e *Envelope) SignatureCount() int {
	return len(e.tx.Signatures())
}

// Hash is the hex transaction hash under the envelope's network. Valid for
// unsubmitted envelopes; used to reconcile ambiguous submissions.
func (e *Envelope) Hash() (string, error) {
	return e.tx.HashHex(e.networkPassphrase)
}

// Base64 is the canonical transport encoding submitted to the gateway.
func (e *Envelope) Base64() (string, error) {
	return e.tx.Base64()
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
