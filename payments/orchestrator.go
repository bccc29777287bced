// Package payments coordinates one payment attempt end to end: vault
// lookup, account load, envelope build + sign, gateway submission. It owns
// the safety rules around sequence numbers and ambiguous submissions.
package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go/amount"

	"github.com/cryppy/wallet-core/horizon"
	"github.com/cryppy/wallet-core/keys"
	"github.com/cryppy/wallet-core/models"
	"github.com/cryppy/wallet-core/txbuilder"
	"github.com/cryppy/wallet-core/vault"
)

var (
	// ErrInvalidInput means a malformed destination or amount was rejected
	// before touching the vault or the network.
	ErrInvalidInput = errors.New("payments: invalid input")

	// ErrSecretUnavailable means the vault holds no secret for the source
	// address; no network call is attempted in that case.
	ErrSecretUnavailable = errors.New("payments: no secret for source address")
)

// AmbiguousSubmissionError reports a submission whose outcome is unknown:
// the signed envelope left the process but the gateway's answer never
// arrived. Hash lets the caller reconcile against the account's
// transaction history instead of assuming failure.
type AmbiguousSubmissionError struct {
	Hash string
	Err  error
}

func (e *AmbiguousSubmissionError) Error() string {
	return fmt.Sprintf("payments: submission outcome unknown (hash %s): %v", e.Hash, e.Err)
}

func (e *AmbiguousSubmissionError) Unwrap() error { return e.Err }

// Gateway is the ledger gateway surface the orchestrator needs. Implemented
// by *horizon.Client; test doubles substitute it.
type Gateway interface {
	FetchAccount(ctx context.Context, address string) (models.AccountSnapshot, error)
	FetchFeeStats(ctx context.Context) (int64, error)
	Submit(ctx context.Context, envelope string) (models.SubmissionResult, error)
}

// Config carries the network constants a payment attempt needs. The
// passphrase must match the network behind the Gateway.
type Config struct {
	NetworkPassphrase string
	BaseFee           int64
	MaxFee            int64
	BaseReserve       int64
}

// Orchestrator runs payment attempts. It holds no per-attempt state beyond
// the address locks and is safe to invoke concurrently; attempts for the
// same source address are serialized so two in-flight builds can never
// declare the same sequence number.
type Orchestrator struct {
	cfg     Config
	vault   vault.Vault
	gateway Gateway
	logger  *logrus.Entry

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewOrchestrator(cfg Config, v vault.Vault, gw Gateway, logger *logrus.Entry) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		vault:   v,
		gateway: gw,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

// CreateWallet generates a keypair and stores the secret half in the vault
// keyed by the new address. Only the public address leaves this function.
func (o *Orchestrator) CreateWallet() (string, error) {
	kp, err := keys.Generate()
	if err != nil {
		return "", err
	}
	if err := o.vault.Store(vault.KeyFor(kp.PublicKey), kp.SecretSeed); err != nil {
		return "", fmt.Errorf("failed to store secret: %w", err)
	}
	o.logger.WithField("address", kp.PublicKey).Info("Wallet created")
	return kp.PublicKey, nil
}

// RemoveWallet deletes the secret for an address. Idempotent.
func (o *Orchestrator) RemoveWallet(address string) error {
	if !keys.IsValidAddress(address) {
		return fmt.Errorf("%w: malformed address", ErrInvalidInput)
	}
	return o.vault.Remove(vault.KeyFor(address))
}

// Send runs one payment attempt:
// validate input, load the secret, fetch fee stats and the source snapshot,
// build and sign the envelope, submit. A gateway refusal is terminal; the
// orchestrator never retries with a bumped sequence number, since the
// original may have succeeded despite an ambiguous response.
func (o *Orchestrator) Send(ctx context.Context, req models.PaymentRequest) (models.SubmissionResult, error) {
	if err := validate(req); err != nil {
		return models.SubmissionResult{}, err
	}

	secret, ok, err := o.vault.Retrieve(vault.KeyFor(req.From))
	if err != nil {
		return models.SubmissionResult{}, fmt.Errorf("vault lookup failed: %w", err)
	}
	if !ok {
		return models.SubmissionResult{}, ErrSecretUnavailable
	}

	// One in-flight payment per source address, from snapshot to
	// submission. A second Send for the same source waits here and then
	// sees the post-submission sequence number.
	lock := o.addressLock(req.From)
	lock.Lock()
	defer lock.Unlock()

	// Fee stats have no ordering dependency on the account fetch; only
	// both together gate the build.
	feeCh := make(chan int64, 1)
	go func() { feeCh <- o.recommendedFee(ctx) }()

	snapshot, err := o.gateway.FetchAccount(ctx, req.From)
	if err != nil {
		return models.SubmissionResult{}, err
	}
	fee := <-feeCh

	env, err := txbuilder.BuildPayment(txbuilder.Params{
		Snapshot:          snapshot,
		Destination:       req.To,
		Amount:            req.Amount,
		BaseFee:           fee,
		BaseReserve:       o.cfg.BaseReserve,
		NetworkPassphrase: o.cfg.NetworkPassphrase,
		Memo:              req.Memo,
	})
	if err != nil {
		return models.SubmissionResult{}, err
	}

	signed, err := txbuilder.Sign(env, secret)
	if err != nil {
		return models.SubmissionResult{}, err
	}
	secret = ""

	transport, err := signed.Base64()
	if err != nil {
		return models.SubmissionResult{}, fmt.Errorf("failed to serialize envelope: %w", err)
	}

	result, err := o.gateway.Submit(ctx, transport)
	if err != nil {
		var transportErr *horizon.TransportError
		if errors.As(err, &transportErr) {
			hash, hashErr := signed.Hash()
			if hashErr != nil {
				hash = ""
			}
			return models.SubmissionResult{}, &AmbiguousSubmissionError{Hash: hash, Err: err}
		}
		return models.SubmissionResult{}, err
	}

	o.logger.WithFields(logrus.Fields{
		"source":   req.From,
		"sequence": signed.Sequence(),
		"hash":     result.Hash,
		"ledger":   result.Ledger,
	}).Info("Payment confirmed")
	return result, nil
}

// recommendedFee asks the gateway for fee stats, clamps the answer to the
// configured maximum, and falls back to the configured base fee when stats
// are unavailable.
func (o *Orchestrator) recommendedFee(ctx context.Context) int64 {
	fee, err := o.gateway.FetchFeeStats(ctx)
	if err != nil || fee <= 0 {
		if err != nil {
			o.logger.WithError(err).Debug("Fee stats unavailable, using base fee")
		}
		return o.cfg.BaseFee
	}
	if o.cfg.MaxFee > 0 && fee > o.cfg.MaxFee {
		return o.cfg.MaxFee
	}
	return fee
}

func (o *Orchestrator) addressLock(address string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.locks[address]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[address] = lock
	}
	return lock
}

func validate(req models.PaymentRequest) error {
	if !keys.IsValidAddress(req.From) {
		return fmt.Errorf("%w: malformed source address", ErrInvalidInput)
	}
	if !keys.IsValidAddress(req.To) {
		return fmt.Errorf("%w: malformed destination address", ErrInvalidInput)
	}
	stroops, err := amount.ParseInt64(req.Amount)
	if err != nil {
		return fmt.Errorf("%w: unparseable amount %q", ErrInvalidInput, req.Amount)
	}
	if stroops <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	return nil
}
