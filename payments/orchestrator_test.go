package payments

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryppy/wallet-core/horizon"
	"github.com/cryppy/wallet-core/keys"
	"github.com/cryppy/wallet-core/models"
	"github.com/cryppy/wallet-core/txbuilder"
	"github.com/cryppy/wallet-core/vault"
)

const (
	testBaseFee     = int64(100)
	testMaxFee      = int64(10000)
	testBaseReserve = int64(5000000)
)

// fakeGateway is a scripted Gateway double that records every call.
type fakeGateway struct {
	mu sync.Mutex

	snapshot   models.AccountSnapshot
	accountErr error

	fee    int64
	feeErr error

	submitResult models.SubmissionResult
	submitErr    error

	accountCalls int
	feeCalls     int
	submissions  []string
}

func (g *fakeGateway) FetchAccount(ctx context.Context, address string) (models.AccountSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accountCalls++
	return g.snapshot, g.accountErr
}

func (g *fakeGateway) FetchFeeStats(ctx context.Context) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.feeCalls++
	return g.fee, g.feeErr
}

func (g *fakeGateway) Submit(ctx context.Context, envelope string) (models.SubmissionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submissions = append(g.submissions, envelope)
	return g.submitResult, g.submitErr
}

func testConfig() Config {
	return Config{
		NetworkPassphrase: network.TestNetworkPassphrase,
		BaseFee:           testBaseFee,
		MaxFee:            testMaxFee,
		BaseReserve:       testBaseReserve,
	}
}

func quietLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(logger)
}

// testWallet seeds a memory vault with a fresh keypair and returns an
// orchestrator over it, plus a valid request from that wallet.
func testWallet(t *testing.T, gw Gateway) (*Orchestrator, models.PaymentRequest, *keypair.Full) {
	t.Helper()
	source, err := keypair.Random()
	require.NoError(t, err)
	destination, err := keypair.Random()
	require.NoError(t, err)

	v := vault.NewMemory()
	require.NoError(t, v.Store(vault.KeyFor(source.Address()), source.Seed()))

	o := NewOrchestrator(testConfig(), v, gw, quietLogger())
	req := models.PaymentRequest{
		From:   source.Address(),
		To:     destination.Address(),
		Amount: "10.0000000",
	}
	return o, req, source
}

func fundedSnapshot(address string, sequence int64) models.AccountSnapshot {
	return models.AccountSnapshot{
		AccountID: address,
		Sequence:  sequence,
		Balances:  []models.Balance{{Asset: "XLM", Amount: "500.0000000"}},
	}
}

func TestCreateWallet(t *testing.T) {
	v := vault.NewMemory()
	o := NewOrchestrator(testConfig(), v, &fakeGateway{}, quietLogger())

	address, err := o.CreateWallet()
	require.NoError(t, err)
	assert.True(t, keys.IsValidAddress(address))

	secret, ok, err := v.Retrieve(vault.KeyFor(address))
	require.NoError(t, err)
	require.True(t, ok)

	derived, err := keys.DeriveAddress(secret)
	require.NoError(t, err)
	assert.Equal(t, address, derived, "stored secret must control the returned address")
}

func TestRemoveWallet(t *testing.T) {
	o, req, _ := testWallet(t, &fakeGateway{})

	require.NoError(t, o.RemoveWallet(req.From))
	require.NoError(t, o.RemoveWallet(req.From), "removal is idempotent")

	_, err := o.Send(context.Background(), req)
	assert.ErrorIs(t, err, ErrSecretUnavailable)

	assert.ErrorIs(t, o.RemoveWallet("not-an-address"), ErrInvalidInput)
}

func TestSendHappyPath(t *testing.T) {
	gw := &fakeGateway{
		fee:          200,
		submitResult: models.SubmissionResult{Hash: "abc123", Ledger: 55, Fee: 200},
	}
	o, req, source := testWallet(t, gw)
	gw.snapshot = fundedSnapshot(req.From, 100)

	result, err := o.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "abc123", result.Hash)

	require.Len(t, gw.submissions, 1)
	env, err := txbuilder.Deserialize(gw.submissions[0], network.TestNetworkPassphrase)
	require.NoError(t, err)
	assert.Equal(t, int64(101), env.Sequence(), "envelope declares the snapshot sequence plus one")
	assert.Equal(t, source.Address(), env.SourceAccount())
	assert.Equal(t, int64(200), env.Fee(), "the recommended fee from the gateway is used")
	assert.Equal(t, 1, env.SignatureCount())
}

func TestSendInvalidInputTouchesNothing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.PaymentRequest)
	}{
		{"malformed source", func(r *models.PaymentRequest) { r.From = "bogus" }},
		{"malformed destination", func(r *models.PaymentRequest) { r.To = "bogus" }},
		{"unparseable amount", func(r *models.PaymentRequest) { r.Amount = "ten" }},
		{"zero amount", func(r *models.PaymentRequest) { r.Amount = "0" }},
		{"negative amount", func(r *models.PaymentRequest) { r.Amount = "-5" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			o, req, _ := testWallet(t, gw)
			tt.mutate(&req)

			_, err := o.Send(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Zero(t, gw.accountCalls, "invalid input must be rejected before any network call")
			assert.Zero(t, gw.feeCalls)
			assert.Empty(t, gw.submissions)
		})
	}
}

func TestSendMissingSecretSkipsNetwork(t *testing.T) {
	gw := &fakeGateway{}
	o, req, _ := testWallet(t, gw)
	require.NoError(t, o.RemoveWallet(req.From))

	_, err := o.Send(context.Background(), req)
	assert.ErrorIs(t, err, ErrSecretUnavailable)
	assert.Zero(t, gw.accountCalls)
	assert.Zero(t, gw.feeCalls)
}

func TestSendInsufficientFundsNeverSubmits(t *testing.T) {
	gw := &fakeGateway{fee: 100}
	o, req, _ := testWallet(t, gw)
	gw.snapshot = models.AccountSnapshot{
		AccountID: req.From,
		Sequence:  100,
		Balances:  []models.Balance{{Asset: "XLM", Amount: "10.0000000"}},
	}

	_, err := o.Send(context.Background(), req)
	assert.ErrorIs(t, err, txbuilder.ErrInsufficientFunds)
	assert.Empty(t, gw.submissions)
}

func TestSendUnfundedSource(t *testing.T) {
	gw := &fakeGateway{fee: 100, accountErr: horizon.ErrAccountNotFound}
	o, req, _ := testWallet(t, gw)

	_, err := o.Send(context.Background(), req)
	assert.ErrorIs(t, err, horizon.ErrAccountNotFound)
	assert.Empty(t, gw.submissions)
}

func TestSendRefusalIsTerminal(t *testing.T) {
	gw := &fakeGateway{
		fee: 100,
		submitErr: &horizon.SubmissionError{
			Status:          http.StatusBadRequest,
			TransactionCode: "tx_bad_seq",
		},
	}
	o, req, _ := testWallet(t, gw)
	gw.snapshot = fundedSnapshot(req.From, 100)

	_, err := o.Send(context.Background(), req)
	var submissionErr *horizon.SubmissionError
	require.ErrorAs(t, err, &submissionErr)
	assert.Len(t, gw.submissions, 1, "a refusal must not trigger a resubmission")
}

func TestSendAmbiguousOutcomeCarriesHash(t *testing.T) {
	gw := &fakeGateway{
		fee:       100,
		submitErr: &horizon.TransportError{Op: "submit transaction", Err: errors.New("timeout")},
	}
	o, req, _ := testWallet(t, gw)
	gw.snapshot = fundedSnapshot(req.From, 100)

	_, err := o.Send(context.Background(), req)
	var ambiguous *AmbiguousSubmissionError
	require.ErrorAs(t, err, &ambiguous)
	require.Len(t, gw.submissions, 1)

	env, err2 := txbuilder.Deserialize(gw.submissions[0], network.TestNetworkPassphrase)
	require.NoError(t, err2)
	hash, err2 := env.Hash()
	require.NoError(t, err2)
	assert.Equal(t, hash, ambiguous.Hash,
		"the hash identifies the in-flight envelope for later reconciliation")
}

func TestRecommendedFee(t *testing.T) {
	tests := []struct {
		name   string
		fee    int64
		feeErr error
		want   int64
	}{
		{"gateway recommendation used", 250, nil, 250},
		{"fallback on fetch failure", 0, errors.New("boom"), testBaseFee},
		{"fallback on zero recommendation", 0, nil, testBaseFee},
		{"clamped to configured maximum", 50000, nil, testMaxFee},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{fee: tt.fee, feeErr: tt.feeErr}
			o := NewOrchestrator(testConfig(), vault.NewMemory(), gw, quietLogger())
			assert.Equal(t, tt.want, o.recommendedFee(context.Background()))
		})
	}
}

// ledgerGateway mimics the sequence bookkeeping of a real ledger: each
// accepted envelope advances the account's sequence number, so overlapping
// attempts that snapshot the same state would collide.
type ledgerGateway struct {
	mu       sync.Mutex
	address  string
	sequence int64
	declared []int64
}

func (g *ledgerGateway) FetchAccount(ctx context.Context, address string) (models.AccountSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fundedSnapshot(g.address, g.sequence), nil
}

func (g *ledgerGateway) FetchFeeStats(ctx context.Context) (int64, error) {
	return testBaseFee, nil
}

func (g *ledgerGateway) Submit(ctx context.Context, envelope string) (models.SubmissionResult, error) {
	env, err := txbuilder.Deserialize(envelope, network.TestNetworkPassphrase)
	if err != nil {
		return models.SubmissionResult{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if env.Sequence() != g.sequence+1 {
		return models.SubmissionResult{}, &horizon.SubmissionError{
			Status:          http.StatusBadRequest,
			TransactionCode: "tx_bad_seq",
		}
	}
	g.sequence = env.Sequence()
	g.declared = append(g.declared, env.Sequence())
	return models.SubmissionResult{Hash: "ok", Ledger: 1, Fee: env.Fee()}, nil
}

func TestConcurrentSendsForOneSourceSerialize(t *testing.T) {
	gw := &ledgerGateway{sequence: 100}
	o, req, _ := testWallet(t, gw)
	gw.address = req.From

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := o.Send(context.Background(), req)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	require.Len(t, gw.declared, attempts)
	seen := make(map[int64]bool, attempts)
	for _, seq := range gw.declared {
		assert.False(t, seen[seq], "sequence %d declared twice", seq)
		seen[seq] = true
	}
	assert.Equal(t, int64(100+attempts), gw.sequence)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil is confirmed", nil, OutcomeConfirmed},
		{"orchestrator input rejection", ErrInvalidInput, OutcomeInvalidInput},
		{"builder destination rejection", txbuilder.ErrInvalidDestination, OutcomeInvalidInput},
		{"builder memo rejection", txbuilder.ErrInvalidMemo, OutcomeInvalidInput},
		{"insufficient funds", txbuilder.ErrInsufficientFunds, OutcomeInsufficientFunds},
		{"missing secret", ErrSecretUnavailable, OutcomeSecretUnavailable},
		{"unfunded account", horizon.ErrAccountNotFound, OutcomeAccountNotFound},
		{"vault failure", vault.ErrUnavailable, OutcomeVaultUnavailable},
		{"ledger refusal", &horizon.SubmissionError{Status: 400}, OutcomeRejectedByLedger},
		{"ambiguous submission", &AmbiguousSubmissionError{Hash: "h", Err: errors.New("x")}, OutcomeNetworkError},
		{"transport failure", &horizon.TransportError{Op: "fetch", Err: errors.New("x")}, OutcomeNetworkError},
		{"anything else", errors.New("mystery"), OutcomeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
