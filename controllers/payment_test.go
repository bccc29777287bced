package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stellar/go/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryppy/wallet-core/models"
	"github.com/cryppy/wallet-core/payments"
	"github.com/cryppy/wallet-core/vault"
)

type stubGateway struct {
	snapshot     models.AccountSnapshot
	accountErr   error
	submitResult models.SubmissionResult
	submitErr    error
}

func (g *stubGateway) FetchAccount(ctx context.Context, address string) (models.AccountSnapshot, error) {
	return g.snapshot, g.accountErr
}

func (g *stubGateway) FetchFeeStats(ctx context.Context) (int64, error) {
	return 100, nil
}

func (g *stubGateway) Submit(ctx context.Context, envelope string) (models.SubmissionResult, error) {
	return g.submitResult, g.submitErr
}

func paymentRouter(t *testing.T, gw payments.Gateway) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	entry := logrus.NewEntry(logger)

	v := vault.NewMemory()
	orchestrator := payments.NewOrchestrator(payments.Config{
		NetworkPassphrase: network.TestNetworkPassphrase,
		BaseFee:           100,
		MaxFee:            10000,
		BaseReserve:       5000000,
	}, v, gw, entry)

	address, err := orchestrator.CreateWallet()
	require.NoError(t, err)

	wc := NewWalletController(orchestrator, nil, nil, nil, v, entry)
	router := gin.New()
	router.POST("/payments", wc.SendPayment)
	return router, address
}

func postPayment(t *testing.T, router *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestSendPayment(t *testing.T) {
	const destination = "GDQNY3PBOJOKYZSRMK2S7LHHGWZIUISD4QORETLMXEWXBI7KFZZMKTL3"

	t.Run("confirmed payment", func(t *testing.T) {
		gw := &stubGateway{
			submitResult: models.SubmissionResult{Hash: "abc123", Ledger: 42, Fee: 100},
		}
		router, address := paymentRouter(t, gw)
		gw.snapshot = models.AccountSnapshot{
			AccountID: address,
			Sequence:  100,
			Balances:  []models.Balance{{Asset: "XLM", Amount: "50.0000000"}},
		}

		recorder := postPayment(t, router, models.PaymentRequest{
			From: address, To: destination, Amount: "10.0000000",
		})

		assert.Equal(t, http.StatusOK, recorder.Code)
		var body struct {
			Success bool   `json:"success"`
			Outcome string `json:"outcome"`
			Data    struct {
				Hash string `json:"hash"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.True(t, body.Success)
		assert.Equal(t, string(payments.OutcomeConfirmed), body.Outcome)
		assert.Equal(t, "abc123", body.Data.Hash)
	})

	t.Run("malformed body", func(t *testing.T) {
		router, _ := paymentRouter(t, &stubGateway{})
		req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("unknown source wallet", func(t *testing.T) {
		router, _ := paymentRouter(t, &stubGateway{})

		recorder := postPayment(t, router, models.PaymentRequest{
			From:   destination, // valid address, but no secret in the vault
			To:     destination,
			Amount: "1.0000000",
		})

		assert.Equal(t, http.StatusNotFound, recorder.Code)
		assert.Contains(t, recorder.Body.String(), string(payments.OutcomeSecretUnavailable))
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		outcome payments.Outcome
		want    int
	}{
		{payments.OutcomeConfirmed, http.StatusOK},
		{payments.OutcomeInvalidInput, http.StatusBadRequest},
		{payments.OutcomeInsufficientFunds, http.StatusUnprocessableEntity},
		{payments.OutcomeRejectedByLedger, http.StatusUnprocessableEntity},
		{payments.OutcomeSecretUnavailable, http.StatusNotFound},
		{payments.OutcomeAccountNotFound, http.StatusNotFound},
		{payments.OutcomeNetworkError, http.StatusBadGateway},
		{payments.OutcomeVaultUnavailable, http.StatusServiceUnavailable},
		{payments.OutcomeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.outcome))
		})
	}
}
