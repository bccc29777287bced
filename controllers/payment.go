package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cryppy/wallet-core/models"
	"github.com/cryppy/wallet-core/payments"
)

// SendPayment runs one payment attempt and maps the orchestrator's typed
// outcome onto an HTTP status the presentation layer can act on.
func (wc *WalletController) SendPayment(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "outcome": payments.OutcomeInvalidInput, "error": "Malformed request body"})
		return
	}

	result, err := wc.orchestrator.Send(c.Request.Context(), req)
	outcome := payments.Classify(err)
	if err != nil {
		wc.recordFailure(c, req, err, outcome)
		c.JSON(statusFor(outcome), gin.H{"success": false, "outcome": outcome, "error": err.Error()})
		return
	}

	if wc.history != nil {
		_, recErr := wc.history.Record(c.Request.Context(), models.HistoryRecord{
			Address:     req.From,
			Type:        models.HistorySend,
			Amount:      req.Amount,
			AssetCode:   "XLM",
			Counterpart: req.To,
			Hash:        result.Hash,
			Status:      models.StatusConfirmed,
		})
		if recErr != nil {
			wc.logger.WithError(recErr).Warn("Failed to record payment history")
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "outcome": outcome, "data": result})
}

// recordFailure keeps the local history honest: a rejected payment is
// failed, an ambiguous one stays pending under its hash for reconciliation.
func (wc *WalletController) recordFailure(c *gin.Context, req models.PaymentRequest, err error, outcome payments.Outcome) {
	if wc.history == nil {
		return
	}
	var ambiguous *payments.AmbiguousSubmissionError
	switch {
	case errors.As(err, &ambiguous):
		_, recErr := wc.history.Record(c.Request.Context(), models.HistoryRecord{
			Address:     req.From,
			Type:        models.HistorySend,
			Amount:      req.Amount,
			AssetCode:   "XLM",
			Counterpart: req.To,
			Hash:        ambiguous.Hash,
			Status:      models.StatusPending,
		})
		if recErr != nil {
			wc.logger.WithError(recErr).Warn("Failed to record pending payment")
		}
	case outcome == payments.OutcomeRejectedByLedger:
		_, recErr := wc.history.Record(c.Request.Context(), models.HistoryRecord{
			Address:     req.From,
			Type:        models.HistorySend,
			Amount:      req.Amount,
			AssetCode:   "XLM",
			Counterpart: req.To,
			Status:      models.StatusFailed,
		})
		if recErr != nil {
			wc.logger.WithError(recErr).Warn("Failed to record rejected payment")
		}
	}
}

func statusFor(outcome payments.Outcome) int {
	switch outcome {
	case payments.OutcomeConfirmed:
		return http.StatusOK
	case payments.OutcomeInvalidInput:
		return http.StatusBadRequest
	case payments.OutcomeInsufficientFunds, payments.OutcomeRejectedByLedger:
		return http.StatusUnprocessableEntity
	case payments.OutcomeSecretUnavailable, payments.OutcomeAccountNotFound:
		return http.StatusNotFound
	case payments.OutcomeNetworkError:
		return http.StatusBadGateway
	case payments.OutcomeVaultUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
