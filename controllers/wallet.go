package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cache"
	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cryppy/wallet-core/horizon"
	"github.com/cryppy/wallet-core/keys"
	"github.com/cryppy/wallet-core/models"
	"github.com/cryppy/wallet-core/payments"
	"github.com/cryppy/wallet-core/pricing"
	"github.com/cryppy/wallet-core/store"
	"github.com/cryppy/wallet-core/vault"
)

// WalletController exposes the wallet core to the presentation layer.
type WalletController struct {
	orchestrator *payments.Orchestrator
	gateway      *horizon.Client
	prices       *pricing.Client
	history      *store.History // nil disables local history
	vault        vault.Vault
	logger       *logrus.Entry
}

func NewWalletController(orchestrator *payments.Orchestrator, gateway *horizon.Client,
	prices *pricing.Client, history *store.History, v vault.Vault, logger *logrus.Entry) *WalletController {
	return &WalletController{
		orchestrator: orchestrator,
		gateway:      gateway,
		prices:       prices,
		history:      history,
		vault:        v,
		logger:       logger,
	}
}

func (wc *WalletController) RegisterRoutes(r *gin.Engine) {
	cacheStore := persistence.NewInMemoryStore(time.Minute)

	r.GET("/health", wc.HealthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/wallets", wc.CreateWallet)
		v1.DELETE("/wallets/:address", wc.RemoveWallet)
		v1.GET("/wallets/:address", wc.GetAccount)
		v1.POST("/wallets/:address/fund", wc.FundWallet)
		v1.GET("/wallets/:address/transactions", wc.GetTransactions)
		v1.GET("/wallets/:address/history", wc.GetHistory)
		v1.POST("/payments", wc.SendPayment)
		v1.GET("/transactions/:id/operations", wc.GetOperations)
		v1.GET("/price", cache.CachePage(cacheStore, time.Minute, wc.GetPrice))
	}
}

func (wc *WalletController) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "vault_degraded": wc.vault.Degraded()})
}

func (wc *WalletController) CreateWallet(c *gin.Context) {
	address, err := wc.orchestrator.CreateWallet()
	if err != nil {
		wc.logger.WithError(err).Error("Failed to create wallet")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create wallet"})
		return
	}
	if wc.history != nil {
		_, err := wc.history.Record(c.Request.Context(), models.HistoryRecord{
			Address:   address,
			Type:      models.HistoryCreate,
			Amount:    "0",
			AssetCode: "XLM",
			Status:    models.StatusConfirmed,
		})
		if err != nil {
			wc.logger.WithError(err).Warn("Failed to record wallet creation")
		}
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    gin.H{"address": address, "vault_degraded": wc.vault.Degraded()},
	})
}

func (wc *WalletController) RemoveWallet(c *gin.Context) {
	if err := wc.orchestrator.RemoveWallet(c.Param("address")); err != nil {
		if errors.Is(err, payments.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Malformed address"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to remove wallet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (wc *WalletController) GetAccount(c *gin.Context) {
	address := c.Param("address")
	if !keys.IsValidAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Malformed address"})
		return
	}
	snapshot, err := wc.gateway.FetchAccount(c.Request.Context(), address)
	if errors.Is(err, horizon.ErrAccountNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Account not activated", "funded": false})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Gateway unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": snapshot})
}

func (wc *WalletController) FundWallet(c *gin.Context) {
	address := c.Param("address")
	if !keys.IsValidAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Malformed address"})
		return
	}
	if err := wc.gateway.FundWithFriendbot(c.Request.Context(), address); err != nil {
		wc.logger.WithError(err).Warn("Faucet funding failed")
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Faucet funding failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (wc *WalletController) GetTransactions(c *gin.Context) {
	address := c.Param("address")
	if !keys.IsValidAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Malformed address"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	transactions, err := wc.gateway.FetchTransactions(c.Request.Context(), address, limit)
	if errors.Is(err, horizon.ErrAccountNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Account not activated"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Gateway unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": transactions})
}

func (wc *WalletController) GetOperations(c *gin.Context) {
	operations, err := wc.gateway.FetchOperations(c.Request.Context(), c.Param("id"))
	if errors.Is(err, horizon.ErrAccountNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Transaction not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Gateway unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": operations})
}

func (wc *WalletController) GetHistory(c *gin.Context) {
	if wc.history == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"success": false, "error": "Local history not configured"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := wc.history.ByAddress(c.Request.Context(), c.Param("address"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": records})
}

func (wc *WalletController) GetPrice(c *gin.Context) {
	price := wc.prices.XLMUSD(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"asset": "XLM", "usd": price}})
}
