package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/subosito/gotenv"

	"github.com/cryppy/wallet-core/config"
	"github.com/cryppy/wallet-core/controllers"
	"github.com/cryppy/wallet-core/db"
	"github.com/cryppy/wallet-core/horizon"
	"github.com/cryppy/wallet-core/payments"
	"github.com/cryppy/wallet-core/pricing"
	"github.com/cryppy/wallet-core/server"
	"github.com/cryppy/wallet-core/store"
	"github.com/cryppy/wallet-core/vault"
)

func main() {
	environment := flag.String("e", "development", "")
	flag.Usage = func() {
		fmt.Println("Usage: server -e {mode}")
		os.Exit(1)
	}
	flag.Parse()

	gotenv.Load()
	config.Init(*environment)

	logger := logrus.New()

	passphrase := os.Getenv("VAULT_PASSPHRASE")
	if passphrase == "" {
		logger.Fatal("VAULT_PASSPHRASE is not set")
	}
	secretVault, err := vault.NewFile(config.VaultPath(), []byte(passphrase))
	if err != nil {
		logger.WithError(err).Fatal("Failed to open vault")
	}
	if secretVault.Degraded() {
		logger.Warn("Running with the encrypted-file vault fallback; no platform keystore in use")
	}

	gateway := horizon.NewClient(config.HorizonURL(), config.FriendbotURL(),
		config.HorizonTimeout(), logger.WithField("service", "horizon"))

	orchestrator := payments.NewOrchestrator(payments.Config{
		NetworkPassphrase: config.NetworkPassphrase(),
		BaseFee:           config.BaseFee(),
		MaxFee:            config.MaxFee(),
		BaseReserve:       config.BaseReserve(),
	}, secretVault, gateway, logger.WithField("service", "payments"))

	prices := pricing.NewClient(logger.WithField("service", "pricing"))

	var history *store.History
	if databaseURL := config.DatabaseURL(); databaseURL != "" {
		conn, err := db.Connect(databaseURL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to history database")
		}
		defer conn.Close()
		history = store.NewHistory(conn)
	} else {
		logger.Info("No history database configured; local history disabled")
	}

	controller := controllers.NewWalletController(orchestrator, gateway, prices,
		history, secretVault, logger.WithField("service", "api"))

	srv := &server.Server{}
	if err := srv.Run(server.NewRouter(controller)); err != nil {
		logger.WithError(err).Fatal("Server stopped")
	}
}
