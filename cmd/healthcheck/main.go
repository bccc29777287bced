// Smoke tool: exercises the wallet collaborators end to end against the
// test network without moving funds.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cryppy/wallet-core/config"
	"github.com/cryppy/wallet-core/horizon"
	"github.com/cryppy/wallet-core/keys"
	"github.com/cryppy/wallet-core/payments"
	"github.com/cryppy/wallet-core/vault"
)

func main() {
	environment := flag.String("e", "development", "")
	flag.Parse()
	config.Init(*environment)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Println("Testing keypair generation...")
	kp, err := keys.Generate()
	if err != nil {
		log.Fatalf("failed to generate keypair: %v", err)
	}
	derived, err := keys.DeriveAddress(kp.SecretSeed)
	if err != nil || derived != kp.PublicKey {
		log.Fatalf("address derivation mismatch: %v", err)
	}
	log.Println("✅ Keypair generation and derivation working!")

	log.Println("Testing vault round-trip...")
	memoryVault := vault.NewMemory()
	if err := memoryVault.Store(vault.KeyFor(kp.PublicKey), kp.SecretSeed); err != nil {
		log.Fatalf("vault store failed: %v", err)
	}
	secret, ok, err := memoryVault.Retrieve(vault.KeyFor(kp.PublicKey))
	if err != nil || !ok || secret != kp.SecretSeed {
		log.Fatalf("vault retrieve mismatch: %v", err)
	}
	log.Println("✅ Vault round-trip working!")

	logger := logrus.WithField("service", "healthcheck")
	gateway := horizon.NewClient(config.HorizonURL(), config.FriendbotURL(),
		config.HorizonTimeout(), logger)

	log.Println("Testing gateway fee stats...")
	fee, err := gateway.FetchFeeStats(ctx)
	if err != nil {
		log.Fatalf("fee stats fetch failed: %v", err)
	}
	log.Printf("✅ Gateway reachable, recommended fee: %d stroops", fee)

	log.Println("Testing unfunded-account probe...")
	funded, err := gateway.IsFunded(ctx, kp.PublicKey)
	if err != nil {
		log.Fatalf("funded probe failed: %v", err)
	}
	if funded {
		log.Fatalf("fresh keypair reported as funded")
	}
	log.Println("✅ Unfunded account correctly reported!")

	log.Println("Testing orchestrator wiring...")
	orchestrator := payments.NewOrchestrator(payments.Config{
		NetworkPassphrase: config.NetworkPassphrase(),
		BaseFee:           config.BaseFee(),
		MaxFee:            config.MaxFee(),
		BaseReserve:       config.BaseReserve(),
	}, memoryVault, gateway, logger)
	if orchestrator == nil {
		log.Fatal("failed to create orchestrator")
	}
	log.Println("✅ Orchestrator created successfully!")

	log.Println("\n🎉 All checks passed! The wallet core is ready to run.")
}
