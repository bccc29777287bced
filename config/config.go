package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

var config *viper.Viper

// Init loads the layered configuration: config/default.yaml first, then the
// network-specific file selected by env merged on top. "development" maps to
// the test network, "production" to the public network. The Horizon endpoint
// and the signing passphrase always come from the same file so an envelope
// can never be signed for one network and submitted to another.
func Init(env string) {
	var err error
	config = viper.New()
	config.SetConfigType("yaml")
	config.SetConfigName("default")
	config.AddConfigPath("config/")
	err = config.ReadInConfig()
	if err != nil {
		log.Fatal("error on parsing default configuration file")
	}

	configName := env
	switch env {
	case "development":
		configName = "testnet"
	case "production":
		configName = "mainnet"
	// Keep other environments as-is (e.g., "test")
	}

	envConfig := viper.New()
	envConfig.SetConfigType("yaml")
	envConfig.AddConfigPath("config/")
	envConfig.SetConfigName(configName)
	err = envConfig.ReadInConfig()
	if err != nil {
		log.Fatalf("error on parsing %s configuration file: %v", configName, err)
	}

	config.MergeConfigMap(envConfig.AllSettings())
	config.AutomaticEnv()
}

func GetConfig() *viper.Viper {
	return config
}

// HorizonURL is the base endpoint of the ledger gateway.
func HorizonURL() string { return config.GetString("horizon.url") }

// HorizonTimeout bounds every gateway call.
func HorizonTimeout() time.Duration { return config.GetDuration("horizon.timeout") }

// NetworkPassphrase identifies the network signatures are bound to. It must
// belong to the same network as HorizonURL.
func NetworkPassphrase() string { return config.GetString("network.passphrase") }

// FriendbotURL is the faucet endpoint; empty on the public network.
func FriendbotURL() string { return config.GetString("network.friendbot") }

// BaseFee is the per-operation fee in stroops used when fee stats are
// unavailable.
func BaseFee() int64 { return config.GetInt64("fees.base") }

// MaxFee caps the recommended fee taken from fee stats.
func MaxFee() int64 { return config.GetInt64("fees.max") }

// BaseReserve is the per-entry reserve in stroops used to compute the
// spendable balance.
func BaseReserve() int64 { return config.GetInt64("network.base_reserve") }

// VaultPath is where the fallback encrypted vault file lives.
func VaultPath() string { return config.GetString("vault.path") }

// DatabaseURL is the optional local history database; empty disables
// history recording.
func DatabaseURL() string { return config.GetString("database.url") }
