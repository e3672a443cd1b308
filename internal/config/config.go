package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	RPCURL          string `env:"RPC_URL,required"`
	ContractAddress string `env:"PAYROLL_CONTRACT_ADDRESS,required"`

	// Signing credential for the payroll account. Deliberately not
	// ,required: its absence must surface as a per-request configuration
	// failure rather than killing the process at boot.
	SignerKey     string `env:"PAYROLL_SIGNER_KEY"`
	SignerAddress string `env:"PAYROLL_SIGNER_ADDRESS"`

	ChainID     uint64 `env:"CHAIN_ID" envDefault:"1"`
	GasLimit    uint64 `env:"GAS_LIMIT" envDefault:"3000000"`
	GasPriceWei uint64 `env:"GAS_PRICE_WEI" envDefault:"20000000000"`

	ConfirmationTimeoutS int `env:"CONFIRMATION_TIMEOUT_S" envDefault:"90"`
	ConfirmationPollMS   int `env:"CONFIRMATION_POLL_MS" envDefault:"1500"`

	IdempotencyCacheSize int `env:"IDEMPOTENCY_CACHE_SIZE" envDefault:"4096"`
	IdempotencyTTLMin    int `env:"IDEMPOTENCY_TTL_MIN" envDefault:"60"`

	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
