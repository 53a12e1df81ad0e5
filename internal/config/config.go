package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL    string
	HTTPListenAddr string
	ServiceName    string
	LogLevel       string

	// Pinning service (content-addressed store). Optional; when the JWT is
	// empty uploads fail with an upload error instead of reaching the network.
	PinataAPIURL  string
	PinataJWT     string
	UploadTimeout time.Duration

	// Ledger. All three of RPCURL, ContractAddress and PrivateKey must be set
	// for on-chain logging; otherwise the ledger client reports itself
	// unavailable without making any network call.
	EthereumRPCURL       string
	ContractAddress      string
	PrivateKey           string
	LedgerGasLimit       uint64
	LedgerGasPriceGwei   int64
	LedgerConfirmTimeout time.Duration

	// Route planner LLM backend (OpenAI-compatible chat completions).
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		HTTPListenAddr: getEnv("HTTP_LISTEN_ADDR", ":8080"),
		ServiceName:    getEnv("SERVICE_NAME", "convoy-api"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		PinataAPIURL:  getEnv("PINATA_API_URL", "https://api.pinata.cloud"),
		PinataJWT:     getEnv("PINATA_JWT", ""),
		UploadTimeout: getEnvDuration("UPLOAD_TIMEOUT", 30*time.Second),

		EthereumRPCURL:       getEnv("ETHEREUM_RPC_URL", ""),
		ContractAddress:      getEnv("CONTRACT_ADDRESS", ""),
		PrivateKey:           getEnv("PRIVATE_KEY", ""),
		LedgerGasLimit:       getEnvUint64("LEDGER_GAS_LIMIT", 2_000_000),
		LedgerGasPriceGwei:   getEnvInt64("LEDGER_GAS_PRICE_GWEI", 50),
		LedgerConfirmTimeout: getEnvDuration("LEDGER_CONFIRM_TIMEOUT", 2*time.Minute),

		LLMBaseURL: getEnv("LLM_BASE_URL", ""),
		LLMAPIKey:  getEnv("LLM_API_KEY", ""),
		LLMModel:   getEnv("LLM_MODEL", "gemini-2.5-flash"),
	}

	return cfg, nil
}

// Validate checks that the fields required by the given component are set.
// Pinning and ledger settings are deliberately not required: their absence
// degrades the corresponding client rather than preventing startup.
func (c *Config) Validate(component string) error {
	switch component {
	case "convoy-api":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for %s", component)
		}
	}
	if c.LedgerGasLimit == 0 {
		return fmt.Errorf("LEDGER_GAS_LIMIT must be positive")
	}
	if c.LedgerGasPriceGwei <= 0 {
		return fmt.Errorf("LEDGER_GAS_PRICE_GWEI must be positive")
	}
	return nil
}

// LedgerConfigured reports whether all settings needed for on-chain logging
// are present.
func (c *Config) LedgerConfigured() bool {
	return c.EthereumRPCURL != "" && c.ContractAddress != "" && c.PrivateKey != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvUint64(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
