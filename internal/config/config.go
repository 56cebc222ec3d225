package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"myriad-tipping-go/internal/models"
)

func Load() (*models.Config, error) {
	backendTimeout, err := getEnvDuration("MYRIAD_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	signingTimeout, err := getEnvDuration("TIP_SIGNING_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, err
	}

	rpcTimeout, err := getEnvDuration("CHAIN_RPC_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	baseURL := os.Getenv("MYRIAD_API_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("MYRIAD_API_URL is required")
	}

	return &models.Config{
		Backend: models.BackendConfig{
			BaseURL:     baseURL,
			AccessToken: os.Getenv("MYRIAD_API_TOKEN"),
			Timeout:     backendTimeout,
		},
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "tips.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Wallet: models.WalletConfig{
			SignerURL:      getEnvString("SIGNER_URL", "http://127.0.0.1:8866"),
			SigningTimeout: signingTimeout,
			RPCTimeout:     rpcTimeout,
		},
		Networks: models.NetworksConfig{
			File: getEnvString("NETWORKS_FILE", "networks.yaml"),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
