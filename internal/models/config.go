package models

import "time"

// Config represents the application configuration
type Config struct {
	Backend  BackendConfig
	Database DatabaseConfig
	Wallet   WalletConfig
	Networks NetworksConfig
}

// BackendConfig holds Myriad backend API settings
type BackendConfig struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// DatabaseConfig holds tip-ledger database settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// WalletConfig holds signer gateway and chain RPC settings
type WalletConfig struct {
	SignerURL      string
	SigningTimeout time.Duration
	RPCTimeout     time.Duration
}

// NetworksConfig points at the network/currency registry file
type NetworksConfig struct {
	File string
}
