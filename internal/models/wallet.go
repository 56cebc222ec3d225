package models

// BlockchainPlatform identifies the chain family a network belongs to.
type BlockchainPlatform string

const (
	PlatformSubstrate BlockchainPlatform = "substrate"
	PlatformNear      BlockchainPlatform = "near"
)

// Network describes a configured blockchain network.
type Network struct {
	ID                 string             `yaml:"id" json:"id"`
	BlockchainPlatform BlockchainPlatform `yaml:"blockchainPlatform" json:"blockchainPlatform"`
	RPCURL             string             `yaml:"rpcURL" json:"rpcURL"`
	ExplorerURL        string             `yaml:"explorerURL" json:"explorerURL"`
	Currencies         []Currency         `yaml:"currencies" json:"currencies"`
}

// Account is the active blockchain identity for the current session.
type Account struct {
	Address   string
	NetworkID string
	Anonymous bool
}

// WalletReferenceType tells what a WalletDetail's reference id points at.
type WalletReferenceType string

const (
	WalletReferenceUser    WalletReferenceType = "user"
	WalletReferencePeople  WalletReferenceType = "people"
	WalletReferenceAddress WalletReferenceType = "wallet_address"
)

// WalletDetail is the resolved destination of a tip. ReferenceID holds a
// concrete on-chain address only when ReferenceType is WalletReferenceAddress;
// otherwise it holds the user or people identifier the tip is escrowed under.
type WalletDetail struct {
	ReferenceID   string              `json:"referenceId"`
	ReferenceType WalletReferenceType `json:"referenceType"`
	ServerID      string              `json:"serverId,omitempty"`
	FtIdentifier  string              `json:"ftIdentifier,omitempty"`
}

// Resolved reports whether the detail carries a sendable on-chain address.
func (w WalletDetail) Resolved() bool {
	return w.ReferenceType == WalletReferenceAddress && w.ReferenceID != ""
}

// TipsBalanceInfo identifies an escrowed tips balance held on-chain for a
// reference that has not claimed a wallet yet.
type TipsBalanceInfo struct {
	ServerID      string `json:"serverId"`
	ReferenceType string `json:"referenceType"`
	ReferenceID   string `json:"referenceId"`
	FtIdentifier  string `json:"ftIdentifier"`
}
