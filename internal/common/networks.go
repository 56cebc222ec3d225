package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"myriad-tipping-go/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

type networksFile struct {
	Networks []models.Network `yaml:"networks"`
}

// NetworkRegistry holds the configured networks and their currencies.
type NetworkRegistry struct {
	networks []models.Network
	byID     map[string]models.Network
}

// LoadNetworkRegistry reads and validates the network registry file.
func LoadNetworkRegistry(networksFilePath string) (*NetworkRegistry, error) {
	var path string
	if filepath.IsAbs(networksFilePath) {
		path = networksFilePath
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, networksFilePath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", networksFilePath, err)
	}

	var parsed networksFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", networksFilePath, err)
	}

	return NewNetworkRegistry(parsed.Networks)
}

// NewNetworkRegistry validates raw network definitions and indexes them.
func NewNetworkRegistry(networks []models.Network) (*NetworkRegistry, error) {
	registry := &NetworkRegistry{byID: make(map[string]models.Network)}

	for i, network := range networks {
		if network.ID == "" {
			return nil, fmt.Errorf("network at index %d missing id", i)
		}
		if network.RPCURL == "" {
			return nil, fmt.Errorf("network %s missing rpcURL", network.ID)
		}
		switch network.BlockchainPlatform {
		case models.PlatformSubstrate, models.PlatformNear:
		default:
			return nil, fmt.Errorf("network %s has unsupported blockchain platform %q", network.ID, network.BlockchainPlatform)
		}

		for j := range network.Currencies {
			currency := &network.Currencies[j]
			if currency.ID == "" || currency.Symbol == "" {
				return nil, fmt.Errorf("network %s currency at index %d missing id or symbol", network.ID, j)
			}
			if currency.Decimals <= 0 {
				return nil, fmt.Errorf("currency %s has invalid decimals %d", currency.ID, currency.Decimals)
			}
			if !currency.Native && currency.ReferenceID == "" {
				return nil, fmt.Errorf("non-native currency %s missing referenceId", currency.ID)
			}
			if currency.ExistentialDeposit != "" {
				if _, err := decimal.NewFromString(currency.ExistentialDeposit); err != nil {
					return nil, fmt.Errorf("currency %s has invalid existentialDeposit: %w", currency.ID, err)
				}
			}
			currency.NetworkID = network.ID
		}

		sort.SliceStable(network.Currencies, func(a, b int) bool {
			return network.Currencies[a].Priority < network.Currencies[b].Priority
		})

		registry.networks = append(registry.networks, network)
		registry.byID[network.ID] = network
	}

	return registry, nil
}

// Networks returns every configured network.
func (r *NetworkRegistry) Networks() []models.Network {
	return r.networks
}

// Network looks up a network by id.
func (r *NetworkRegistry) Network(id string) (models.Network, error) {
	network, ok := r.byID[id]
	if !ok {
		return models.Network{}, fmt.Errorf("network %s not configured", id)
	}
	return network, nil
}

// Currency looks up a currency by network id and symbol.
func (r *NetworkRegistry) Currency(networkID, symbol string) (models.Currency, error) {
	network, err := r.Network(networkID)
	if err != nil {
		return models.Currency{}, err
	}
	for _, currency := range network.Currencies {
		if currency.Symbol == symbol {
			return currency, nil
		}
	}
	return models.Currency{}, fmt.Errorf("currency %s not configured on network %s", symbol, networkID)
}
