package common

import (
	"context"
	"log"
	"strings"

	"myriad-tipping-go/internal/api"
	"myriad-tipping-go/internal/models"
	"myriad-tipping-go/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

// Services bundles the shared collaborators every tool needs.
type Services struct {
	Backend  *api.Client
	Ledger   *store.Ledger
	Registry *NetworkRegistry
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	registry, err := LoadNetworkRegistry(cfg.Networks.File)
	if err != nil {
		return nil, err
	}

	backend, err := api.NewClient(cfg.Backend)
	if err != nil {
		return nil, err
	}

	ledger, err := store.NewLedger(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	return &Services{
		Backend:  backend,
		Ledger:   ledger,
		Registry: registry,
	}, nil
}

func (s *Services) Close() {
	if s.Ledger != nil {
		s.Ledger.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
