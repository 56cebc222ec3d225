package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"myriad-tipping-go/internal/common"
	"myriad-tipping-go/internal/config"
	"myriad-tipping-go/internal/models"
	"myriad-tipping-go/internal/resolver"
	"myriad-tipping-go/internal/signer"
	"myriad-tipping-go/internal/tipping"
	"myriad-tipping-go/internal/wallet"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type consoleNotifier struct{}

func (consoleNotifier) Notify(n tipping.Notification) {
	fmt.Printf("[%s] %s\n", n.Variant, n.Message)
}

func (consoleNotifier) Confirm(p tipping.ConfirmPrompt) {
	fmt.Printf("\n%s\n%s\n", p.Title, p.Description)
}

func main() {
	networkID := flag.String("network", "", "Network id from the registry file")
	currencySymbol := flag.String("currency", "", "Native currency symbol the fee is paid in")
	feeFlag := flag.String("fee", "", "Transaction fee in display units")
	serverID := flag.String("server", "", "Tipping contract or server id holding the escrow")
	referenceType := flag.String("type", "user", "Escrow reference type")
	referenceID := flag.String("id", "", "Escrow reference id")
	ftIdentifier := flag.String("ft", "native", "Fungible token identifier of the escrowed balance")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	if *networkID == "" || *currencySymbol == "" || *feeFlag == "" || *serverID == "" || *referenceID == "" {
		fmt.Fprintln(os.Stderr, "usage: claimtip -network <id> -currency <symbol> -fee <n> -server <id> -type <kind> -id <reference id> [-ft <identifier>]")
		os.Exit(2)
	}

	fee, err := decimal.NewFromString(*feeFlag)
	if err != nil {
		zap.L().Fatal("Invalid fee", zap.String("fee", *feeFlag), zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	network, err := services.Registry.Network(*networkID)
	if err != nil {
		zap.L().Fatal("Unknown network", zap.Error(err))
	}
	currency, err := services.Registry.Currency(*networkID, *currencySymbol)
	if err != nil {
		zap.L().Fatal("Unknown currency", zap.Error(err))
	}

	walletSigner, err := signer.NewRemoteSigner(ctx, cfg.Wallet.SignerURL, cfg.Wallet.SigningTimeout)
	if err != nil {
		zap.L().Fatal("Failed to connect to signer", zap.Error(err))
	}

	provider, err := wallet.NewProvider(ctx, network, walletSigner, cfg.Wallet.RPCTimeout)
	if err != nil {
		zap.L().Fatal("Failed to connect to chain", zap.Error(err))
	}
	defer provider.Close()

	orchestrator, err := tipping.NewOrchestrator(tipping.OrchestratorConfig{
		Provider:       provider,
		Backend:        services.Backend,
		Recipients:     resolver.NewResolver(services.Backend),
		Ledger:         services.Ledger,
		Notifier:       consoleNotifier{},
		SigningTimeout: cfg.Wallet.SigningTimeout,
		RPCTimeout:     cfg.Wallet.RPCTimeout,
	})
	if err != nil {
		zap.L().Fatal("Failed to build orchestrator", zap.Error(err))
	}

	common.PrintHeader(fmt.Sprintf("Claiming tips for %s %s", *referenceType, *referenceID), common.DefaultWidth)

	err = orchestrator.ClaimReferences(ctx, tipping.ClaimParams{
		TipsBalance: models.TipsBalanceInfo{
			ServerID:      *serverID,
			ReferenceType: *referenceType,
			ReferenceID:   *referenceID,
			FtIdentifier:  *ftIdentifier,
		},
		Currency: currency,
		Fee:      fee,
		OnEvent: func(event tipping.Event) {
			fmt.Printf("  → %s\n", event.State)
		},
	})
	if err != nil {
		common.PrintFooter("Claim was not completed", common.DefaultWidth)
		os.Exit(1)
	}

	common.PrintFooter("Tips claimed", common.DefaultWidth)
}
