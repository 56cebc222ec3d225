package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"myriad-tipping-go/internal/balance"
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

// consoleNotifier renders tipping notifications on stdout.
type consoleNotifier struct{}

func (consoleNotifier) Notify(n tipping.Notification) {
	fmt.Printf("[%s] %s\n", n.Variant, n.Message)
}

func (consoleNotifier) Confirm(p tipping.ConfirmPrompt) {
	fmt.Printf("\n%s\n%s\n", p.Title, p.Description)
}

func main() {
	networkID := flag.String("network", "", "Network id from the registry file")
	currencySymbol := flag.String("currency", "", "Currency symbol to tip with")
	amountFlag := flag.String("amount", "", "Tip amount in display units")
	referenceType := flag.String("type", "post", "What is being tipped: post, comment, or user")
	referenceID := flag.String("id", "", "Id of the tipped post/comment/user")
	ownerID := flag.String("owner", "", "Author user id of the tipped post/comment")
	peopleID := flag.String("people", "", "People id for imported posts with unclaimed authors")
	memo := flag.String("memo", "", "Optional transfer memo")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	if *networkID == "" || *currencySymbol == "" || *amountFlag == "" || *referenceID == "" {
		fmt.Fprintln(os.Stderr, "usage: sendtip -network <id> -currency <symbol> -amount <n> -type <post|comment|user> -id <reference id> [-owner <user id>] [-people <people id>]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	amount, err := decimal.NewFromString(*amountFlag)
	if err != nil {
		zap.L().Fatal("Invalid amount", zap.String("amount", *amountFlag), zap.Error(err))
	}

	reference, err := buildReference(*referenceType, *referenceID, *ownerID, *peopleID)
	if err != nil {
		zap.L().Fatal("Invalid reference", zap.Error(err))
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

	account := models.Account{Address: walletSigner.Address(), NetworkID: network.ID}

	balances := balance.NewResolver(provider)
	if err := balances.Load(ctx, account, network.Currencies, false); err != nil {
		zap.L().Fatal("Failed to load balances", zap.Error(err))
	}
	defer balances.Stop()

	orchestrator, err := tipping.NewOrchestrator(tipping.OrchestratorConfig{
		Provider:       provider,
		Backend:        services.Backend,
		Recipients:     resolver.NewResolver(services.Backend),
		Balances:       balances,
		Ledger:         services.Ledger,
		Notifier:       consoleNotifier{},
		SigningTimeout: cfg.Wallet.SigningTimeout,
		RPCTimeout:     cfg.Wallet.RPCTimeout,
	})
	if err != nil {
		zap.L().Fatal("Failed to build orchestrator", zap.Error(err))
	}

	common.PrintHeader(fmt.Sprintf("Sending %s %s to %s %s", amount.String(), currency.Symbol, reference.Type, reference.ID), common.DefaultWidth)

	tx, err := orchestrator.SendTip(ctx, tipping.SendTipParams{
		Sender:    account,
		Reference: reference,
		Currency:  currency,
		Amount:    amount,
		Memo:      *memo,
		OnEvent: func(event tipping.Event) {
			fmt.Printf("  → %s\n", event.State)
		},
	})
	if err != nil {
		common.PrintFooter("Tip was not completed", common.DefaultWidth)
		os.Exit(1)
	}

	fmt.Printf("\n  hash:   %s\n  amount: %s %s\n  to:     %s\n", tx.Hash, tx.Amount.String(), currency.Symbol, tx.To)
	if network.ExplorerURL != "" {
		fmt.Printf("  link:   %s/%s\n", network.ExplorerURL, tx.Hash)
	}
	common.PrintFooter("Tip recorded", common.DefaultWidth)
}

func buildReference(referenceType, id, ownerID, peopleID string) (models.TipReference, error) {
	switch models.ReferenceType(referenceType) {
	case models.ReferenceTypeUser:
		return models.NewUserReference(id), nil
	case models.ReferenceTypeComment:
		if ownerID == "" {
			return models.TipReference{}, fmt.Errorf("comment references require -owner")
		}
		return models.NewCommentReference(id, ownerID), nil
	case models.ReferenceTypePost:
		return models.NewPostReference(id, ownerID, peopleID), nil
	default:
		return models.TipReference{}, fmt.Errorf("unknown reference type %q", referenceType)
	}
}
