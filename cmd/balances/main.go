package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"myriad-tipping-go/internal/balance"
	"myriad-tipping-go/internal/common"
	"myriad-tipping-go/internal/config"
	"myriad-tipping-go/internal/models"
	"myriad-tipping-go/internal/signer"
	"myriad-tipping-go/internal/wallet"

	"go.uber.org/zap"
)

func main() {
	networkID := flag.String("network", "", "Network id from the registry file")
	watch := flag.Bool("watch", false, "Keep running and print balance changes as they arrive")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	if *networkID == "" {
		fmt.Fprintln(os.Stderr, "usage: balances -network <id> [-watch]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry, err := common.LoadNetworkRegistry(cfg.Networks.File)
	if err != nil {
		zap.L().Fatal("Failed to load network registry", zap.Error(err))
	}
	network, err := registry.Network(*networkID)
	if err != nil {
		zap.L().Fatal("Unknown network", zap.Error(err))
	}

	walletSigner, err := signer.NewRemoteSigner(ctx, cfg.Wallet.SignerURL, cfg.Wallet.SigningTimeout)
	if err != nil {
		zap.L().Fatal("Failed to connect to signer", zap.Error(err))
	}
	account := models.Account{Address: walletSigner.Address(), NetworkID: network.ID}

	provider, err := wallet.NewProvider(ctx, network, walletSigner, cfg.Wallet.RPCTimeout)
	if err != nil {
		zap.L().Fatal("Failed to connect to chain", zap.Error(err))
	}
	defer provider.Close()

	balances := balance.NewResolver(provider)
	if err := balances.Load(ctx, account, network.Currencies, false); err != nil {
		zap.L().Fatal("Failed to load balances", zap.Error(err))
	}
	defer balances.Stop()

	printBalances(account, balances.Details())

	if !*watch {
		return
	}

	// Deltas arrive through chain subscriptions; redraw on an interval so a
	// burst of changes collapses into one refresh.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	fmt.Println("\nWatching for balance changes, Ctrl+C to exit")
	for {
		select {
		case <-ticker.C:
			printBalances(account, balances.Details())
		case <-stop:
			return
		}
	}
}

func printBalances(account models.Account, details []models.BalanceDetail) {
	common.PrintHeader(fmt.Sprintf("BALANCES %s", account.Address), common.DefaultWidth)
	for i, detail := range details {
		fmt.Printf("%s%-10s %s\n", common.BoxPrefix(i == len(details)-1), detail.Symbol, detail.FreeBalance.String())
	}
	common.PrintSeparator("=", common.DefaultWidth)
}
