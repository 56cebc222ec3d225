package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"myriad-tipping-go/internal/common"
	"myriad-tipping-go/internal/config"
	"myriad-tipping-go/internal/history"
	"myriad-tipping-go/internal/models"

	"go.uber.org/zap"
)

func main() {
	referenceType := flag.String("type", "post", "Reference kind: post, comment, or user")
	referenceID := flag.String("id", "", "Id of the referenced post/comment/user")
	ownerID := flag.String("owner", "", "Author user id of the reference")
	viewerID := flag.String("viewer", "", "User id of the person browsing; hidden when they own the reference")
	currencyID := flag.String("currency", "", "Only show tips in this currency id")
	sort := flag.String("sort", string(models.SortLatest), "Sort order: latest or highest")
	interactive := flag.Bool("interactive", false, "Page through results with the keyboard")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	if *referenceID == "" {
		fmt.Fprintln(os.Stderr, "usage: history -type <post|comment|user> -id <reference id> [-owner <user id>] [-viewer <user id>] [-currency <id>] [-sort latest|highest]")
		os.Exit(2)
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

	reference := models.TipReference{
		Type:    models.ReferenceType(*referenceType),
		ID:      *referenceID,
		OwnerID: *ownerID,
	}

	store := history.NewStore(services.Backend)
	store.Open(reference, *viewerID)
	if *currencyID != "" {
		if err := store.SetCurrency(ctx, *currencyID); err != nil {
			zap.L().Fatal("Failed to fetch tip history", zap.Error(err))
		}
	}
	if models.TransactionSort(*sort) == models.SortHighest {
		if err := store.SetSort(ctx, models.SortHighest); err != nil {
			zap.L().Fatal("Failed to fetch tip history", zap.Error(err))
		}
	} else if *currencyID == "" {
		if err := store.Fetch(ctx, 1); err != nil {
			zap.L().Fatal("Failed to fetch tip history", zap.Error(err))
		}
	}

	printPage(store)

	if !*interactive {
		for store.HasMore() {
			if err := store.FetchNext(ctx); err != nil {
				zap.L().Fatal("Failed to fetch tip history", zap.Error(err))
			}
			printPage(store)
		}
		return
	}

	reader := bufio.NewReader(os.Stdin)
	for store.HasMore() {
		fmt.Print("\nEnter for next page, q to quit: ")
		line, err := reader.ReadString('\n')
		if err != nil || strings.TrimSpace(line) == "q" {
			return
		}
		if err := store.FetchNext(ctx); err != nil {
			zap.L().Fatal("Failed to fetch tip history", zap.Error(err))
		}
		printPage(store)
	}
}

func printPage(store *history.Store) {
	meta := store.Meta()
	common.PrintHeader(fmt.Sprintf("TIP HISTORY page %d/%d (%d total)",
		meta.CurrentPage, meta.TotalPageCount, meta.TotalItemCount), common.DefaultWidth)
	common.PrintBoxSeparator(common.DefaultWidth)
	for _, tx := range store.Transactions() {
		created := tx.CreatedAt.Format("2006-01-02 15:04:05")
		fmt.Printf("%s  %-12s %12s  %s → %s\n",
			created, tx.CurrencyID, tx.Amount.String(), shorten(tx.From), shorten(tx.To))
	}
	common.PrintSeparator("=", common.DefaultWidth)
}

func shorten(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + ".." + address[len(address)-4:]
}
