package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"balance_valuer/internal/domain/entity"
	"balance_valuer/internal/infrastructure/configloader"
	"balance_valuer/internal/infrastructure/di"
	"balance_valuer/internal/pkg/utils"
)

// valuer is a one-shot CLI: it values every address given on the command
// line and prints a per-asset breakdown with totals.
func main() {
	cfgPath := flag.String("config", "config/config.yml", "path to the YAML configuration file")
	concurrency := flag.Int("concurrency", 4, "maximum number of addresses valued in parallel")
	flag.Parse()

	addresses := flag.Args()
	if len(addresses) == 0 {
		fmt.Fprintln(os.Stderr, "usage: valuer [-config path] [-concurrency n] <address> [address...]")
		os.Exit(2)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := configloader.Load(*cfgPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.String("path", *cfgPath), zap.Error(err))
	}

	ctx := context.Background()
	container, err := di.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build valuation service", zap.Error(err))
	}

	type result struct {
		address  string
		balances []entity.ValuedBalance
		err      error
	}

	results := make(map[string]result, len(addresses))
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(*concurrency)
	for _, address := range addresses {
		eg.Go(func() error {
			balances, valErr := container.BalanceService.GetUSDBalances(egCtx, address)
			mu.Lock()
			results[address] = result{address: address, balances: balances, err: valErr}
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	sort.Strings(addresses)
	failed := false
	for _, address := range addresses {
		res := results[address]
		if res.err != nil {
			failed = true
			fmt.Printf("%s: ERROR: %v\n", address, res.err)
			continue
		}

		var total float64
		for _, vb := range res.balances {
			total += vb.USDAmount
		}
		fmt.Printf("%s: $%.4f across %d assets\n", address, utils.RoundUSD(total), len(res.balances))
		for _, vb := range res.balances {
			symbol := "ETH"
			decimals := entity.BaseCurrencyDecimals
			if vb.Token != nil {
				symbol = vb.Token.Symbol
				decimals = vb.Token.Decimals
			}
			fmt.Printf("  %-10s %s ($%.4f)\n", symbol, utils.FormatBigInt(vb.Amount, decimals), vb.USDAmount)
		}
	}

	if failed {
		os.Exit(1)
	}
}
