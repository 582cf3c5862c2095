// Command reconcile runs one reconciliation sweep from the terminal: it
// re-derives every guest's summary straight from the ledger and prints the
// anomalies it finds. Exit code 1 means findings, 2 means the sweep failed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"gala-ops/internal/cache"
	"gala-ops/internal/config"
	"gala-ops/internal/guest"
	"gala-ops/internal/metrics"
	"gala-ops/internal/notify"
	"gala-ops/internal/store"

	"go.uber.org/zap"
)

func main() {
	var (
		asJSON  = flag.Bool("json", false, "print findings as JSON")
		alert   = flag.Bool("alert", false, "send a Telegram digest when findings exist")
		timeout = flag.Duration("timeout", 5*time.Minute, "sweep timeout")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	st, err := store.NewStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer st.Close()

	// The cache is optional here: a sweep reads the ledger directly, and a
	// warm cache is only a side effect.
	var summaryCache guest.SummaryCache
	if c, err := cache.New(&cfg.Redis, logger); err != nil {
		logger.Warn("cache unavailable, sweeping without warm-up", zap.Error(err))
	} else {
		summaryCache = c
		defer c.Close()
	}

	var notifier *notify.Notifier
	if *alert {
		notifier, err = notify.New(&cfg.Alerts, logger)
		if err != nil {
			logger.Fatal("failed to initialize operator alerts", zap.Error(err))
		}
	}

	guestService := guest.NewService(st, summaryCache, nil, metrics.New(logger), notifier, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	findings, err := guestService.Reconcile(ctx)
	if err != nil {
		logger.Error("reconciliation sweep failed", zap.Error(err))
		os.Exit(2)
	}

	if len(findings) == 0 {
		fmt.Println("reconciliation clean: no findings")
		return
	}

	if *asJSON {
		if err := json.NewEncoder(os.Stdout).Encode(findings); err != nil {
			logger.Error("failed to encode findings", zap.Error(err))
			os.Exit(2)
		}
	} else {
		fmt.Printf("reconciliation: %d finding(s)\n", len(findings))
		for _, f := range findings {
			fmt.Printf("  [%s] guest %s: %s\n", f.Kind, f.GuestID, f.Detail)
		}
	}

	if *alert {
		// Same single-digest shape the scheduled sweep sends
		notifier.Alert("%s", guest.FindingsDigest(findings))
	}

	os.Exit(1)
}
