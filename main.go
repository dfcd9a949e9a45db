package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/username/tradewatch/src/config"
	"github.com/username/tradewatch/src/database"
	"github.com/username/tradewatch/src/extractor"
	"github.com/username/tradewatch/src/ledger"
	"github.com/username/tradewatch/src/logger"
	"github.com/username/tradewatch/src/politicians"
	"github.com/username/tradewatch/src/scraper"
	"github.com/username/tradewatch/src/services"
)

func main() {
	once := flag.Bool("once", false, "run a single tracking pass and exit")
	dryRun := flag.Bool("dry-run", false, "search and report without downloading, recording, or notifying")
	stats := flag.Bool("stats", false, "print ledger statistics and exit")
	flag.Parse()

	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Tradewatch tracker starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	filingLedger := ledger.New(database.DB)

	if *stats {
		printStatistics(filingLedger)
		return
	}

	roster, err := politicians.NewManager(config.Cfg.PoliticiansPath)
	if err != nil {
		logger.L.Error("Failed to load politician roster", "path", config.Cfg.PoliticiansPath, "error", err)
		os.Exit(1)
	}
	logger.L.Info("Politician roster loaded", "active", len(roster.Active()))

	scraperClient := scraper.New(config.Cfg.ScrapeBaseURL, config.Cfg.ScrapeInterval, config.Cfg.ScrapeBurst)
	classifier := extractor.NewClassifier(extractor.DefaultFromName(config.Cfg.ClassifierDefault))
	engine := extractor.New(classifier)
	notifier := services.NewNotifier()

	tracker := services.NewTrackerService(roster, scraperClient, filingLedger, engine, notifier, *dryRun)

	ctx := context.Background()
	runOnce := func() {
		summary, err := tracker.Run(ctx)
		if err != nil {
			logger.L.Error("Tracking run failed", "error", err)
			return
		}
		logger.L.Info("Run summary",
			"runID", summary.RunID,
			"politicians", summary.PoliticiansTracked,
			"newFilings", summary.NewFilings,
			"newTrades", summary.NewTrades)
	}

	runOnce()
	if *once {
		return
	}

	logger.L.Info("Entering periodic mode", "interval", config.Cfg.RunInterval.String())
	ticker := time.NewTicker(config.Cfg.RunInterval)
	defer ticker.Stop()
	for range ticker.C {
		runOnce()
	}
}

func printStatistics(filingLedger *ledger.FilingLedger) {
	s, err := filingLedger.Statistics()
	if err != nil {
		logger.L.Error("Failed to read ledger statistics", "error", err)
		os.Exit(1)
	}

	fmt.Println("Tradewatch ledger statistics")
	fmt.Println("============================")
	fmt.Printf("Politicians: %d total, %d active\n", s.PoliticianCount, s.ActivePoliticianCount)
	fmt.Printf("Filings:     %d\n", s.FilingCount)
	fmt.Printf("Trades:      %d\n", s.TradeCount)
	if len(s.TradesByPolitician) > 0 {
		fmt.Println("\nTrades by politician:")
		for _, ptc := range s.TradesByPolitician {
			fmt.Printf("  %-20s %d\n", ptc.PoliticianKey, ptc.TradeCount)
		}
	}
}
