package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/username/tradewatch/src/config"
	"github.com/username/tradewatch/src/extractor"
	"github.com/username/tradewatch/src/ledger"
	"github.com/username/tradewatch/src/logger"
	"github.com/username/tradewatch/src/models"
	"github.com/username/tradewatch/src/pdftext"
	"github.com/username/tradewatch/src/politicians"
	"github.com/username/tradewatch/src/scraper"
)

// RunSummary aggregates what one tracking pass accomplished.
type RunSummary struct {
	RunID              string
	PoliticiansTracked int
	NewFilings         int
	NewTrades          int
	SpansDropped       int
}

// TrackerService drives one tracking pass: search the registry per
// tracked politician, skip filings the ledger already holds, extract
// trades from new ones, notify, then record. Recording happens only
// after notification, so a crash in between re-notifies on the next run
// (at-least-once delivery) but never records a filing without its trades.
type TrackerService struct {
	roster       *politicians.Manager
	scraperCli   *scraper.Client
	filingLedger *ledger.FilingLedger
	engine       *extractor.Extractor
	notifier     Notifier
	dryRun       bool

	downloadDir string
	yearsBack   int
	maxFilings  int

	// extractText is the PDF-to-text primitive, injectable for tests.
	extractText func(path string) (string, error)
}

func NewTrackerService(
	roster *politicians.Manager,
	scraperCli *scraper.Client,
	filingLedger *ledger.FilingLedger,
	engine *extractor.Extractor,
	notifier Notifier,
	dryRun bool,
) *TrackerService {
	s := &TrackerService{
		roster:       roster,
		scraperCli:   scraperCli,
		filingLedger: filingLedger,
		engine:       engine,
		notifier:     notifier,
		dryRun:       dryRun,
		downloadDir:  os.TempDir(),
		yearsBack:    2,
		maxFilings:   1,
		extractText:  pdftext.ExtractText,
	}
	if config.Cfg != nil {
		s.downloadDir = config.Cfg.DownloadDir
		s.yearsBack = config.Cfg.SearchYearsBack
		s.maxFilings = config.Cfg.MaxFilings
	}
	return s
}

// Run executes one tracking pass over all active politicians. Failures
// for one politician or one filing are logged and skipped; the pass
// itself only fails when there is nothing to track.
func (s *TrackerService) Run(ctx context.Context) (RunSummary, error) {
	summary := RunSummary{RunID: uuid.NewString()}

	active := s.roster.Active()
	if len(active) == 0 {
		return summary, fmt.Errorf("tracker: no active politicians configured")
	}
	summary.PoliticiansTracked = len(active)

	logger.L.Info("Tracking run starting",
		"runID", summary.RunID, "politicians", len(active), "dryRun", s.dryRun)

	for _, p := range active {
		if !s.dryRun {
			if err := s.filingLedger.UpsertPolitician(p); err != nil {
				logger.L.Error("Failed to sync politician into ledger", "politician", p.Key, "error", err)
				continue
			}
		}

		newFilings, newTrades, dropped := s.processPolitician(ctx, p, summary.RunID)
		summary.NewFilings += newFilings
		summary.NewTrades += newTrades
		summary.SpansDropped += dropped
	}

	logger.L.Info("Tracking run complete",
		"runID", summary.RunID,
		"newFilings", summary.NewFilings,
		"newTrades", summary.NewTrades,
		"spansDropped", summary.SpansDropped)
	return summary, nil
}

func (s *TrackerService) processPolitician(ctx context.Context, p models.Politician, runID string) (newFilings, newTrades, dropped int) {
	filings, err := s.scraperCli.SearchFilings(ctx, p, s.yearsBack)
	if err != nil {
		logger.L.Error("Registry search failed", "runID", runID, "politician", p.Key, "error", err)
		return 0, 0, 0
	}

	// Only periodic transaction reports carry trades; annual reports and
	// amendments are skipped. The newest filings come first.
	var ptrs []models.Filing
	for _, f := range filings {
		if f.IsPTR {
			ptrs = append(ptrs, f)
		}
	}
	if len(ptrs) > s.maxFilings {
		ptrs = ptrs[:s.maxFilings]
	}

	for _, filing := range ptrs {
		processed, err := s.filingLedger.HasProcessed(p.Key, filing.FilingID)
		if err != nil {
			logger.L.Error("Ledger check failed", "runID", runID, "filingID", filing.FilingID, "error", err)
			continue
		}
		if processed {
			logger.L.Debug("Filing already processed", "politician", p.Key, "filingID", filing.FilingID)
			continue
		}

		if s.dryRun {
			logger.L.Info("DRY RUN: would process filing",
				"politician", p.Key, "filingID", filing.FilingID, "url", filing.DocumentURL)
			newFilings++
			continue
		}

		trades, stats, err := s.processFiling(ctx, p, filing)
		if err != nil {
			// Processing failed: fetch or decode problem, distinct from a
			// filing that simply contains no trades.
			logger.L.Error("Filing processing failed",
				"runID", runID, "politician", p.Key, "filingID", filing.FilingID, "error", err)
			continue
		}
		dropped += stats.SpansDropped

		if len(trades) == 0 {
			logger.L.Info("No trades found in filing",
				"politician", p.Key, "filingID", filing.FilingID, "spansDropped", stats.SpansDropped)
		}

		if !s.notifyTrades(ctx, p, filing, trades) {
			// Leave the filing unrecorded so the next run retries; already
			// delivered trades will be re-sent (at-least-once).
			continue
		}

		filing.TradeCount = len(trades)
		if err := s.filingLedger.Record(filing, trades); err != nil {
			logger.L.Error("Failed to record filing",
				"runID", runID, "politician", p.Key, "filingID", filing.FilingID, "error", err)
			continue
		}

		logger.L.Info("Processed filing",
			"runID", runID, "politician", p.Key, "filingID", filing.FilingID,
			"trades", len(trades), "spansFound", stats.SpansFound, "spansDropped", stats.SpansDropped)
		newFilings++
		newTrades += len(trades)
	}
	return newFilings, newTrades, dropped
}

// processFiling downloads one filing, extracts its text, and runs the
// extraction pipeline over it.
func (s *TrackerService) processFiling(ctx context.Context, p models.Politician, filing models.Filing) ([]models.TradeRecord, extractor.Stats, error) {
	dest := filepath.Join(s.downloadDir, fmt.Sprintf("tradewatch-%s-%s.pdf", p.Key, filing.FilingID))
	if err := s.scraperCli.DownloadPDF(ctx, filing.DocumentURL, dest); err != nil {
		return nil, extractor.Stats{}, err
	}
	defer os.Remove(dest)

	text, err := s.extractText(dest)
	if err != nil {
		return nil, extractor.Stats{}, err
	}

	doc := models.RawDocument{
		FilingID:      filing.FilingID,
		PoliticianKey: p.Key,
		DocumentURL:   filing.DocumentURL,
		Text:          text,
	}
	if d, err := time.Parse("2006", filing.FilingDate); err == nil {
		doc.FilingDate = d
	}

	return s.engine.Extract(doc)
}

// notifyTrades sends one notification per trade and reports whether all
// deliveries succeeded.
func (s *TrackerService) notifyTrades(ctx context.Context, p models.Politician, filing models.Filing, trades []models.TradeRecord) bool {
	ok := true
	for _, trade := range trades {
		if err := s.notifier.NotifyTrade(ctx, p, trade, filing.DocumentURL); err != nil {
			logger.L.Error("Notification failed",
				"politician", p.Key, "filingID", filing.FilingID, "asset", trade.AssetName, "error", err)
			ok = false
		}
	}
	return ok
}
