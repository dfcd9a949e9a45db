package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/username/tradewatch/src/database"
	"github.com/username/tradewatch/src/extractor"
	"github.com/username/tradewatch/src/ledger"
	"github.com/username/tradewatch/src/models"
	"github.com/username/tradewatch/src/politicians"
	"github.com/username/tradewatch/src/scraper"
)

const trackerSearchHTML = `
<table class="library-table">
  <tr>
    <td><a href="/public_disc/ptr-pdfs/2023/20026590.pdf">Pelosi, Nancy</a></td>
    <td>CA11</td>
    <td>2023</td>
    <td>PTR Original</td>
  </tr>
  <tr>
    <td><a href="/public_disc/financial-pdfs/2023/10063961.pdf">Pelosi, Nancy</a></td>
    <td>CA11</td>
    <td>2023</td>
    <td>FD Original</td>
  </tr>
</table>`

func newRegistryServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".pdf") {
			w.Write([]byte("%PDF-1.4 placeholder"))
			return
		}
		w.Write([]byte(trackerSearchHTML))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestTracker(t *testing.T, server *httptest.Server, dryRun bool) *TrackerService {
	t.Helper()

	database.InitDB(filepath.Join(t.TempDir(), "tracker.db"))
	roster, err := politicians.NewManager(filepath.Join(t.TempDir(), "politicians.json"))
	if err != nil {
		t.Fatalf("roster: %v", err)
	}

	return &TrackerService{
		roster:       roster,
		scraperCli:   scraper.New(server.URL, time.Millisecond, 1),
		filingLedger: ledger.New(database.DB),
		engine:       extractor.New(nil),
		notifier:     &MockNotifier{},
		dryRun:       dryRun,
		downloadDir:  t.TempDir(),
		yearsBack:    0,
		maxFilings:   5,
		extractText: func(string) (string, error) {
			return "1. Apple Inc (AAPL) Purchase $1,001 - $15,000 01/02/2023 01/15/2023\n", nil
		},
	}
}

func TestTrackerRun_ProcessesNewPTRFiling(t *testing.T) {
	server := newRegistryServer(t)
	s := newTestTracker(t, server, false)

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.PoliticiansTracked != 1 {
		t.Errorf("politicians tracked: got %d, want 1", summary.PoliticiansTracked)
	}
	// Only the PTR row counts; the annual report is filtered out.
	if summary.NewFilings != 1 || summary.NewTrades != 1 {
		t.Errorf("got %d filings / %d trades, want 1 / 1", summary.NewFilings, summary.NewTrades)
	}

	processed, err := s.filingLedger.HasProcessed("pelosi", "20026590")
	if err != nil {
		t.Fatalf("HasProcessed: %v", err)
	}
	if !processed {
		t.Error("processed filing not recorded in ledger")
	}
}

func TestTrackerRun_SecondRunIsNoOp(t *testing.T) {
	server := newRegistryServer(t)
	s := newTestTracker(t, server, false)

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.NewFilings != 0 || summary.NewTrades != 0 {
		t.Errorf("second run reprocessed: %d filings / %d trades", summary.NewFilings, summary.NewTrades)
	}
}

func TestTrackerRun_DryRunRecordsNothing(t *testing.T) {
	server := newRegistryServer(t)
	s := newTestTracker(t, server, true)

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.NewFilings != 1 {
		t.Errorf("dry run must still report discoverable filings, got %d", summary.NewFilings)
	}
	if summary.NewTrades != 0 {
		t.Errorf("dry run must not extract trades, got %d", summary.NewTrades)
	}

	processed, err := s.filingLedger.HasProcessed("pelosi", "20026590")
	if err != nil {
		t.Fatalf("HasProcessed: %v", err)
	}
	if processed {
		t.Error("dry run recorded a filing in the ledger")
	}
}

func TestTrackerRun_FailedNotificationLeavesFilingUnrecorded(t *testing.T) {
	server := newRegistryServer(t)
	s := newTestTracker(t, server, false)
	s.notifier = &failingNotifier{}

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.NewFilings != 0 {
		t.Errorf("filing counted despite failed notification: %d", summary.NewFilings)
	}

	processed, err := s.filingLedger.HasProcessed("pelosi", "20026590")
	if err != nil {
		t.Fatalf("HasProcessed: %v", err)
	}
	if processed {
		t.Error("filing recorded despite failed notification; retry on the next run is impossible")
	}
}

type failingNotifier struct{}

func (n *failingNotifier) NotifyTrade(context.Context, models.Politician, models.TradeRecord, string) error {
	return context.DeadlineExceeded
}
