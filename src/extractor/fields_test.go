package extractor

import (
	"strings"
	"testing"
	"time"

	"github.com/username/tradewatch/src/models"
)

func spanOf(texts ...string) TradeSpan {
	return TradeSpan{Start: 0, Lines: nl(texts...)}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExtractFields_FullRow(t *testing.T) {
	f, err := extractFields(spanOf("1. Apple Inc (AAPL) Purchase $1,001 - $15,000 01/02/2023 01/15/2023"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.AssetName != "Apple Inc" {
		t.Errorf("asset name: got %q, want %q", f.AssetName, "Apple Inc")
	}
	if f.Ticker != "AAPL" {
		t.Errorf("ticker: got %q, want AAPL", f.Ticker)
	}
	if f.Action != models.ActionBuy {
		t.Errorf("action: got %q, want BUY", f.Action)
	}
	if f.AmountLow != 1001 || f.AmountHigh != 15000 {
		t.Errorf("amount: got %d-%d, want 1001-15000", f.AmountLow, f.AmountHigh)
	}
	if !f.TransactionDate.Equal(date(2023, time.January, 2)) {
		t.Errorf("transaction date: got %v", f.TransactionDate)
	}
	if !f.HasFilingDate || !f.FilingDate.Equal(date(2023, time.January, 15)) {
		t.Errorf("filing date: got %v (has=%v)", f.FilingDate, f.HasFilingDate)
	}
}

func TestExtractFields_ActionCodes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected models.TradeAction
	}{
		{"purchase code", "SP Apple Inc (AAPL) P 01/02/2023 01/15/2023 $1,001 - $15,000", models.ActionBuy},
		{"sale code", "SP Apple Inc (AAPL) S 01/02/2023 01/15/2023 $1,001 - $15,000", models.ActionSell},
		{"partial sale code", "SP Apple Inc (AAPL) S (partial) 01/02/2023 01/15/2023 $1,001 - $15,000", models.ActionSell},
		{"sold verb", "1. Apple Inc (AAPL) Sold 01/02/2023 01/15/2023 $1,001 - $15,000", models.ActionSell},
		{"exchanged verb", "1. Apple Inc (AAPL) Exchanged 01/02/2023 01/15/2023 $1,001 - $15,000", models.ActionExchange},
		{"no action token", "1. Apple Inc (AAPL) 01/02/2023 01/15/2023 $1,001 - $15,000", models.ActionOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := extractFields(spanOf(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.Action != tt.expected {
				t.Errorf("got %q, want %q", f.Action, tt.expected)
			}
		})
	}
}

func TestExtractFields_RejoinsSplitAmount(t *testing.T) {
	// The normalizer folds the broken tail back onto the trade line; the
	// digits still carry the stray space and must be rejoined here.
	f, err := extractFields(spanOf("SP Apple Inc (AAPL) P 01/02/2023 01/15/2023 $100,0 01 - $250,000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.AmountLow != 100001 || f.AmountHigh != 250000 {
		t.Errorf("amount: got %d-%d, want 100001-250000", f.AmountLow, f.AmountHigh)
	}
	if f.AssetName != "Apple Inc" {
		t.Errorf("asset name: got %q, want %q", f.AssetName, "Apple Inc")
	}
}

func TestExtractFields_OpenEndedBracket(t *testing.T) {
	f, err := extractFields(spanOf("1. Roblox Corp (RBLX) S 01/02/2023 Over $1,000,000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.AmountLow != 1000000 {
		t.Errorf("amount low: got %d, want 1000000", f.AmountLow)
	}
	if f.AmountHigh != models.AmountOpenEnd {
		t.Errorf("amount high: got %d, want open-end sentinel", f.AmountHigh)
	}
	if f.Action != models.ActionSell {
		t.Errorf("action: got %q, want SELL", f.Action)
	}
	if f.HasFilingDate {
		t.Error("expected no filing date on a single-date row")
	}
}

func TestExtractFields_SingleValueAmount(t *testing.T) {
	f, err := extractFields(spanOf("1. Treasury Bill P 01/02/2023 01/15/2023 $50,000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.AmountLow != 50000 || f.AmountHigh != 50000 {
		t.Errorf("amount: got %d-%d, want 50000-50000", f.AmountLow, f.AmountHigh)
	}
	if f.Ticker != "" {
		t.Errorf("ticker: got %q, want empty", f.Ticker)
	}
	if f.AssetName != "Treasury Bill" {
		t.Errorf("asset name: got %q", f.AssetName)
	}
}

func TestExtractFields_NoTicker(t *testing.T) {
	f, err := extractFields(spanOf("SP Vanguard Total Stock Market Fund P 01/02/2023 01/15/2023 $1,001 - $15,000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Ticker != "" {
		t.Errorf("ticker: got %q, want empty", f.Ticker)
	}
	if f.AssetName != "Vanguard Total Stock Market Fund" {
		t.Errorf("asset name: got %q", f.AssetName)
	}
}

func TestExtractFields_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{"missing date", "1. Apple Inc (AAPL) Purchase $1,001 - $15,000", "no transaction date"},
		{"missing amount", "1. Apple Inc (AAPL) Purchase 01/02/2023 01/15/2023", "no amount bracket"},
		{"inverted bracket", "1. Apple Inc (AAPL) P 01/02/2023 01/15/2023 $15,000 - $1,001", "inverted amount bracket"},
		{"empty asset", "P 01/02/2023 01/15/2023 $1,001 - $15,000", "empty asset name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractFields(spanOf(tt.input))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.reason) {
				t.Errorf("error %q does not mention %q", err, tt.reason)
			}
		})
	}
}

func TestExtractFields_OwnerCodeNotMistakenForAction(t *testing.T) {
	// "SP" opens the row; the standalone "P" further in is the action
	// code. The S inside "SP" must not win.
	f, err := extractFields(spanOf("SP Pfizer Inc (PFE) P 01/02/2023 01/15/2023 $1,001 - $15,000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Action != models.ActionBuy {
		t.Errorf("action: got %q, want BUY", f.Action)
	}
	if f.AssetName != "Pfizer Inc" {
		t.Errorf("asset name: got %q", f.AssetName)
	}
}
