package extractor

import (
	"testing"

	"github.com/username/tradewatch/src/models"
)

func TestClassify_KeywordInsideSpan(t *testing.T) {
	c := NewClassifier(models.InstrumentEquity)
	lines := nl("1. Nvidia Corp (NVDA) P 01/02/2023 $250,001 - $500,000 (CALL OPTION)")
	span := TradeSpan{Start: 0, Lines: lines[:1]}

	instrument, confident := c.Classify(span, lines)
	if instrument != models.InstrumentOptionCall {
		t.Errorf("got %q, want option_call", instrument)
	}
	if !confident {
		t.Error("keyword inside the span must be a confident classification")
	}
}

func TestClassify_DetachedAnnotationBelowSpan(t *testing.T) {
	// The option qualifier is printed as a standalone annotation two lines
	// below the numeric row, outside the span itself.
	lines := nl(
		"1. Nvidia Corp (NVDA) P 01/02/2023 01/15/2023 $250,001 - $500,000",
		"F S: New",
		"(CALL OPTION)",
		"2. Apple Inc (AAPL) S 01/03/2023 01/15/2023 $1,001 - $15,000",
	)
	span := TradeSpan{Start: 0, Lines: lines[:1]}

	c := NewClassifier(models.InstrumentEquity)
	instrument, confident := c.Classify(span, lines)
	if instrument != models.InstrumentOptionCall {
		t.Errorf("got %q, want option_call", instrument)
	}
	if !confident {
		t.Error("detached annotation must still be a confident classification")
	}
}

func TestClassify_ScanStopsAtNextTradeStart(t *testing.T) {
	// The PUT annotation belongs to the second trade. The first trade's
	// forward scan must stop at the next trade-start line and fall back to
	// the default rather than stealing the later annotation.
	lines := nl(
		"1. Nvidia Corp (NVDA) P 01/02/2023 01/15/2023 $250,001 - $500,000",
		"2. Apple Inc (AAPL) S 01/03/2023 01/15/2023 $1,001 - $15,000",
		"(PUT OPTION)",
	)
	span := TradeSpan{Start: 0, Lines: lines[:1]}

	c := NewClassifier(models.InstrumentEquity)
	instrument, confident := c.Classify(span, lines)
	if instrument != models.InstrumentEquity {
		t.Errorf("got %q, want equity default", instrument)
	}
	if confident {
		t.Error("defaulted classification must not be confident")
	}
}

func TestClassify_PutKeyword(t *testing.T) {
	lines := nl(
		"SP Tesla Inc (TSLA) S 01/02/2023 01/15/2023 $15,001 - $50,000",
		"D: put option, strike $200",
	)
	span := TradeSpan{Start: 0, Lines: lines[:1]}

	c := NewClassifier(models.InstrumentEquity)
	instrument, confident := c.Classify(span, lines)
	if instrument != models.InstrumentOptionPut {
		t.Errorf("got %q, want option_put", instrument)
	}
	if !confident {
		t.Error("expected confident classification")
	}
}

func TestClassify_WindowBoundsForwardScan(t *testing.T) {
	lines := nl(
		"1. Nvidia Corp (NVDA) P 01/02/2023 01/15/2023 $250,001 - $500,000",
		"filler",
		"filler",
		"(CALL OPTION)",
	)
	span := TradeSpan{Start: 0, Lines: lines[:1]}

	c := NewClassifier(models.InstrumentEquity)
	c.Window = 2
	instrument, confident := c.Classify(span, lines)
	if instrument != models.InstrumentEquity {
		t.Errorf("annotation beyond the window must be ignored, got %q", instrument)
	}
	if confident {
		t.Error("defaulted classification must not be confident")
	}
}

func TestNewClassifier_DefaultsToEquity(t *testing.T) {
	c := NewClassifier("")
	if c.Default != models.InstrumentEquity {
		t.Errorf("got %q, want equity", c.Default)
	}
}

func TestDefaultFromName(t *testing.T) {
	tests := []struct {
		input    string
		expected models.InstrumentType
	}{
		{"equity", models.InstrumentEquity},
		{"call", models.InstrumentOptionCall},
		{"option_call", models.InstrumentOptionCall},
		{"put", models.InstrumentOptionPut},
		{"OPTION_PUT", models.InstrumentOptionPut},
		{"", models.InstrumentEquity},
		{"garbage", models.InstrumentEquity},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := DefaultFromName(tt.input); got != tt.expected {
				t.Errorf("DefaultFromName(%q): got %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
