package extractor

import (
	"regexp"
	"strings"

	"github.com/username/tradewatch/src/models"
)

// defaultWindow bounds the forward scan for detached option annotations
// on large documents. Small documents are effectively scanned to the end.
const defaultWindow = 36

// Classifier resolves the instrument type of a span. The source format
// frequently prints an option qualifier as a standalone annotation line
// a few lines below the numeric trade row, so classification needs a
// bounded look-around over neighboring lines, not just the span itself.
type Classifier struct {
	// Default is the instrument assigned when no option keyword is found
	// anywhere in the window. Records classified this way carry a
	// low-confidence flag because the fallback is a heuristic, not a fact
	// read from the document.
	Default models.InstrumentType

	// Window is the maximum number of lines scanned past the span.
	// Zero means scan to the end of the document.
	Window int
}

func NewClassifier(def models.InstrumentType) *Classifier {
	if def == "" {
		def = models.InstrumentEquity
	}
	return &Classifier{Default: def, Window: defaultWindow}
}

// DefaultFromName maps a configuration string to an instrument type,
// falling back to equity for anything unrecognized.
func DefaultFromName(name string) models.InstrumentType {
	switch strings.ToLower(name) {
	case string(models.InstrumentOptionCall), "call":
		return models.InstrumentOptionCall
	case string(models.InstrumentOptionPut), "put":
		return models.InstrumentOptionPut
	default:
		return models.InstrumentEquity
	}
}

var (
	callKeywordRe = regexp.MustCompile(`(?i)\bcall\b`)
	putKeywordRe  = regexp.MustCompile(`(?i)\bput\b`)
)

// Classify determines the instrument type for a span. Priority order:
// an option keyword inside the span itself, then the nearest subsequent
// line carrying one before the next trade-start signature, then the
// configured default. Stopping the forward scan at the next trade start
// prevents one trade's annotation from bleeding onto a later trade.
//
// The second return value reports confidence: false means the default
// was used and the record should be flagged.
func (c *Classifier) Classify(span TradeSpan, lines []NormalizedLine) (models.InstrumentType, bool) {
	if t, ok := optionKeyword(span.Text()); ok {
		return t, true
	}

	limit := len(lines)
	if c.Window > 0 && span.End()+c.Window < limit {
		limit = span.End() + c.Window
	}
	for i := span.End(); i < limit; i++ {
		if isTradeStart(lines[i].Text) {
			break
		}
		if t, ok := optionKeyword(lines[i].Text); ok {
			return t, true
		}
	}
	return c.Default, false
}

func optionKeyword(text string) (models.InstrumentType, bool) {
	if callKeywordRe.MatchString(text) {
		return models.InstrumentOptionCall, true
	}
	if putKeywordRe.MatchString(text) {
		return models.InstrumentOptionPut, true
	}
	return "", false
}
