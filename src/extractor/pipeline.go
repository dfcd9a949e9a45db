package extractor

import (
	"errors"
	"strings"

	"github.com/username/tradewatch/src/logger"
	"github.com/username/tradewatch/src/models"
)

// ErrEmptyInput signals that the upstream text-extraction primitive
// produced no textual content at all. It is the only fatal condition for
// a single document and is distinct from "zero trades found", which is a
// successful extraction with an empty result.
var ErrEmptyInput = errors.New("empty input: document contains no text")

// Stats summarizes how one document's spans fared. SpansFound counts
// every candidate the segmenter opened, parsed or not; SpansDropped is
// the difference and is what operators watch for format drift.
type Stats struct {
	SpansFound   int `json:"spans_found"`
	SpansParsed  int `json:"spans_parsed"`
	SpansDropped int `json:"spans_dropped"`
}

// Extractor turns one disclosure document's raw text into an ordered
// sequence of trade records. It holds no shared mutable state, so a
// single instance is safe to use concurrently on independent documents.
type Extractor struct {
	classifier *Classifier
}

func New(classifier *Classifier) *Extractor {
	if classifier == nil {
		classifier = NewClassifier(models.InstrumentEquity)
	}
	return &Extractor{classifier: classifier}
}

// Extract runs the full pipeline over one document: normalize, segment,
// extract fields and classify per span, assemble records. Individual
// spans that fail to parse are dropped and counted, never fatal; a
// document yielding zero trades returns an empty slice and nil error.
func (e *Extractor) Extract(doc models.RawDocument) ([]models.TradeRecord, Stats, error) {
	var stats Stats

	if strings.TrimSpace(doc.Text) == "" {
		return nil, stats, ErrEmptyInput
	}

	lines := Normalize(doc.Text)
	if len(lines) == 0 {
		return []models.TradeRecord{}, stats, nil
	}

	spans, discarded := Segment(lines)
	stats.SpansFound = len(spans) + discarded

	trades := make([]models.TradeRecord, 0, len(spans))
	for _, span := range spans {
		fields, err := extractFields(span)
		if err != nil {
			if logger.L != nil {
				logger.L.Warn("Dropping unparseable trade span",
					"filingID", doc.FilingID,
					"line", span.Lines[0].Index,
					"reason", err.Error())
			}
			continue
		}

		instrument, confident := e.classifier.Classify(span, lines)

		rec := models.TradeRecord{
			AssetName:       fields.AssetName,
			Ticker:          fields.Ticker,
			Instrument:      instrument,
			Action:          fields.Action,
			AmountLow:       fields.AmountLow,
			AmountHigh:      fields.AmountHigh,
			TransactionDate: fields.TransactionDate,
			FilingDate:      fields.FilingDate,
			LowConfidence:   !confident,
			RawLine:         span.Lines[0].Text,
		}
		if !fields.HasFilingDate {
			rec.FilingDate = doc.FilingDate
		}
		if instrument.IsOption() {
			rec.Description = optionDescription(span, lines)
		}
		trades = append(trades, rec)
	}

	stats.SpansParsed = len(trades)
	stats.SpansDropped = stats.SpansFound - stats.SpansParsed
	return trades, stats, nil
}

// optionDescription collects the "D:" annotation lines printed below an
// option trade row (strike, expiration, underlying details). The lines
// may have been absorbed into the span by the segmenter or sit just past
// it; collection stops at the next trade row or the "L:" section marker.
func optionDescription(span TradeSpan, lines []NormalizedLine) string {
	var parts []string
	inDescription := false

	scan := make([]NormalizedLine, 0, len(span.Lines)-1+len(lines)-span.End())
	scan = append(scan, span.Lines[1:]...)
	scan = append(scan, lines[span.End():]...)

	for _, l := range scan {
		text := strings.TrimSpace(l.Text)
		if isTradeStart(text) || strings.HasPrefix(text, "L:") {
			break
		}
		if strings.HasPrefix(text, "D:") {
			parts = append(parts, strings.TrimSpace(text[2:]))
			inDescription = true
			continue
		}
		if inDescription {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
