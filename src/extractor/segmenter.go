package extractor

import (
	"regexp"
	"strings"
)

// maxSpanLines bounds how far past a trade-start line the segmenter will
// look for the rest of the record, which keeps the scan O(lines).
const maxSpanLines = 5

// TradeSpan is a contiguous run of normalized lines believed to describe
// one transaction. Start is the position of the first line in the
// normalized sequence (not the raw document index).
type TradeSpan struct {
	Start int
	Lines []NormalizedLine
}

// End returns the position one past the last line of the span.
func (s TradeSpan) End() int { return s.Start + len(s.Lines) }

// Text returns the span's lines joined into a single string.
func (s TradeSpan) Text() string {
	parts := make([]string, len(s.Lines))
	for i, l := range s.Lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, " ")
}

var (
	// Rows open with an ordinal ("1."), an owner code ("SP Apple Inc ..."),
	// or an asset name with its ticker printed inline.
	ordinalStartRe = regexp.MustCompile(`^\d{1,3}[.)]\s+\S`)
	ownerStartRe   = regexp.MustCompile(`^(?:SP|JT|DC)\s+\S`)
	assetStartRe   = regexp.MustCompile(`^[A-Z][A-Za-z0-9&.,' -]*\([A-Z]{1,5}\)`)

	triadActionRe = regexp.MustCompile(`(?i)\b(?:buy|bought|purchased?|acquired|sell|sold|sale|disposed|exchanged?)\b|\b[PS]\b`)
	triadDateRe   = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
	triadAmountRe = regexp.MustCompile(`\$[\d,]+`)
)

func isTradeStart(text string) bool {
	return ordinalStartRe.MatchString(text) ||
		ownerStartRe.MatchString(text) ||
		assetStartRe.MatchString(text)
}

// Segment scans normalized lines and groups them into non-overlapping
// trade spans. A span opens at any line matching the trade-start
// signature and extends until the next trade start or the look-ahead
// window runs out. A candidate that never produces the action/date/amount
// triad inside its window is discarded and scanning resumes after it, so
// one malformed record never blocks later valid ones.
//
// The second return value is the number of discarded candidates; the
// pipeline folds it into the span statistics.
func Segment(lines []NormalizedLine) ([]TradeSpan, int) {
	var spans []TradeSpan
	discarded := 0

	i := 0
	for i < len(lines) {
		if !isTradeStart(lines[i].Text) {
			i++
			continue
		}

		end := i + 1
		for end < len(lines) && end < i+maxSpanLines && !isTradeStart(lines[end].Text) {
			end++
		}

		span := TradeSpan{Start: i, Lines: lines[i:end]}
		if hasTriad(span) {
			spans = append(spans, span)
		} else {
			discarded++
		}
		i = end
	}
	return spans, discarded
}

func hasTriad(span TradeSpan) bool {
	text := span.Text()
	return triadActionRe.MatchString(text) &&
		triadDateRe.MatchString(text) &&
		triadAmountRe.MatchString(text)
}
