package extractor

import (
	"regexp"
	"strings"
)

// NormalizedLine is one logical line of document text. Index is the
// 1-based position of the line in the raw document, which classification
// needs for look-around scans even after boilerplate lines are removed.
type NormalizedLine struct {
	Index int
	Text  string
}

// Boilerplate the registry's PDF layout repeats on every page. A line
// containing any of these anchors carries no trade data.
var boilerplateAnchors = []string{
	"clerk of the house of representatives",
	"u.s. house of representatives",
	"financial disclosure report",
	"periodic transaction report",
	"filing id #",
	"id owner asset transaction",
	"asset owner date notification",
	"for the complete list of asset type abbreviations",
	"initial public offering",
}

var (
	pageNumberRe = regexp.MustCompile(`(?i)^page\s+\d+(\s+of\s+\d+)?$`)

	// A continuation fragment is a line holding nothing but the tail of the
	// previous line's amount or date column: a bare currency token, the
	// second half of a split range, or a bare date.
	continuationRes = []*regexp.Regexp{
		regexp.MustCompile(`^\$[\d,]+(\s*[-–—]\s*\$?[\d,]+)?$`),
		regexp.MustCompile(`^[\d,]+\s*[-–—]\s*\$[\d,]+$`),
		regexp.MustCompile(`^[-–—]\s*\$[\d,]+$`),
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`),
	}
)

// Normalize cleans raw extracted document text into a sequence of logical
// lines. Layout artifacts left behind by PDF text extraction (repeated
// page headers, page numbers, wrapped amount columns) are collapsed here
// so the segmenter sees one line per physical row of the report.
//
// An empty or unrecognized document yields an empty sequence, not an
// error; callers must treat zero lines as "no trades, not a failure".
func Normalize(text string) []NormalizedLine {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []NormalizedLine
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.ReplaceAll(raw, "\x00", ""))
		if line == "" {
			continue
		}
		if isBoilerplate(line) {
			continue
		}
		if len(out) > 0 && isContinuationFragment(line) {
			// Tail of the previous line's amount/date column. Fold it back so
			// span boundaries stay consistent with the printed rows.
			out[len(out)-1].Text += " " + line
			continue
		}
		out = append(out, NormalizedLine{Index: i + 1, Text: line})
	}
	return out
}

func isBoilerplate(line string) bool {
	lower := strings.ToLower(line)
	for _, anchor := range boilerplateAnchors {
		if strings.Contains(lower, anchor) {
			return true
		}
	}
	return pageNumberRe.MatchString(line)
}

func isContinuationFragment(line string) bool {
	for _, re := range continuationRes {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
