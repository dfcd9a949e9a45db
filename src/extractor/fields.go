package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/username/tradewatch/src/models"
)

// spanFields is the typed field set extracted from one trade span.
// FilingDate may be absent; the pipeline backfills it from the parent
// filing when the document printed only the transaction date.
type spanFields struct {
	TransactionDate time.Time
	FilingDate      time.Time
	HasFilingDate   bool
	Action          models.TradeAction
	AmountLow       int64
	AmountHigh      int64
	Ticker          string
	AssetName       string
}

var (
	dateTokenRe   = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
	actionVerbRe  = regexp.MustCompile(`(?i)\b(buy|bought|purchased?|acquired|sell|sold|sale|disposed|exchanged?)\b`)
	actionCodeRe  = regexp.MustCompile(`\b([PS])\b(?:\s+\(partial\))?`)
	amountRangeRe = regexp.MustCompile(`\$([\d,]+)\s*[-–—]\s*\$?([\d,]+)`)
	amountOverRe  = regexp.MustCompile(`(?i)\bover\s+\$([\d,]+)`)
	amountOneRe   = regexp.MustCompile(`\$([\d,]+)`)
	tickerRe      = regexp.MustCompile(`\(([A-Z]{1,5})\)`)

	// A numeric token broken by a stray line break inside the amount
	// column: "$100,0 01 - $250,000" becomes "$100,001 - $250,000".
	splitNumberRe = regexp.MustCompile(`(\$[\d,]*\d)\s+(\d[\d,]*)`)

	rowPrefixRe = regexp.MustCompile(`^\s*(?:\d{1,3}[.)]|SP|JT|DC)\s+`)
)

// consumed marks characters eaten by an extraction step so later steps
// only see the remainder. Positions are preserved, which lets the asset
// step read the leading text up to the first consumed token.
const consumedMark = '\x1f'

func consume(s string, loc []int) string {
	return s[:loc[0]] + strings.Repeat(string(consumedMark), loc[1]-loc[0]) + s[loc[1]:]
}

// extractFields runs the ordered extraction steps over one span:
// dates, action, amount bracket, ticker, then asset name from whatever
// leading text remains. Each step consumes its tokens; precedence is the
// step order, not pattern dispatch. A span missing a parseable date,
// amount, or asset name fails as a whole and is reported to the pipeline.
func extractFields(span TradeSpan) (spanFields, error) {
	var f spanFields
	rem := span.Text()

	// 1. Dates. First date-shaped token is the transaction date, the
	// second (when printed) the filing/notification date.
	parsedDates := 0
	for _, loc := range dateTokenRe.FindAllStringIndex(rem, -1) {
		if parsedDates == 2 {
			break
		}
		d, err := time.Parse("1/2/2006", rem[loc[0]:loc[1]])
		if err != nil {
			continue
		}
		if parsedDates == 0 {
			f.TransactionDate = d
		} else {
			f.FilingDate = d
			f.HasFilingDate = true
		}
		rem = consume(rem, loc)
		parsedDates++
	}
	if parsedDates == 0 {
		return f, fmt.Errorf("no transaction date in span")
	}

	// 2. Action verb or P/S code.
	if loc := actionVerbRe.FindStringSubmatchIndex(rem); loc != nil {
		f.Action = normalizeAction(rem[loc[2]:loc[3]])
		rem = consume(rem, loc[:2])
	} else if loc := actionCodeRe.FindStringSubmatchIndex(rem); loc != nil {
		if strings.EqualFold(rem[loc[2]:loc[3]], "P") {
			f.Action = models.ActionBuy
		} else {
			f.Action = models.ActionSell
		}
		rem = consume(rem, loc[:2])
	} else {
		f.Action = models.ActionOther
	}

	// 3. Amount bracket. Rejoin digits the layout broke apart first, then
	// take the first range, open-ended, or single-value pattern.
	rem = splitNumberRe.ReplaceAllString(rem, "$1$2")
	switch {
	case amountRangeRe.MatchString(rem):
		loc := amountRangeRe.FindStringSubmatchIndex(rem)
		low, errLow := parseCurrency(rem[loc[2]:loc[3]])
		high, errHigh := parseCurrency(rem[loc[4]:loc[5]])
		if errLow != nil || errHigh != nil {
			return f, fmt.Errorf("unparseable amount range %q", rem[loc[0]:loc[1]])
		}
		if low > high {
			return f, fmt.Errorf("inverted amount bracket %d > %d", low, high)
		}
		f.AmountLow, f.AmountHigh = low, high
		rem = consume(rem, loc[:2])
	case amountOverRe.MatchString(rem):
		loc := amountOverRe.FindStringSubmatchIndex(rem)
		low, err := parseCurrency(rem[loc[2]:loc[3]])
		if err != nil {
			return f, fmt.Errorf("unparseable amount %q", rem[loc[0]:loc[1]])
		}
		f.AmountLow, f.AmountHigh = low, models.AmountOpenEnd
		rem = consume(rem, loc[:2])
	case amountOneRe.MatchString(rem):
		loc := amountOneRe.FindStringSubmatchIndex(rem)
		v, err := parseCurrency(rem[loc[2]:loc[3]])
		if err != nil {
			return f, fmt.Errorf("unparseable amount %q", rem[loc[0]:loc[1]])
		}
		f.AmountLow, f.AmountHigh = v, v
		rem = consume(rem, loc[:2])
	default:
		return f, fmt.Errorf("no amount bracket in span")
	}

	// 4. Ticker: a parenthesized run of 1-5 capitals next to the asset
	// name. Absent is fine; mutual funds and bonds print none.
	if loc := tickerRe.FindStringSubmatchIndex(rem); loc != nil {
		f.Ticker = rem[loc[2]:loc[3]]
		rem = consume(rem, loc[:2])
	}

	// 5. Asset name: the leading text of the span up to the first consumed
	// token, minus the row prefix.
	lead := rem
	if idx := strings.IndexByte(rem, consumedMark); idx >= 0 {
		lead = rem[:idx]
	}
	lead = rowPrefixRe.ReplaceAllString(lead, "")
	f.AssetName = strings.Trim(strings.TrimSpace(lead), "-,:")
	f.AssetName = strings.TrimSpace(f.AssetName)
	if f.AssetName == "" {
		return f, fmt.Errorf("empty asset name")
	}

	return f, nil
}

func normalizeAction(verb string) models.TradeAction {
	switch strings.ToLower(verb) {
	case "buy", "bought", "purchase", "purchased", "acquired":
		return models.ActionBuy
	case "sell", "sold", "sale", "disposed":
		return models.ActionSell
	case "exchange", "exchanged":
		return models.ActionExchange
	default:
		return models.ActionOther
	}
}

func parseCurrency(s string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
}
