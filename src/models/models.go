package models

import "time"

// InstrumentType classifies what kind of security a trade involves.
type InstrumentType string

const (
	InstrumentEquity     InstrumentType = "equity"
	InstrumentOptionCall InstrumentType = "option_call"
	InstrumentOptionPut  InstrumentType = "option_put"
)

// IsOption reports whether the instrument is a listed option.
func (t InstrumentType) IsOption() bool {
	return t == InstrumentOptionCall || t == InstrumentOptionPut
}

// TradeAction is the normalized transaction verb.
type TradeAction string

const (
	ActionBuy      TradeAction = "BUY"
	ActionSell     TradeAction = "SELL"
	ActionExchange TradeAction = "EXCHANGE"
	ActionOther    TradeAction = "OTHER"
)

// AmountOpenEnd is the sentinel for an unbounded "Over $X" bracket upper limit.
const AmountOpenEnd int64 = -1

// RawDocument is the text of one disclosure filing plus its registry identity.
// It is owned transiently by the caller for the duration of one extraction call.
type RawDocument struct {
	FilingID      string    `json:"filing_id"`
	PoliticianKey string    `json:"politician_key"`
	FilingDate    time.Time `json:"filing_date"`
	DocumentURL   string    `json:"document_url"`
	Text          string    `json:"text"`
}

// TradeRecord is one extracted trade. Created once by the extraction
// pipeline and immutable thereafter; the caller owns persistence and
// notification.
type TradeRecord struct {
	AssetName       string         `json:"asset_name"`
	Ticker          string         `json:"ticker,omitempty"` // empty when not printed or not resolvable
	Instrument      InstrumentType `json:"instrument_type"`
	Action          TradeAction    `json:"action"`
	AmountLow       int64          `json:"amount_low"`
	AmountHigh      int64          `json:"amount_high"` // AmountOpenEnd for open-ended brackets
	TransactionDate time.Time      `json:"transaction_date"`
	FilingDate      time.Time      `json:"filing_date"`
	Description     string         `json:"description,omitempty"` // option annotation text, when present
	LowConfidence   bool           `json:"low_confidence"`        // set when classification fell back to the default
	RawLine         string         `json:"raw_line"`
}

// Filing is the persisted record of one processed disclosure report.
type Filing struct {
	FilingID      string `json:"filing_id"`
	PoliticianKey string `json:"politician_key"`
	FilingType    string `json:"filing_type"`
	FilingDate    string `json:"filing_date"`
	DocumentURL   string `json:"document_url"`
	TradeCount    int    `json:"trade_count"`
	IsPTR         bool   `json:"is_ptr"`
}

// Politician is one tracked official from the roster file.
type Politician struct {
	Key        string `json:"key"`
	FullName   string `json:"full_name"`
	SearchName string `json:"search_name"` // name as it appears in the registry search, "Last, First"
	Party      string `json:"party,omitempty"`
	State      string `json:"state,omitempty"`
	Chamber    string `json:"chamber,omitempty"`
	Status     string `json:"status"` // "active" or "inactive"
}

// Active reports whether this politician should be tracked.
func (p Politician) Active() bool {
	return p.Status == "active"
}
