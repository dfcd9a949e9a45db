package ledger

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/username/tradewatch/src/models"
)

// ErrLedgerConflict signals a non-idempotent retry: a filing is being
// recorded again with a different trade count than what is stored,
// usually because extraction logic changed between runs. It must be
// surfaced to the caller, never silently overwritten.
var ErrLedgerConflict = errors.New("ledger conflict: stored trade count differs from attempt")

const dateLayout = "2006-01-02"

// FilingLedger is the persistent record of which filings have been
// processed. Recording a filing together with its trades is the unit of
// at-most-once protection: both commit in one transaction or neither does.
type FilingLedger struct {
	db *sql.DB
}

func New(db *sql.DB) *FilingLedger {
	return &FilingLedger{db: db}
}

// HasProcessed reports whether a filing has already been recorded for
// the given politician. Callers gate notification on this before
// invoking the notifier.
func (l *FilingLedger) HasProcessed(politicianKey, filingID string) (bool, error) {
	var one int
	err := l.db.QueryRow(
		"SELECT 1 FROM filings WHERE politician_key = ? AND filing_id = ?",
		politicianKey, filingID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger: checking filing %s: %w", filingID, err)
	}
	return true, nil
}

// Record stores the filing metadata and its trades atomically. A repeat
// call for the same (politician, filing) pair with the same trade count
// is a no-op, which makes retries after a failed notification safe. A
// repeat with a different trade count returns ErrLedgerConflict.
func (l *FilingLedger) Record(filing models.Filing, trades []models.TradeRecord) error {
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("ledger: begin transaction: %w", err)
	}
	defer tx.Rollback()

	var storedCount int
	err = tx.QueryRow(
		"SELECT trade_count FROM filings WHERE politician_key = ? AND filing_id = ?",
		filing.PoliticianKey, filing.FilingID,
	).Scan(&storedCount)
	switch {
	case err == nil:
		if storedCount == len(trades) {
			return nil // already recorded, idempotent replay
		}
		return fmt.Errorf("%w: filing %s for %s stores %d trades, attempt carries %d",
			ErrLedgerConflict, filing.FilingID, filing.PoliticianKey, storedCount, len(trades))
	case errors.Is(err, sql.ErrNoRows):
		// first time, fall through and record
	default:
		return fmt.Errorf("ledger: checking filing %s: %w", filing.FilingID, err)
	}

	_, err = tx.Exec(`
		INSERT INTO filings (filing_id, politician_key, filing_type, filing_date, document_url, trade_count)
		VALUES (?, ?, ?, ?, ?, ?)`,
		filing.FilingID, filing.PoliticianKey, filing.FilingType,
		filing.FilingDate, filing.DocumentURL, len(trades),
	)
	if err != nil {
		return fmt.Errorf("ledger: inserting filing %s: %w", filing.FilingID, err)
	}

	for _, t := range trades {
		_, err = tx.Exec(`
			INSERT INTO trades (filing_id, politician_key, asset_name, ticker, instrument_type,
				action, amount_low, amount_high, transaction_date, filing_date, description, low_confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			filing.FilingID, filing.PoliticianKey, t.AssetName, t.Ticker, string(t.Instrument),
			string(t.Action), t.AmountLow, t.AmountHigh,
			t.TransactionDate.Format(dateLayout), t.FilingDate.Format(dateLayout),
			t.Description, t.LowConfidence,
		)
		if err != nil {
			return fmt.Errorf("ledger: inserting trade %q for filing %s: %w", t.AssetName, filing.FilingID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ledger: committing filing %s: %w", filing.FilingID, err)
	}
	return nil
}

// UpsertPolitician keeps the politicians table in sync with the roster.
func (l *FilingLedger) UpsertPolitician(p models.Politician) error {
	_, err := l.db.Exec(`
		INSERT INTO politicians (key, full_name, search_name, party, state, chamber, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			full_name = excluded.full_name,
			search_name = excluded.search_name,
			party = excluded.party,
			state = excluded.state,
			chamber = excluded.chamber,
			status = excluded.status,
			updated_at = CURRENT_TIMESTAMP`,
		p.Key, p.FullName, p.SearchName, p.Party, p.State, p.Chamber, p.Status,
	)
	if err != nil {
		return fmt.Errorf("ledger: upserting politician %s: %w", p.Key, err)
	}
	return nil
}

// PoliticianTradeCount pairs a tracked official with their stored trade total.
type PoliticianTradeCount struct {
	PoliticianKey string
	TradeCount    int
}

// Statistics aggregates ledger contents for the status command.
type Statistics struct {
	PoliticianCount       int
	ActivePoliticianCount int
	FilingCount           int
	TradeCount            int
	TradesByPolitician    []PoliticianTradeCount
}

func (l *FilingLedger) Statistics() (Statistics, error) {
	var s Statistics

	if err := l.db.QueryRow("SELECT COUNT(*) FROM politicians").Scan(&s.PoliticianCount); err != nil {
		return s, fmt.Errorf("ledger: counting politicians: %w", err)
	}
	if err := l.db.QueryRow("SELECT COUNT(*) FROM politicians WHERE status = 'active'").Scan(&s.ActivePoliticianCount); err != nil {
		return s, fmt.Errorf("ledger: counting active politicians: %w", err)
	}
	if err := l.db.QueryRow("SELECT COUNT(*) FROM filings").Scan(&s.FilingCount); err != nil {
		return s, fmt.Errorf("ledger: counting filings: %w", err)
	}
	if err := l.db.QueryRow("SELECT COUNT(*) FROM trades").Scan(&s.TradeCount); err != nil {
		return s, fmt.Errorf("ledger: counting trades: %w", err)
	}

	rows, err := l.db.Query(`
		SELECT politician_key, COUNT(*) AS trade_count
		FROM trades
		GROUP BY politician_key
		ORDER BY trade_count DESC`)
	if err != nil {
		return s, fmt.Errorf("ledger: counting trades by politician: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ptc PoliticianTradeCount
		if err := rows.Scan(&ptc.PoliticianKey, &ptc.TradeCount); err != nil {
			return s, fmt.Errorf("ledger: scanning trade counts: %w", err)
		}
		s.TradesByPolitician = append(s.TradesByPolitician, ptc)
	}
	return s, rows.Err()
}
