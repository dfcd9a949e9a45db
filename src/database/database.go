package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/tradewatch/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateTradesTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS politicians (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		search_name TEXT NOT NULL,
		party TEXT,
		state TEXT,
		chamber TEXT,
		status TEXT DEFAULT 'active',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS filings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filing_id TEXT NOT NULL,
		politician_key TEXT NOT NULL,
		filing_type TEXT NOT NULL,
		filing_date TEXT NOT NULL,
		document_url TEXT NOT NULL,
		processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		trade_count INTEGER DEFAULT 0,
		UNIQUE(politician_key, filing_id)
	);

	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filing_id TEXT NOT NULL,
		politician_key TEXT NOT NULL,
		asset_name TEXT NOT NULL,
		ticker TEXT,
		instrument_type TEXT NOT NULL,
		action TEXT NOT NULL,
		amount_low INTEGER NOT NULL,
		amount_high INTEGER NOT NULL,
		transaction_date TEXT NOT NULL,
		filing_date TEXT NOT NULL,
		description TEXT,
		low_confidence BOOLEAN DEFAULT FALSE,
		extracted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_filings_politician ON filings (politician_key);
	CREATE INDEX IF NOT EXISTS idx_trades_politician ON trades (politician_key);
	CREATE INDEX IF NOT EXISTS idx_trades_filing ON trades (filing_id);
	CREATE INDEX IF NOT EXISTS idx_filings_date ON filings (filing_date);
	CREATE INDEX IF NOT EXISTS idx_trades_date ON trades (transaction_date);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// migrateTradesTable adds columns introduced after the first schema version.
func migrateTradesTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='trades'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("'trades' table does not exist, no migration needed as table will be created.")
			} else {
				stdlog.Println("'trades' table does not exist, no migration needed as table will be created.")
			}
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'trades' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'trades' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(trades)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'trades'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'trades': %v", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'trades'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'trades': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'trades'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'trades': %v", err)
		}
		return
	}

	if _, ok := columnExists["low_confidence"]; !ok {
		_, err := DB.Exec("ALTER TABLE trades ADD COLUMN low_confidence BOOLEAN DEFAULT FALSE")
		if err != nil {
			logger.L.Error("Error adding 'low_confidence' column to 'trades' table", "error", err)
		} else {
			logger.L.Info("Added 'low_confidence' column to 'trades' table")
		}
	}

	if _, ok := columnExists["description"]; !ok {
		_, err := DB.Exec("ALTER TABLE trades ADD COLUMN description TEXT")
		if err != nil {
			logger.L.Error("Error adding 'description' column to 'trades' table", "error", err)
		} else {
			logger.L.Info("Added 'description' column to 'trades' table")
		}
	}
}
