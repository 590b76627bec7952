package storage

import (
	"database/sql"
	"fmt"
	"time"

	"trend-screener/src/helpers"
	"trend-screener/src/logger"
	"trend-screener/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*SQLiteDB, error) {
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return helpers.WrapDatabaseError("failed to open sqlite database", err)
	}

	if err := db.Ping(); err != nil {
		return helpers.WrapDatabaseError("failed to ping sqlite database", err)
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) createTables() error {
	// Runs accumulate over time, so tables are created once and kept.
	// SQLite types: INTEGER for int64, REAL for float64, TEXT for string
	query := `
		CREATE TABLE IF NOT EXISTS analysis_results (
			run_date TEXT,
			symbol TEXT,
			rank INTEGER,
			company_name TEXT,
			premarket_volume REAL,
			gap_up REAL,
			market_cap REAL,
			open_price REAL,
			high_price REAL,
			close_price REAL,
			open_to_high REAL,
			open_to_close REAL,
			trend_change REAL,
			trend_unbounded INTEGER,
			trend_detail TEXT,
			selected INTEGER,
			created_at TIMESTAMP,
			PRIMARY KEY (run_date, symbol)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create analysis_results: %w", err)
	}

	query = `CREATE INDEX IF NOT EXISTS idx_results_created ON analysis_results (created_at);`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create created_at index: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveResults(results []models.MAnalysisResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.WrapDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO analysis_results (
			run_date, symbol, rank, company_name,
			premarket_volume, gap_up, market_cap,
			open_price, high_price, close_price, open_to_high, open_to_close,
			trend_change, trend_unbounded, trend_detail,
			selected, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_date, symbol) DO UPDATE SET
			rank = excluded.rank,
			company_name = excluded.company_name,
			premarket_volume = excluded.premarket_volume,
			gap_up = excluded.gap_up,
			market_cap = excluded.market_cap,
			open_price = excluded.open_price,
			high_price = excluded.high_price,
			close_price = excluded.close_price,
			open_to_high = excluded.open_to_high,
			open_to_close = excluded.open_to_close,
			trend_change = excluded.trend_change,
			trend_unbounded = excluded.trend_unbounded,
			trend_detail = excluded.trend_detail,
			selected = excluded.selected,
			created_at = excluded.created_at
	`)
	if err != nil {
		return helpers.WrapDatabaseError("failed to prepare insert", err)
	}
	defer stmt.Close()

	for rank, r := range results {
		row, err := newResultRow(r, rank)
		if err != nil {
			return err
		}
		_, err = stmt.Exec(
			row.RunDate, row.Symbol, row.Rank, row.CompanyName,
			row.PremarketVolume, row.GapUp, row.MarketCap,
			row.OpenPrice, row.HighPrice, row.ClosePrice, row.OpenToHigh, row.OpenToClose,
			row.TrendChange, row.TrendUnbounded, row.TrendDetail,
			row.Selected, r.CreatedAt,
		)
		if err != nil {
			return helpers.WrapDatabaseError("failed to insert result", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return helpers.WrapDatabaseError("failed to commit results", err)
	}
	d.Logger.Debug("Saved %d results for %s", len(results), results[0].Date)
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) LoadResults(date string) ([]models.MAnalysisResult, error) {
	rows, err := d.DB.Query(`
		SELECT run_date, symbol, company_name,
			premarket_volume, gap_up, market_cap,
			open_price, high_price, close_price, open_to_high, open_to_close,
			trend_change, trend_unbounded, trend_detail,
			selected, created_at
		FROM analysis_results
		WHERE run_date = ?
		ORDER BY rank ASC
	`, date)
	if err != nil {
		return nil, helpers.WrapDatabaseError("failed to query results", err)
	}
	defer rows.Close()

	return scanResultRows(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) ListRunDates() ([]string, error) {
	rows, err := d.DB.Query(`SELECT DISTINCT run_date FROM analysis_results ORDER BY run_date DESC`)
	if err != nil {
		return nil, helpers.WrapDatabaseError("failed to list run dates", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, helpers.WrapDatabaseError("failed to scan run date", err)
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) CleanupOldData() error {
	retention := d.Config.Storage.RetentionDays
	if retention <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retention).Format("2006-01-02")

	res, err := d.DB.Exec(`DELETE FROM analysis_results WHERE run_date < ?`, cutoff)
	if err != nil {
		return helpers.WrapDatabaseError("failed to delete old results", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		d.Logger.Info("Cleaned up %d results older than %s", n, cutoff)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
