package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"trend-screener/src/helpers"
	"trend-screener/src/logger"
	"trend-screener/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	// Use the executable name as the schema so parallel deployments
	// share a database without colliding.
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresDB{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return helpers.WrapDatabaseError("failed to open postgres database", err)
	}

	if err := db.Ping(); err != nil {
		return helpers.WrapDatabaseError("failed to ping postgres database", err)
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."analysis_results" (
			run_date TEXT,
			symbol TEXT,
			rank INTEGER,
			company_name TEXT,
			premarket_volume DOUBLE PRECISION,
			gap_up DOUBLE PRECISION,
			market_cap DOUBLE PRECISION,
			open_price DOUBLE PRECISION,
			high_price DOUBLE PRECISION,
			close_price DOUBLE PRECISION,
			open_to_high DOUBLE PRECISION,
			open_to_close DOUBLE PRECISION,
			trend_change DOUBLE PRECISION,
			trend_unbounded BOOLEAN,
			trend_detail TEXT,
			selected BOOLEAN,
			created_at TIMESTAMPTZ,
			PRIMARY KEY (run_date, symbol)
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create analysis_results: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveResults(results []models.MAnalysisResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.WrapDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(fmt.Sprintf(`
		INSERT INTO "%s"."analysis_results" (
			run_date, symbol, rank, company_name,
			premarket_volume, gap_up, market_cap,
			open_price, high_price, close_price, open_to_high, open_to_close,
			trend_change, trend_unbounded, trend_detail,
			selected, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
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
	`, d.Schema))
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

func (d *PostgresDB) LoadResults(date string) ([]models.MAnalysisResult, error) {
	rows, err := d.DB.Query(fmt.Sprintf(`
		SELECT run_date, symbol, company_name,
			premarket_volume, gap_up, market_cap,
			open_price, high_price, close_price, open_to_high, open_to_close,
			trend_change, trend_unbounded, trend_detail,
			selected, created_at
		FROM "%s"."analysis_results"
		WHERE run_date = $1
		ORDER BY rank ASC
	`, d.Schema), date)
	if err != nil {
		return nil, helpers.WrapDatabaseError("failed to query results", err)
	}
	defer rows.Close()

	return scanResultRows(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) ListRunDates() ([]string, error) {
	rows, err := d.DB.Query(fmt.Sprintf(
		`SELECT DISTINCT run_date FROM "%s"."analysis_results" ORDER BY run_date DESC`, d.Schema))
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

func (d *PostgresDB) CleanupOldData() error {
	retention := d.Config.Storage.RetentionDays
	if retention <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retention).Format("2006-01-02")

	res, err := d.DB.Exec(fmt.Sprintf(
		`DELETE FROM "%s"."analysis_results" WHERE run_date < $1`, d.Schema), cutoff)
	if err != nil {
		return helpers.WrapDatabaseError("failed to delete old results", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		d.Logger.Info("Cleaned up %d results older than %s", n, cutoff)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
