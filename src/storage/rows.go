package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"trend-screener/src/helpers"
	"trend-screener/src/models"
)

// -----------------------------------------------------------------------------
// Flat row mapping shared by both drivers. Market columns are NULL
// when the run skipped the market side, trend columns when it skipped
// trends; trend_change is also NULL for the unbounded sentinel, which
// is carried by trend_unbounded instead.
// -----------------------------------------------------------------------------

type resultRow struct {
	RunDate         string
	Symbol          string
	Rank            int
	CompanyName     string
	PremarketVolume sql.NullFloat64
	GapUp           sql.NullFloat64
	MarketCap       sql.NullFloat64
	OpenPrice       sql.NullFloat64
	HighPrice       sql.NullFloat64
	ClosePrice      sql.NullFloat64
	OpenToHigh      sql.NullFloat64
	OpenToClose     sql.NullFloat64
	TrendChange     sql.NullFloat64
	TrendUnbounded  sql.NullBool
	TrendDetail     sql.NullString
	Selected        bool
}

// -----------------------------------------------------------------------------

func newResultRow(r models.MAnalysisResult, rank int) (resultRow, error) {
	row := resultRow{
		RunDate:     r.Date,
		Symbol:      r.Symbol,
		Rank:        rank,
		CompanyName: r.CompanyName,
		Selected:    r.Selected,
	}

	if m := r.Market; m != nil {
		row.PremarketVolume = sql.NullFloat64{Float64: m.PremarketVolume, Valid: true}
		row.GapUp = sql.NullFloat64{Float64: m.GapUp, Valid: true}
		row.OpenPrice = sql.NullFloat64{Float64: m.OpenPrice, Valid: true}
		row.HighPrice = sql.NullFloat64{Float64: m.HighPrice, Valid: true}
		row.ClosePrice = sql.NullFloat64{Float64: m.ClosePrice, Valid: true}
		row.OpenToHigh = sql.NullFloat64{Float64: m.OpenToHigh, Valid: true}
		row.OpenToClose = sql.NullFloat64{Float64: m.OpenToClose, Valid: true}
		if m.MarketCap != nil {
			row.MarketCap = sql.NullFloat64{Float64: *m.MarketCap, Valid: true}
		}
	}

	if t := r.Trends; t != nil {
		row.TrendUnbounded = sql.NullBool{Bool: t.TotalChange.Unbounded, Valid: true}
		if !t.TotalChange.Unbounded {
			row.TrendChange = sql.NullFloat64{Float64: t.TotalChange.Value, Valid: true}
		}
		detail, err := json.Marshal(t)
		if err != nil {
			return resultRow{}, helpers.WrapDatabaseError("failed to encode trend detail", err)
		}
		row.TrendDetail = sql.NullString{String: string(detail), Valid: true}
	}

	return row, nil
}

// -----------------------------------------------------------------------------

func scanResultRows(rows *sql.Rows) ([]models.MAnalysisResult, error) {
	var results []models.MAnalysisResult

	for rows.Next() {
		var row resultRow
		var createdAt time.Time
		err := rows.Scan(
			&row.RunDate, &row.Symbol, &row.CompanyName,
			&row.PremarketVolume, &row.GapUp, &row.MarketCap,
			&row.OpenPrice, &row.HighPrice, &row.ClosePrice, &row.OpenToHigh, &row.OpenToClose,
			&row.TrendChange, &row.TrendUnbounded, &row.TrendDetail,
			&row.Selected, &createdAt,
		)
		if err != nil {
			return nil, helpers.WrapDatabaseError("failed to scan result row", err)
		}

		result := models.MAnalysisResult{
			Symbol:      row.Symbol,
			CompanyName: row.CompanyName,
			Date:        row.RunDate,
			Selected:    row.Selected,
			CreatedAt:   createdAt,
		}

		if row.GapUp.Valid {
			m := models.MMarketMetrics{
				Symbol:          row.Symbol,
				CompanyName:     row.CompanyName,
				PremarketVolume: row.PremarketVolume.Float64,
				GapUp:           row.GapUp.Float64,
				OpenPrice:       row.OpenPrice.Float64,
				HighPrice:       row.HighPrice.Float64,
				ClosePrice:      row.ClosePrice.Float64,
				OpenToHigh:      row.OpenToHigh.Float64,
				OpenToClose:     row.OpenToClose.Float64,
			}
			if row.MarketCap.Valid {
				cap := row.MarketCap.Float64
				m.MarketCap = &cap
			}
			result.Market = &m
		}

		if row.TrendDetail.Valid {
			var t models.MTrendMetrics
			if err := json.Unmarshal([]byte(row.TrendDetail.String), &t); err != nil {
				return nil, helpers.WrapDatabaseError("failed to decode trend detail", err)
			}
			result.Trends = &t
		}

		results = append(results, result)
	}

	return results, rows.Err()
}
