package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"trend-screener/src/helpers"
	"trend-screener/src/interfaces"
	"trend-screener/src/logger"
	"trend-screener/src/models"
)

// -----------------------------------------------------------------------------
// PolygonSource implements IMarketDataSource against the Polygon.io
// REST API: ticker reference data, minute aggregates, daily open/close.
// -----------------------------------------------------------------------------

type PolygonSource struct {
	Config       *models.MConfig
	SourceConfig models.MSourceConfig
	Network      interfaces.INetworkManager
	Logger       *logger.Logger
	apiKey       string
}

// -----------------------------------------------------------------------------

func NewPolygonSource(cfg *models.MConfig, netMgr interfaces.INetworkManager) (*PolygonSource, error) {
	srcCfg := cfg.Providers.Market
	key := os.Getenv(srcCfg.APIKeyEnv)
	if key == "" {
		return nil, helpers.WrapConfigurationError(
			fmt.Sprintf("%s environment variable not set", srcCfg.APIKeyEnv), nil)
	}

	return &PolygonSource{
		Config:       cfg,
		SourceConfig: srcCfg,
		Network:      netMgr,
		Logger:       logger.NewLogger(cfg.LogLevel, "PolygonSource"),
		apiKey:       key,
	}, nil
}

// -----------------------------------------------------------------------------

func (s *PolygonSource) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

func (s *PolygonSource) get(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if params == nil {
		params = make(map[string]string)
	}
	params["apiKey"] = s.apiKey

	return s.Network.Get(s.SourceConfig.BaseURL+endpoint, params)
}

// -----------------------------------------------------------------------------
// Response envelopes
// -----------------------------------------------------------------------------

type tickerDetailsResponse struct {
	Status  string `json:"status"`
	Results *struct {
		Ticker                   string  `json:"ticker"`
		Name                     string  `json:"name"`
		Market                   string  `json:"market"`
		PrimaryExchange          string  `json:"primary_exchange"`
		Active                   bool    `json:"active"`
		WeightedSharesOutstanding float64 `json:"weighted_shares_outstanding"`
	} `json:"results"`
}

type aggregatesResponse struct {
	Status  string             `json:"status"`
	Ticker  string             `json:"ticker"`
	Results []models.MMinuteBar `json:"results"`
}

type dailyOpenCloseResponse struct {
	Status string  `json:"status"`
	Symbol string  `json:"symbol"`
	From   string  `json:"from"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// -----------------------------------------------------------------------------

// GetTickerSnapshot fetches reference metadata for a ticker.
func (s *PolygonSource) GetTickerSnapshot(ctx context.Context, symbol string) (models.MTickerSnapshot, error) {
	body, err := s.get(ctx, "/v3/reference/tickers/"+symbol, nil)
	if err != nil {
		return models.MTickerSnapshot{}, err
	}

	var resp tickerDetailsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.MTickerSnapshot{}, fmt.Errorf("ticker details unmarshal failed for %s: %w", symbol, err)
	}
	if resp.Status != "OK" || resp.Results == nil {
		return models.MTickerSnapshot{}, helpers.NewMissingDataError("no ticker details for %s", symbol)
	}

	return models.MTickerSnapshot{
		Symbol:            resp.Results.Ticker,
		CompanyName:       resp.Results.Name,
		Market:            resp.Results.Market,
		PrimaryExchange:   resp.Results.PrimaryExchange,
		SharesOutstanding: resp.Results.WeightedSharesOutstanding,
		Active:            resp.Results.Active,
	}, nil
}

// -----------------------------------------------------------------------------

// GetMinuteBars fetches the day's minute aggregates, sorted ascending.
func (s *PolygonSource) GetMinuteBars(ctx context.Context, symbol string, date time.Time) ([]models.MMinuteBar, error) {
	dateStr := date.Format("2006-01-02")
	endpoint := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/minute/%s/%s", symbol, dateStr, dateStr)

	body, err := s.get(ctx, endpoint, map[string]string{
		"adjusted": "true",
		"sort":     "asc",
		"limit":    "50000",
	})
	if err != nil {
		return nil, err
	}

	var resp aggregatesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("aggregates unmarshal failed for %s: %w", symbol, err)
	}
	if resp.Status != "OK" {
		return nil, helpers.NewMissingDataError("no minute aggregates for %s on %s", symbol, dateStr)
	}

	bars := resp.Results
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp < bars[j].Timestamp })

	s.Logger.Debug("Fetched %d minute bars for %s on %s", len(bars), symbol, dateStr)
	return bars, nil
}

// -----------------------------------------------------------------------------

// GetDailySummary fetches the daily open/close reference prices.
func (s *PolygonSource) GetDailySummary(ctx context.Context, symbol string, date time.Time) (models.MDailySummary, error) {
	dateStr := date.Format("2006-01-02")
	endpoint := fmt.Sprintf("/v1/open-close/%s/%s", symbol, dateStr)

	body, err := s.get(ctx, endpoint, map[string]string{"adjusted": "true"})
	if err != nil {
		return models.MDailySummary{}, err
	}

	var resp dailyOpenCloseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.MDailySummary{}, fmt.Errorf("open-close unmarshal failed for %s: %w", symbol, err)
	}
	if resp.Status != "OK" {
		return models.MDailySummary{}, helpers.NewMissingDataError("no daily summary for %s on %s", symbol, dateStr)
	}

	return models.MDailySummary{
		Symbol: resp.Symbol,
		Date:   resp.From,
		Open:   resp.Open,
		High:   resp.High,
		Low:    resp.Low,
		Close:  resp.Close,
		Volume: resp.Volume,
	}, nil
}
