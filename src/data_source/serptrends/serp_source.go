package serptrends

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"trend-screener/src/helpers"
	"trend-screener/src/interfaces"
	"trend-screener/src/logger"
	"trend-screener/src/models"
)

// -----------------------------------------------------------------------------
// SerpTrendsSource implements ITrendSource against the SerpAPI
// google_trends engine: hourly TIMESERIES over a rolling multi-day
// window ending at 23:00 of the target date.
//
// Interest values are provider-relative per query; every sample from
// one request is stamped with the request's window identity so callers
// never compare values across fetch windows.
// -----------------------------------------------------------------------------

type SerpTrendsSource struct {
	Config       *models.MConfig
	TrendsConfig models.MTrendsConfig
	Network      interfaces.INetworkManager
	Logger       *logger.Logger
	apiKey       string
	analysisTz   *time.Location
}

// -----------------------------------------------------------------------------

func NewSerpTrendsSource(cfg *models.MConfig, netMgr interfaces.INetworkManager) (*SerpTrendsSource, error) {
	trendsCfg := cfg.Providers.Trends
	key := os.Getenv(trendsCfg.APIKeyEnv)
	if key == "" {
		return nil, helpers.WrapConfigurationError(
			fmt.Sprintf("%s environment variable not set", trendsCfg.APIKeyEnv), nil)
	}

	// Fixed-offset analysis timezone; minutes west of UTC per the
	// provider's tz convention (480 = UTC-8).
	tz := time.FixedZone("TRENDS", -trendsCfg.TzOffset*60)

	return &SerpTrendsSource{
		Config:       cfg,
		TrendsConfig: trendsCfg,
		Network:      netMgr,
		Logger:       logger.NewLogger(cfg.LogLevel, "SerpTrendsSource"),
		apiKey:       key,
		analysisTz:   tz,
	}, nil
}

// -----------------------------------------------------------------------------

func (s *SerpTrendsSource) Name() string {
	return s.TrendsConfig.Name
}

// -----------------------------------------------------------------------------

// AnalysisLocation returns the provider's fixed analysis timezone.
func (s *SerpTrendsSource) AnalysisLocation() *time.Location {
	return s.analysisTz
}

// -----------------------------------------------------------------------------

// dateRange builds the hour-precision window string: WindowDays-1 days
// before the target, 00:00 through 23:00 of the target date.
func (s *SerpTrendsSource) dateRange(targetDate time.Time) string {
	days := s.TrendsConfig.WindowDays
	if days <= 0 {
		days = 7
	}
	end := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 23, 0, 0, 0, s.analysisTz)
	start := end.AddDate(0, 0, -(days - 1))
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, s.analysisTz)

	return start.Format("2006-01-02T15") + " " + end.Format("2006-01-02T15")
}

// -----------------------------------------------------------------------------
// Response envelope
// -----------------------------------------------------------------------------

type timeseriesResponse struct {
	Error            string `json:"error"`
	InterestOverTime *struct {
		TimelineData []struct {
			Timestamp string `json:"timestamp"` // epoch seconds as string
			Values    []struct {
				ExtractedValue *int `json:"extracted_value"`
			} `json:"values"`
		} `json:"timeline_data"`
	} `json:"interest_over_time"`
}

// -----------------------------------------------------------------------------

// FetchInterestSeries returns the hourly series for a keyword over the
// rolling window covering the target date. All samples share one
// fetch window.
func (s *SerpTrendsSource) FetchInterestSeries(ctx context.Context, keyword string, targetDate time.Time) ([]models.MTrendSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	window := s.dateRange(targetDate)
	params := map[string]string{
		"engine":    "google_trends",
		"q":         keyword,
		"data_type": "TIMESERIES",
		"date":      window,
		"api_key":   s.apiKey,
		"tz":        strconv.Itoa(s.TrendsConfig.TzOffset),
		"granular":  "hourly",
	}

	body, err := s.Network.Get(s.TrendsConfig.BaseURL+"/search", params)
	if err != nil {
		return nil, err
	}

	var resp timeseriesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("trends unmarshal failed for %q: %w", keyword, err)
	}
	if resp.Error != "" {
		return nil, helpers.WrapNetworkError(fmt.Sprintf("trends API error for %q: %s", keyword, resp.Error), nil)
	}
	if resp.InterestOverTime == nil {
		return nil, helpers.NewInsufficientDataError("no time series data for %q", keyword)
	}

	var samples []models.MTrendSample
	for _, point := range resp.InterestOverTime.TimelineData {
		epoch, err := strconv.ParseInt(point.Timestamp, 10, 64)
		if err != nil {
			s.Logger.Warning("Skipping malformed timestamp %q for %q", point.Timestamp, keyword)
			continue
		}
		if len(point.Values) == 0 || point.Values[0].ExtractedValue == nil {
			continue
		}

		samples = append(samples, models.MTrendSample{
			Timestamp:   time.Unix(epoch, 0).In(s.analysisTz).Truncate(time.Hour),
			Value:       *point.Values[0].ExtractedValue,
			FetchWindow: keyword + "|" + window,
		})
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})

	s.Logger.Debug("Fetched %d trend samples for %q over %s", len(samples), keyword, window)
	return samples, nil
}
