package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"trend-screener/src/analysis"
	"trend-screener/src/calendar"
	"trend-screener/src/config"
	"trend-screener/src/data_source/polygon"
	"trend-screener/src/data_source/serptrends"
	"trend-screener/src/interfaces"
	"trend-screener/src/logger"
	"trend-screener/src/models"
	"trend-screener/src/network"
	"trend-screener/src/orchestrator"
	"trend-screener/src/report"
	"trend-screener/src/server"
	"trend-screener/src/storage"

	"github.com/joho/godotenv"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	dateFlag := flag.String("date", "", "analysis date YYYY-MM-DD (default: today)")
	startFlag := flag.String("start-date", "", "backtest range start YYYY-MM-DD")
	endFlag := flag.String("end-date", "", "backtest range end YYYY-MM-DD")
	tickerFlag := flag.String("ticker", "", "comma-separated ticker symbols")
	tickerFile := flag.String("ticker-file", "", "path to JSON ticker export")
	minPremarketVol := flag.Float64("min-premarket-volume", -1, "minimum premarket volume")
	minPrice := flag.Float64("min-price", -1, "minimum open price")
	minGapUp := flag.Float64("min-gap-up", -1, "minimum gap up percent")
	minMarketCap := flag.String("min-market-cap", "", "minimum market cap, accepts 100M / 2.5B suffixes")
	minTrendsChange := flag.Float64("min-trends-change", -1, "minimum search-trend change percent")
	trendsOnly := flag.Bool("trends-only", false, "skip the market pass")
	marketOnly := flag.Bool("market-only", false, "skip the trends pass")
	batchSize := flag.Int("batch-size", 0, "trends fetch batch size")
	maxParallel := flag.Int("max-parallel", 0, "max trading days analyzed in parallel")
	outputDir := flag.String("output-dir", "", "directory for Excel reports")
	serve := flag.Bool("serve", false, "keep running and serve results over HTTP")
	writeConfig := flag.String("write-config", "", "write the effective config to this path and exit")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	// API keys come from the environment; .env is a convenience for dev
	godotenv.Load()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	applyFlagOverrides(cfg, *minPremarketVol, *minPrice, *minGapUp, *minMarketCap,
		*minTrendsChange, *batchSize, *maxParallel, *outputDir)

	// Dump mode: write defaults and overrides back out as a starting
	// point for a new config file.
	if *writeConfig != "" {
		if err := cfg.Save(*writeConfig); err != nil {
			fmt.Printf("Error writing config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote effective config to %s\n", *writeConfig)
		return
	}

	// Setup logger
	if *verbose {
		cfg.LogLevel = "DEBUG"
	}
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// Trading calendar
	loc, err := time.LoadLocation(cfg.Calendar.Timezone)
	if err != nil {
		appLogger.Critical("Invalid calendar timezone %q: %v", cfg.Calendar.Timezone, err)
	}

	var cal *calendar.TradingCalendar
	if cfg.Calendar.HolidaysPath != "" {
		cal, err = calendar.NewFromCSV(cfg.Calendar.HolidaysPath, loc)
	} else {
		cal, err = calendar.NewFromMarket(cfg.Calendar.Market, loc)
	}
	if err != nil {
		appLogger.Critical("Failed to load trading calendar: %v", err)
	}

	// Storage
	var db interfaces.IDatabase
	switch cfg.Storage.DBType {
	case "postgres":
		db, err = storage.NewPostgresDB(cfg.MConfig, appLogger)
	default:
		// Default to SQLite
		db, err = storage.NewSQLiteDB(cfg.MConfig, appLogger)
	}
	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}
	if err := db.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
	}
	defer db.Close()

	if err := db.CleanupOldData(); err != nil {
		appLogger.Warning("Retention cleanup failed: %v", err)
	}

	// Data sources
	var netMgr interfaces.INetworkManager = network.NewNetworkManager(cfg.MConfig, appLogger)

	marketSource, err := polygon.NewPolygonSource(cfg.MConfig, netMgr)
	if err != nil {
		appLogger.Critical("Failed to init market source: %v", err)
	}
	trendSource, err := serptrends.NewSerpTrendsSource(cfg.MConfig, netMgr)
	if err != nil {
		appLogger.Critical("Failed to init trends source: %v", err)
	}

	analyzer := orchestrator.NewCombinedAnalyzer(
		cfg.MConfig, cal, marketSource, trendSource, trendSource.AnalysisLocation(), appLogger)

	// Tickers
	tickers, err := loadTickers(*tickerFlag, *tickerFile)
	if err != nil {
		appLogger.Critical("Failed to load tickers: %v", err)
	}
	if len(tickers) == 0 {
		appLogger.Critical("No tickers given; use -ticker or -ticker-file")
	}

	opts := orchestrator.RunOptions{
		Mode:        runMode(*trendsOnly, *marketOnly),
		Criteria:    criteriaFromConfig(cfg.MConfig),
		HourBuckets: cfg.Providers.Trends.HourBucket,
		BatchSize:   cfg.Providers.Trends.BatchSize,
	}

	// Report sinks
	sinks := []interfaces.IReportSink{
		report.NewConsoleReport(appLogger),
		report.NewExcelReport(cfg.MConfig, appLogger),
	}

	// Optional results server
	var srv *server.ResultsServer
	if *serve {
		srv = server.NewResultsServer(cfg.MConfig, db, appLogger)
		go func() {
			if err := srv.Start(); err != nil {
				appLogger.Error("Server failed: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consoleReport := report.NewConsoleReport(appLogger)

	// Range mode replays the screen and prints the backtest summary;
	// otherwise a single date is analyzed.
	if *startFlag != "" || *endFlag != "" {
		start, end, err := parseRange(*startFlag, *endFlag, loc)
		if err != nil {
			appLogger.Critical("%v", err)
		}

		summary, runs, err := analyzer.Backtest(ctx, tickers, start, end, opts)
		if err != nil {
			appLogger.Critical("Backtest failed: %v", err)
		}
		for _, run := range runs {
			finishRun(run, db, sinks, srv, appLogger)
		}
		consoleReport.WriteBacktest(summary)
	} else {
		date := time.Now().In(loc)
		if *dateFlag != "" {
			date, err = parseDate(*dateFlag, loc)
			if err != nil {
				appLogger.Critical("Invalid -date: %v", err)
			}
		}
		if !cal.IsTradingDay(date) {
			appLogger.Critical("%s is not a trading day", date.Format("2006-01-02"))
		}

		run, err := analyzer.AnalyzeDate(ctx, tickers, date, opts)
		if err != nil {
			appLogger.Critical("Analysis failed: %v", err)
		}
		finishRun(run, db, sinks, srv, appLogger)
	}

	if *serve {
		appLogger.Info("Serving results, Ctrl-C to stop...")
		<-ctx.Done()
		srv.Stop()
	}
}

// -----------------------------------------------------------------------------

// finishRun persists one run, renders the report sinks and notifies
// connected viewers.
func finishRun(
	run *models.MRunResult,
	db interfaces.IDatabase,
	sinks []interfaces.IReportSink,
	srv *server.ResultsServer,
	appLogger *logger.Logger,
) {
	if err := db.SaveResults(run.Results); err != nil {
		appLogger.Error("Failed to save results for %s: %v", run.Date, err)
	}

	for _, sink := range sinks {
		if _, err := sink.WriteResults(run); err != nil {
			appLogger.Error("Report sink failed for %s: %v", run.Date, err)
		}
	}

	if srv != nil {
		srv.NotifyRunComplete(&models.MRunNotice{
			Type:      "RUN_COMPLETE",
			Date:      run.Date,
			Selected:  run.Selected,
			Timestamp: time.Now().Unix(),
		})
	}
}

// -----------------------------------------------------------------------------

func applyFlagOverrides(
	cfg *config.Config,
	minPremarketVol, minPrice, minGapUp float64,
	minMarketCap string,
	minTrendsChange float64,
	batchSize, maxParallel int,
	outputDir string,
) {
	if minPremarketVol >= 0 {
		cfg.Screener.MinPremarketVolume = minPremarketVol
	}
	if minPrice >= 0 {
		cfg.Screener.MinPrice = minPrice
	}
	if minGapUp >= 0 {
		cfg.Screener.MinGapUp = minGapUp
	}
	if minMarketCap != "" {
		parsed, err := config.ParseMarketCap(minMarketCap)
		if err != nil {
			fmt.Printf("Invalid -min-market-cap: %v\n", err)
			os.Exit(1)
		}
		cfg.Screener.MinMarketCap = parsed
	}
	if minTrendsChange >= 0 {
		cfg.Screener.MinTrendsChange = minTrendsChange
	}
	if batchSize > 0 {
		cfg.Providers.Trends.BatchSize = batchSize
	}
	if maxParallel > 0 {
		cfg.Screener.MaxParallelDates = maxParallel
	}
	if outputDir != "" {
		cfg.Report.OutputDir = outputDir
	}
}

// -----------------------------------------------------------------------------

func runMode(trendsOnly, marketOnly bool) analysis.Mode {
	switch {
	case trendsOnly && marketOnly:
		fmt.Println("-trends-only and -market-only are mutually exclusive")
		os.Exit(1)
		return analysis.ModeCombined
	case trendsOnly:
		return analysis.ModeTrendsOnly
	case marketOnly:
		return analysis.ModeMarketOnly
	default:
		return analysis.ModeCombined
	}
}

// -----------------------------------------------------------------------------

// criteriaFromConfig maps configured thresholds to screen criteria.
// A zero threshold means unconstrained.
func criteriaFromConfig(cfg *models.MConfig) analysis.ScreenCriteria {
	criteria := analysis.ScreenCriteria{}
	if cfg.Screener.MinPremarketVolume > 0 {
		criteria.MinPremarketVolume = analysis.Threshold(cfg.Screener.MinPremarketVolume)
	}
	if cfg.Screener.MinPrice > 0 {
		criteria.MinPrice = analysis.Threshold(cfg.Screener.MinPrice)
	}
	if cfg.Screener.MinGapUp > 0 {
		criteria.MinGapUp = analysis.Threshold(cfg.Screener.MinGapUp)
	}
	if cfg.Screener.MinMarketCap > 0 {
		criteria.MinMarketCap = analysis.Threshold(cfg.Screener.MinMarketCap)
	}
	if cfg.Screener.MinTrendsChange > 0 {
		criteria.MinTrendsChange = analysis.Threshold(cfg.Screener.MinTrendsChange)
	}
	return criteria
}

// -----------------------------------------------------------------------------

// tickerExport matches the scanner export format: a list of scan
// snapshots, each carrying a tickers array.
type tickerExport []struct {
	JSON struct {
		Tickers []struct {
			Ticker string `json:"ticker"`
		} `json:"tickers"`
	} `json:"json"`
}

// -----------------------------------------------------------------------------

func loadTickers(tickerFlag, tickerFile string) ([]string, error) {
	seen := make(map[string]struct{})
	var tickers []string

	add := func(sym string) {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			return
		}
		if _, ok := seen[sym]; ok {
			return
		}
		seen[sym] = struct{}{}
		tickers = append(tickers, sym)
	}

	for _, sym := range strings.Split(tickerFlag, ",") {
		add(sym)
	}

	if tickerFile != "" {
		data, err := os.ReadFile(tickerFile)
		if err != nil {
			return nil, err
		}
		var export tickerExport
		if err := json.Unmarshal(data, &export); err != nil {
			return nil, fmt.Errorf("failed to parse ticker file %s: %w", tickerFile, err)
		}
		for _, snapshot := range export {
			for _, t := range snapshot.JSON.Tickers {
				add(t.Ticker)
			}
		}
	}

	return tickers, nil
}

// -----------------------------------------------------------------------------

func parseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, loc)
}

// -----------------------------------------------------------------------------

func parseRange(startStr, endStr string, loc *time.Location) (time.Time, time.Time, error) {
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("both -start-date and -end-date are required for a range")
	}
	start, err := parseDate(startStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -start-date: %w", err)
	}
	end, err := parseDate(endStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -end-date: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("-end-date is before -start-date")
	}
	return start, end, nil
}
