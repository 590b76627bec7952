package server

import (
	"fmt"
	"strings"
	"sync"

	"trend-screener/src/interfaces"
	"trend-screener/src/logger"
	"trend-screener/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// ResultsServer
// -----------------------------------------------------------------------------

type ResultsServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	DB     interfaces.IDatabase
	engine *gin.Engine

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.MRunNotice // Strongly typed and Buffered Queue
	register   chan *Client
	unregister chan *Client

	// Last run seen, replayed to clients on connect
	lastNotice *models.MRunNotice
	stateMutex sync.RWMutex

	// Closed on Stop; the hub loop and notifiers watch it
	done     chan struct{}
	stopOnce sync.Once
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewResultsServer(cfg *models.MConfig, db interfaces.IDatabase, logger *logger.Logger) *ResultsServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &ResultsServer{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		engine:  gin.Default(),
		clients: make(map[*Client]struct{}),
		// Buffered channel so a screening run never blocks on the hub
		broadcast:  make(chan *models.MRunNotice, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *ResultsServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/runs", s.getRuns)
	s.engine.GET("/api/results/:date", s.getResults)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *ResultsServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting results server on %s", addr)

	go s.handleWebsockets()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

// Stop shuts the hub loop down. The input channels stay open so a
// late NotifyRunComplete is dropped instead of panicking.
func (s *ResultsServer) Stop() error {
	s.stopOnce.Do(func() { close(s.done) })
	return nil
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *ResultsServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	connections := len(s.clients)
	var lastRun string
	if s.lastNotice != nil {
		lastRun = s.lastNotice.Date
	}
	s.stateMutex.RUnlock()

	c.JSON(200, gin.H{
		"status":      "ok",
		"connections": connections,
		"last_run":    lastRun,
	})
}

// -----------------------------------------------------------------------------

func (s *ResultsServer) getConfig(c *gin.Context) {
	c.JSON(200, gin.H{
		"market":       s.Config.Calendar.Market,
		"timezone":     s.Config.Calendar.Timezone,
		"hour_buckets": s.Config.Providers.Trends.HourBucket,
		"thresholds": gin.H{
			"min_premarket_volume": s.Config.Screener.MinPremarketVolume,
			"min_price":            s.Config.Screener.MinPrice,
			"min_gap_up":           s.Config.Screener.MinGapUp,
			"min_market_cap":       s.Config.Screener.MinMarketCap,
			"min_trends_change":    s.Config.Screener.MinTrendsChange,
		},
	})
}

// -----------------------------------------------------------------------------

func (s *ResultsServer) getRuns(c *gin.Context) {
	dates, err := s.DB.ListRunDates()
	if err != nil {
		s.Logger.Error("Failed to list run dates: %v", err)
		c.JSON(500, gin.H{"error": "failed to list runs"})
		return
	}
	if dates == nil {
		dates = []string{}
	}
	c.JSON(200, gin.H{"dates": dates})
}

// -----------------------------------------------------------------------------

func (s *ResultsServer) getResults(c *gin.Context) {
	date := c.Param("date")

	results, err := s.DB.LoadResults(date)
	if err != nil {
		s.Logger.Error("Failed to load results for %s: %v", date, err)
		c.JSON(500, gin.H{"error": "failed to load results"})
		return
	}
	if results == nil {
		c.JSON(404, gin.H{"error": "no run for date " + date})
		return
	}

	selected := 0
	for _, r := range results {
		if r.Selected {
			selected++
		}
	}
	c.JSON(200, gin.H{
		"date":     date,
		"selected": selected,
		"results":  results,
	})
}
