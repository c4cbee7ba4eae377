package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"astro-insights/src/data_source"
	"astro-insights/src/data_source/astroapi"
	"astro-insights/src/helpers"
	"astro-insights/src/insight"
	"astro-insights/src/interfaces"
	"astro-insights/src/logger"
	"astro-insights/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

type APIServer struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	Facade  *insight.InsightFacade
	Sources *datasource.MultiSourceManager
	Network interfaces.INetworkManager
	DB      interfaces.IDatabase
	engine  *gin.Engine

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.MLatestData // Strongly typed and Buffered Queue
	register   chan *Client
	unregister chan *Client

	// Local cache
	latestState *models.MLatestData
	stateMutex  sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(
	cfg *models.MConfig,
	log *logger.Logger,
	facade *insight.InsightFacade,
	sources *datasource.MultiSourceManager,
	netMgr interfaces.INetworkManager,
	db interfaces.IDatabase,
) *APIServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:  cfg,
		Logger:  log,
		Facade:  facade,
		Sources: sources,
		Network: netMgr,
		DB:      db,
		engine:  gin.Default(),
		clients: make(map[*Client]struct{}),
		// Buffered channel to prevent lock/blocking
		// Queue size of 256 ensures we can handle bursts of updates
		broadcast:  make(chan *models.MLatestData, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		latestState: &models.MLatestData{
			Type:              "INITIAL",
			Dashboards:        make(map[string]models.MDashboardState),
			Timestamp:         0,
			ProcessingMetrics: models.MProcessingMetrics{},
		},
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

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

func (s *APIServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/metrics", s.getMetrics)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/dashboard/:user_id", s.getDashboard)
	s.engine.GET("/api/synastry/:user_a/:user_b", s.getSynastry)

	// Source administration
	s.engine.GET("/api/admin/sources", s.listSources)
	s.engine.POST("/api/admin/sources", s.addSource)
	s.engine.DELETE("/api/admin/sources/:name", s.removeSource)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *APIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.handleWebsockets()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

func (s *APIServer) Stop() error {
	// Clean shutdown
	close(s.broadcast)
	close(s.register)
	close(s.unregister)
	return nil
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getMetrics(c *gin.Context) {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	c.JSON(200, s.latestState.ProcessingMetrics)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getConfig(c *gin.Context) {
	users := make([]string, 0, len(s.Config.Users))
	for _, u := range s.Config.Users {
		users = append(users, u.UserID)
	}

	c.JSON(200, gin.H{
		"users":                 users,
		"forecast_horizon_days": s.Config.Ephemeris.ForecastHorizonDays,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	connections := len(s.clients)
	timestamp := s.latestState.Timestamp
	s.stateMutex.RUnlock()

	c.JSON(200, gin.H{
		"status":        "ok",
		"connections":   connections,
		"latest_update": timestamp,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getDashboard(c *gin.Context) {
	userID := c.Param("user_id")

	s.stateMutex.RLock()
	state, exists := s.latestState.Dashboards[userID]
	s.stateMutex.RUnlock()

	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no dashboard for user %s", userID)})
		return
	}

	c.JSON(200, state)
}

// -----------------------------------------------------------------------------

// getSynastry fetches both charts, runs the comparison and persists the
// result. Identical inputs always return the same result id.
func (s *APIServer) getSynastry(c *gin.Context) {
	userA := c.Param("user_a")
	userB := c.Param("user_b")

	chartA, err := s.Sources.FetchNatalChart(userA)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("chart fetch failed for %s: %v", userA, err)})
		return
	}
	chartB, err := s.Sources.FetchNatalChart(userB)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("chart fetch failed for %s: %v", userB, err)})
		return
	}

	result, err := s.Facade.CalculateSynastry(chartA, chartB, time.Now().UTC())
	if err != nil {
		var vErr *helpers.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := s.DB.SaveSynastryResult(result); err != nil {
		s.Logger.Error("Failed to persist synastry result %s: %v", result.ResultID, err)
	}

	c.JSON(200, result)
}

// -----------------------------------------------------------------------------
// Source Administration
// -----------------------------------------------------------------------------

func (s *APIServer) listSources(c *gin.Context) {
	sources := s.Sources.GetAllSources()
	names := make([]string, 0, len(sources))
	for _, src := range sources {
		names = append(names, src.Name())
	}
	c.JSON(200, gin.H{"sources": names})
}

// -----------------------------------------------------------------------------

func (s *APIServer) addSource(c *gin.Context) {
	var sourceCfg models.MSourceConfig
	if err := c.ShouldBindJSON(&sourceCfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if sourceCfg.Name == "" || sourceCfg.BaseURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and base_url are required"})
		return
	}

	source := astroapi.NewAstroAPISource(s.Config, sourceCfg, s.Network)
	if err := s.Sources.AddSource(source); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "added", "name": sourceCfg.Name})
}

// -----------------------------------------------------------------------------

func (s *APIServer) removeSource(c *gin.Context) {
	name := c.Param("name")
	if err := s.Sources.RemoveSource(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"status": "removed", "name": name})
}
