// Package server exposes the training simulator over HTTP: session
// lifecycle endpoints, health, and prometheus metrics. Sessions live in
// memory for their duration and are persisted on finish.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"allersim/internal/config"
	"allersim/internal/logging"
	"allersim/internal/menu"
	"allersim/internal/session"
	"allersim/pkg/types"
)

// Server is the HTTP front end. The server mutex guards the sessions map;
// each live session carries its own mutex so concurrent requests against
// one session are processed strictly in turn.
type Server struct {
	cfg     config.Config
	loader  *menu.Loader
	store   session.Store
	metrics *Metrics
	logger  logging.Logger

	semantic session.SemanticAnalyzer
	replies  session.ReplyProducer

	engine     *gin.Engine
	httpServer *http.Server
	gatherer   prometheus.Gatherer

	mu       sync.RWMutex
	sessions map[string]*liveSession
}

type liveSession struct {
	id    string
	level types.Level

	mu     sync.Mutex
	engine *session.Engine
	saved  bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithStore wires the store that persists finished sessions.
func WithStore(store session.Store) ServerOption {
	return func(s *Server) { s.store = store }
}

// WithSemanticAnalyzer wires the external semantic classifier for new
// sessions.
func WithSemanticAnalyzer(a session.SemanticAnalyzer) ServerOption {
	return func(s *Server) { s.semantic = a }
}

// WithReplyProducer wires the external reply generator for new sessions.
func WithReplyProducer(r session.ReplyProducer) ServerOption {
	return func(s *Server) { s.replies = r }
}

// WithRegistry points metrics at a dedicated registry instead of the
// process default.
func WithRegistry(reg *prometheus.Registry) ServerOption {
	return func(s *Server) {
		s.metrics = NewMetricsWithRegisterer(reg)
		s.gatherer = reg
	}
}

// WithLogger overrides the component logger.
func WithLogger(logger logging.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// New builds the server and its router.
func New(cfg config.Config, opts ...ServerOption) *Server {
	s := &Server{
		cfg:      cfg,
		loader:   menu.NewLoader(nil),
		logger:   logging.NewComponentLogger("HTTPServer"),
		sessions: make(map[string]*liveSession),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	api := engine.Group("/api")
	{
		api.POST("/sessions", s.handleStartSession)
		api.GET("/sessions/:id", s.handleGetSession)
		api.POST("/sessions/:id/turns", s.handleTurn)
		api.POST("/sessions/:id/finish", s.handleFinish)
	}

	s.engine = engine
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins serving on the configured address and blocks until the
// listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.ServerAddr,
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	s.logger.Info("listening on %s", s.cfg.ServerAddr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Shutdown drains the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

type startSessionRequest struct {
	PlayerName   string   `json:"player_name" binding:"required"`
	Age          int      `json:"age"`
	Allergies    []string `json:"allergies"`
	Level        string   `json:"level"`
	ScenarioPath string   `json:"scenario_path"`
}

type startSessionResponse struct {
	SessionID  string `json:"session_id"`
	Restaurant string `json:"restaurant"`
	Level      string `json:"level"`
	Greeting   string `json:"greeting"`
}

func (s *Server) handleStartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	levelName := req.Level
	if levelName == "" {
		levelName = s.cfg.Level
	}
	level := types.ParseLevel(levelName)

	scenarioPath := req.ScenarioPath
	if scenarioPath == "" {
		scenarioPath = s.cfg.ScenarioPath
	}
	index := s.loader.Load(scenarioPath)

	profile := types.PlayerProfile{
		Name:      req.PlayerName,
		Age:       req.Age,
		Allergies: req.Allergies,
	}

	opts := []session.Option{}
	if s.semantic != nil {
		opts = append(opts, session.WithSemanticAnalyzer(s.instrumented(s.semantic)))
	}
	if s.replies != nil {
		opts = append(opts, session.WithReplyProducer(s.replies))
	}

	engine, err := session.NewEngine(profile, level, index, opts...)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	live := &liveSession{
		id:     uuid.NewString(),
		engine: engine,
		level:  level,
	}
	s.mu.Lock()
	s.sessions[live.id] = live
	s.mu.Unlock()

	s.metrics.RecordSessionStarted()
	s.logger.Info("session %s started: player=%s level=%s restaurant=%s",
		live.id, profile.Name, level, index.RestaurantName())

	c.JSON(http.StatusCreated, startSessionResponse{
		SessionID:  live.id,
		Restaurant: index.RestaurantName(),
		Level:      string(level),
		Greeting:   fmt.Sprintf("Welcome to %s! I'll be your server today. Can I get you started with something?", index.RestaurantName()),
	})
}

type turnRequest struct {
	Input string `json:"input" binding:"required"`
}

type turnResponse struct {
	Reply      string `json:"reply"`
	TurnNumber int    `json:"turn_number"`
}

func (s *Server) handleTurn(c *gin.Context) {
	live, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	live.mu.Lock()
	reply, err := live.engine.ProcessTurn(c.Request.Context(), req.Input)
	turnNumber := len(live.engine.Turns())
	live.mu.Unlock()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	s.metrics.RecordTurn()
	c.JSON(http.StatusOK, turnResponse{
		Reply:      reply,
		TurnNumber: turnNumber,
	})
}

func (s *Server) handleFinish(c *gin.Context) {
	live, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	live.mu.Lock()
	record, err := live.engine.Finalize()
	if err != nil {
		live.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	record.ID = live.id

	alreadySaved := live.saved
	live.saved = true
	if s.store != nil && !alreadySaved {
		if err := s.store.Save(record); err != nil {
			// The assessment still goes back to the caller.
			s.logger.Error("session %s: persist failed: %v", live.id, err)
		}
	}
	live.mu.Unlock()

	if !alreadySaved {
		s.metrics.RecordSessionFinished()
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) handleGetSession(c *gin.Context) {
	live, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	live.mu.Lock()
	ctx := live.engine.Context()
	turns := live.engine.Turns()
	live.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"session_id": live.id,
		"level":      string(live.level),
		"turns":      turns,
		"context":    ctx,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

func (s *Server) lookup(id string) (*liveSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	live, ok := s.sessions[id]
	return live, ok
}

// instrumented wraps an analyzer so fallback-triggering failures are
// counted.
func (s *Server) instrumented(inner session.SemanticAnalyzer) session.SemanticAnalyzer {
	return &countingAnalyzer{inner: inner, metrics: s.metrics}
}

type countingAnalyzer struct {
	inner   session.SemanticAnalyzer
	metrics *Metrics
}

func (a *countingAnalyzer) Analyze(ctx context.Context, utterance, contextSummary string) (*types.SemanticResult, error) {
	res, err := a.inner.Analyze(ctx, utterance, contextSummary)
	if err != nil {
		a.metrics.RecordClassifyFallback()
	}
	return res, err
}
