package api

import (
	"net/http"
	"time"

	"abverdict/app"
	"abverdict/internal"
	"abverdict/internal/cache"
	"abverdict/internal/config"
	"abverdict/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Server exposes the analysis pipeline over HTTP
type Server struct {
	service   *app.AnalysisService
	reports   *cache.Reports
	cfg       config.ServerConfig
	logger    *internal.Logger
	startedAt time.Time
}

// NewServer creates the HTTP layer. reports is only read for /healthz statistics.
func NewServer(service *app.AnalysisService, reports *cache.Reports, cfg config.ServerConfig, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.NewDiscardLogger()
	}
	return &Server{
		service:   service,
		reports:   reports,
		cfg:       cfg,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(s.recovery(), s.requestLogger())
	router.MaxMultipartMemory = s.cfg.MaxUploadBytes

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/v1")
	v1.POST("/analyses", s.handleAnalyze)
	v1.POST("/columns", s.handleColumns)

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"cache":          s.reports.Stats(),
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}
