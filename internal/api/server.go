// Package api exposes the report generation pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/am-report-server/internal/archive"
	"github.com/am-report-server/internal/domain"
	"github.com/am-report-server/internal/middleware"
	"github.com/am-report-server/internal/service"
	"github.com/am-report-server/pkg/genai"
)

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	reports       *service.ReportService
	store         archive.Store // nil when archiving is disabled
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance. The store may be nil when
// archiving is disabled; the listing endpoints then report it unavailable.
func NewServer(
	configManager domain.ConfigManager,
	reports *service.ReportService,
	store archive.Store,
	logger *logrus.Logger,
) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.AccessLogger(logger))

	server := &Server{
		configManager: configManager,
		reports:       reports,
		store:         store,
		logger:        logger,
		router:        router,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	s.logger.WithField("addr", addr).Info("Starting HTTP server")

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for context cancellation or listen failure
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Router exposes the configured routes for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/reports", s.handleGenerateReport)
		v1.POST("/reports/parse", s.handleParseReport)
		v1.GET("/reports", s.handleListReports)
		v1.GET("/reports/:id", s.handleGetReport)
	}
}

// generateReportRequest is the request body for POST /api/v1/reports.
// Artifact data arrives base64-encoded per standard JSON []byte handling.
type generateReportRequest struct {
	RawText   string               `json:"raw_text" binding:"required"`
	Analysis  string               `json:"analysis_type"`
	Model     string               `json:"model"`
	Context   service.BuildContext `json:"context"`
	Artifacts []genai.Artifact     `json:"artifacts"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"version":   "1.0.0",
	})
}

// handleGenerateReport runs the full pipeline and returns the generated
// report with its exports.
func (s *Server) handleGenerateReport(c *gin.Context) {
	var req generateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, err.Error())
		return
	}

	if req.Analysis == "" {
		req.Analysis = string(domain.ANALYSIS_FULL)
	}
	if req.Model == "" {
		req.Model = s.configManager.GetBackendConfig().DefaultModel
	}
	if req.Context.GeneratedAt.IsZero() {
		req.Context.GeneratedAt = time.Now()
	}

	params := &service.GenerateReportParams{
		RawText:   req.RawText,
		Analysis:  domain.AnalysisType(req.Analysis),
		Model:     domain.ModelTier(req.Model),
		Context:   req.Context,
		Artifacts: req.Artifacts,
	}

	result, err := s.reports.GenerateReport(c.Request.Context(), params)
	if err != nil {
		s.respondPipelineError(c, err)
		return
	}

	jsonExport, err := s.reports.ExportJSON(result, params)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request_id":        result.RequestID,
		"process_health":    result.Record,
		"component_summary": result.Summary,
		"risk_tier":         result.RiskTier,
		"risk_label":        result.RiskLabel,
		"risk_glyph":        result.RiskGlyph,
		"report":            result.Report,
		"markdown":          result.Markdown,
		"json_export":       string(jsonExport),
		"processing_time":   result.ProcessingTime.String(),
	})
}

// handleParseReport runs extraction and classification only, without calling
// the generation backend.
func (s *Server) handleParseReport(c *gin.Context) {
	var req struct {
		RawText string `json:"raw_text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, err.Error())
		return
	}

	c.JSON(http.StatusOK, s.reports.Parse(req.RawText))
}

// handleListReports returns archived reports, newest first.
func (s *Server) handleListReports(c *gin.Context) {
	if s.store == nil {
		s.respondError(c, http.StatusNotFound, domain.ErrArchiveError, "report archive is disabled")
		return
	}

	limit := parsePositiveInt(c.Query("limit"), 20)
	if limit > 100 {
		limit = 100
	}
	offset := parsePositiveInt(c.Query("offset"), 0)

	records, err := s.store.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrArchiveError, err.Error())
		return
	}

	total, err := s.store.Count(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrArchiveError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": records,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// handleGetReport returns a single archived report by ID.
func (s *Server) handleGetReport(c *gin.Context) {
	if s.store == nil {
		s.respondError(c, http.StatusNotFound, domain.ErrArchiveError, "report archive is disabled")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "report ID must be an integer")
		return
	}

	record, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrArchiveError, err.Error())
		return
	}
	if record == nil {
		s.respondError(c, http.StatusNotFound, domain.ErrInvalidInput, "report not found")
		return
	}

	c.JSON(http.StatusOK, record)
}

// respondPipelineError maps pipeline errors onto HTTP statuses.
func (s *Server) respondPipelineError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		s.respondError(c, http.StatusBadRequest, domain.ErrValidation, validationErr.Error())
		return
	}

	if domain.IsArtifactCountError(err) {
		s.respondError(c, http.StatusBadRequest, domain.ErrArtifactCount, err.Error())
		return
	}

	if backendErr, ok := domain.IsBackendError(err); ok {
		status := http.StatusBadGateway
		if backendErr.Kind == domain.BackendQuota {
			status = http.StatusTooManyRequests
		}
		s.respondError(c, status, domain.ErrBackendFailure, backendErr.Error())
		return
	}

	s.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, err.Error())
}

func (s *Server) respondError(c *gin.Context, status int, code, details string) {
	requestID := c.GetString("request_id")

	s.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"status":     status,
		"code":       code,
	}).Warn(details)

	c.JSON(status, domain.NewAPIError(code, http.StatusText(status), details, requestID))
}

func parsePositiveInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-API-Key")
		c.Header("Access-Control-Expose-Headers", "Content-Length")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware adds a unique request ID to each request
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}
