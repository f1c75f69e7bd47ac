package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ridgeline-labs/ridgeline/internal/health"
	"github.com/ridgeline-labs/ridgeline/internal/identity"
	"github.com/ridgeline-labs/ridgeline/internal/logging"
	"github.com/ridgeline-labs/ridgeline/internal/metrics"
	"github.com/ridgeline-labs/ridgeline/internal/traces"
	"github.com/ridgeline-labs/ridgeline/internal/usage"
	"github.com/ridgeline-labs/ridgeline/internal/validation"
)

const version = "0.1.0"

// -----------------------------------------------------------------------------
// Analysis pipeline
// -----------------------------------------------------------------------------

// analyzeHandler handles POST /v1/fingerprints/analyze
// Multipart form: file (required, raw sample bytes), case_id, sector.
// Pipeline: hash -> liveness -> usage record-and-analyze -> risk evaluation.
func (s *Server) analyzeHandler(c *gin.Context) {
	ctx, span := traces.StartSpan(c.Request.Context(), "fingerprint.analyze")
	defer span.End()

	timer := time.Now()
	defer func() {
		metrics.AnalysisDuration.Observe(time.Since(timer).Seconds())
	}()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_file",
			"message": "Multipart field 'file' with the raw fingerprint sample is required",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_file",
			"message": "Could not open uploaded file",
		})
		return
	}
	defer func() { _ = file.Close() }()

	sample, err := io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":   "request_too_large",
				"message": "Uploaded sample exceeds the size limit",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_file",
			"message": "Could not read uploaded file",
		})
		return
	}

	caseID := c.PostForm("case_id")
	sector := c.PostForm("sector")
	if errs := validation.Validate(
		validation.MaxLength("case_id", caseID, validation.MaxCaseIDLength),
		validation.MaxLength("sector", sector, validation.MaxSectorLength),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": errs.Error(),
			"details": errs,
		})
		return
	}
	caseID = validation.SanitizeString(caseID, validation.MaxCaseIDLength)
	sector = validation.SanitizeString(sector, validation.MaxSectorLength)

	key := identity.Hash(sample)
	span.SetAttributes(traces.IdentityKey(key), traces.CaseID(caseID), traces.Sector(sector))

	livenessScore, err := s.scorer.Score(ctx, sample)
	if err != nil {
		logging.L(ctx).Error("liveness classifier failed", "error", err, "identity_key", key)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "classifier_unavailable",
			"message": "Liveness classifier did not return a score",
		})
		return
	}
	metrics.LivenessScore.Observe(livenessScore)

	analysis, err := s.tracker.RecordAndAnalyze(ctx, usage.Submission{
		IdentityKey:   key,
		CaseID:        caseID,
		Sector:        sector,
		LivenessScore: &livenessScore,
	})
	if err != nil {
		s.renderUsageError(c, err, key)
		return
	}

	for _, finding := range analysis.Anomalies {
		metrics.AnomalyFindingsTotal.WithLabelValues(anomalyRule(finding)).Inc()
	}

	assessment := s.riskEngine.Evaluate(ctx, key, livenessScore, &analysis.UsageScore, analysis.Anomalies)
	span.SetAttributes(traces.RiskLevel(string(assessment.Level)), traces.AssessmentID(assessment.ID))
	metrics.SubmissionsTotal.WithLabelValues(string(assessment.Level)).Inc()

	c.JSON(http.StatusOK, gin.H{
		"identityKey": key,
		"caseId":      caseID,
		"sector":      sector,
		"usage":       analysis,
		"assessment":  assessment,
	})
}

// anomalyRule maps a human-readable finding back to its rule label for metrics.
func anomalyRule(finding string) string {
	switch {
	case strings.HasPrefix(finding, "High frequency"):
		return "high_frequency"
	case strings.HasPrefix(finding, "Cross-case reuse"):
		return "cross_case_reuse"
	case strings.HasPrefix(finding, "Multi-case usage"):
		return "multi_case_usage"
	case strings.HasPrefix(finding, "Reactivation"):
		return "reactivation"
	default:
		return "other"
	}
}

func (s *Server) renderUsageError(c *gin.Context, err error, key string) {
	ctx := c.Request.Context()
	switch {
	case errors.Is(err, usage.ErrStorageFailure):
		metrics.LedgerFailuresTotal.Inc()
		logging.L(ctx).Error("usage ledger unavailable", "error", err, "identity_key", key)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "ledger_unavailable",
			"message":   "Usage ledger is temporarily unavailable. The submission was not recorded.",
			"retryable": true,
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "request_cancelled",
			"message":   "The request was cancelled before the submission could be recorded",
			"retryable": true,
		})
	default:
		logging.L(ctx).Error("analysis failed", "error", err, "identity_key", key)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to analyze submission",
		})
	}
}

// -----------------------------------------------------------------------------
// Read endpoints
// -----------------------------------------------------------------------------

// historyHandler handles GET /v1/fingerprints/:key/history?days=N
func (s *Server) historyHandler(c *gin.Context) {
	key := c.Param("key")

	windowDays := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_window",
				"message": "days must be a positive integer",
			})
			return
		}
		windowDays = n
	}

	events, err := s.tracker.History(c.Request.Context(), key, windowDays)
	if err != nil {
		s.renderUsageError(c, err, key)
		return
	}
	if windowDays == 0 {
		windowDays = s.cfg.HistoryWindowDays
	}

	c.JSON(http.StatusOK, gin.H{
		"identityKey": key,
		"windowDays":  windowDays,
		"events":      events,
		"count":       len(events),
	})
}

// statsHandler handles GET /v1/fingerprints/:key/stats
func (s *Server) statsHandler(c *gin.Context) {
	key := c.Param("key")

	stats, err := s.tracker.Stats(c.Request.Context(), key)
	if err != nil {
		s.renderUsageError(c, err, key)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// assessmentsHandler handles GET /v1/fingerprints/:key/assessments?limit=N
func (s *Server) assessmentsHandler(c *gin.Context) {
	key := c.Param("key")

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_limit",
				"message": "limit must be a positive integer",
			})
			return
		}
		limit = n
	}
	if limit > 200 {
		limit = 200
	}

	assessments, err := s.riskStore.ListByKey(c.Request.Context(), key, limit)
	if err != nil {
		logging.L(c.Request.Context()).Error("failed to list assessments", "error", err, "identity_key", key)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to list assessments",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"identityKey": key,
		"assessments": assessments,
		"count":       len(assessments),
	})
}

// thresholdsHandler handles GET /v1/risk/thresholds
func (s *Server) thresholdsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"thresholds": s.riskEngine.Thresholds(),
		"levels":     []string{"HIGH", "SUSPICIOUS", "NORMAL"},
	})
}

// infoHandler handles GET /
func (s *Server) infoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "Ridgeline",
		"description": "Fingerprint usage anomaly and risk scoring engine",
		"version":     version,
	})
}

// -----------------------------------------------------------------------------
// Health
// -----------------------------------------------------------------------------

// HealthResponse for health check endpoints
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Checks    []health.Status `json:"checks,omitempty"`
	Timestamp string          `json:"timestamp"`
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	healthy, statuses := s.checks.CheckAll(ctx)

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Version:   version,
		Checks:    statuses,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
