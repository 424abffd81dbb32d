// Package handler exposes the anomaly registry over HTTP with gin.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/odme-systems/sentinel/internal/anomaly/model"
	"github.com/odme-systems/sentinel/internal/anomaly/repository"
	"github.com/odme-systems/sentinel/internal/threat"
	"go.uber.org/zap"
)

// AnomalyHandler handles HTTP requests for the anomaly lifecycle.
type AnomalyHandler struct {
	svc    anomalyService
	logger *zap.Logger
}

// anomalyService is the handler's view of the service layer.
// *service.AnomalyService satisfies this interface.
type anomalyService interface {
	Ingest(ctx context.Context, attrs model.AttributeSet) (*model.Anomaly, error)
	SubmitReport(ctx context.Context, anomalyID uuid.UUID, attrs model.AttributeSet) (*model.Report, *model.Anomaly, error)
	Resolve(ctx context.Context, id uuid.UUID) (*model.Anomaly, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Anomaly, error)
	List(ctx context.Context, f model.ListFilter, limit, offset int) ([]*model.Anomaly, error)
	Summary(ctx context.Context) (*model.Summary, error)
}

// NewAnomalyHandler creates a new AnomalyHandler.
func NewAnomalyHandler(svc anomalyService, logger *zap.Logger) *AnomalyHandler {
	return &AnomalyHandler{svc: svc, logger: logger}
}

// Register registers all anomaly routes on the given router group.
func (h *AnomalyHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/anomalies", h.Ingest)
	rg.GET("/anomalies", h.List)
	rg.GET("/anomalies/summary", h.SummaryHandler)
	rg.GET("/anomalies/:id", h.Get)
	rg.POST("/anomalies/:id/reports", h.SubmitReport)
	rg.POST("/anomalies/:id/resolve", h.Resolve)
}

// Ingest handles POST /anomalies — creates a new anomaly from an attribute set.
func (h *AnomalyHandler) Ingest(c *gin.Context) {
	var attrs model.AttributeSet
	if !h.bindStrict(c, &attrs) {
		return
	}

	anomaly, err := h.svc.Ingest(c.Request.Context(), attrs)
	if err != nil {
		h.writeError(c, "ingest anomaly", err)
		return
	}
	RecordIngest(anomaly.CurrentLevel.String())
	c.JSON(http.StatusCreated, gin.H{"anomaly": anomaly})
}

// SubmitReport handles POST /anomalies/:id/reports — appends an agent report
// and re-evaluates the anomaly's current assessment.
func (h *AnomalyHandler) SubmitReport(c *gin.Context) {
	id, ok := h.anomalyID(c)
	if !ok {
		return
	}

	var attrs model.AttributeSet
	if !h.bindStrict(c, &attrs) {
		return
	}

	report, anomaly, err := h.svc.SubmitReport(c.Request.Context(), id, attrs)
	if err != nil {
		h.writeError(c, "submit report", err)
		return
	}
	RecordReport(report.Level.String())
	c.JSON(http.StatusCreated, gin.H{"report": report, "anomaly": anomaly})
}

// Resolve handles POST /anomalies/:id/resolve — moves the anomaly to its
// terminal state.
func (h *AnomalyHandler) Resolve(c *gin.Context) {
	id, ok := h.anomalyID(c)
	if !ok {
		return
	}

	anomaly, err := h.svc.Resolve(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "resolve anomaly", err)
		return
	}
	RecordResolution()
	c.JSON(http.StatusOK, gin.H{"anomaly": anomaly})
}

// Get handles GET /anomalies/:id — returns one anomaly with its reports.
func (h *AnomalyHandler) Get(c *gin.Context) {
	id, ok := h.anomalyID(c)
	if !ok {
		return
	}

	anomaly, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "get anomaly", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"anomaly": anomaly})
}

// List handles GET /anomalies — returns anomalies filtered by status,
// minimum threat level, and category.
func (h *AnomalyHandler) List(c *gin.Context) {
	var filter model.ListFilter

	if raw := c.Query("status"); raw != "" {
		status, ok := model.ParseStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be 'active' or 'resolved'", "kind": "validation"})
			return
		}
		filter.Status = status
	}

	if raw := c.Query("min_level"); raw != "" {
		level, err := threat.ParseLevel(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
			return
		}
		filter.MinLevel = &level
	}

	if raw := c.Query("category"); raw != "" {
		filter.Category = model.Category(raw)
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	anomalies, err := h.svc.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(c, "list anomalies", err)
		return
	}
	if anomalies == nil {
		anomalies = []*model.Anomaly{}
	}
	c.JSON(http.StatusOK, gin.H{"anomalies": anomalies, "count": len(anomalies)})
}

// SummaryHandler handles GET /anomalies/summary — registry-wide statistics.
func (h *AnomalyHandler) SummaryHandler(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		h.writeError(c, "anomaly summary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// anomalyID parses the :id path parameter, writing a 400 on failure.
func (h *AnomalyHandler) anomalyID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid anomaly ID", "kind": "validation"})
		return uuid.Nil, false
	}
	return id, true
}

// bindStrict decodes the request body into out, rejecting unknown fields.
// gin's ShouldBindJSON silently drops unknown keys, which would let typoed
// attribute names feed the scorer as zero values.
func (h *AnomalyHandler) bindStrict(c *gin.Context, out any) bool {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
		return false
	}
	return true
}

// writeError maps service/repository errors to HTTP statuses and
// machine-readable error kinds.
func (h *AnomalyHandler) writeError(c *gin.Context, op string, err error) {
	var validation *model.ErrValidation
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Msg, "kind": "validation"})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "anomaly not found", "kind": "not_found"})
	case errors.Is(err, repository.ErrResolved):
		c.JSON(http.StatusConflict, gin.H{"error": "anomaly already resolved", "kind": "invalid_state"})
	default:
		h.logger.Error(op, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "kind": "internal"})
	}
}
