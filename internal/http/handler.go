package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"dashboard-service/internal/aggregator"
	"dashboard-service/internal/model"
	"dashboard-service/internal/service"
)

type DashboardService interface {
	Summary() (*model.SummaryView, error)
	Traffic(granularity model.Granularity) (*model.Histogram, error)
	Hourly() (*model.Histogram, error)
	Events(filter model.EventFilter) ([]model.DetectionEvent, error)
	Dashboard(granularity model.Granularity, filter model.EventFilter) (*model.DashboardView, error)
	Refresh(ctx context.Context) (*model.SnapshotMeta, error)
	Status() model.RefreshStatus
}

type Handler struct {
	dashboard DashboardService
	loc       *time.Location
	log       zerolog.Logger
}

func NewHandler(dashboard DashboardService, loc *time.Location, log zerolog.Logger) *Handler {
	return &Handler{dashboard: dashboard, loc: loc, log: log}
}

func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api/v1/dashboard")

	api.GET("", h.getDashboard)
	api.GET("/summary", h.getSummary)
	api.GET("/traffic", h.getTraffic)
	api.GET("/hourly", h.getHourly)
	api.GET("/events", h.listEvents)
	api.POST("/refresh", h.refresh)
	api.GET("/status", h.getStatus)
}

func (h *Handler) getDashboard(c *gin.Context) {
	granularity := model.ParseGranularity(c.Query("period"))
	filter := h.parseEventFilter(c)

	view, err := h.dashboard.Dashboard(granularity, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(view))
}

func (h *Handler) getSummary(c *gin.Context) {
	summary, err := h.dashboard.Summary()
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(summary))
}

func (h *Handler) getTraffic(c *gin.Context) {
	granularity := model.ParseGranularity(c.Query("period"))

	hist, err := h.dashboard.Traffic(granularity)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(hist))
}

func (h *Handler) getHourly(c *gin.Context) {
	hist, err := h.dashboard.Hourly()
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(hist))
}

func (h *Handler) listEvents(c *gin.Context) {
	filter := h.parseEventFilter(c)

	events, err := h.dashboard.Events(filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(events))
}

func (h *Handler) refresh(c *gin.Context) {
	meta, err := h.dashboard.Refresh(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(meta))
}

func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse(h.dashboard.Status()))
}

// parseEventFilter never rejects a request: malformed values are dropped.
func (h *Handler) parseEventFilter(c *gin.Context) model.EventFilter {
	category := strings.TrimSpace(c.Query("category"))
	if category == "" {
		category = c.Query("class")
	}
	return aggregator.ParseEventFilter(c.Query("date"), category, c.Query("limit"), h.loc)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotReady):
		c.JSON(http.StatusServiceUnavailable, errorResponse(err.Error()))
	case errors.Is(err, service.ErrUpstream):
		h.log.Warn().Err(err).Msg("upstream error")
		c.JSON(http.StatusBadGateway, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{"data": data}
}

func errorResponse(message string) gin.H {
	return gin.H{"error": message}
}
