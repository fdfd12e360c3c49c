package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sales_report/internal/domain"
)

type Ingester interface {
	Initialize(ctx context.Context) (*domain.IngestStats, error)
	Status(ctx context.Context) (*domain.DatasetState, error)
}

type Reporter interface {
	List(ctx context.Context, q domain.ListQuery) ([]domain.Sale, error)
	Statistics(ctx context.Context, month domain.Month) (*domain.Statistics, error)
	PriceHistogram(ctx context.Context, month domain.Month) ([]domain.PriceRangeCount, error)
	CategoryBreakdown(ctx context.Context, month domain.Month) (domain.CategoryBreakdown, error)
	Combined(ctx context.Context, q domain.ListQuery) (*domain.CombinedReport, error)
}

// Handler serves the report endpoints on top of the ingest and report services.
type Handler struct {
	ingester Ingester
	reporter Reporter
	logger   *zap.Logger
}

func NewHandler(ingester Ingester, reporter Reporter, logger *zap.Logger) *Handler {
	return &Handler{
		ingester: ingester,
		reporter: reporter,
		logger:   logger,
	}
}

type initializeResponse struct {
	Message string `json:"message"`
	RunID   string `json:"run_id"`
	Records int    `json:"records"`
	Skipped int    `json:"skipped"`
}

func (h *Handler) Initialize(c *gin.Context) {
	stats, err := h.ingester.Initialize(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, initializeResponse{
		Message: "Database initialized successfully",
		RunID:   stats.RunID,
		Records: stats.Stored,
		Skipped: stats.Skipped,
	})
}

func (h *Handler) Status(c *gin.Context) {
	state, err := h.ingester.Status(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) Transactions(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	sales, err := h.reporter.List(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

func (h *Handler) Statistics(c *gin.Context) {
	month, err := parseMonth(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	stats, err := h.reporter.Statistics(c.Request.Context(), month)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) BarChart(c *gin.Context) {
	month, err := parseMonth(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	histogram, err := h.reporter.PriceHistogram(c.Request.Context(), month)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, histogram)
}

func (h *Handler) PieChart(c *gin.Context) {
	month, err := parseMonth(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	breakdown, err := h.reporter.CategoryBreakdown(c.Request.Context(), month)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

func (h *Handler) CombinedData(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	report, err := h.reporter.Combined(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func parseListQuery(c *gin.Context) (domain.ListQuery, error) {
	month, err := parseMonth(c)
	if err != nil {
		return domain.ListQuery{}, err
	}

	page, err := positiveIntParam(c, "page")
	if err != nil {
		return domain.ListQuery{}, err
	}

	perPage, err := positiveIntParam(c, "per_page")
	if err != nil {
		return domain.ListQuery{}, err
	}

	return domain.ListQuery{
		Month:   month,
		Search:  c.Query("search"),
		Page:    page,
		PerPage: perPage,
	}, nil
}

// parseMonth returns 0 when the parameter is absent. Required-ness is the service's call.
func parseMonth(c *gin.Context) (domain.Month, error) {
	raw := c.Query("month")
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || !domain.Month(n).Valid() {
		return 0, fmt.Errorf("%w: month must be an integer between 1 and 12", domain.ErrInvalidParameter)
	}
	return domain.Month(n), nil
}

// positiveIntParam returns 0 when the parameter is absent so the service applies its default.
func positiveIntParam(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidParameter, name)
	}
	return n, nil
}
