package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sales_report/internal/domain"
)

// statusFor maps a service error onto its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMissingParameter), errors.Is(err, domain.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSourceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	logger := h.logger.With(
		zap.String("request_id", requestIDFrom(c)),
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
	)

	var msg string
	switch {
	case status == http.StatusBadRequest:
		logger.Debug("rejected request", zap.Error(err))
		msg = err.Error()
	case errors.Is(err, domain.ErrSourceUnavailable):
		logger.Error("source unavailable", zap.Error(err))
		msg = "failed to fetch sales data from source"
	case errors.Is(err, domain.ErrPersistence):
		logger.Error("persistence failure", zap.Error(err))
		msg = "failed to store sales data"
	default:
		logger.Error("request failed", zap.Error(err))
		msg = "internal error"
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
