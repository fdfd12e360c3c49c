package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter registers every endpoint on a fresh gin engine.
func NewRouter(h *Handler, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), AccessLog(logger), Recovery(logger))

	r.GET("/initialize", h.Initialize)
	r.GET("/transactions", h.Transactions)
	r.GET("/statistics", h.Statistics)
	r.GET("/bar-chart", h.BarChart)
	r.GET("/pie-chart", h.PieChart)
	r.GET("/combined-data", h.CombinedData)

	r.GET("/status", h.Status)
	r.GET("/health", h.Health)

	return r
}
