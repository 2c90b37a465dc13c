package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rentledger/internal/domain/models"
)

// StatisticsService is the read side served by StatisticsHandler.
type StatisticsService interface {
	YearStatistics(ctx context.Context, year int) (models.YearReport, error)
	MonthStatistics(ctx context.Context, year, month int) (models.MonthlyStats, error)
	Occupancy(ctx context.Context, year, month int) (models.Occupancy, error)
	Snapshots(ctx context.Context, year int) ([]models.StatsSnapshot, error)
}

// StatisticsHandler serves the dashboard statistics.
type StatisticsHandler struct {
	svc    StatisticsService
	logger *zap.Logger
}

func NewStatisticsHandler(svc StatisticsService, logger *zap.Logger) *StatisticsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticsHandler{svc: svc, logger: logger}
}

// Year serves GET /api/statistics/:year.
func (h *StatisticsHandler) Year(c *gin.Context) {
	year, err := intParam("year", c.Param("year"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	report, err := h.svc.YearStatistics(c.Request.Context(), year)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Month serves GET /api/statistics/:year/:month.
func (h *StatisticsHandler) Month(c *gin.Context) {
	year, err := intParam("year", c.Param("year"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	month, err := intParam("month", c.Param("month"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	stats, err := h.svc.MonthStatistics(c.Request.Context(), year, month)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Occupancy serves GET /api/occupancy?year=&month=. Without month the whole
// year is covered.
func (h *StatisticsHandler) Occupancy(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if f.Year == 0 {
		writeError(c, h.logger, &models.ErrValidation{Field: "year", Message: "must be set"})
		return
	}
	occ, err := h.svc.Occupancy(c.Request.Context(), f.Year, f.Month)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, occ)
}

// Snapshots serves GET /api/snapshots/:year.
func (h *StatisticsHandler) Snapshots(c *gin.Context) {
	year, err := intParam("year", c.Param("year"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	out, err := h.svc.Snapshots(c.Request.Context(), year)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
