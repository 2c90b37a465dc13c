package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rentledger/internal/domain/models"
	"github.com/mamadbah2/rentledger/internal/repository"
	"github.com/mamadbah2/rentledger/internal/service/bookings"
)

const dateLayout = "2006-01-02"

// writeError maps service errors to HTTP responses.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		validation  *models.ErrValidation
		span        *models.ErrUnsupportedSpan
		notFound    *models.ErrNotFound
		splitWrite  *models.ErrSplitWrite
		unavailable *models.ErrStoreUnavailable
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "field": validation.Field})
	case errors.As(err, &span):
		c.JSON(http.StatusBadRequest, gin.H{"error": span.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &splitWrite):
		logger.Error("split booking write failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{
			"error":      "failed to store split booking",
			"firstId":    splitWrite.FirstID,
			"rolledBack": splitWrite.Compensation == nil,
		})
	case errors.As(err, &unavailable):
		logger.Warn("store unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage temporarily unavailable"})
	case errors.Is(err, bookings.ErrUploadsDisabled):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, logger *zap.Logger, err error) {
	logger.Debug("invalid request", zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// parseDate accepts a calendar date read in loc or an RFC 3339 timestamp.
func parseDate(field, value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, &models.ErrValidation{Field: field, Message: "must be set"}
	}
	if t, err := time.ParseInLocation(dateLayout, value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &models.ErrValidation{Field: field, Message: fmt.Sprintf("%q is not a date (YYYY-MM-DD or RFC 3339)", value)}
	}
	return t.In(loc), nil
}

func parseOptionalDate(field string, value *string, loc *time.Location) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := parseDate(field, *value, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// intParam parses an integer path or query value. Empty values yield 0.
func intParam(field, value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &models.ErrValidation{Field: field, Message: fmt.Sprintf("%q is not a number", value)}
	}
	return n, nil
}

// filterFromQuery reads ?year=&month=&apartmentId=.
func filterFromQuery(c *gin.Context) (repository.Filter, error) {
	year, err := intParam("year", c.Query("year"))
	if err != nil {
		return repository.Filter{}, err
	}
	month, err := intParam("month", c.Query("month"))
	if err != nil {
		return repository.Filter{}, err
	}
	if month < 0 || month > 12 {
		return repository.Filter{}, &models.ErrValidation{Field: "month", Message: "must be between 1 and 12"}
	}
	return repository.Filter{Year: year, Month: month, ApartmentID: c.Query("apartmentId")}, nil
}
