package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/theunits/units/internal/api/middleware"
	"github.com/theunits/units/internal/core/lease"
	"github.com/theunits/units/internal/core/validation"
	"github.com/theunits/units/internal/provider/bluemoon"
)

// respondError maps service errors onto HTTP responses. Anything it does not
// recognise is logged and reported as a 500.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var rejected *lease.RejectedError

	switch {
	case validation.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": validation.GetValidationErrors(err)})
	case errors.Is(err, lease.ErrInvalidNotification):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, lease.ErrNotFound), errors.Is(err, lease.ErrEsignatureNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, lease.ErrNotSigned), errors.Is(err, lease.ErrProviderLeaseMissing):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &rejected):
		if len(rejected.Response) == 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": rejected.Error()})
			return
		}
		c.Data(http.StatusUnprocessableEntity, "application/json; charset=utf-8", rejected.Response)
	case errors.Is(err, bluemoon.ErrUnavailable), errors.Is(err, lease.ErrNoLeaseForms):
		logger.WarnContext(c.Request.Context(), "provider call failed", "request_id", middleware.GetRequestID(c), "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Unable to retrieve api data."})
	default:
		logger.ErrorContext(c.Request.Context(), "request failed", "request_id", middleware.GetRequestID(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
