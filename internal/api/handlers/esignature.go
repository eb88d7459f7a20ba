package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/theunits/units/internal/api/middleware"
	"github.com/theunits/units/internal/core/lease"
)

type EsignatureHandler struct {
	leaseService *lease.Service
	logger       *slog.Logger
}

func NewEsignatureHandler(leaseService *lease.Service, logger *slog.Logger) *EsignatureHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EsignatureHandler{leaseService: leaseService, logger: logger}
}

// Request asks the provider to collect signatures for the lease in the path.
func (h *EsignatureHandler) Request(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	e, err := h.leaseService.RequestEsignature(c.Request.Context(), userID, id, body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, e)
}

// Execute executes the lease once the esignature in the path is fully
// signed by its residents.
func (h *EsignatureHandler) Execute(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.leaseService.Execute(c.Request.Context(), userID, id, body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Notify receives provider pushes. It is not authenticated with a user
// token; the router may put a signature check in front of it.
func (h *EsignatureHandler) Notify(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.leaseService.HandleNotification(c.Request.Context(), body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"status":             res.Esignature.Status,
		"execution_eligible": res.Eligible,
		"duplicate":          res.Duplicate,
	})
}
