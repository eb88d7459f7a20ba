package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/theunits/units/internal/api/middleware"
	"github.com/theunits/units/internal/core/lease"
	"github.com/theunits/units/internal/core/query"
)

type LeaseHandler struct {
	leaseService *lease.Service
	logger       *slog.Logger
}

func NewLeaseHandler(leaseService *lease.Service, logger *slog.Logger) *LeaseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaseHandler{leaseService: leaseService, logger: logger}
}

// List pages through the caller's leases. Every query parameter other than
// page, page_size, order_by and order_dir is a field filter.
func (h *LeaseHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	resp, err := h.leaseService.List(c.Request.Context(), userID, query.ParamsFromValues(c.Request.URL.Query()))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *LeaseHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	l, err := h.leaseService.Create(c.Request.Context(), userID, body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, l)
}

func (h *LeaseHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	l, err := h.leaseService.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, l)
}

// AttachProviderLease stores the provider's id for a lease created there.
func (h *LeaseHandler) AttachProviderLease(c *gin.Context) {
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

	l, err := h.leaseService.AttachProviderLease(c.Request.Context(), userID, id, body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, l)
}

func (h *LeaseHandler) LeaseForms(c *gin.Context) {
	forms, err := h.leaseService.LeaseForms(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, forms)
}
