package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hostlens/calendar-api/internal/models"
	"github.com/hostlens/calendar-api/internal/service"
	appErrors "github.com/hostlens/calendar-api/pkg/errors"
	"github.com/hostlens/calendar-api/pkg/response"
)

type manualBlockService interface {
	Create(ctx context.Context, propertyID string, req service.CreateManualBlockRequest) (*models.ManualBlock, error)
	List(ctx context.Context, propertyID string) ([]models.ManualBlock, error)
	Delete(ctx context.Context, propertyID, id string) error
}

// ManualBlockHandler exposes host-declared block management.
type ManualBlockHandler struct {
	service manualBlockService
}

// NewManualBlockHandler constructs the handler.
func NewManualBlockHandler(service manualBlockService) *ManualBlockHandler {
	return &ManualBlockHandler{service: service}
}

// Create adds a manual block to a property.
func (h *ManualBlockHandler) Create(c *gin.Context) {
	propertyID := c.Param("propertyId")

	var req service.CreateManualBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid JSON payload"))
		return
	}

	block, err := h.service.Create(c.Request.Context(), propertyID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, block)
}

// List returns a property's manual blocks.
func (h *ManualBlockHandler) List(c *gin.Context) {
	blocks, err := h.service.List(c.Request.Context(), c.Param("propertyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blocks)
}

// Delete removes one manual block.
func (h *ManualBlockHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("propertyId"), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
