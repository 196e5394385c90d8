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

type feedService interface {
	Create(ctx context.Context, propertyID string, req service.CreateFeedRequest) (*models.FeedSubscription, error)
	List(ctx context.Context, propertyID string) ([]models.FeedSubscription, error)
	Delete(ctx context.Context, id string) error
}

// FeedHandler exposes feed subscription management.
type FeedHandler struct {
	service feedService
}

// NewFeedHandler constructs the handler.
func NewFeedHandler(service feedService) *FeedHandler {
	return &FeedHandler{service: service}
}

// Create registers a feed subscription.
func (h *FeedHandler) Create(c *gin.Context) {
	propertyID := c.Param("propertyId")

	var req service.CreateFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid JSON payload"))
		return
	}

	feed, err := h.service.Create(c.Request.Context(), propertyID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, feed)
}

// List returns a property's feed subscriptions.
func (h *FeedHandler) List(c *gin.Context) {
	feeds, err := h.service.List(c.Request.Context(), c.Param("propertyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, feeds)
}

// Delete removes a feed subscription and its synced periods.
func (h *FeedHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
