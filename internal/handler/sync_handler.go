package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hostlens/calendar-api/internal/models"
	"github.com/hostlens/calendar-api/pkg/response"
)

type syncService interface {
	SyncFeed(ctx context.Context, feedID string) (*models.SyncResult, error)
	SweepAll(ctx context.Context) (int, error)
}

// SyncHandler exposes manual sync triggers; the same service methods are
// driven by the cron sweep.
type SyncHandler struct {
	service syncService
}

// NewSyncHandler constructs the handler.
func NewSyncHandler(service syncService) *SyncHandler {
	return &SyncHandler{service: service}
}

// SyncFeed runs one feed's sync immediately.
func (h *SyncHandler) SyncFeed(c *gin.Context) {
	result, err := h.service.SyncFeed(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Sweep enqueues a sync for every enabled feed.
func (h *SyncHandler) Sweep(c *gin.Context) {
	enqueued, err := h.service.SweepAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"enqueued": enqueued})
}
