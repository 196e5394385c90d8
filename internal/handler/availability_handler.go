package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hostlens/calendar-api/internal/models"
	appErrors "github.com/hostlens/calendar-api/pkg/errors"
	"github.com/hostlens/calendar-api/pkg/response"
)

type availabilityService interface {
	IsDateBlocked(ctx context.Context, propertyID string, day models.CalendarDay) (bool, error)
	GetAvailablePeriods(ctx context.Context, propertyID string, horizonMonths int) ([]models.AvailablePeriod, error)
}

// AvailabilityHandler exposes the availability query endpoints.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// GetAvailablePeriods returns the open day-ranges of a property within the
// requested horizon.
func (h *AvailabilityHandler) GetAvailablePeriods(c *gin.Context) {
	propertyID := c.Param("propertyId")

	horizonMonths := 0
	if raw := c.Query("horizon_months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "horizon_months must be a non-negative integer"))
			return
		}
		horizonMonths = parsed
	}

	periods, err := h.service.GetAvailablePeriods(c.Request.Context(), propertyID, horizonMonths)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods)
}

// CheckDate reports whether one date is blocked.
func (h *AvailabilityHandler) CheckDate(c *gin.Context) {
	propertyID := c.Param("propertyId")

	day, err := models.ParseDay(c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD"))
		return
	}

	blocked, err := h.service.IsDateBlocked(c.Request.Context(), propertyID, day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"date": day, "blocked": blocked})
}
