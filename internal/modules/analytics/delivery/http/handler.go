package handler

import (
	"net/http"

	analyticsDto "fedlearn.dev/dashboard/internal/modules/analytics/dto"
	analyticsService "fedlearn.dev/dashboard/internal/modules/analytics/service"
	"fedlearn.dev/dashboard/pkg/response"
	"fedlearn.dev/dashboard/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analyticsService analyticsService.AnalyticsService
}

func NewAnalyticsHandler(analyticsService analyticsService.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	admin, _ := response.GetUser(c)

	var query analyticsDto.AnalyticsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.analyticsService.Dashboard(c.Request.Context(), admin, query)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to load analytics")
		return
	}
	c.JSON(http.StatusOK, res)
}
