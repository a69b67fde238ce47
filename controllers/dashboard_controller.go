package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/order-analytics-api/services"
	"go.uber.org/zap"
)

// maxTopProducts bounds the top_n query parameter
const maxTopProducts = 100

// DashboardController serves the aggregated dashboard
type DashboardController struct {
	analytics *services.AnalyticsService
	now       func() time.Time
	logger    *zap.Logger
}

// NewDashboardController creates a dashboard controller
func NewDashboardController(analytics *services.AnalyticsService, logger *zap.Logger) *DashboardController {
	return &DashboardController{
		analytics: analytics,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.Named("dashboard"),
	}
}

// GetDashboard handles GET /api/v1/metrics/dashboard
func (dc *DashboardController) GetDashboard(c *gin.Context) {
	window, err := dc.parseWindow(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	topN, err := parseIntParam(c, "top_n", services.DefaultTopProducts, 1, maxTopProducts)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	metrics, err := dc.analytics.Dashboard(c.Request.Context(), window, topN)
	if err != nil {
		dc.logger.Error("failed to compute dashboard", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "ANALYTICS_ERROR", "Failed to compute dashboard metrics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    metrics,
	})
}

// parseWindow resolves the query window. Missing bounds default to the
// last DefaultWindowDays days ending now.
func (dc *DashboardController) parseWindow(c *gin.Context) (services.Window, error) {
	start, err := parseDateParam(c, "start_date", false)
	if err != nil {
		return services.Window{}, err
	}
	end, err := parseDateParam(c, "end_date", true)
	if err != nil {
		return services.Window{}, err
	}

	window := services.DefaultWindow(dc.now())
	switch {
	case start != nil && end != nil:
		window = services.Window{Start: *start, End: *end}
	case start != nil:
		window.Start = *start
	case end != nil:
		window = services.Window{Start: end.AddDate(0, 0, -services.DefaultWindowDays), End: *end}
	}

	if window.Start.After(window.End) {
		return services.Window{}, errStartAfterEnd
	}
	return window, nil
}
