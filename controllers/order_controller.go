package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/order-analytics-api/services"
	"go.uber.org/zap"
)

// OrderController serves the stored orders
type OrderController struct {
	store  *services.OrderStore
	logger *zap.Logger
}

// NewOrderController creates an order controller
func NewOrderController(store *services.OrderStore, logger *zap.Logger) *OrderController {
	return &OrderController{store: store, logger: logger.Named("orders")}
}

// ListOrders handles GET /api/v1/orders - filtered, paginated order listing
func (oc *OrderController) ListOrders(c *gin.Context) {
	q, err := parseOrderFilters(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	limit, err := parseIntParam(c, "limit", services.DefaultOrderLimit, 1, services.MaxOrderLimit)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	offset, err := parseIntParam(c, "offset", 0, 0, int(^uint32(0)>>1))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	q.Page(limit, offset)

	listing, err := oc.store.List(c.Request.Context(), q)
	if err != nil {
		oc.logger.Error("failed to list orders", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"orders":         listing.Orders,
		"total_count":    listing.TotalCount,
		"filtered_count": listing.FilteredCount,
	})
}
