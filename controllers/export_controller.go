package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/order-analytics-api/services"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportController renders stored orders as downloadable files
type ExportController struct {
	store  *services.OrderStore
	logger *zap.Logger
}

// NewExportController creates an export controller
func NewExportController(store *services.OrderStore, logger *zap.Logger) *ExportController {
	return &ExportController{store: store, logger: logger.Named("export")}
}

// ExportExcel handles GET /api/v1/export/excel. It accepts the same filters
// as the order listing but always returns every matching order.
func (ec *ExportController) ExportExcel(c *gin.Context) {
	q, err := parseOrderFilters(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	orders, err := ec.store.Scan(c.Request.Context(), q)
	if err != nil {
		ec.logger.Error("failed to load orders for export", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve orders")
		return
	}

	workbook, err := services.BuildOrderWorkbook(orders)
	if err != nil {
		ec.logger.Error("failed to build workbook", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to build export")
		return
	}
	defer workbook.Close()

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		ec.logger.Error("failed to serialize workbook", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to build export")
		return
	}

	fileName := fmt.Sprintf("orders_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
