package controllers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/order-analytics-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func setupExportRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	store := setupTestStore(t)
	seedSampleOrders(t, store)

	router := gin.New()
	router.GET("/export/excel", NewExportController(store, zap.NewNop()).ExportExcel)
	return router
}

func readExportRows(t *testing.T, w *httptest.ResponseRecorder) [][]string {
	t.Helper()

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=\"orders_")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(services.ExportSheetName)
	require.NoError(t, err)
	return rows
}

func TestExportExcel(t *testing.T) {
	router := setupExportRouter(t)

	rows := readExportRows(t, performRequest(router, httptest.NewRequest(http.MethodGet, "/export/excel", nil)))

	require.Len(t, rows, 4)
	assert.Equal(t, services.ExportColumns, rows[0])
	assert.Equal(t, "ORD-3", rows[1][0])
	assert.Equal(t, "ORD-1", rows[3][0])
}

func TestExportExcel_Filters(t *testing.T) {
	router := setupExportRouter(t)

	rows := readExportRows(t, performRequest(router, httptest.NewRequest(http.MethodGet, "/export/excel?region=NY", nil)))

	require.Len(t, rows, 2)
	assert.Equal(t, "ORD-2", rows[1][0])
	assert.Equal(t, "New York", rows[1][5])
	assert.Equal(t, "10001", rows[1][7])
}

func TestExportExcel_NoMatchesKeepsHeader(t *testing.T) {
	router := setupExportRouter(t)

	rows := readExportRows(t, performRequest(router, httptest.NewRequest(http.MethodGet, "/export/excel?item_sku=NOPE", nil)))

	require.Len(t, rows, 1)
	assert.Equal(t, services.ExportColumns, rows[0])
}

func TestExportExcel_InvalidFilter(t *testing.T) {
	router := setupExportRouter(t)

	w := performRequest(router, httptest.NewRequest(http.MethodGet, "/export/excel?max_total=lots", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, decodeBody(t, w)))
}
