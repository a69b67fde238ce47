package services

import (
	"testing"

	"github.com/kendall-kelly/order-analytics-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOrderWorkbook(t *testing.T) {
	orders := []models.Order{
		withCoords(testOrder("ORD-1", jan(15, 10), "IL", "SKU-A", 2, "10.00"), 41.88, -87.63),
		testOrder("ORD-2", jan(15, 12), "NY", "SKU-B", 1, "25.50"),
	}

	f, err := BuildOrderWorkbook(orders)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ExportSheetName}, f.GetSheetList())

	rows, err := f.GetRows(ExportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ExportColumns, rows[0])

	first := rows[1]
	assert.Equal(t, "ORD-1", first[0])
	assert.Equal(t, "2024-01-15T10:00:00Z", first[1])
	assert.Equal(t, "41.88", first[8])
	assert.Equal(t, "-87.63", first[9])
	assert.Equal(t, "2", first[12])
	assert.Equal(t, "10", first[13])
	assert.Equal(t, "20", first[14])
	assert.Equal(t, "2024-01-15", first[15])
	assert.Equal(t, "0", first[16])

	second := rows[2]
	assert.Equal(t, "ORD-2", second[0])
	assert.Equal(t, "", second[8], "unknown coordinates are empty cells")
	assert.Equal(t, "", second[9])
	assert.Equal(t, "25.5", second[13])

	styleID, err := f.GetCellStyle(ExportSheetName, "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
}

func TestBuildOrderWorkbook_NoOrders(t *testing.T) {
	f, err := BuildOrderWorkbook(nil)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ExportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ExportColumns, rows[0])
}
