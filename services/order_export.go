package services

import (
	"fmt"
	"time"

	"github.com/kendall-kelly/order-analytics-api/models"
	"github.com/xuri/excelize/v2"
)

// ExportSheetName is the worksheet holding exported orders
const ExportSheetName = "Orders"

// ExportColumns is the header row of an order export
var ExportColumns = []string{
	"order_id",
	"order_date",
	"customer_name",
	"address_line",
	"street",
	"city",
	"region",
	"postal_code",
	"latitude",
	"longitude",
	"item_sku",
	"item_name",
	"quantity",
	"unit_price",
	"order_total",
	"order_day",
	"weekday",
}

// BuildOrderWorkbook renders orders into a single-sheet workbook with a
// bold header row. The caller closes the returned file.
func BuildOrderWorkbook(orders []models.Order) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ExportSheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(ExportSheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open sheet writer: %w", err)
	}

	header := make([]interface{}, len(ExportColumns))
	for i, name := range ExportColumns {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: name}
	}
	if err := sw.SetRow("A1", header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, o := range orders {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, exportRow(o)); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write order %s: %w", o.OrderID, err)
		}
	}

	if err := sw.Flush(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to flush sheet: %w", err)
	}
	return f, nil
}

func exportRow(o models.Order) []interface{} {
	return []interface{}{
		o.OrderID,
		o.OrderDate.Format(time.RFC3339),
		o.CustomerName,
		o.AddressLine,
		o.Street,
		o.City,
		o.Region,
		o.PostalCode,
		optionalFloat(o.Latitude),
		optionalFloat(o.Longitude),
		o.ItemSKU,
		o.ItemName,
		o.Quantity,
		o.UnitPrice.InexactFloat64(),
		o.OrderTotal.InexactFloat64(),
		o.Day().Format(dayLayout),
		o.Weekday,
	}
}

// optionalFloat leaves the cell empty for a missing coordinate
func optionalFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
