package services

import (
	"testing"

	"github.com/kendall-kelly/order-analytics-api/utils"
	"github.com/stretchr/testify/assert"
)

func validTable(rows ...[]string) utils.Table {
	return utils.Table{Headers: append([]string(nil), RequiredColumns...), Rows: rows}
}

func TestSchemaValidator_Validate(t *testing.T) {
	validator := SchemaValidator{}

	tests := []struct {
		name     string
		table    utils.Table
		expected []string
	}{
		{
			name: "Valid table",
			table: validTable(
				[]string{"1", "2024-01-15", "Ann", "1 Main St", "SKU", "Mug", "2", "9.99"},
			),
			expected: nil,
		},
		{
			name:     "Missing columns are listed in contract order",
			table:    utils.Table{Headers: []string{"order_id", "customer_name", "quantity"}},
			expected: []string{"Missing required columns: order_date, address_line, item_sku, item_name, unit_price"},
		},
		{
			name: "Non numeric quantity",
			table: validTable(
				[]string{"1", "2024-01-15", "Ann", "1 Main St", "SKU", "Mug", "two", "9.99"},
			),
			expected: []string{"Invalid quantity values found"},
		},
		{
			name: "Every dataset error is reported",
			table: validTable(
				[]string{"1", "someday", "Ann", "1 Main St", "SKU", "Mug", "", "free"},
			),
			expected: []string{
				"Invalid quantity values found",
				"Invalid unit_price values found",
				"Invalid date format in order_date column",
			},
		},
		{
			name: "Blank dates pass dataset validation",
			table: validTable(
				[]string{"1", "", "Ann", "1 Main St", "SKU", "Mug", "1", "1"},
			),
			expected: nil,
		},
		{
			name: "Zero and negative numbers are still numeric",
			table: validTable(
				[]string{"1", "2024-01-15", "Ann", "1 Main St", "SKU", "Mug", "0", "-1"},
			),
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, validator.Validate(tt.table))
		})
	}
}

func TestNormalizeHeaders(t *testing.T) {
	table := utils.Table{
		Headers: []string{"order_id", "unit_price_usd"},
		Rows:    [][]string{{"1", "9.99"}},
	}

	NormalizeHeaders(&table)

	assert.Equal(t, []string{"order_id", "unit_price"}, table.Headers)
	assert.Equal(t, "9.99", table.Record(0)["unit_price"])
}
