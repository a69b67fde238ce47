package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kendall-kelly/order-analytics-api/utils"
)

// RequiredColumns is the column contract every upload must satisfy
var RequiredColumns = []string{
	"order_id",
	"order_date",
	"customer_name",
	"address_line",
	"item_sku",
	"item_name",
	"quantity",
	"unit_price",
}

// columnAliases maps legacy export headers onto their canonical names
var columnAliases = map[string]string{
	"unit_price_usd": "unit_price",
}

// NormalizeHeaders renames known header aliases in place
func NormalizeHeaders(table *utils.Table) {
	for alias, canonical := range columnAliases {
		table.RenameColumn(alias, canonical)
	}
}

// SchemaValidator checks an upload at dataset level before any row is
// transformed. It does not identify which row is defective.
type SchemaValidator struct{}

// Validate returns the dataset errors for table; an empty result means the
// upload may proceed. A missing column short-circuits the other checks.
func (SchemaValidator) Validate(table utils.Table) []string {
	var missing []string
	for _, column := range RequiredColumns {
		if !table.HasColumn(column) {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return []string{fmt.Sprintf("Missing required columns: %s", strings.Join(missing, ", "))}
	}

	var errs []string
	for _, column := range []string{"quantity", "unit_price"} {
		if !columnAll(table, column, isNumeric) {
			errs = append(errs, fmt.Sprintf("Invalid %s values found", column))
		}
	}

	if !columnAll(table, "order_date", isBlankOrTimestamp) {
		errs = append(errs, "Invalid date format in order_date column")
	}

	return errs
}

func columnAll(table utils.Table, column string, check func(string) bool) bool {
	idx := table.Column(column)
	for _, row := range table.Rows {
		if !check(row[idx]) {
			return false
		}
	}
	return true
}

func isNumeric(value string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	return err == nil
}

// Blank dates are dropped by the pre-filter, so only non-blank values must parse
func isBlankOrTimestamp(value string) bool {
	if strings.TrimSpace(value) == "" {
		return true
	}
	_, err := utils.ParseTimestamp(value)
	return err == nil
}
