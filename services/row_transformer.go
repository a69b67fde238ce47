package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kendall-kelly/order-analytics-api/models"
	"github.com/kendall-kelly/order-analytics-api/utils"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// RawRow is one upload row keyed by header name
type RawRow map[string]string

// OrderID returns the row's order id or "unknown" when blank
func (r RawRow) OrderID() string {
	if id := strings.TrimSpace(r["order_id"]); id != "" {
		return id
	}
	return "unknown"
}

// RowFailure describes one row that could not be transformed. RowNumber is
// the file line the row starts on; with the header on line 1 the first data
// row is 2.
type RowFailure struct {
	RowNumber    int    `json:"row_number"`
	OrderID      string `json:"order_id"`
	ErrorMessage string `json:"error_message"`
}

func (f RowFailure) String() string {
	return fmt.Sprintf("Row %d (order %s): %s", f.RowNumber, f.OrderID, f.ErrorMessage)
}

// MaxQuantity bounds a single order line's quantity
const MaxQuantity = math.MaxInt32

// maxAmount is the first value that no longer fits the decimal(12,2) money
// columns
var maxAmount = decimal.New(1, 10)

// RowTransformer turns validated raw rows into orders
type RowTransformer struct {
	addresses AddressResolver
	geo       GeoLookup
}

// NewRowTransformer creates a transformer over the given collaborators
func NewRowTransformer(addresses AddressResolver, geo GeoLookup) *RowTransformer {
	return &RowTransformer{addresses: addresses, geo: geo}
}

// Transform converts row into an order, or reports why it could not.
// Panics inside the transformation are converted into failures.
func (t *RowTransformer) Transform(row RawRow, rowNumber int) (order models.Order, failure *RowFailure) {
	defer func() {
		if rec := recover(); rec != nil {
			order = models.Order{}
			failure = &RowFailure{
				RowNumber:    rowNumber,
				OrderID:      row.OrderID(),
				ErrorMessage: fmt.Sprintf("unexpected error: %v", rec),
			}
		}
	}()

	order, err := t.transform(row)
	if err != nil {
		return models.Order{}, &RowFailure{
			RowNumber:    rowNumber,
			OrderID:      row.OrderID(),
			ErrorMessage: err.Error(),
		}
	}
	return order, nil
}

func (t *RowTransformer) transform(row RawRow) (models.Order, error) {
	addressLine := strings.TrimSpace(row["address_line"])
	address := t.addresses.Resolve(addressLine)

	var latitude, longitude *float64
	if coords, ok := t.geo.Lookup(address.PostalCode); ok {
		lat, lng := coords.Latitude, coords.Longitude
		latitude, longitude = &lat, &lng
	}

	orderDate, err := utils.ParseTimestamp(row["order_date"])
	if err != nil {
		return models.Order{}, fmt.Errorf("invalid order_date: %w", err)
	}

	quantity, err := parseQuantity(row["quantity"])
	if err != nil {
		return models.Order{}, err
	}

	unitPrice, err := parseUnitPrice(row["unit_price"])
	if err != nil {
		return models.Order{}, err
	}

	sku := strings.TrimSpace(row["item_sku"])
	if sku == "" {
		return models.Order{}, errors.New("item_sku is required")
	}

	total := unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	if total.GreaterThanOrEqual(maxAmount) {
		return models.Order{}, fmt.Errorf("order_total %s exceeds the maximum of %s", total, maxAmount)
	}

	// order_date is stored in UTC; OrderDay and Weekday keep the local day
	return models.Order{
		OrderID:      strings.TrimSpace(row["order_id"]),
		OrderDate:    orderDate.UTC(),
		CustomerName: strings.TrimSpace(row["customer_name"]),
		AddressLine:  addressLine,
		Street:       address.Street,
		City:         address.City,
		Region:       address.Region,
		PostalCode:   address.PostalCode,
		Latitude:     latitude,
		Longitude:    longitude,
		ItemSKU:      sku,
		ItemName:     strings.TrimSpace(row["item_name"]),
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		OrderTotal:   total,
		OrderDay:     calendarDay(orderDate),
		Weekday:      models.MondayBasedWeekday(orderDate),
	}, nil
}

// parseQuantity accepts whole numbers written as "3" or "3.0", up to
// MaxQuantity
func parseQuantity(raw string) (int, error) {
	value := strings.TrimSpace(raw)
	d, err := decimal.NewFromString(value)
	if err != nil || !d.IsInteger() || !d.IsPositive() {
		return 0, fmt.Errorf("quantity must be a positive integer, got %q", raw)
	}
	if d.GreaterThan(decimal.NewFromInt(MaxQuantity)) {
		return 0, fmt.Errorf("quantity %s exceeds the maximum of %d", value, MaxQuantity)
	}
	return int(d.IntPart()), nil
}

func parseUnitPrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("unit_price must be a decimal number, got %q", raw)
	}
	price = price.Round(2)
	if !price.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("unit_price must be greater than zero, got %q", raw)
	}
	if price.GreaterThanOrEqual(maxAmount) {
		return decimal.Decimal{}, fmt.Errorf("unit_price %s exceeds the maximum of %s", price, maxAmount)
	}
	return price, nil
}

// calendarDay keeps the order's own offset, so a late evening order with a
// negative offset stays on its local day
func calendarDay(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, t.Location()))
}
