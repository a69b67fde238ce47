package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Order is one normalized, geo-enriched order line persisted after ingestion
type Order struct {
	OrderID      string          `gorm:"primaryKey;size:64" json:"order_id"`
	OrderDate    time.Time       `gorm:"not null;index:idx_orders_order_date" json:"order_date"`
	CustomerName string          `gorm:"not null" json:"customer_name"`
	AddressLine  string          `gorm:"not null" json:"address_line"`
	Street       string          `json:"street"`
	City         string          `json:"city"`
	Region       string          `gorm:"index:idx_orders_region" json:"region"`
	PostalCode   string          `gorm:"index:idx_orders_postal_code" json:"postal_code"`
	Latitude     *float64        `json:"latitude"`  // nullable, unknown postal code
	Longitude    *float64        `json:"longitude"` // nullable, unknown postal code
	ItemSKU      string          `gorm:"column:item_sku;not null;index:idx_orders_item_sku" json:"item_sku"`
	ItemName     string          `gorm:"not null" json:"item_name"`
	Quantity     int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	OrderTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"order_total"`
	OrderDay     datatypes.Date  `gorm:"not null" json:"order_day"`
	Weekday      int             `gorm:"not null" json:"weekday"` // 0=Monday ... 6=Sunday
	UploadID     string          `gorm:"size:36;index" json:"upload_id"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderColumns is the explicit column order used for bulk inserts, so the
// insert never depends on struct field order drifting from the table.
var OrderColumns = []string{
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
	"upload_id",
	"created_at",
}

// Day returns the calendar day of the order at midnight in the order's own
// offset. Orders built outside ingestion fall back to order_date.
func (o Order) Day() time.Time {
	if day := time.Time(o.OrderDay); !day.IsZero() {
		return day
	}
	y, m, d := o.OrderDate.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, o.OrderDate.Location())
}

// MondayBasedWeekday converts Go's Sunday=0 weekday to Monday=0 indexing
func MondayBasedWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
