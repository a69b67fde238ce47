package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kendall-kelly/order-analytics-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestStore(t *testing.T) *OrderStore {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := NewOrderStore(db, zap.NewNop())
	require.NoError(t, store.AutoMigrate())
	return store
}

// testOrder builds an order the way ingestion would, in UTC
func testOrder(id string, at time.Time, region, sku string, quantity int, unitPrice string) models.Order {
	price := decimal.RequireFromString(unitPrice)
	return models.Order{
		OrderID:      id,
		OrderDate:    at,
		CustomerName: "Customer " + id,
		AddressLine:  "1 Main St",
		Region:       region,
		ItemSKU:      sku,
		ItemName:     "Item " + sku,
		Quantity:     quantity,
		UnitPrice:    price,
		OrderTotal:   price.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
		OrderDay:     calendarDay(at),
		Weekday:      models.MondayBasedWeekday(at),
	}
}

func jan(d, hour int) time.Time {
	return time.Date(2024, 1, d, hour, 0, 0, 0, time.UTC)
}

func succeededUpload(id string, finished time.Time) *models.UploadRecord {
	return &models.UploadRecord{
		ID:         id,
		FileName:   id + ".csv",
		Status:     models.UploadSucceeded,
		StartedAt:  finished.Add(-time.Second),
		FinishedAt: finished,
	}
}

const testOrdersCSV = `order_id,order_date,customer_name,address_line,item_sku,item_name,quantity,unit_price
ORD-1,2024-01-15T10:00:00Z,Alice Smith,"100 N State St, Chicago, IL 60601",SKU-A,Widget,2,10.00
ORD-2,2024-01-15T12:30:00Z,Bob Jones,"350 5th Ave, New York, NY 10001",SKU-B,Gadget,1,25.50
ORD-3,2024-01-16T09:00:00Z,Carol White,"233 S Wacker Dr, Chicago, IL 60606",SKU-A,Widget,3,10.00
`
