package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/order-analytics-api/services"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// sampleOrdersCSV has three valid orders across two days and two regions
const sampleOrdersCSV = `order_id,order_date,customer_name,address_line,item_sku,item_name,quantity,unit_price
ORD-1,2024-01-15T10:00:00Z,Alice Smith,"100 N State St, Chicago, IL 60601",SKU-A,Widget,2,10.00
ORD-2,2024-01-15T12:30:00Z,Bob Jones,"350 5th Ave, New York, NY 10001",SKU-B,Gadget,1,25.50
ORD-3,2024-01-16T09:00:00Z,Carol White,"233 S Wacker Dr, Chicago, IL 60606",SKU-A,Widget,3,10.00
`

func setupTestStore(t *testing.T) *services.OrderStore {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := services.NewOrderStore(db, zap.NewNop())
	require.NoError(t, store.AutoMigrate())
	return store
}

func newTestProcessor(store *services.OrderStore, opts ...services.ProcessorOption) *services.OrderProcessor {
	transformer := services.NewRowTransformer(
		services.NewCompositeAddressResolver(zap.NewNop()),
		services.NewStaticGazetteer(),
	)
	return services.NewOrderProcessor(store, transformer, zap.NewNop(), opts...)
}

func seedSampleOrders(t *testing.T, store *services.OrderStore) {
	t.Helper()

	outcome := newTestProcessor(store).Process(context.Background(), services.Upload{
		FileName: "orders.csv",
		Data:     []byte(sampleOrdersCSV),
	})
	require.True(t, outcome.Success, "seeding failed: %v", outcome.Errors)
	require.Equal(t, 3, outcome.RowsProcessed)
}

// newMultipartRequest builds a POST carrying content in the "file" field
func newMultipartRequest(t *testing.T, url, fileName string, content []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, writer.WriteField("note", "no file"))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, url, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "body: %s", w.Body.String())
	return response
}

func errorCode(t *testing.T, response map[string]interface{}) string {
	t.Helper()

	errObj, ok := response["error"].(map[string]interface{})
	require.True(t, ok, "response has no error object: %v", response)
	return errObj["code"].(string)
}
