package testutil

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/kendall-kelly/order-analytics-api/services"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// NewTestStore opens a private in-memory SQLite order store named after the
// test. The database is closed when the test ends.
func NewTestStore(t *testing.T) *services.OrderStore {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := services.NewOrderStore(db, zap.NewNop())
	if err := store.AutoMigrate(); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return store
}

// NewTestTransformer builds a row transformer over the bundled gazetteer
func NewTestTransformer() *services.RowTransformer {
	return services.NewRowTransformer(services.NewCompositeAddressResolver(zap.NewNop()), services.NewStaticGazetteer())
}
