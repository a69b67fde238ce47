package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConnectDatabaseWithSQLite(t *testing.T) {
	cfg := &Config{DatabaseDriver: DriverSQLite, DatabaseURL: ":memory:"}

	db, err := ConnectDatabase(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.NoError(t, sqlDB.Ping(), "in-memory database should be reachable")
}

func TestConnectDatabaseUnsupportedDriver(t *testing.T) {
	cfg := &Config{DatabaseDriver: "oracle", DatabaseURL: "whatever"}

	db, err := ConnectDatabase(cfg, zap.NewNop())
	assert.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestDialectorFor(t *testing.T) {
	tests := []struct {
		name     string
		driver   string
		url      string
		wantName string
	}{
		{"postgres", DriverPostgres, "postgresql://localhost/orders", "postgres"},
		{"mysql", DriverMySQL, "user:pass@tcp(localhost:3306)/orders", "mysql"},
		{"sqlite with path", DriverSQLite, ":memory:", "sqlite"},
		{"sqlite default path", DriverSQLite, "", "sqlite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialector, err := dialectorFor(&Config{DatabaseDriver: tt.driver, DatabaseURL: tt.url})
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, dialector.Name())
		})
	}
}
