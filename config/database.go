package config

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// defaultSQLitePath is used when DB_DRIVER=sqlite and DATABASE_URL is empty
const defaultSQLitePath = "order_analytics.db"

// ConnectDatabase opens a connection for the configured driver.
// The handle is returned to the caller; nothing is kept in package state.
func ConnectDatabase(cfg *Config, logger *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(logger, DefaultGormLoggerConfig()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("database connection established", zap.String("driver", cfg.DatabaseDriver))
	return db, nil
}

func dialectorFor(cfg *Config) (gorm.Dialector, error) {
	switch cfg.DatabaseDriver {
	case DriverPostgres:
		return postgres.Open(cfg.DatabaseURL), nil
	case DriverMySQL:
		return mysql.Open(cfg.DatabaseURL), nil
	case DriverSQLite:
		path := cfg.DatabaseURL
		if path == "" {
			path = defaultSQLitePath
		}
		return sqlite.Open(path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}
