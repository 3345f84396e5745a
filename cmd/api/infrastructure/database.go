package infrastructure

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/config"
	"github.com/AmirHosein-Gharaati/learnstreamapi/pkg/logger"
)

// Dialector returns the GORM dialector for the configured SQL driver.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.App.StorageDriver {
	case config.StorageSQLite:
		return sqlite.Open(cfg.DB.SQLitePath), nil
	case config.StoragePostgres:
		return pgdriver.Open(cfg.DB.DSN()), nil
	default:
		return nil, fmt.Errorf("storage driver %q has no SQL database", cfg.App.StorageDriver)
	}
}

// NewDatabase creates a new database connection with GORM configuration
func NewDatabase(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	gormLogger := logger.NewGormLoggerWithConfig(l, cfg.Logger.SlowQuerySeconds, cfg.Logger.Level)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpen := cfg.DB.MaxOpenConns
	if cfg.App.StorageDriver == config.StorageSQLite {
		// SQLite serialises writers; one connection also keeps :memory: databases shared
		maxOpen = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DB.ConnMaxLifetime) * time.Second)

	l.Info("database connected successfully",
		zap.String("driver", cfg.App.StorageDriver),
		zap.Int("max_open_conns", maxOpen),
		zap.Int("max_idle_conns", cfg.DB.MaxIdleConns),
		zap.Int("conn_max_lifetime_seconds", cfg.DB.ConnMaxLifetime),
	)

	return db, nil
}

// CloseDatabase closes the database connection
func CloseDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
