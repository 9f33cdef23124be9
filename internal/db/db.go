package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ruralsite/internal/config"
	"ruralsite/internal/models"
	console "ruralsite/internal/utils/logger"
)

var log = console.New("DB")

// Supported values of DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

const connectAttempts = 5

var retryDelay = 2 * time.Second

// Dialector picks the gorm driver for cfg.Driver.
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverPostgres, "":
		return postgres.Open(cfg.URL), nil
	case DriverMySQL:
		return mysql.Open(cfg.URL), nil
	case DriverSQLite:
		return sqlite.Open(cfg.URL), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// Connect opens the pool, pings it within ConnectTimeout and retries a few
// times before giving up. The caller owns the returned handle and must Close it.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	logMode := logger.Silent
	if cfg.Debug {
		logMode = logger.Info
	}

	log.Info("Connecting to %s database...", dialector.Name())
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		conn, err := open(ctx, dialector, cfg, logMode)
		if err == nil {
			log.Success("Connected to database")
			return conn, nil
		}
		lastErr = err
		log.Warn("Failed to connect to database (attempt %d/%d): %v", attempt, connectAttempts, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, log.Error("Failed to connect to database after %d attempts", lastErr, connectAttempts)
}

func open(ctx context.Context, dialector gorm.Dialector, cfg config.DatabaseConfig, logMode logger.LogLevel) (*gorm.DB, error) {
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logMode),
		DisableForeignKeyConstraintWhenMigrating: true,
		AllowGlobalUpdate:                        false,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return conn, nil
}

// Migrate creates or updates every table in models.AllModels.
func Migrate(conn *gorm.DB) error {
	log.Info("Running migrations...")
	if err := conn.AutoMigrate(models.AllModels()...); err != nil {
		return log.Error("Failed to run migrations", err)
	}
	log.Success("Migrations completed")
	return nil
}

// Close releases the pool behind conn.
func Close(conn *gorm.DB) error {
	if conn == nil {
		return nil
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Pinger returns a health check for conn.
func Pinger(conn *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return sqlDB.PingContext(ctx)
	}
}
