package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pedbook/internal/config"
	"pedbook/internal/model"
)

// Open connects to the database selected by cfg.DBDriver.
func Open(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "mysql":
		return NewMySQL(cfg.MySQLDSN)
	case "sqlite":
		return NewSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// gormConfig logs slow queries and errors to w. Missing rows are an expected
// outcome of lookups and are not logged.
func gormConfig(w logger.Writer) *gorm.Config {
	gormLogger := logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
	return &gorm.Config{TranslateError: true, Logger: gormLogger}
}

func defaultLogWriter() logger.Writer {
	return log.New(os.Stdout, "\r\n", log.LstdFlags)
}

// NewMySQL returns a connected GORM DB instance.
func NewMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), gormConfig(defaultLogWriter()))
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return db, nil
}

// NewSQLite opens (or creates) a SQLite database file. ":memory:" gives a private in-memory database.
func NewSQLite(path string) (*gorm.DB, error) {
	return openSQLite(path, defaultLogWriter())
}

func openSQLite(path string, w logger.Writer) (*gorm.DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
	}
	db, err := gorm.Open(sqlite.Open(path), gormConfig(w))
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	// The pragma is per connection; the pool above holds exactly one.
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Reset drops all tables, children first.
func Reset(db *gorm.DB) {
	tables := model.All()
	for i := len(tables) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(tables[i]); err != nil {
			log.Printf("Warning: Failed to drop table (may not exist): %v", err)
		}
	}
	log.Println("Tables dropped")
}

// Ping checks that the database answers.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
