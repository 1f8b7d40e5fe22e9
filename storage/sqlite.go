// Package storage keeps a local history of summary runs in SQLite.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/package-register/note-summarizer/logger"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

type SQLiteConfig struct {
	Path   string
	Logger *log.Logger
	// LogQueries logs every statement at debug level.
	LogQueries bool
}

func NewSQLite(cfg SQLiteConfig) (*gorm.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("storage: empty database path")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.With("storage")
	}
	if cfg.Path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("storage: create directory: %w", err)
		}
	}

	level := gormLogger.Warn
	if cfg.LogQueries {
		level = gormLogger.Info
	}
	loggerConfig := gormLogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		IgnoreRecordNotFoundError: true,
		LogLevel:                  level,
	}

	gormLog := gormLogger.New(newGormLogger(cfg.Logger), loggerConfig)

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", cfg.Path, err)
	}

	// A single connection keeps in-memory databases shared and serializes writers.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}
