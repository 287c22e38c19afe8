// Package repo implements the data persistence layer for the alert store,
// backed by GORM over pure-Go SQLite. This file contains database
// bootstrapping: PRAGMAs, schema migration, and the FTS5 shadow index that
// mirrors the notifications fact table.
package repo

import (
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/slotwatch/go-alert-backend/internal/domain"
)

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")
	db.Exec("PRAGMA cache_size=10000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or upgrades the dimension tables, the notifications
// fact table, and the idempotency store, then ensures the FTS5 shadow index
// exists. Dimension tables go first so the fact table's foreign keys resolve.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Sender{},
		&domain.Group{},
		&domain.Keyword{},
		&domain.Country{},
		&domain.Center{},
		&domain.Notification{},
		&domain.Idempotency{},
	); err != nil {
		return err
	}
	return InitSearchIndex(db)
}
