// Package repo implements the data persistence layer for the alert store,
// backed by GORM. This file maintains the FTS5 full-text shadow index that
// mirrors the notifications fact table one-to-one: a shadow row exists if and
// only if its notification exists.
package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/slotwatch/go-alert-backend/internal/domain"
)

// InitSearchIndex creates the FTS5 virtual table when it does not exist yet.
// The table is an external-content index over notifications(message), keyed
// by the fact rowid.
func InitSearchIndex(db *gorm.DB) error {
	return db.Exec(`
CREATE VIRTUAL TABLE IF NOT EXISTS notifications_fts USING fts5(
    message,
    content='notifications',
    content_rowid='id'
)`).Error
}

// IndexNotification writes the shadow row for a persisted notification.
// Callers must only invoke this after the fact insert succeeded, keeping the
// 1:1 invariant; it is never attempted independently.
func IndexNotification(ctx context.Context, db *gorm.DB, id uint, message string) error {
	return db.WithContext(ctx).
		Exec("INSERT INTO notifications_fts (rowid, message) VALUES (?, ?)", id, message).Error
}

// SearchNotifications returns denormalized rows whose message matches the
// full-text query, most recent first. The user query is wrapped in a quoted
// FTS5 string so raw input cannot inject match-syntax operators.
func SearchNotifications(ctx context.Context, db *gorm.DB, query string, limit int) ([]domain.NotificationView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.NotificationView{}, nil
	}
	if limit <= 0 {
		limit = 100
	}
	quoted := `"` + strings.ReplaceAll(query, `"`, `""`) + `"`

	var out []domain.NotificationView
	err := db.WithContext(ctx).
		Raw(viewSelect+`
 WHERE n.id IN (SELECT rowid FROM notifications_fts WHERE notifications_fts MATCH ?)
 ORDER BY n.timestamp DESC LIMIT ?`, quoted, limit).
		Scan(&out).Error
	return out, err
}

// CountSearchIndex returns the number of shadow rows. Used to verify the
// index stays in lockstep with the fact table.
func CountSearchIndex(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM notifications_fts").Scan(&total).Error
	return total, err
}
