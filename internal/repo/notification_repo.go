// Package repo implements the data persistence layer for the alert store,
// backed by GORM. This file provides repository functions for the
// notifications fact table: inserts, denormalized reads, and the retention
// deletes that keep the FTS5 shadow index in lockstep.
package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/slotwatch/go-alert-backend/internal/domain"
)

// viewSelect is the denormalized projection shared by every read query:
// the fact row joined back to its dimension names. LEFT JOINs keep rows
// whose country/center extraction failed.
const viewSelect = `
SELECT n.id,
       k.word AS keyword,
       n.message,
       g.name AS group_name,
       s.name AS sender,
       COALESCE(c.name, '')  AS country,
       COALESCE(ce.name, '') AS center,
       n.chat_id,
       n.is_keyword_match,
       n.is_prime,
       n.timestamp,
       n.created_at
FROM notifications n
JOIN senders s   ON s.id = n.sender_id
JOIN groups g    ON g.id = n.group_id
JOIN keywords k  ON k.id = n.keyword_id
LEFT JOIN countries c ON c.id = n.country_id
LEFT JOIN centers ce  ON ce.id = n.center_id`

// ListFilters narrows list queries. String filters are case-insensitive
// substring matches; Prime is an exact match when non-nil. Filters combine
// with logical AND.
type ListFilters struct {
	Country string
	Center  string
	Keyword string
	Prime   *bool
}

// whereClause renders the filters into a SQL fragment and its arguments.
// An empty fragment means no filtering.
func (f ListFilters) whereClause() (string, []any) {
	var conds []string
	var args []any
	if f.Country != "" {
		conds = append(conds, "LOWER(COALESCE(c.name, '')) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Country)+"%")
	}
	if f.Center != "" {
		conds = append(conds, "LOWER(COALESCE(ce.name, '')) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Center)+"%")
	}
	if f.Keyword != "" {
		conds = append(conds, "LOWER(k.word) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Keyword)+"%")
	}
	if f.Prime != nil {
		conds = append(conds, "n.is_prime = ?")
		args = append(args, *f.Prime)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// CreateNotification inserts one fact row. CreatedAt is set to UTC now when
// the caller left it zero. The FTS shadow row is NOT written here; callers
// must invoke IndexNotification only after this insert succeeded.
func CreateNotification(ctx context.Context, db *gorm.DB, n *domain.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(n).Error
}

// GetNotificationView fetches a single denormalized row by id, or ErrNotFound.
func GetNotificationView(ctx context.Context, db *gorm.DB, id uint) (*domain.NotificationView, error) {
	var out []domain.NotificationView
	err := db.WithContext(ctx).Raw(viewSelect+" WHERE n.id = ?", id).Scan(&out).Error
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

// ListNotifications returns a page of denormalized rows ordered by event
// timestamp descending (most recent first).
func ListNotifications(ctx context.Context, db *gorm.DB, limit, offset int, fl ListFilters) ([]domain.NotificationView, error) {
	where, args := fl.whereClause()
	args = append(args, limit, offset)

	var out []domain.NotificationView
	err := db.WithContext(ctx).
		Raw(viewSelect+where+" ORDER BY n.timestamp DESC LIMIT ? OFFSET ?", args...).
		Scan(&out).Error
	return out, err
}

// CountNotifications returns the number of fact rows matching the filters.
func CountNotifications(ctx context.Context, db *gorm.DB, fl ListFilters) (int64, error) {
	where, args := fl.whereClause()
	q := `
SELECT COUNT(*)
FROM notifications n
JOIN keywords k  ON k.id = n.keyword_id
LEFT JOIN countries c ON c.id = n.country_id
LEFT JOIN centers ce  ON ce.id = n.center_id` + where

	var total int64
	err := db.WithContext(ctx).Raw(q, args...).Scan(&total).Error
	return total, err
}

// ListNotificationsSince returns every denormalized row with an event
// timestamp strictly greater than ts, descending. Used for incremental
// catch-up after a dashboard reconnect.
func ListNotificationsSince(ctx context.Context, db *gorm.DB, ts int64) ([]domain.NotificationView, error) {
	var out []domain.NotificationView
	err := db.WithContext(ctx).
		Raw(viewSelect+" WHERE n.timestamp > ? ORDER BY n.timestamp DESC", ts).
		Scan(&out).Error
	return out, err
}

// DeleteAllNotifications removes every fact row and its FTS shadow rows in a
// single transaction, returning the number of facts deleted. The shadow index
// is never left with orphans.
func DeleteAllNotifications(ctx context.Context, db *gorm.DB) (int64, error) {
	var deleted int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM notifications_fts").Error; err != nil {
			return err
		}
		res := tx.Exec("DELETE FROM notifications")
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

// DeleteNotificationsBefore removes every fact row with an event timestamp
// older than cutoff (epoch ms) together with its FTS shadow rows, returning
// the number of facts deleted.
func DeleteNotificationsBefore(ctx context.Context, db *gorm.DB, cutoff int64) (int64, error) {
	var deleted int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM notifications_fts WHERE rowid IN (SELECT id FROM notifications WHERE timestamp < ?)",
			cutoff,
		).Error; err != nil {
			return err
		}
		res := tx.Exec("DELETE FROM notifications WHERE timestamp < ?", cutoff)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

// CountAllNotifications uses a raw COUNT so a missing table surfaces as an
// error rather than a silent zero.
func CountAllNotifications(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM notifications").Scan(&total).Error
	return total, err
}
