// Package repo implements the data persistence layer for the alert store,
// backed by GORM. This file provides the aggregate queries behind the
// dashboard stats panel. Each function is context-aware and safe to call
// from services or handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// KeywordCount is one row of the keyword frequency table.
type KeywordCount struct {
	Keyword string `json:"keyword" gorm:"column:keyword"`
	Count   int64  `json:"count"   gorm:"column:count"`
}

// SenderCount is one row of the sender frequency table.
type SenderCount struct {
	Sender string `json:"sender" gorm:"column:sender"`
	Count  int64  `json:"count"  gorm:"column:count"`
}

// Stats aggregates the notification store for the dashboard: all-time and
// windowed counts, the top-10 frequency tables, and the creation time of the
// earliest record (nil when the store is empty).
type Stats struct {
	Total         int64          `json:"total"`
	TotalMatching int64          `json:"totalMatching"`
	Today         int64          `json:"today"`
	ThisWeek      int64          `json:"thisWeek"`
	ByKeyword     []KeywordCount `json:"byKeyword"`
	TopSenders    []SenderCount  `json:"topSenders"`
	OldestMessage *string        `json:"oldestMessage"`
}

// NotificationStats computes the dashboard aggregates relative to now. The
// 24h/7d windows compare against the event timestamp (epoch ms), matching the
// ordering used by the list queries.
func NotificationStats(ctx context.Context, db *gorm.DB, now time.Time) (*Stats, error) {
	nowMS := now.UnixMilli()
	oneDayAgo := nowMS - 24*time.Hour.Milliseconds()
	oneWeekAgo := nowMS - 7*24*time.Hour.Milliseconds()

	st := &Stats{
		ByKeyword:  []KeywordCount{},
		TopSenders: []SenderCount{},
	}

	q := db.WithContext(ctx)
	if err := q.Raw("SELECT COUNT(*) FROM notifications").Scan(&st.Total).Error; err != nil {
		return nil, err
	}
	if err := q.Raw("SELECT COUNT(*) FROM notifications WHERE is_keyword_match = ?", true).
		Scan(&st.TotalMatching).Error; err != nil {
		return nil, err
	}
	if err := q.Raw("SELECT COUNT(*) FROM notifications WHERE timestamp > ?", oneDayAgo).
		Scan(&st.Today).Error; err != nil {
		return nil, err
	}
	if err := q.Raw("SELECT COUNT(*) FROM notifications WHERE timestamp > ?", oneWeekAgo).
		Scan(&st.ThisWeek).Error; err != nil {
		return nil, err
	}

	if err := q.Raw(`
SELECT k.word AS keyword, COUNT(*) AS count
FROM notifications n
JOIN keywords k ON k.id = n.keyword_id
GROUP BY k.word
ORDER BY count DESC
LIMIT 10`).Scan(&st.ByKeyword).Error; err != nil {
		return nil, err
	}

	if err := q.Raw(`
SELECT s.name AS sender, COUNT(*) AS count
FROM notifications n
JOIN senders s ON s.id = n.sender_id
GROUP BY s.name
ORDER BY count DESC
LIMIT 10`).Scan(&st.TopSenders).Error; err != nil {
		return nil, err
	}

	// Earliest record by event time; no row leaves the pointer nil.
	var oldest struct {
		CreatedAt *string `gorm:"column:created_at"`
	}
	if err := q.Raw("SELECT created_at FROM notifications ORDER BY timestamp ASC LIMIT 1").
		Scan(&oldest).Error; err != nil {
		return nil, err
	}
	st.OldestMessage = oldest.CreatedAt

	return st, nil
}
