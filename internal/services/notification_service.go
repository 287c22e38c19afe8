// Package services – NotificationService
//
// This file implements NotificationService, the application-level component
// that owns the read and write surface over stored notifications: paginated
// listing with dimension filters, incremental catch-up, full-text search,
// aggregate statistics, manual recording from the dashboard, and retention
// cleanup.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include pagination and filter parameters where applicable.

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/slotwatch/go-alert-backend/internal/domain"
	"github.com/slotwatch/go-alert-backend/internal/parser"
	"github.com/slotwatch/go-alert-backend/internal/repo"
	"github.com/slotwatch/go-alert-backend/internal/ws"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Broadcaster pushes alerts to connected dashboard sessions. *ws.Hub
// satisfies it; tests substitute a capture fake.
type Broadcaster interface {
	BroadcastAlert(ws.Alert)
}

// NotificationService coordinates notification reads, manual writes, and
// retention cleanup.
type NotificationService struct {
	DB  *gorm.DB
	Hub Broadcaster

	// Optional guard for manual records; 0 disables the check.
	MaxMessageRunes int
}

// ListPage returns one page of denormalized notifications, newest first,
// along with the total row count under the same filters.
func (s *NotificationService) ListPage(ctx context.Context, limit, offset int, fl repo.ListFilters) ([]domain.NotificationView, int64, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("limit", limit),
			attribute.Int("offset", offset),
			attribute.String("filter.country", fl.Country),
			attribute.String("filter.keyword", fl.Keyword),
		),
	)
	defer span.End()

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	total, err := repo.CountNotifications(ctx, s.DB, fl)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.NotificationView{}, 0, nil
	}

	items, err := repo.ListNotifications(ctx, s.DB, limit, offset, fl)
	return items, total, err
}

// Since returns every notification with an event timestamp strictly greater
// than ts, newest first. Used by the dashboard to catch up after a reconnect.
func (s *NotificationService) Since(ctx context.Context, ts int64) ([]domain.NotificationView, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "Since",
		trace.WithAttributes(attribute.Int64("since", ts)),
	)
	defer span.End()

	items, err := repo.ListNotificationsSince(ctx, s.DB, ts)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.NotificationView{}
	}
	return items, nil
}

// Search runs a full-text query over stored message bodies.
func (s *NotificationService) Search(ctx context.Context, query string, limit int) ([]domain.NotificationView, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(attribute.String("query", query)),
	)
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	items, err := repo.SearchNotifications(ctx, s.DB, query, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.NotificationView{}
	}
	return items, nil
}

// Stats computes the aggregate dashboard statistics.
func (s *NotificationService) Stats(ctx context.Context) (*repo.Stats, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "Stats")
	defer span.End()

	return repo.NotificationStats(ctx, s.DB, time.Now())
}

// Get returns one denormalized notification by ID.
func (s *NotificationService) Get(ctx context.Context, id uint) (*domain.NotificationView, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("notification.id", int64(id))),
	)
	defer span.End()

	v, err := repo.GetNotificationView(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return v, nil
}

// RecordManual stores a notification submitted through the dashboard. Blank
// attribution fields fall back to the Manual sentinels; a zero ts means now.
// The message header is still parsed so manually pasted alerts keep their
// country and center. The stored row is broadcast like any live alert.
func (s *NotificationService) RecordManual(ctx context.Context, message, keyword, sender, group string, ts int64) (*domain.NotificationView, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "RecordManual",
		trace.WithAttributes(attribute.String("keyword", keyword)),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && len([]rune(message)) > s.MaxMessageRunes {
		message = string([]rune(message)[:s.MaxMessageRunes])
	}
	if strings.TrimSpace(keyword) == "" {
		keyword = domain.KeywordManual
	}
	if strings.TrimSpace(sender) == "" {
		sender = domain.SenderManual
	}
	if strings.TrimSpace(group) == "" {
		group = domain.GroupManual
	}

	parsed := parser.Parse(message)
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	n := &domain.Notification{
		Message:        message,
		ChatID:         domain.ChatIDManual,
		IsKeywordMatch: false,
		IsPrime:        parsed.IsPrime,
		Timestamp:      ts,
	}

	var err error
	if n.SenderID, err = repo.ResolveSender(ctx, s.DB, sender); err != nil {
		return nil, err
	}
	if n.GroupID, err = repo.ResolveGroup(ctx, s.DB, group); err != nil {
		return nil, err
	}
	if n.KeywordID, err = repo.ResolveKeyword(ctx, s.DB, keyword); err != nil {
		return nil, err
	}
	if parsed.Country != parser.Unknown {
		countryID, err := repo.ResolveCountry(ctx, s.DB, parsed.Country)
		if err != nil {
			return nil, err
		}
		n.CountryID = &countryID
		if parsed.Center != parser.Unknown {
			centerID, err := repo.ResolveCenter(ctx, s.DB, parsed.Center, countryID)
			if err != nil {
				return nil, err
			}
			n.CenterID = &centerID
		}
	}

	if err := repo.CreateNotification(ctx, s.DB, n); err != nil {
		return nil, err
	}
	if err := repo.IndexNotification(ctx, s.DB, n.ID, n.Message); err != nil {
		// Row is stored; a missing index entry only degrades search.
		span.RecordError(err)
	}

	if s.Hub != nil {
		s.Hub.BroadcastAlert(ws.Alert{
			Keyword:        keyword,
			Message:        message,
			Group:          group,
			Sender:         sender,
			Timestamp:      ts,
			ChatID:         domain.ChatIDManual,
			IsKeywordMatch: false,
		})
	}

	return repo.GetNotificationView(ctx, s.DB, n.ID)
}

// DeleteAll removes every stored notification and its search-index entry,
// returning the number of rows deleted.
func (s *NotificationService) DeleteAll(ctx context.Context) (int64, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "DeleteAll")
	defer span.End()

	return repo.DeleteAllNotifications(ctx, s.DB)
}

// DeleteOld removes notifications whose event timestamp predates the
// retention window. It returns the number of deleted rows and the cutoff
// used, in epoch milliseconds.
func (s *NotificationService) DeleteOld(ctx context.Context, days int) (int64, int64, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "DeleteOld",
		trace.WithAttributes(attribute.Int("days", days)),
	)
	defer span.End()

	if days < 1 {
		days = 30
	}
	cutoff := time.Now().AddDate(0, 0, -days).UnixMilli()
	deleted, err := repo.DeleteNotificationsBefore(ctx, s.DB, cutoff)
	return deleted, cutoff, err
}
