// Notification HTTP handlers.
//
// This file exposes the REST surface over stored notifications:
//   - GET    /notifications            (paginated list with dimension filters)
//   - GET    /notifications/since/:timestamp  (incremental catch-up)
//   - GET    /notifications/search     (full-text search)
//   - GET    /notifications/stats      (dashboard aggregates)
//   - POST   /notifications            (record a manual entry)
//   - DELETE /notifications            (clear all)
//   - DELETE /notifications/old        (retention cleanup)
//
// Handlers are transport-thin: they validate and normalize inputs, delegate
// to application services, and translate results into HTTP responses.
//
// Idempotency:
// If the client supplies an Idempotency-Key header on POST /notifications and
// a previous successful result exists for (user, key), the handler returns
// the recorded notification and sets `Idempotency-Replayed: true`.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/slotwatch/go-alert-backend/internal/domain"
	"github.com/slotwatch/go-alert-backend/internal/http/middleware"
	"github.com/slotwatch/go-alert-backend/internal/repo"
	"github.com/slotwatch/go-alert-backend/internal/services"
	"github.com/slotwatch/go-alert-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// NotificationService defines the notification operations consumed by the
// HTTP handlers. Implementations must be safe for concurrent use and honor
// the provided context.
type NotificationService interface {
	// ListPage returns a page of notifications and the total count under fl.
	ListPage(ctx context.Context, limit, offset int, fl repo.ListFilters) ([]domain.NotificationView, int64, error)
	// Since returns notifications newer than a timestamp, newest first.
	Since(ctx context.Context, ts int64) ([]domain.NotificationView, error)
	// Search runs a full-text query over message bodies.
	Search(ctx context.Context, query string, limit int) ([]domain.NotificationView, error)
	// Stats computes the dashboard aggregates.
	Stats(ctx context.Context) (*repo.Stats, error)
	// Get returns one notification by ID.
	Get(ctx context.Context, id uint) (*domain.NotificationView, error)
	// RecordManual stores a dashboard-submitted notification.
	RecordManual(ctx context.Context, message, keyword, sender, group string, ts int64) (*domain.NotificationView, error)
	// DeleteAll clears the store.
	DeleteAll(ctx context.Context) (int64, error)
	// DeleteOld removes rows older than the retention window.
	DeleteOld(ctx context.Context, days int) (int64, int64, error)
}

// KeywordService defines the runtime keyword set operations.
type KeywordService interface {
	List(ctx context.Context) []string
	Add(ctx context.Context, word string) (bool, error)
	Remove(ctx context.Context, word string) (bool, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for notifications and keywords. It
// depends on abstract service interfaces to keep transport concerns separate
// from business logic.
type Handlers struct {
	notifSvc NotificationService
	kwSvc    KeywordService

	// DefaultRetentionDays is used when DELETE /notifications/old carries no
	// days parameter.
	DefaultRetentionDays int
}

// New constructs a Handlers instance bound to the given services.
func New(notifSvc NotificationService, kwSvc KeywordService) *Handlers {
	return &Handlers{notifSvc: notifSvc, kwSvc: kwSvc, DefaultRetentionDays: 30}
}

// userID extracts the caller identity from the Gin context (set by upstream
// middleware). If absent, it falls back to the "X-User-ID" header, and
// finally to "demo-user". Only idempotency scoping uses it.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// RecordNotificationRequest is the JSON payload for recording a manual
// notification. Message is required; blank attribution fields fall back to
// the Manual sentinels, a zero timestamp means now (epoch ms otherwise).
type RecordNotificationRequest struct {
	Message   string `json:"message" binding:"required,min=1"`
	Keyword   string `json:"keyword"`
	Sender    string `json:"sender"`
	Group     string `json:"group"`
	Timestamp int64  `json:"timestamp"`
}

// RecordNotificationResponse confirms a stored manual notification.
type RecordNotificationResponse struct {
	Success      bool                     `json:"success"`
	ID           uint                     `json:"id"`
	Notification *domain.NotificationView `json:"notification,omitempty"`
}

// ListNotificationsResponse is a page of notifications plus paging metadata.
type ListNotificationsResponse struct {
	Notifications []domain.NotificationView `json:"notifications"`
	Total         int64                     `json:"total"`
	HasMore       bool                      `json:"hasMore"`
	Limit         int                       `json:"limit"`
	Offset        int                       `json:"offset"`
}

// NotificationsResponse wraps an unpaginated notification list (catch-up and
// search results).
type NotificationsResponse struct {
	Notifications []domain.NotificationView `json:"notifications"`
}

// DeleteResponse confirms a bulk delete. Cutoff is only set for retention
// deletes and is the epoch-ms boundary that was applied.
type DeleteResponse struct {
	Success      bool  `json:"success"`
	DeletedCount int64 `json:"deletedCount"`
	Cutoff       int64 `json:"cutoff,omitempty"`
}

//
// Helpers
//

// clampListParams parses limit/offset query parameters with sane defaults
// and caps.
func clampListParams(c *gin.Context) (limit, offset int) {
	const (
		defaultLimit = 50
		maxLimit     = 500
	)
	limit = utils.ClampInt(utils.AtoiDefault(c.Query("limit"), defaultLimit), 1, maxLimit)
	offset = utils.AtoiDefault(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}
	return
}

// listFilters builds the repo filter set from query parameters. The prime
// filter is tri-state: absent means "both tiers".
func listFilters(c *gin.Context) repo.ListFilters {
	fl := repo.ListFilters{
		Country: strings.TrimSpace(c.Query("country")),
		Center:  strings.TrimSpace(c.Query("center")),
		Keyword: strings.TrimSpace(c.Query("keyword")),
	}
	if v := strings.TrimSpace(c.Query("prime")); v != "" {
		prime := v == "1" || strings.EqualFold(v, "true")
		fl.Prime = &prime
	}
	return fl
}

//
// Handlers
//

// ListNotifications returns a page of stored notifications, newest first,
// with optional country/center/keyword/prime filters.
func (h *Handlers) ListNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	limit, offset := clampListParams(c)
	fl := listFilters(c)

	items, total, err := h.notifSvc.ListPage(ctx, limit, offset, fl)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ListNotificationsResponse{
		Notifications: items,
		Total:         total,
		HasMore:       int64(offset+len(items)) < total,
		Limit:         limit,
		Offset:        offset,
	})
}

// SinceNotifications returns every notification with an event timestamp
// strictly greater than the path parameter, for catch-up after a reconnect.
func (h *Handlers) SinceNotifications(c *gin.Context) {
	ts, err := strconv.ParseInt(c.Param("timestamp"), 10, 64)
	if err != nil || ts < 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "timestamp must be a non-negative integer (epoch ms)")
		return
	}

	items, err := h.notifSvc.Since(c.Request.Context(), ts)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, NotificationsResponse{Notifications: items})
}

// SearchNotifications runs a full-text query over stored message bodies.
func (h *Handlers) SearchNotifications(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "q required")
		return
	}
	limit := utils.ClampInt(utils.AtoiDefault(c.Query("limit"), 100), 1, 500)

	items, err := h.notifSvc.Search(c.Request.Context(), q, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSearchFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, NotificationsResponse{Notifications: items})
}

// GetStats returns the dashboard aggregates.
func (h *Handlers) GetStats(c *gin.Context) {
	st, err := h.notifSvc.Stats(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStatsFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, st)
}

// PostNotification records a manual notification. Supports idempotency via
// the Idempotency-Key header: the same key yields the same stored row.
func (h *Handlers) PostNotification(c *gin.Context) {
	ctx := c.Request.Context()

	var req RecordNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}
	if req.Timestamp < 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "timestamp must be epoch milliseconds")
		return
	}

	currentUser := userID(c)

	// Idempotency (replay path): serve the previously stored row.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey == "" {
		idemKey = strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey))
	}
	if idemKey != "" {
		if db := h.discoverDB(); db != nil {
			if rec, err := repo.GetIdempotency(ctx, db, currentUser, middleware.ScopeNotifications, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := h.notifSvc.Get(ctx, rec.NotificationID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusOK, RecordNotificationResponse{Success: true, ID: prev.ID, Notification: prev})
					return
				}
			}
		}
	}

	v, err := h.notifSvc.RecordManual(ctx, req.Message, req.Keyword, req.Sender, req.Group, req.Timestamp)
	if err != nil {
		switch err {
		case services.ErrEmptyMessage:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeRecordFailed, err.Error())
		}
		return
	}

	// Idempotency (store path), best effort.
	if idemKey != "" {
		if db := h.discoverDB(); db != nil {
			_, _ = repo.CreateIdempotency(ctx, db, currentUser, middleware.ScopeNotifications, idemKey, v.ID, http.StatusCreated, 24*time.Hour)
		}
	}

	ok(c, http.StatusCreated, RecordNotificationResponse{Success: true, ID: v.ID, Notification: v})
}

// DeleteNotifications clears the whole store.
func (h *Handlers) DeleteNotifications(c *gin.Context) {
	deleted, err := h.notifSvc.DeleteAll(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, DeleteResponse{Success: true, DeletedCount: deleted})
}

// DeleteOldNotifications removes rows older than the retention window given
// by the days query parameter (falling back to the configured default).
func (h *Handlers) DeleteOldNotifications(c *gin.Context) {
	days := utils.AtoiDefault(c.Query("days"), h.DefaultRetentionDays)
	if days < 1 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "days must be >= 1")
		return
	}

	deleted, cutoff, err := h.notifSvc.DeleteOld(c.Request.Context(), days)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, DeleteResponse{Success: true, DeletedCount: deleted, Cutoff: cutoff})
}

// discoverDB inspects the concrete NotificationService for its database
// handle, used only by the idempotency replay/store paths.
func (h *Handlers) discoverDB() *gorm.DB {
	if svc, ok := h.notifSvc.(*services.NotificationService); ok {
		return svc.DB
	}
	return nil
}
