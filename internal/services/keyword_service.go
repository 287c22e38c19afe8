// Package services – KeywordService
//
// KeywordService mediates runtime keyword mutations. Both the REST surface
// and the WebSocket command channel go through the same in-memory filter, so
// the two surfaces can never disagree; every effective change is mirrored to
// all connected dashboard sessions.

package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/slotwatch/go-alert-backend/internal/filter"
)

// KeywordBroadcaster mirrors the current keyword list to connected sessions.
// *ws.Hub satisfies it.
type KeywordBroadcaster interface {
	BroadcastKeywords()
}

// KeywordService owns the runtime keyword set.
type KeywordService struct {
	Filter *filter.Filter
	Hub    KeywordBroadcaster
}

// List returns the current keywords in insertion order.
func (s *KeywordService) List(ctx context.Context) []string {
	tr := otel.Tracer("services/KeywordService")
	_, span := tr.Start(ctx, "List")
	defer span.End()

	return s.Filter.Keywords()
}

// Add inserts a keyword and reports whether the set changed. Effective
// changes are pushed to every connected session.
func (s *KeywordService) Add(ctx context.Context, word string) (bool, error) {
	tr := otel.Tracer("services/KeywordService")
	_, span := tr.Start(ctx, "Add",
		trace.WithAttributes(attribute.String("keyword", word)),
	)
	defer span.End()

	if strings.TrimSpace(word) == "" {
		return false, ErrEmptyKeyword
	}
	changed := s.Filter.Add(word)
	if changed && s.Hub != nil {
		s.Hub.BroadcastKeywords()
	}
	return changed, nil
}

// Remove deletes a keyword and reports whether the set changed.
func (s *KeywordService) Remove(ctx context.Context, word string) (bool, error) {
	tr := otel.Tracer("services/KeywordService")
	_, span := tr.Start(ctx, "Remove",
		trace.WithAttributes(attribute.String("keyword", word)),
	)
	defer span.End()

	if strings.TrimSpace(word) == "" {
		return false, ErrEmptyKeyword
	}
	changed := s.Filter.Remove(word)
	if changed && s.Hub != nil {
		s.Hub.BroadcastKeywords()
	}
	return changed, nil
}
