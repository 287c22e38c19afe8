package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/slotwatch/go-alert-backend/internal/filter"
)

func TestKeywordService_AddRemoveMirrors(t *testing.T) {
	hub := &captureHub{}
	svc := &KeywordService{Filter: filter.New([]string{"paris"}, nil), Hub: hub}
	ctx := context.Background()

	changed, err := svc.Add(ctx, "london")
	if err != nil || !changed {
		t.Fatalf("Add: changed=%v err=%v", changed, err)
	}
	if hub.keywords != 1 {
		t.Fatalf("effective add must broadcast, got %d", hub.keywords)
	}

	// Re-adding is a no-op and stays silent.
	changed, err = svc.Add(ctx, " LONDON ")
	if err != nil || changed {
		t.Fatalf("duplicate Add: changed=%v err=%v", changed, err)
	}
	if hub.keywords != 1 {
		t.Fatalf("no-op add must not broadcast, got %d", hub.keywords)
	}

	if !reflect.DeepEqual(svc.List(ctx), []string{"PARIS", "LONDON"}) {
		t.Fatalf("unexpected keyword list: %v", svc.List(ctx))
	}

	changed, err = svc.Remove(ctx, "paris")
	if err != nil || !changed {
		t.Fatalf("Remove: changed=%v err=%v", changed, err)
	}
	if hub.keywords != 2 {
		t.Fatalf("effective remove must broadcast, got %d", hub.keywords)
	}

	changed, err = svc.Remove(ctx, "paris")
	if err != nil || changed {
		t.Fatalf("removing a missing keyword: changed=%v err=%v", changed, err)
	}
}

func TestKeywordService_BlankKeyword(t *testing.T) {
	svc := &KeywordService{Filter: filter.New(nil, nil)}
	if _, err := svc.Add(context.Background(), "  "); !errors.Is(err, ErrEmptyKeyword) {
		t.Fatalf("expected ErrEmptyKeyword on add, got %v", err)
	}
	if _, err := svc.Remove(context.Background(), ""); !errors.Is(err, ErrEmptyKeyword) {
		t.Fatalf("expected ErrEmptyKeyword on remove, got %v", err)
	}
}
