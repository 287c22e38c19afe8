package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestListKeywords(t *testing.T) {
	kw := &fakeKwSvc{words: []string{"PARIS", "LONDON"}}
	r := newTestRouter(New(&fakeNotifSvc{}, kw))

	w := doJSON(t, r, http.MethodGet, "/api/v1/keywords", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp KeywordsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Keywords) != 2 || resp.Keywords[0] != "PARIS" {
		t.Fatalf("unexpected keywords: %v", resp.Keywords)
	}
}

func TestAddKeyword(t *testing.T) {
	kw := &fakeKwSvc{changed: true}
	r := newTestRouter(New(&fakeNotifSvc{}, kw))

	w := doJSON(t, r, http.MethodPost, "/api/v1/keywords", KeywordRequest{Keyword: "Berlin"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", w.Code, w.Body.String())
	}
	if kw.added != "Berlin" {
		t.Fatalf("added = %q", kw.added)
	}
	var resp KeywordMutationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Success || !resp.Changed || resp.Keyword != "Berlin" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAddKeyword_MissingBody(t *testing.T) {
	r := newTestRouter(New(&fakeNotifSvc{}, &fakeKwSvc{}))

	w := doJSON(t, r, http.MethodPost, "/api/v1/keywords", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestRemoveKeyword(t *testing.T) {
	kw := &fakeKwSvc{changed: false}
	r := newTestRouter(New(&fakeNotifSvc{}, kw))

	w := doJSON(t, r, http.MethodDelete, "/api/v1/keywords/Berlin", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if kw.removed != "Berlin" {
		t.Fatalf("removed = %q", kw.removed)
	}
	var resp KeywordMutationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Success || resp.Changed {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
