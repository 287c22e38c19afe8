package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/slotwatch/go-alert-backend/internal/filter"
)

func newTestHub(t *testing.T, keywords ...string) (*Hub, *filter.Filter, *httptest.Server) {
	t.Helper()
	f := filter.New(keywords, nil)
	h := NewHub(f, zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(h.HandleUpgrade))
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return h, f, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func keywordList(t *testing.T, ev Event) []string {
	t.Helper()
	if ev.Type != "keywords-update" {
		t.Fatalf("expected keywords-update, got %q", ev.Type)
	}
	raw, ok := ev.Data.([]any)
	if !ok {
		t.Fatalf("unexpected data shape: %T", ev.Data)
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		out = append(out, v.(string))
	}
	return out
}

func TestHub_SendsKeywordsOnConnect(t *testing.T) {
	_, _, srv := newTestHub(t, "LONDON_GERMANY")
	conn := dial(t, srv)

	got := keywordList(t, readEvent(t, conn))
	if len(got) != 1 || got[0] != "LONDON_GERMANY" {
		t.Fatalf("initial keywords = %v", got)
	}
}

func TestHub_AddRemoveKeywordCommands(t *testing.T) {
	_, f, srv := newTestHub(t)
	conn := dial(t, srv)
	readEvent(t, conn) // initial keywords-update

	if err := conn.WriteJSON(map[string]string{"type": "add-keyword", "keyword": "paris"}); err != nil {
		t.Fatal(err)
	}
	got := keywordList(t, readEvent(t, conn))
	if len(got) != 1 || got[0] != "PARIS" {
		t.Fatalf("after add: %v", got)
	}
	if kws := f.Keywords(); len(kws) != 1 || kws[0] != "PARIS" {
		t.Fatalf("store not mutated: %v", kws)
	}

	// Duplicate add changes nothing and triggers no broadcast; the following
	// remove produces the next frame.
	if err := conn.WriteJSON(map[string]string{"type": "add-keyword", "keyword": "PARIS"}); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(map[string]string{"type": "remove-keyword", "keyword": "paris"}); err != nil {
		t.Fatal(err)
	}
	got = keywordList(t, readEvent(t, conn))
	if len(got) != 0 {
		t.Fatalf("after remove: %v", got)
	}
}

func TestHub_GetKeywordsCommand(t *testing.T) {
	_, _, srv := newTestHub(t, "A", "B")
	conn := dial(t, srv)
	readEvent(t, conn)

	if err := conn.WriteJSON(map[string]string{"type": "get-keywords"}); err != nil {
		t.Fatal(err)
	}
	got := keywordList(t, readEvent(t, conn))
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("get-keywords = %v", got)
	}
}

func TestHub_BroadcastAlertReachesAllClients(t *testing.T) {
	h, _, srv := newTestHub(t)
	c1 := dial(t, srv)
	c2 := dial(t, srv)
	readEvent(t, c1)
	readEvent(t, c2)

	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("clients never registered: %d", h.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}

	h.BroadcastAlert(Alert{
		Keyword:        "LONDON_GERMANY",
		Message:        "slot open",
		Group:          "Visa Group",
		Sender:         "Alice",
		Timestamp:      123,
		ChatID:         "42",
		IsKeywordMatch: true,
	})

	for _, conn := range []*websocket.Conn{c1, c2} {
		ev := readEvent(t, conn)
		if ev.Type != "telegram-alert" {
			t.Fatalf("expected telegram-alert, got %q", ev.Type)
		}
		data := ev.Data.(map[string]any)
		if data["keyword"] != "LONDON_GERMANY" || data["isKeywordMatch"] != true {
			t.Fatalf("payload = %v", data)
		}
	}
}

func TestHub_DropsDisconnectedClients(t *testing.T) {
	h, _, srv := newTestHub(t)
	conn := dial(t, srv)
	readEvent(t, conn)

	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never pruned: %d", h.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
