package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/slotwatch/go-alert-backend/internal/domain"
	"github.com/slotwatch/go-alert-backend/internal/repo"
)

func openMem(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

// seedFlatDB creates the legacy flat schema and a few representative rows.
func seedFlatDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	ddl := `CREATE TABLE notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		message TEXT,
		sender TEXT,
		group_name TEXT,
		keyword TEXT,
		chat_id TEXT,
		is_keyword_match INTEGER DEFAULT 0,
		timestamp INTEGER,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	)`
	if err := db.Exec(ddl).Error; err != nil {
		t.Fatalf("create flat table: %v", err)
	}

	rows := []struct {
		message, sender, group, keyword, chatID string
		match                                   bool
		ts                                      int64
	}{
		{"🇫🇷 France - Paris\n▶️ Prime\nSlots on 01.09.2026", "alice", "Visa Alerts", "PARIS", "-100123", true, 1700000000000},
		{"plain chatter with no header", "bob", "Visa Alerts", "ALL_MESSAGES", "-100123", false, 1700000000500},
		{"🇩🇪 Germany - Berlin\n▶️ Regular", "alice", "Other Group", "BERLIN", "-100456", true, 1700000001000},
	}
	for _, r := range rows {
		err := db.Exec(
			`INSERT INTO notifications (message, sender, group_name, keyword, chat_id, is_keyword_match, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.message, r.sender, r.group, r.keyword, r.chatID, r.match, r.ts,
		).Error
		if err != nil {
			t.Fatalf("seed flat row: %v", err)
		}
	}
}

func TestRun_BackfillsDimensionsAndFTS(t *testing.T) {
	src := openMem(t, "migsrc")
	dst := openMem(t, "migdst")
	seedFlatDB(t, src)

	ctx := context.Background()
	n, err := Run(ctx, src, dst, zerolog.Nop())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 3 {
		t.Fatalf("migrated = %d, want 3", n)
	}

	// Dimensions are deduplicated: alice appears twice but resolves once.
	var senders int64
	if err := dst.Model(&domain.Sender{}).Count(&senders).Error; err != nil {
		t.Fatalf("count senders: %v", err)
	}
	if senders != 2 {
		t.Fatalf("senders = %d, want 2", senders)
	}

	// Country, center, and tier are re-derived from the message body.
	views, err := repo.ListNotificationsSince(ctx, dst, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("views = %d, want 3", len(views))
	}
	byKeyword := map[string]int{}
	for _, v := range views {
		byKeyword[v.Keyword]++
		switch v.Keyword {
		case "PARIS":
			if v.Country != "France" || v.Center != "Paris" || !v.IsPrime {
				t.Fatalf("paris row not re-derived: %+v", v)
			}
		case "ALL_MESSAGES":
			if v.Country != "" || v.Center != "" || v.IsPrime {
				t.Fatalf("headerless row should have null dims: %+v", v)
			}
		case "BERLIN":
			if v.Country != "Germany" || v.Center != "Berlin" || v.IsPrime {
				t.Fatalf("berlin row not re-derived: %+v", v)
			}
		}
	}
	if len(byKeyword) != 3 {
		t.Fatalf("unexpected keyword spread: %v", byKeyword)
	}

	// FTS shadow index was rebuilt alongside the facts.
	hits, err := repo.SearchNotifications(ctx, dst, "chatter", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].Sender != "bob" {
		t.Fatalf("unexpected search hits: %+v", hits)
	}
}

func TestRun_EmptySource(t *testing.T) {
	src := openMem(t, "migsrc_empty")
	dst := openMem(t, "migdst_empty")
	if err := src.Exec(`CREATE TABLE notifications (id INTEGER PRIMARY KEY, message TEXT, sender TEXT, group_name TEXT, keyword TEXT, chat_id TEXT, is_keyword_match INTEGER, timestamp INTEGER, created_at TEXT)`).Error; err != nil {
		t.Fatalf("create flat table: %v", err)
	}

	n, err := Run(context.Background(), src, dst, zerolog.Nop())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 0 {
		t.Fatalf("migrated = %d, want 0", n)
	}
}

func TestBackupFile(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "notifications.db")
	if err := os.WriteFile(srcPath, []byte("legacy-bytes"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	now := time.Unix(1756400000, 0)
	backup, err := BackupFile(srcPath, now)
	if err != nil {
		t.Fatalf("BackupFile: %v", err)
	}
	if !strings.HasSuffix(backup, ".backup-1756400000") {
		t.Fatalf("unexpected backup name: %q", backup)
	}
	got, err := os.ReadFile(backup)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(got) != "legacy-bytes" {
		t.Fatalf("backup content mismatch: %q", got)
	}
}

func TestBackupFile_MissingSource(t *testing.T) {
	if _, err := BackupFile(filepath.Join(t.TempDir(), "nope.db"), time.Now()); err == nil {
		t.Fatal("expected error for missing source")
	}
}
