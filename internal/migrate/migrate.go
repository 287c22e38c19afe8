// Package migrate performs the one-time backfill from the flat first
// generation schema (one denormalized notifications table with sender, group,
// and keyword stored as text) into the normalized dimensional model. It walks
// every flat row, resolves the dimension tables, re-derives country, center,
// and tier from the message body with the same extraction rules the live
// pipeline uses, and rebuilds the full-text index.
//
// The source database file is copied to a timestamped backup before the
// target is touched, so a failed or interrupted run can be retried from the
// original file.
package migrate

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/slotwatch/go-alert-backend/internal/domain"
	"github.com/slotwatch/go-alert-backend/internal/parser"
	"github.com/slotwatch/go-alert-backend/internal/repo"
)

// flatRow mirrors one record of the legacy flat notifications table.
type flatRow struct {
	ID             uint   `gorm:"column:id"`
	Message        string `gorm:"column:message"`
	Sender         string `gorm:"column:sender"`
	GroupName      string `gorm:"column:group_name"`
	Keyword        string `gorm:"column:keyword"`
	ChatID         string `gorm:"column:chat_id"`
	IsKeywordMatch bool   `gorm:"column:is_keyword_match"`
	Timestamp      int64  `gorm:"column:timestamp"`
	CreatedAt      string `gorm:"column:created_at"`
}

// Result summarizes a completed run.
type Result struct {
	BackupPath string
	Migrated   int64
}

// BackupFile copies src to a sibling file stamped with the current unix time
// and returns the backup path. The copy happens before any write to the
// target database.
func BackupFile(src string, now time.Time) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open source db: %w", err)
	}
	defer in.Close()

	dst := fmt.Sprintf("%s.backup-%d", src, now.Unix())
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("copy backup: %w", err)
	}
	if err := out.Sync(); err != nil {
		return "", fmt.Errorf("sync backup: %w", err)
	}
	return dst, nil
}

// Run migrates every row of the flat table in src into dst. dst must be a
// fresh database; Run creates the normalized schema and the FTS index there
// before inserting. The whole backfill runs in one transaction so a failure
// leaves dst empty rather than half-filled.
func Run(ctx context.Context, src, dst *gorm.DB, log zerolog.Logger) (int64, error) {
	if err := repo.AutoMigrate(dst); err != nil {
		return 0, fmt.Errorf("create schema: %w", err)
	}

	var rows []flatRow
	if err := src.WithContext(ctx).Table("notifications").Order("id ASC").Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("read flat rows: %w", err)
	}
	log.Info().Int("rows", len(rows)).Msg("starting backfill")

	var migrated int64
	err := dst.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			if err := migrateRow(ctx, tx, row); err != nil {
				return fmt.Errorf("row %d: %w", row.ID, err)
			}
			migrated++
			if migrated%1000 == 0 {
				log.Info().Int64("migrated", migrated).Msg("backfill progress")
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info().Int64("migrated", migrated).Msg("backfill complete")
	return migrated, nil
}

// migrateRow resolves dimensions for one flat row, re-derives the parsed
// fields, and inserts the fact plus its FTS shadow row.
func migrateRow(ctx context.Context, tx *gorm.DB, row flatRow) error {
	senderID, err := repo.ResolveSender(ctx, tx, row.Sender)
	if err != nil {
		return err
	}
	groupID, err := repo.ResolveGroup(ctx, tx, row.GroupName)
	if err != nil {
		return err
	}
	keywordID, err := repo.ResolveKeyword(ctx, tx, row.Keyword)
	if err != nil {
		return err
	}

	// Country, center, and tier were never stored in the flat schema; they
	// are re-derived from the message with the live extraction rules so old
	// and new rows categorize identically.
	parsed := parser.Parse(row.Message)

	var countryID, centerID *uint
	if parsed.Country != parser.Unknown {
		cid, err := repo.ResolveCountry(ctx, tx, parsed.Country)
		if err != nil {
			return err
		}
		countryID = &cid
		if parsed.Center != parser.Unknown {
			ceid, err := repo.ResolveCenter(ctx, tx, parsed.Center, cid)
			if err != nil {
				return err
			}
			centerID = &ceid
		}
	}

	n := &domain.Notification{
		Message:        row.Message,
		SenderID:       senderID,
		GroupID:        groupID,
		KeywordID:      keywordID,
		CountryID:      countryID,
		CenterID:       centerID,
		ChatID:         row.ChatID,
		IsKeywordMatch: row.IsKeywordMatch,
		IsPrime:        parsed.IsPrime,
		Timestamp:      row.Timestamp,
	}
	if err := repo.CreateNotification(ctx, tx, n); err != nil {
		return err
	}
	return repo.IndexNotification(ctx, tx, n.ID, n.Message)
}

// Migrate is the full offline flow: back up the source file, open both
// databases, and run the backfill into dstPath.
func Migrate(ctx context.Context, srcPath, dstPath string, log zerolog.Logger) (*Result, error) {
	backup, err := BackupFile(srcPath, time.Now())
	if err != nil {
		return nil, err
	}
	log.Info().Str("backup", backup).Msg("source backed up")

	src, err := repo.OpenSQLite(srcPath)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	dst, err := repo.OpenSQLite(dstPath)
	if err != nil {
		return nil, fmt.Errorf("open target: %w", err)
	}

	n, err := Run(ctx, src, dst, log)
	if err != nil {
		return nil, err
	}
	return &Result{BackupPath: backup, Migrated: n}, nil
}
