// Command migrate performs the one-time flat-to-normalized schema backfill.
// It backs up the source file first, then writes the normalized database to
// the -dst path, leaving the source untouched.
//
// Usage:
//
//	migrate -src notifications.db -dst notifications_v2.db
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/slotwatch/go-alert-backend/internal/migrate"
	"github.com/slotwatch/go-alert-backend/internal/sysutil"
)

func main() {
	_ = godotenv.Load()

	src := flag.String("src", "notifications.db", "path to the flat source database")
	dst := flag.String("dst", "notifications_v2.db", "path for the normalized target database")
	flag.Parse()

	sysutil.SetLogLevel(os.Getenv("LOG_LEVEL"))
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if _, err := os.Stat(*dst); err == nil {
		log.Fatal().Str("dst", *dst).Msg("target already exists, refusing to overwrite")
	}

	res, err := migrate.Migrate(context.Background(), *src, *dst, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().
		Int64("migrated", res.Migrated).
		Str("backup", res.BackupPath).
		Str("dst", *dst).
		Msg("migration complete")
}
