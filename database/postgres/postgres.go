package postgres

import (
	"FaceDetect/pkg/log"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const schema = `
	CREATE TABLE IF NOT EXISTS face_detections (
		id                TEXT PRIMARY KEY,
		source            TEXT NOT NULL,
		original_filename TEXT,
		saved_path        TEXT,
		faces_detected    INTEGER NOT NULL DEFAULT 0,
		faces             JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS face_detections_created_at_idx ON face_detections (created_at DESC);
`

var ErrNotConfigured = errors.New("database not configured")

// New connects using DB_* variables. ErrNotConfigured is returned when
// DB_HOST is empty so the caller can run without history.
func New() (*sqlx.DB, error) {
	host := os.Getenv("DB_HOST")
	if host == "" {
		return nil, ErrNotConfigured
	}

	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host,
		envOr("DB_PORT", "5432"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		sslMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	log.Info(log.Fields{"host": host}, "Connected to PostgreSQL")

	return db, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
