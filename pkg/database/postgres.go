package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/enrollments-service/pkg/config"
)

// NewPostgres returns a configured PostgreSQL client.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

const enrollmentsSchema = `CREATE TABLE IF NOT EXISTS enrollments (
    id                 TEXT PRIMARY KEY,
    enrollment_id      TEXT NOT NULL UNIQUE,
    enrollment_year    INTEGER NOT NULL,
    semester           TEXT NOT NULL,
    student_id         TEXT NOT NULL,
    student_first_name TEXT NOT NULL DEFAULT '',
    student_last_name  TEXT NOT NULL DEFAULT '',
    course_id          TEXT NOT NULL,
    course_number      TEXT NOT NULL DEFAULT '',
    course_name        TEXT NOT NULL DEFAULT ''
)`

// EnsureSchema creates the enrollments table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, enrollmentsSchema); err != nil {
		return fmt.Errorf("ensure enrollments schema: %w", err)
	}
	return nil
}
