package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            username TEXT NOT NULL,
            is_pro BOOLEAN NOT NULL DEFAULT FALSE,
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            is_online BOOLEAN NOT NULL DEFAULT FALSE,
            last_seen TIMESTAMPTZ
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id SERIAL PRIMARY KEY,
            sender_id INT NOT NULL,
            receiver_id INT,
            is_global BOOLEAN NOT NULL DEFAULT FALSE,
            content TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            read_at TIMESTAMPTZ,
            CHECK ((is_global AND receiver_id IS NULL) OR (NOT is_global AND receiver_id IS NOT NULL))
        );`,
		`CREATE INDEX IF NOT EXISTS idx_messages_receiver_unread
            ON messages (receiver_id, sender_id) WHERE read_at IS NULL;`,
		`CREATE INDEX IF NOT EXISTS idx_messages_global
            ON messages (created_at) WHERE is_global;`,
		`CREATE TABLE IF NOT EXISTS notifications (
            id SERIAL PRIMARY KEY,
            type TEXT NOT NULL,
            content TEXT NOT NULL,
            user_id INT NOT NULL,
            sender_id INT,
            related_id INT,
            is_read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user
            ON notifications (user_id, created_at DESC);`,
		`CREATE TABLE IF NOT EXISTS scores (
            user_id INT PRIMARY KEY,
            total_score INT NOT NULL DEFAULT 0
        );`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
