package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the database. DB_TYPE selects the
// backend: "postgres" uses DATABASE_URL, anything else is local SQLite.
func Connect() error {
	if os.Getenv("DB_TYPE") == "postgres" {
		return connectPostgres()
	}
	return connectSQLite()
}

func connectSQLite() error {
	// Create data directory if it doesn't exist
	dataDir := "data"
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %v", err)
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "recallbot.db")
	}
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %v", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers
	db.SetMaxIdleConns(1)

	DB = db

	// Initialize schema
	return initializeSchema()
}

func connectPostgres() error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return fmt.Errorf("DATABASE_URL is required when DB_TYPE=postgres")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	DB = db

	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist. The DDL
// is shared between SQLite and Postgres except for the generated id
// column, which is substituted per dialect.
func initializeSchema() error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if DB.DriverName() == "postgres" {
		pk = "BIGSERIAL PRIMARY KEY"
	}

	// Create users table
	_, err := DB.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			telegram_id BIGINT PRIMARY KEY,
			username TEXT DEFAULT '',
			first_name TEXT DEFAULT '',
			last_name TEXT DEFAULT '',
			is_admin BOOLEAN DEFAULT false,
			notification_enabled BOOLEAN DEFAULT true,
			notification_hour INTEGER DEFAULT 9,
			max_reviews_per_day INTEGER DEFAULT 50,
			max_new_cards_per_day INTEGER DEFAULT 20,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %v", err)
	}

	// Create cards table
	_, err = DB.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS cards (
			id %s,
			owner_id BIGINT NOT NULL,
			front TEXT NOT NULL,
			back TEXT NOT NULL,
			deck TEXT DEFAULT '',
			hint TEXT DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			interval INTEGER NOT NULL DEFAULT 1,
			ease_factor REAL NOT NULL DEFAULT 2.5,
			consecutive_correct INTEGER NOT NULL DEFAULT 0,
			review_step INTEGER NOT NULL DEFAULT 0,
			view_count INTEGER NOT NULL DEFAULT 0,
			success_count INTEGER NOT NULL DEFAULT 0,
			failure_count INTEGER NOT NULL DEFAULT 0,
			last_reviewed TIMESTAMP,
			next_review TIMESTAMP NOT NULL,
			version BIGINT NOT NULL DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, pk))
	if err != nil {
		return fmt.Errorf("failed to create cards table: %v", err)
	}

	// Create review_events table
	_, err = DB.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS review_events (
			id %s,
			card_id BIGINT NOT NULL,
			owner_id BIGINT NOT NULL,
			is_success BOOLEAN NOT NULL,
			quality INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (card_id) REFERENCES cards(id)
		)
	`, pk))
	if err != nil {
		return fmt.Errorf("failed to create review_events table: %v", err)
	}

	// Create review_schedules table
	_, err = DB.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS review_schedules (
			id %s,
			owner_id BIGINT NOT NULL UNIQUE,
			intervals TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, pk))
	if err != nil {
		return fmt.Errorf("failed to create review_schedules table: %v", err)
	}

	// Create review_sessions table
	_, err = DB.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS review_sessions (
			id %s,
			uid TEXT NOT NULL UNIQUE,
			owner_id BIGINT NOT NULL,
			session_type TEXT NOT NULL,
			mode TEXT NOT NULL DEFAULT 'flashcard',
			is_repeat BOOLEAN DEFAULT false,
			cards TEXT NOT NULL,
			cards_reviewed INTEGER NOT NULL DEFAULT 0,
			correct_answers INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, pk))
	if err != nil {
		return fmt.Errorf("failed to create review_sessions table: %v", err)
	}

	// Create streaks table
	_, err = DB.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS streaks (
			id %s,
			owner_id BIGINT NOT NULL UNIQUE,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			last_review_date TIMESTAMP,
			streak_updated_at TIMESTAMP NOT NULL
		)
	`, pk))
	if err != nil {
		return fmt.Errorf("failed to create streaks table: %v", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_cards_owner_status ON cards(owner_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_cards_next_review ON cards(owner_id, next_review)",
		"CREATE INDEX IF NOT EXISTS idx_events_owner_created ON review_events(owner_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_events_card_created ON review_events(card_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_sessions_owner ON review_sessions(owner_id)",
	}
	for _, stmt := range indexes {
		if _, err := DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create index: %v", err)
		}
	}

	return nil
}
