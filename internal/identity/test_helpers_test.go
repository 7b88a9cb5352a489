package identity

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the identities schema applied.
// The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	f, err := os.CreateTemp("", "identity-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrationSQL := `
		CREATE TABLE identities (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'standard',
			is_active INTEGER NOT NULL DEFAULT 1,
			version INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE UNIQUE INDEX idx_identities_username ON identities(username);
		CREATE INDEX idx_identities_role ON identities(role);
	`
	if _, err := db.Exec(migrationSQL); err != nil {
		t.Fatalf("applying identities migration: %v", err)
	}

	return db
}

// seedTestIdentity inserts a test identity and returns it.
func seedTestIdentity(t *testing.T, db *sql.DB, username string, role Role) *Identity {
	t.Helper()

	repo := NewRepository(db)
	ident := &Identity{
		Username:     username,
		DisplayName:  username,
		PasswordHash: HashPassword("test-password"),
		Role:         role,
		IsActive:     true,
	}
	if err := repo.Create(context.Background(), ident); err != nil {
		t.Fatalf("creating test identity %s: %v", username, err)
	}
	return ident
}
