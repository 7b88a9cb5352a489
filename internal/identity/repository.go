package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for identity persistence.
// The service layer depends only on these narrow operations.
type Repository interface {
	Create(ctx context.Context, ident *Identity) error
	GetByID(ctx context.Context, id string) (*Identity, error)
	GetByUsername(ctx context.Context, username string) (*Identity, error)
	List(ctx context.Context) ([]Identity, error)
	Update(ctx context.Context, ident *Identity) error
	Count(ctx context.Context) (int, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed identity repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const identityColumns = "id, username, display_name, password_hash, role, is_active, version, created_at, updated_at"

// Create inserts a new identity. The ID is generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, ident *Identity) error {
	if ident.ID == "" {
		ident.ID = "usr-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Format(time.RFC3339)
	ident.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	ident.UpdatedAt = ident.CreatedAt
	ident.Version = 1

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO identities (id, username, display_name, password_hash, role, is_active, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ident.ID, ident.Username, ident.DisplayName, ident.PasswordHash,
		string(ident.Role), boolToInt(ident.IsActive), ident.Version, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("creating identity: %w", err)
	}

	return nil
}

// GetByID retrieves an identity by its unique ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Identity, error) {
	return r.getIdentity(ctx, "SELECT "+identityColumns+" FROM identities WHERE id = ?", id)
}

// GetByUsername retrieves an identity by its username.
func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*Identity, error) {
	return r.getIdentity(ctx, "SELECT "+identityColumns+" FROM identities WHERE username = ?", username)
}

// List returns all identities ordered by creation date.
func (r *SQLiteRepository) List(ctx context.Context) ([]Identity, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+identityColumns+" FROM identities ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("listing identities: %w", err)
	}
	defer rows.Close()

	var idents []Identity
	for rows.Next() {
		i, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		idents = append(idents, *i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating identities: %w", err)
	}

	if idents == nil {
		idents = []Identity{}
	}
	return idents, nil
}

// Update modifies an identity's mutable fields (display_name, password_hash,
// role, is_active) guarded by the version column: the write applies only when
// the stored version matches the one the caller read. On success the
// identity's version is bumped in place. A version mismatch returns
// ErrVersionConflict so the caller can re-read and retry.
func (r *SQLiteRepository) Update(ctx context.Context, ident *Identity) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx,
		`UPDATE identities
		 SET display_name = ?, password_hash = ?, role = ?, is_active = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		ident.DisplayName, ident.PasswordHash, string(ident.Role),
		boolToInt(ident.IsActive), now, ident.ID, ident.Version,
	)
	if err != nil {
		return fmt.Errorf("updating identity: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		// Distinguish a missing row from a concurrent write.
		if _, getErr := r.GetByID(ctx, ident.ID); getErr != nil {
			return getErr
		}
		return ErrVersionConflict
	}

	ident.Version++
	ident.UpdatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	return nil
}

// Count returns the total number of identities.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting identities: %w", err)
	}
	return count, nil
}

// getIdentity executes a query and scans a single identity result.
func (r *SQLiteRepository) getIdentity(ctx context.Context, query string, args ...any) (*Identity, error) {
	return scanIdentity(r.db.QueryRowContext(ctx, query, args...))
}

// scanner is an interface over sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanIdentity scans an identity from any scanner (Row or Rows).
func scanIdentity(s scanner) (*Identity, error) {
	var i Identity
	var role string
	var isActive int
	var createdAt, updatedAt string

	err := s.Scan(&i.ID, &i.Username, &i.DisplayName, &i.PasswordHash,
		&role, &isActive, &i.Version, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("scanning identity: %w", err)
	}

	i.Role = Role(role)
	i.IsActive = isActive != 0
	i.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	i.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &i, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "unique constraint"))
}
