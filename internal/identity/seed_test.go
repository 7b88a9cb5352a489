package identity

import (
	"context"
	"testing"

	"github.com/sernajr/eventos-core/internal/infrastructure/logging"
)

func TestSeedAdmin_CreatesOnEmptyDB(t *testing.T) {
	repo := NewRepository(testDB(t))
	logger := logging.Default()
	ctx := context.Background()

	password, err := SeedAdmin(ctx, repo, logger)
	if err != nil {
		t.Fatalf("SeedAdmin() error = %v", err)
	}

	if password == "" {
		t.Fatal("SeedAdmin() should return generated password")
	}

	admin, err := repo.GetByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetByUsername(admin) error = %v", err)
	}

	if admin.Role != RoleAdmin {
		t.Errorf("Role = %q, want %q", admin.Role, RoleAdmin)
	}

	if !admin.IsActive {
		t.Error("seed admin should be active")
	}

	if !VerifyPassword(password, admin.PasswordHash) {
		t.Error("generated password should verify against stored hash")
	}
}

func TestSeedAdmin_SkipsWhenIdentitiesExist(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)
	logger := logging.Default()
	ctx := context.Background()

	seedTestIdentity(t, db, "existing", RoleStandard)

	password, err := SeedAdmin(ctx, repo, logger)
	if err != nil {
		t.Fatalf("SeedAdmin() error = %v", err)
	}

	if password != "" {
		t.Error("SeedAdmin() should return empty password when identities exist")
	}

	count, _ := repo.Count(ctx)
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestSeedAdmin_UniquePasswords(t *testing.T) {
	logger := logging.Default()
	ctx := context.Background()

	pw1, _ := SeedAdmin(ctx, NewRepository(testDB(t)), logger)
	pw2, _ := SeedAdmin(ctx, NewRepository(testDB(t)), logger)

	if pw1 == pw2 {
		t.Error("seed passwords should be unique across instances")
	}
}
