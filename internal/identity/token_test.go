package identity

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret-key-for-jwt-signing-1234"

func testTokenManager() *TokenManager {
	return NewTokenManager(testSecret, "eventos-test", 15*time.Minute)
}

func TestIssueAndVerify(t *testing.T) {
	ident := &Identity{
		ID:       "usr-001",
		Username: "alice",
		Role:     RoleAdmin,
	}

	tm := testTokenManager()

	token, err := tm.Issue(ident)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Fatalf("token has %d segments, want 3", len(parts))
	}

	claims, err := tm.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if claims.Subject != "usr-001" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "usr-001")
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q, want %q", claims.Username, "alice")
	}
	if claims.Role != RoleAdmin {
		t.Errorf("Role = %q, want %q", claims.Role, RoleAdmin)
	}
	if claims.Issuer != "eventos-test" {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, "eventos-test")
	}
	if claims.ID == "" {
		t.Error("JTI (ID) should not be empty")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	ident := &Identity{ID: "usr-001", Username: "alice", Role: RoleStandard}

	token, err := testTokenManager().Issue(ident)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	other := NewTokenManager("a-completely-different-signing-secret", "eventos-test", 15*time.Minute)
	_, err = other.Verify(token)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Verify() with wrong secret: error = %v, want ErrTokenInvalid", err)
	}
}

func TestVerify_WrongIssuer(t *testing.T) {
	ident := &Identity{ID: "usr-001", Username: "alice", Role: RoleStandard}

	foreign := NewTokenManager(testSecret, "someone-else", 15*time.Minute)
	token, err := foreign.Issue(ident)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	_, err = testTokenManager().Verify(token)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Verify() with wrong issuer: error = %v, want ErrTokenInvalid", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	ident := &Identity{ID: "usr-001", Username: "alice", Role: RoleStandard}

	issuedAt := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	tm := testTokenManager().WithClock(func() time.Time { return issuedAt })

	token, err := tm.Issue(ident)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Within the validity window the token verifies.
	within := tm.WithClock(func() time.Time { return issuedAt.Add(14 * time.Minute) })
	if _, err := within.Verify(token); err != nil {
		t.Fatalf("Verify() within TTL: error = %v", err)
	}

	// Past expiry it fails with the expiry sentinel.
	after := tm.WithClock(func() time.Time { return issuedAt.Add(16 * time.Minute) })
	_, err = after.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Verify() after TTL: error = %v, want ErrTokenExpired", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	tm := testTokenManager()

	for _, token := range []string{"", "not-a-valid-jwt", "abc.def", "a.b.c.d"} {
		if _, err := tm.Verify(token); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("Verify(%q): error = %v, want ErrTokenInvalid", token, err)
		}
	}
}

func TestNewTokenManager_DefaultTTL(t *testing.T) {
	tm := NewTokenManager(testSecret, "eventos-test", 0)
	if tm.TTL() != 15*time.Minute {
		t.Errorf("TTL() = %v, want 15m default", tm.TTL())
	}
}
