package identity

import (
	"errors"
	"regexp"
	"time"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 1-64 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// maxUsernameLength is the maximum allowed username length.
const maxUsernameLength = 64

// minPasswordLength is the minimum accepted plaintext password length.
const minPasswordLength = 8

// IsValidUsername checks if a username meets format requirements.
// Usernames must be 1-64 characters, alphanumeric with dots, hyphens, underscores.
func IsValidUsername(username string) bool {
	return len(username) <= maxUsernameLength && usernamePattern.MatchString(username)
}

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleStandard is a regular account. It can view and update its own
	// record but cannot manage other identities.
	RoleStandard Role = "standard"

	// RoleAdmin has full control over identity management: listing,
	// role changes, activation toggles, and audit trail access.
	RoleAdmin Role = "admin"
)

// ValidRoles is the set of assignable roles.
var ValidRoles = []Role{RoleStandard, RoleAdmin}

// IsValidRole returns true if the role is a recognised role.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Satisfies returns true if the role meets or exceeds the required tier.
// Admin satisfies every requirement; standard satisfies only standard.
func (r Role) Satisfies(required Role) bool {
	if r == RoleAdmin {
		return true
	}
	return r == required
}

// Identity represents an authenticated account.
//
// PasswordHash is never serialised and must never appear in log output or
// API responses.
type Identity struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	Version      int64     `json:"-"` // optimistic concurrency counter
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the caller-facing view of an identity. It carries everything a
// client may see about an account and nothing it may not.
type Profile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileView returns the identity's caller-facing projection.
func (i *Identity) ProfileView() Profile {
	return Profile{
		ID:          i.ID,
		Username:    i.Username,
		DisplayName: i.DisplayName,
		Role:        i.Role,
		IsActive:    i.IsActive,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

// Sentinel errors for identity operations.
var (
	// ErrInvalidCredentials is returned for every login failure — unknown
	// username, wrong password, or deactivated account. The single shape
	// prevents username enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrIdentityNotFound = errors.New("identity not found")
	ErrUsernameExists   = errors.New("username already exists")
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenInvalid     = errors.New("invalid token")
	ErrForbidden        = errors.New("insufficient permissions")
	ErrSelfModification = errors.New("cannot modify own account in this way")

	// ErrVersionConflict is surfaced after an optimistic-concurrency retry
	// has already been attempted once.
	ErrVersionConflict = errors.New("identity was modified concurrently")
)

// ValidationError describes rejected input. It is distinct from the
// authentication and authorisation errors so the transport can map it to a
// client-correctable response.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// validateRegistration checks registration input before any digest is computed.
func validateRegistration(username, password string) error {
	if username == "" {
		return &ValidationError{Field: "username", Reason: "must not be empty"}
	}
	if !IsValidUsername(username) {
		return &ValidationError{Field: "username", Reason: "must be 1-64 characters: letters, digits, dots, hyphens, underscores"}
	}
	if password == "" {
		return &ValidationError{Field: "password", Reason: "must not be empty"}
	}
	if len(password) < minPasswordLength {
		return &ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	return nil
}
