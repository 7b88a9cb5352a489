package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/sernajr/eventos-core/internal/infrastructure/logging"
)

// Audit action names emitted by the service.
const (
	actionRegister    = "identity.register"
	actionLogin       = "identity.login"
	actionLoginFailed = "identity.login.failed"
	actionLogout      = "identity.logout"
	actionUpdate      = "identity.update"
	actionSetActive   = "identity.set_active"
	actionSetRole     = "identity.set_role"

	entityTypeIdentity = "identity"
)

// AuditSink receives audit events from identity operations. Implementations
// must not block and must never let a recording failure reach the caller.
type AuditSink interface {
	Record(actorID, action, entityType, entityID string, details map[string]any)
}

// Service implements identity lifecycle operations: registration, login,
// profile access, and administrative management. Authorisation is evaluated
// inside each operation before any mutation; callers pass the verified claims
// of the requesting identity (nil for unauthenticated requests).
type Service struct {
	repo   Repository
	tokens *TokenManager
	audit  AuditSink
	logger *logging.Logger
}

// NewService creates an identity service.
func NewService(repo Repository, tokens *TokenManager, sink AuditSink, logger *logging.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		audit:  sink,
		logger: logger,
	}
}

// RegisterInput holds the fields for creating a new identity.
type RegisterInput struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// Register creates a new standard identity. It is open to unauthenticated
// callers; new accounts always start as active standard users.
func (s *Service) Register(ctx context.Context, actor *Claims, input RegisterInput) (*Identity, error) {
	if err := validateRegistration(input.Username, input.Password); err != nil {
		return nil, err
	}

	displayName := input.DisplayName
	if displayName == "" {
		displayName = input.Username
	}

	ident := &Identity{
		Username:     input.Username,
		DisplayName:  displayName,
		PasswordHash: HashPassword(input.Password),
		Role:         RoleStandard,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, ident); err != nil {
		return nil, err
	}

	s.logger.Info("identity registered", "identity_id", ident.ID, "username", ident.Username)
	s.audit.Record(actorID(actor), actionRegister, entityTypeIdentity, ident.ID,
		map[string]any{"username": ident.Username})

	return ident, nil
}

// Login verifies credentials and issues an access token. Unknown usernames,
// wrong passwords, and deactivated accounts all fail with
// ErrInvalidCredentials so a caller cannot probe which usernames exist.
func (s *Service) Login(ctx context.Context, username, password string) (string, *Identity, error) {
	ident, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			s.audit.Record("", actionLoginFailed, entityTypeIdentity, "",
				map[string]any{"username": username})
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !VerifyPassword(password, ident.PasswordHash) || !ident.IsActive {
		s.audit.Record("", actionLoginFailed, entityTypeIdentity, ident.ID,
			map[string]any{"username": username})
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(ident)
	if err != nil {
		return "", nil, fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("identity logged in", "identity_id", ident.ID, "username", ident.Username)
	s.audit.Record(ident.ID, actionLogin, entityTypeIdentity, ident.ID, nil)

	return token, ident, nil
}

// Logout records the end of a session. Tokens are stateless, so the issued
// token stays cryptographically valid until it expires; discard is the
// client's responsibility.
func (s *Service) Logout(ctx context.Context, actor *Claims) error {
	if d := Authorize(actor, RoleStandard); !d.Allowed {
		return ErrForbidden
	}

	s.audit.Record(actor.Subject, actionLogout, entityTypeIdentity, actor.Subject, nil)
	return nil
}

// Profile returns the requesting identity's own record.
func (s *Service) Profile(ctx context.Context, actor *Claims) (*Profile, error) {
	if d := Authorize(actor, RoleStandard); !d.Allowed {
		return nil, ErrForbidden
	}

	ident, err := s.repo.GetByID(ctx, actor.Subject)
	if err != nil {
		return nil, err
	}

	p := ident.ProfileView()
	return &p, nil
}

// Get returns a single identity. Standard users may fetch only their own
// record; admins may fetch any.
func (s *Service) Get(ctx context.Context, actor *Claims, id string) (*Profile, error) {
	if d := AuthorizeSelfOrAdmin(actor, id); !d.Allowed {
		return nil, ErrForbidden
	}

	ident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p := ident.ProfileView()
	return &p, nil
}

// List returns every identity. Admin only.
func (s *Service) List(ctx context.Context, actor *Claims) ([]Profile, error) {
	if d := Authorize(actor, RoleAdmin); !d.Allowed {
		return nil, ErrForbidden
	}

	idents, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make([]Profile, 0, len(idents))
	for i := range idents {
		profiles = append(profiles, idents[i].ProfileView())
	}
	return profiles, nil
}

// UpdateInput holds the optional fields of an identity update. Nil fields are
// left untouched.
type UpdateInput struct {
	DisplayName *string `json:"display_name,omitempty"`
	Password    *string `json:"password,omitempty"`
}

// Update changes an identity's display name and/or password. Standard users
// may update only their own record; admins may update any.
func (s *Service) Update(ctx context.Context, actor *Claims, id string, input UpdateInput) (*Profile, error) {
	if d := AuthorizeSelfOrAdmin(actor, id); !d.Allowed {
		return nil, ErrForbidden
	}

	if input.DisplayName != nil && *input.DisplayName == "" {
		return nil, &ValidationError{Field: "display_name", Reason: "must not be empty"}
	}
	if input.Password != nil && len(*input.Password) < minPasswordLength {
		return nil, &ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}

	ident, err := s.updateWithRetry(ctx, id, func(ident *Identity) error {
		if input.DisplayName != nil {
			ident.DisplayName = *input.DisplayName
		}
		if input.Password != nil {
			ident.PasswordHash = HashPassword(*input.Password)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	details := map[string]any{}
	if input.DisplayName != nil {
		details["display_name"] = *input.DisplayName
	}
	if input.Password != nil {
		details["password_changed"] = true
	}

	s.logger.Info("identity updated", "identity_id", ident.ID, "actor_id", actor.Subject)
	s.audit.Record(actor.Subject, actionUpdate, entityTypeIdentity, ident.ID, details)

	p := ident.ProfileView()
	return &p, nil
}

// SetActive activates or deactivates an identity. Admin only; an admin cannot
// deactivate their own account, so the system always retains a live admin
// session to undo mistakes. There is no hard delete: deactivation is the
// terminal state for retired accounts.
func (s *Service) SetActive(ctx context.Context, actor *Claims, id string, active bool) (*Profile, error) {
	if d := Authorize(actor, RoleAdmin); !d.Allowed {
		return nil, ErrForbidden
	}
	if actor.Subject == id && !active {
		return nil, ErrSelfModification
	}

	ident, err := s.updateWithRetry(ctx, id, func(ident *Identity) error {
		ident.IsActive = active
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("identity activation changed",
		"identity_id", ident.ID, "active", active, "actor_id", actor.Subject)
	s.audit.Record(actor.Subject, actionSetActive, entityTypeIdentity, ident.ID,
		map[string]any{"active": active})

	p := ident.ProfileView()
	return &p, nil
}

// SetRole changes an identity's role. Admin only; an admin cannot demote
// their own account.
func (s *Service) SetRole(ctx context.Context, actor *Claims, id string, role Role) (*Profile, error) {
	if d := Authorize(actor, RoleAdmin); !d.Allowed {
		return nil, ErrForbidden
	}
	if !IsValidRole(role) {
		return nil, &ValidationError{Field: "role", Reason: "must be one of: standard, admin"}
	}
	if actor.Subject == id && role != RoleAdmin {
		return nil, ErrSelfModification
	}

	ident, err := s.updateWithRetry(ctx, id, func(ident *Identity) error {
		ident.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("identity role changed",
		"identity_id", ident.ID, "role", role, "actor_id", actor.Subject)
	s.audit.Record(actor.Subject, actionSetRole, entityTypeIdentity, ident.ID,
		map[string]any{"role": string(role)})

	p := ident.ProfileView()
	return &p, nil
}

// updateWithRetry loads the identity, applies mutate, and writes it back.
// On a version conflict it reloads and retries exactly once; a second
// conflict surfaces ErrVersionConflict to the caller.
func (s *Service) updateWithRetry(ctx context.Context, id string, mutate func(*Identity) error) (*Identity, error) {
	for attempt := 0; attempt < 2; attempt++ {
		ident, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := mutate(ident); err != nil {
			return nil, err
		}

		err = s.repo.Update(ctx, ident)
		if err == nil {
			return ident, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, err
		}
		s.logger.Debug("retrying identity update after version conflict", "identity_id", id)
	}

	return nil, ErrVersionConflict
}

// actorID extracts the acting identity's id, or the empty string for
// unauthenticated callers.
func actorID(actor *Claims) string {
	if actor == nil {
		return ""
	}
	return actor.Subject
}
