package identity

// Deny reasons. These are stable strings surfaced to callers and logs.
const (
	DenyUnauthenticated       = "unauthenticated"
	DenyInsufficientPrivilege = "insufficient privilege"
)

// Decision is the outcome of an authorisation check.
type Decision struct {
	Allowed bool
	Reason  string // set only on deny
}

// allow is the single allowed decision value.
var allow = Decision{Allowed: true}

// Authorize maps (verified claims, required role) to an allow/deny decision.
//
// It is pure and side-effect-free: nil claims deny as unauthenticated, a role
// below the requirement denies as insufficient privilege, anything else
// allows. Callers must evaluate it before any mutating work and stop on deny.
func Authorize(claims *Claims, required Role) Decision {
	if claims == nil {
		return Decision{Reason: DenyUnauthenticated}
	}
	if !claims.Role.Satisfies(required) {
		return Decision{Reason: DenyInsufficientPrivilege}
	}
	return allow
}

// AuthorizeSelfOrAdmin allows an identity to act on its own record regardless
// of role, and admins to act on any record.
func AuthorizeSelfOrAdmin(claims *Claims, subjectID string) Decision {
	if claims == nil {
		return Decision{Reason: DenyUnauthenticated}
	}
	if claims.Subject == subjectID {
		return allow
	}
	return Authorize(claims, RoleAdmin)
}
