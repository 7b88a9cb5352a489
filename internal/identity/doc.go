// Package identity provides authentication and authorisation for Eventos Core.
//
// It implements a 2-tier role model (standard → admin) with:
//   - Deterministic SHA-256 credential digests (a retained legacy scheme —
//     see HashPassword for the trade-off)
//   - Signed HS256 JWT access tokens with issuer and expiry validation
//   - A pure, stateless authorisation guard evaluated before every mutation
//   - Optimistic concurrency on identity updates with a single retry
//   - An idempotent first-boot administrator seed
//
// Tokens are stateless: logout is a client-side acknowledgement recorded in
// the audit trail, and an issued token stays valid until its expiry.
// Deactivated identities cannot authenticate; tokens they already hold are
// not revoked server-side.
package identity
