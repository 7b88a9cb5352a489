// Package api implements the HTTP REST API server for Eventos Core.
//
// This package provides:
//   - Auth endpoints (register, login, logout, profile)
//   - Identity management endpoints for administrators
//   - Audit trail queries
//   - Middleware stack (request ID, logging, recovery, CORS, JWT auth)
//   - TLS support for production deployments
//
// # Architecture
//
// The API server is thin glue: request decoding, claims extraction, and
// response shaping. Every authorisation decision and business rule lives in
// the identity service; handlers never bypass it to reach the repositories.
//
// # Security
//
// Protected routes require a Bearer access token. The auth middleware
// verifies the token and attaches the claims to the request context;
// handlers pass those claims to the service, which decides what the caller
// may do.
package api
