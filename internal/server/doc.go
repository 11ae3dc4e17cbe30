// Package server implements the read-only HTTP plan service for deployer.
//
// For a registered project the server answers "what would be deployed for
// this branch": it loads the project's .deployer.conf on every request and
// reports the resolved method, task and notification address. Nothing is
// ever executed or scheduled.
//
// This package provides:
//   - Plan lookup by project and branch
//   - GitHub push webhook handling with HMAC signature verification
//   - Per-IP rate limiting to prevent abuse
//   - Health endpoint for monitoring
//   - Structured request logging via zerolog
//
// Security features:
//   - HMAC-SHA256 webhook signature verification
//   - Content-Type validation (application/json only)
//   - Payload size limits (1MB max)
//   - Project and branch name validation before any lookup
package server
