// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to
// HTTP responses via the `fail()` helper. These codes give clients a stable,
// machine-readable error taxonomy supplementing human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless noted.
//   - Generic codes (bad_request, not_found, conflict) mirror common HTTP
//     status semantics.
//   - Domain-specific codes (record_failed, search_failed) are reserved for
//     business logic errors that cannot be conveyed by status alone.

package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeListFailed       = "list_failed"
	ErrCodeSearchFailed     = "search_failed"
	ErrCodeStatsFailed      = "stats_failed"
	ErrCodeRecordFailed     = "record_failed"
	ErrCodeDeleteFailed     = "delete_failed"
	ErrCodeKeywordFailed    = "keyword_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
