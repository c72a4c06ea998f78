// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. Generic codes mirror HTTP status semantics, domain codes
// cover conditions the status alone cannot convey. The middleware package
// writes its own "unauthorized" and "too_many_requests" envelopes.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "rotation_unavailable",
//	  "message": "listing rotation is temporarily unavailable"
//	}
package handlers

const (
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"
	ErrCodeTimeout          = "timeout"

	// Domain-specific:
	ErrCodeRotationUnavailable = "rotation_unavailable"
)
