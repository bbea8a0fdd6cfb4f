// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them. Generic
// codes mirror HTTP status semantics, domain codes name the business rule
// that rejected the request. Every admin error response carries one of them
// in the ErrorResponse envelope:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "forbidden_status",
//	  "message": "role may not set this status"
//	}
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeValidation   = "validation_failed"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeForbiddenStatus   = "forbidden_status"
	ErrCodeInsufficientStock = "insufficient_stock"
	ErrCodeChannelDisabled   = "channel_disabled"
	ErrCodeDeliveryFailed    = "delivery_failed"
	ErrCodeStorageFailed     = "storage_failed"
)
