// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them. Generic
// codes mirror HTTP status semantics. Domain codes name the failure when the
// status alone is ambiguous (a 400 can be a bad key or an unpaid order).
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "key_invalid",
//	  "message": "access key is invalid"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeKeyInvalid         = "key_invalid"
	ErrCodeOrderNotCompleted  = "order_not_completed"
	ErrCodeAlreadyUnlocked    = "already_unlocked"
	ErrCodeItemMissing        = "item_missing"
	ErrCodeRedownloadRequired = "redownload_confirmation_required"
	ErrCodeInvalidTransition  = "invalid_transition"
	ErrCodeTicketInvalid      = "ticket_invalid"
	ErrCodeStorageUnavailable = "storage_unavailable"
	ErrCodeWatermarkFailed    = "watermark_failed"
	ErrCodeValidationFailed   = "validation_failed"
)
