// Package services defines the business logic of the delivery pipeline: key
// minting and redemption, order fulfillment, download authorization and the
// supporting order and entitlement queries. This file centralizes the
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"

	"github.com/tbourn/studyvault/internal/watermark"
)

// Authorization and validation failures. These are terminal and reported to
// the caller as-is.
var (
	// ErrKeyInvalid covers an unknown, already-bound or mistyped access key.
	// The three cases are deliberately indistinguishable.
	ErrKeyInvalid = errors.New("access key is invalid")

	// ErrRedeemThrottled is returned when a user exceeded the redemption
	// attempt quota for the current window.
	ErrRedeemThrottled = errors.New("too many redemption attempts")

	// ErrUnauthorized indicates a missing identity or an order that belongs to
	// another user.
	ErrUnauthorized = errors.New("not authorized")

	// ErrForbidden indicates the requester does not own the entitlement or
	// the download ticket was issued for another object.
	ErrForbidden = errors.New("forbidden")

	// ErrEntitlementNotFound indicates the requested unlock record does not exist.
	ErrEntitlementNotFound = errors.New("entitlement not found")

	// ErrOrderNotFound indicates the requested order does not exist or is not
	// visible to the current user.
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderNotCompleted is returned when fulfillment is attempted before
	// payment was confirmed.
	ErrOrderNotCompleted = errors.New("order is not completed")

	// ErrAlreadyUnlocked is returned when an order's content was unlocked before.
	ErrAlreadyUnlocked = errors.New("order content already unlocked")

	// ErrRedownloadNotConfirmed is returned for an already-downloaded
	// entitlement unless the caller explicitly confirmed a re-download.
	ErrRedownloadNotConfirmed = errors.New("re-download requires confirmation")

	// ErrInvalidContentType is returned for a variant other than note or assignment.
	ErrInvalidContentType = errors.New("content type must be note or assignment")

	// ErrEmptyOrder is returned by checkout when no line items were supplied.
	ErrEmptyOrder = errors.New("order has no items")

	// ErrInvalidTransition is returned for an order status change that the
	// lifecycle does not allow.
	ErrInvalidTransition = errors.New("order status transition not allowed")

	// ErrInvalidCount is returned when a batch size is out of range.
	ErrInvalidCount = errors.New("count out of range")

	// ErrTicketInvalid is returned for a missing, expired or forged download ticket.
	ErrTicketInvalid = errors.New("download ticket invalid")
)

// Data integrity and infrastructure failures.
var (
	// ErrItemMissing indicates a catalog gap: the unit or its files are absent.
	// Redemption aborts without burning the key; fulfillment skips the line.
	ErrItemMissing = errors.New("catalog item missing")

	// ErrCorruptSource is returned when a note could not be watermarked.
	ErrCorruptSource = watermark.ErrCorruptSource

	// ErrStorageUnavailable wraps blob store failures. No state was mutated,
	// so callers may retry.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrObjectNotFound indicates the blob store has no object for the key.
	ErrObjectNotFound = errors.New("object not found")
)
