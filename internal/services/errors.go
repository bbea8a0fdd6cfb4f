// Package services holds the business logic of the repair bot: ticket
// numbering, the LINE conversation, form submissions, status updates with
// their notification fan-out, ratings, and the admin dashboard operations.
//
// Service methods return the sentinels below for predictable outcomes and
// *domain.ValidationError for rejected input. Translation into HTTP status
// codes and user-facing text happens in the handlers.
package services

import "errors"

var (
	// ErrRequestNotFound indicates that no repair request carries the ID.
	ErrRequestNotFound = errors.New("repair request not found")

	// ErrNothingToUpdate is returned by a status update that names no field.
	ErrNothingToUpdate = errors.New("no field to update")

	// ErrForbiddenStatus is returned when the actor's role may not set the
	// requested status.
	ErrForbiddenStatus = errors.New("role may not set this status")

	// ErrInvalidStatus is returned for an unknown status token.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidCredentials is returned by login for an unknown user, a
	// wrong password or a deactivated account.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserExists is returned when creating an admin that already exists.
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotFound indicates that no admin user has the username.
	ErrUserNotFound = errors.New("user not found")

	// ErrPoleExists is returned when adding a duplicate pole ID.
	ErrPoleExists = errors.New("pole already exists")

	// ErrPoleNotFound indicates that no pole has the ID.
	ErrPoleNotFound = errors.New("pole not found")

	// ErrItemExists is returned when adding a duplicate inventory item.
	ErrItemExists = errors.New("inventory item already exists")

	// ErrItemNotFound indicates that no inventory item has the name.
	ErrItemNotFound = errors.New("inventory item not found")

	// ErrInsufficientStock is returned when a withdrawal exceeds stock.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidAdjustment is returned for an unknown adjustment kind or a
	// non-positive quantity.
	ErrInvalidAdjustment = errors.New("invalid stock adjustment")

	// ErrSignatureNotFound indicates that no signature has the file name.
	ErrSignatureNotFound = errors.New("signature not found")

	// ErrInvalidSignature is returned for an undecodable signature upload.
	ErrInvalidSignature = errors.New("invalid signature image")

	// ErrInvalidPeriod is returned for a malformed counter period token.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrStaffChannelDisabled is returned by the connectivity test when the
	// Telegram settings are incomplete.
	ErrStaffChannelDisabled = errors.New("staff channel not configured")
)
