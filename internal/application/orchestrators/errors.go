package orchestrators

import (
	"errors"
	"log/slog"
)

// ErrorKind classifies why an action failed. The HTTP layer maps kinds to
// status codes; the message is always safe to show the user.
type ErrorKind string

// Error kinds
const (
	KindValidation    ErrorKind = "validation"
	KindPolicy        ErrorKind = "policy"
	KindConflict      ErrorKind = "conflict"
	KindStorage       ErrorKind = "storage"
	KindAuthorization ErrorKind = "authorization"
	KindNotFound      ErrorKind = "not_found"
)

// ActionError is the failure result of every Execute* orchestrator.
type ActionError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ActionError) Error() string { return e.Message }

func (e *ActionError) Unwrap() error { return e.Err }

// KindOf returns the kind of an *ActionError in err's chain, or KindStorage
// for any other error.
func KindOf(err error) ErrorKind {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindStorage
}

// User-facing messages
const (
	MsgSignInRequired     = "You need to sign in first."
	MsgAdminRequired      = "This action requires admin rights."
	MsgInactiveMember     = "Your account is inactive, bookings are disabled."
	MsgInvalidSlot        = "Invalid date or time."
	MsgNonMemberHour      = "Court renters cannot book this time under the current daily rules."
	MsgCourtClosed        = "This court is closed at the selected time."
	MsgCourtUnavailable   = "The selected court is not available."
	MsgBookingNotActive   = "The booking was not found or is no longer active."
	MsgNotBookingOwner    = "You can only modify your own bookings."
	MsgNothingSelected    = "Select at least one booking to cancel."
	MsgNothingCancellable = "None of the selected bookings can be cancelled."
	MsgSaveBookingFailed  = "Saving the booking failed."
	MsgCancelFailed       = "Saving the cancellation failed."
	MsgBusy               = "Another booking of yours is being processed, please try again."
	MsgSaveFailed         = "Saving failed, please try again."
	MsgMemberRequired     = "Select a member."
	MsgZeroAmount         = "The amount cannot be zero."
	MsgOwnAdminRole       = "You cannot remove your own admin role."
	MsgInvalidCredentials = "Invalid email or password."
	MsgAccountLocked      = "Too many failed attempts, try again in 15 minutes."
)

func newError(kind ErrorKind, msg string, err error) *ActionError {
	return &ActionError{Kind: kind, Message: msg, Err: err}
}

// validationError surfaces a domain sentinel's own message.
func validationError(err error) *ActionError {
	return &ActionError{Kind: KindValidation, Message: capitalize(err.Error()), Err: err}
}

// storageError logs the cause and returns a generic failure.
func storageError(event, msg string, err error) *ActionError {
	slog.Error("storage_event", "event", event, "error", err)
	return &ActionError{Kind: KindStorage, Message: msg, Err: err}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b) + "."
}
