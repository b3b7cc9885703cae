package domain

import "errors"

// Session error taxonomy. Adapters wrap these with context; callers match with errors.Is.
var (
	// ErrAuthentication indicates the credential exchange was rejected or MFA was not completed.
	ErrAuthentication = errors.New("authentication failed")

	// ErrPromptCancelled indicates the operator closed the credential prompt.
	// It is a kind of authentication failure.
	ErrPromptCancelled = &cancelledError{}

	// ErrTenantMismatch indicates sign-in reached a different tenant than the one requested.
	// It is a kind of authentication failure.
	ErrTenantMismatch = &mismatchError{}

	// ErrPermission indicates the signed-in principal lacks a required administrative role.
	ErrPermission = errors.New("insufficient permissions")

	// ErrServiceUnavailable indicates a remote API could not be reached or failed server-side.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrBusy indicates another session operation is already in flight.
	ErrBusy = errors.New("session operation already in progress")

	// ErrInvalidState indicates the operation is not valid from the current session state.
	ErrInvalidState = errors.New("invalid session state")

	// ErrNotFound indicates a requested remote object does not exist.
	ErrNotFound = errors.New("not found")
)

type cancelledError struct{}

func (*cancelledError) Error() string { return "credential prompt cancelled" }

func (*cancelledError) Unwrap() error { return ErrAuthentication }

type mismatchError struct{}

func (*mismatchError) Error() string { return "signed in to a different tenant" }

func (*mismatchError) Unwrap() error { return ErrAuthentication }
