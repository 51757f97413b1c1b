package application

import "errors"

// Sentinel errors returned by the controllers and services.
var (
	// ErrUnmounted is returned by every operation on a controller whose view
	// has been torn down.
	ErrUnmounted = errors.New("view is unmounted")

	// ErrNotFoundLocal indicates the id is not in the in-memory collection.
	ErrNotFoundLocal = errors.New("repository not found in view")

	// ErrEditInProgress indicates the operation conflicts with the row that
	// currently holds the editing token.
	ErrEditInProgress = errors.New("another row is being edited")

	// ErrNotEditing indicates the row does not hold the editing token.
	ErrNotEditing = errors.New("row is not being edited")

	// ErrSubmitting indicates a submission for the same row is still in flight.
	ErrSubmitting = errors.New("a submission is already in progress")

	// ErrNotConfirmed is returned when a delete was not confirmed by the user.
	ErrNotConfirmed = errors.New("delete not confirmed")

	// ErrNewRowClosed indicates the new-row form is not open.
	ErrNewRowClosed = errors.New("new row is not open")

	// ErrNoToken indicates a repository's credential carries no token to
	// authenticate the compose fetch with.
	ErrNoToken = errors.New("credential has no token")
)
