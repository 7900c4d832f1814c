package submission

import "errors"

var (
	// ErrAlreadyInProgress is returned by Submit while a submission is in
	// flight. The in-flight submission is not affected.
	ErrAlreadyInProgress = errors.New("submission already in progress")

	// ErrResetRequired is returned by Submit after a successful submission;
	// call Reset to start a new invitation.
	ErrResetRequired = errors.New("submission already succeeded, reset before submitting again")
)
