package shared

import "errors"

var (
	// ErrNotFound indicates the requested entity, token, or record is absent.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness constraint was violated.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked indicates login against a locked account.
	ErrAccountLocked = errors.New("account locked")
	// ErrAccountDisabled indicates login against a not-yet-activated account.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrTokenExpired indicates an activation token past its TTL.
	ErrTokenExpired = errors.New("activation token expired")
	// ErrTokenUsed indicates an activation token that was already validated.
	ErrTokenUsed = errors.New("activation token already used")
	// ErrForbidden indicates a lending policy predicate failed.
	ErrForbidden = errors.New("operation not permitted")
	// ErrConflict indicates a concurrent-mutation race, e.g. double borrow.
	// It is the only error a caller may safely retry.
	ErrConflict = errors.New("conflicting state change")
)

// Forbidden wraps a policy reason so handlers surface the specific predicate
// that failed while callers keep matching on ErrForbidden.
func Forbidden(reason string) error {
	return &forbiddenError{reason: reason}
}

type forbiddenError struct {
	reason string
}

func (e *forbiddenError) Error() string {
	return e.reason
}

func (e *forbiddenError) Unwrap() error {
	return ErrForbidden
}
