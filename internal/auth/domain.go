package auth

import "time"

// RoleUser is the default authority granted on registration.
const RoleUser = "USER"

// User represents a registered account. Accounts are created disabled and
// enabled exactly once by a successful activation; this core never disables
// them again.
type User struct {
	ID            int64
	Email         string
	FirstName     string
	LastName      string
	PasswordHash  string
	Enabled       bool
	AccountLocked bool
	Roles         []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FullName returns the display name embedded in session tokens.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// ActivationToken is a short-lived numeric code proving control of the
// registered email. A token is usable at most once: ValidatedAt is set on the
// successful activation and guards every later attempt.
type ActivationToken struct {
	ID          int64
	UserID      int64
	Code        string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	ValidatedAt *time.Time
}
