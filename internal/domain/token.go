package domain

import "time"

// TokenKind separates the namespaces of single-use secrets issued to the same subject.
type TokenKind string

const (
	EmailVerification TokenKind = "EMAIL_VERIFICATION"
	PasswordReset     TokenKind = "PASSWORD_RESET"
)

// PendingToken is one outstanding single-use secret.
type PendingToken struct {
	SubjectKey string
	Kind       TokenKind
	Secret     string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Consumed   bool
}

// Expired reports whether the token is past its expiry at now.
func (t *PendingToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
