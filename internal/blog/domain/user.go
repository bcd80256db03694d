package domain

import "time"

type User struct {
	ID           int64
	Username     string
	Email        string
	FullName     string
	PasswordHash string     // argon2id PHC string, never plaintext
	MFASecret    *string    // TOTP secret, base32 (nullable)
	MFAEnabledAt *time.Time // set once the secret has been confirmed
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MFAEnabled reports whether login requires a one-time code.
func (u User) MFAEnabled() bool {
	return u.MFAEnabledAt != nil && u.MFASecret != nil
}
