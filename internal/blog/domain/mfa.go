package domain

// MFAEnrollment is a generated but not yet confirmed TOTP secret.
type MFAEnrollment struct {
	Secret string
	URL    string // otpauth:// URI for authenticator apps
}
