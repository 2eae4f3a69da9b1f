package auth

// Credentials is the slice of the user record the login flow needs.
type Credentials struct {
	UserID       string
	Email        string
	PasswordHash string
	IsActive     bool
}
