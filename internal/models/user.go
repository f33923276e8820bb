package models

// User represents an account in the mistake book.
// Passwords are stored as bcrypt hashes; the plaintext never persists.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash,omitempty"`
	Nickname     string `json:"nickname"`
	Avatar       string `json:"avatar"`
	// ExternalToken authenticates the browser-extension API path
	// (X-External-Token header). Opaque to clients.
	ExternalToken string `json:"externalToken,omitempty"`
	CreatedAt     int64  `json:"createdAt,omitempty"`
}
