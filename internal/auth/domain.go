package auth

// User represents an authenticated user account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	RoleID       string
	IsActive     bool
}

// SessionInfo is returned by login and me.
type SessionInfo struct {
	UserID    int64  `json:"userId"`
	Role      string `json:"role"`
	CSRFToken string `json:"csrfToken,omitempty"`
}
