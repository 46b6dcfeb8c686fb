package domain

// User is a row of the users table as seen by the login check
type User struct {
	Username string `json:"username"`
	Password string `json:"-"`
}

// LoginRequest represents a login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
