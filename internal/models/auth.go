package models

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register. The agent profile
// fields are sent flat next to the credentials.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	City     string `json:"city"`
	Image    string `json:"image"`
}

// AuthResponse is returned by login and register. Agent is set on register only.
type AuthResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
	Agent *Agent   `json:"agent,omitempty"`
}

// VerifyResponse is returned by GET /auth/verify
type VerifyResponse struct {
	Valid bool     `json:"valid"`
	User  UserInfo `json:"user"`
}
