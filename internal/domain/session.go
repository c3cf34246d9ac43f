package domain

// Persisted session keys. KeyName is cleared on login failure but never written.
const (
	KeyUsername  = "username"
	KeyAuthToken = "authToken"
	KeyName      = "name"
)

// Session is the authenticated identity kept between runs.
// A present token is trusted without validation.
type Session struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the success body of POST /auth/login.
type LoginResponse struct {
	Token string `json:"token"`
}

// APIError is the error body returned by the backend.
type APIError struct {
	Message string `json:"message"`
}
