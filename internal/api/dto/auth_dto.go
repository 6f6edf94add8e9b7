package dto

import "time"

// GoogleLoginRequest carries the provider identity assertion.
type GoogleLoginRequest struct {
	Credential string `json:"credential"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the caller-visible identity record.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar,omitempty"`
	LastLogin time.Time `json:"last_login"`
}
