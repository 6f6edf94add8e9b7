package domain

import "time"

// User is the identity record resolved from a provider login. Provider-sourced
// profile fields are overwritten on every successful login.
type User struct {
	ID                string
	ProviderSubjectID string
	Email             string
	DisplayName       string
	AvatarURL         string
	LastLoginAt       time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IdentityContext is the request-scoped identity produced by session
// validation and consumed by note operations. It carries no mutable state.
type IdentityContext struct {
	UserID      string
	Email       string
	DisplayName string
	AvatarURL   string
}
