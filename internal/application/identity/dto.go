package identity

import "time"

// SignupInput contains the data needed to register a user
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput contains the credentials for a login attempt
type LoginInput struct {
	Username string
	Password string
}

// RefreshTokenInput contains the refresh token to exchange
type RefreshTokenInput struct {
	RefreshToken string
}

// UserInfo is the user projection returned to callers
type UserInfo struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResult carries a freshly issued token pair
type TokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LoginResult is returned after a successful login
type LoginResult struct {
	TokenResult
	User UserInfo `json:"user"`
}
