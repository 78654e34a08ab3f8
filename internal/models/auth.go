package models

import "github.com/golang-jwt/jwt/v5"

// TokenKind discriminates access from refresh tokens so one cannot be
// presented in place of the other.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// JWTClaims represents the signed token payload. Both token kinds carry the
// same identity fields.
type JWTClaims struct {
	UserID   string    `json:"user_id"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
	SchoolID string    `json:"school_id"`
	Kind     TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// AuthUser describes the authenticated user in auth responses.
type AuthUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	SchoolID string `json:"schoolId"`
	IsActive bool   `json:"isActive"`
}

// TokenPair is the issued credential set. Field names follow the public API
// contract.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse returns the issued tokens and the authenticated user.
type LoginResponse struct {
	TokenPair
	User AuthUser `json:"user"`
}

// RegisterResponse returns the created school and its first admin.
type RegisterResponse struct {
	User   AuthUser `json:"user"`
	School School   `json:"school"`
}
