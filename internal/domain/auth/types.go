package auth

import "time"

// Config drives authentication behavior.
type Config struct {
	Secret          string
	TokenTTL        time.Duration
	RefreshTokenTTL time.Duration
}

// Account is a family login. Members belong to exactly one account.
type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FamilyName   string    `json:"familyName"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RegisterRequest captures the registration payload.
type RegisterRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FamilyName string `json:"familyName"`
}

// LoginRequest captures login details.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the signed tokens.
type LoginResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	Account      AccountView `json:"account"`
}

// AccountView trims sensitive fields.
type AccountView struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	FamilyName string    `json:"familyName"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Claims are extracted from the JWT token.
type Claims struct {
	AccountID int64
	Email     string
	TokenType string
	ExpiresAt time.Time
}

// RefreshRequest encapsulates refresh token payload.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}
