package domain

import "time"

// TokenClass selects the signing secret and lifetime of a token.
type TokenClass string

const (
	AccessToken  TokenClass = "access"
	RefreshToken TokenClass = "refresh"
)

// TokenClaims is the verified content of an access or refresh token.
// Profile fields are only populated for access tokens.
type TokenClaims struct {
	Class     TokenClass
	Subject   string
	Username  string
	Email     string
	FullName  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
