package auth

import "time"

// AccessClaims are the claims sealed inside a v4.local access token.
// OwnerID is the identity every owner-scoped operation runs as.
type AccessClaims struct {
	OwnerID   string `json:"owner_id"`
	Email     string `json:"email"`
	SessionID string `json:"session_id,omitempty"`

	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}
