package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"

	"github.com/bookclubapp/bookclub-server/internal/domain"
)

const (
	tokenIssuer   = "bookclub-server"
	tokenAudience = "bookclub-client"

	keyBytesSize     = 32
	keyHexSize       = 64
	refreshTokenSize = 32
)

// ErrInvalidToken wraps every access token rejection.
var ErrInvalidToken = errors.New("invalid access token")

// TokenService issues and verifies PASETO v4.local access tokens and opaque refresh tokens.
type TokenService struct {
	key             paseto.V4SymmetricKey
	accessLifetime  time.Duration
	refreshLifetime time.Duration
	now             func() time.Time
}

// NewTokenService creates a token service from a 64-character hex key.
func NewTokenService(keyHex string, accessLifetime, refreshLifetime time.Duration) (*TokenService, error) {
	if len(keyHex) != keyHexSize {
		return nil, fmt.Errorf("token key must be %d hex characters (%d bytes), got %d", keyHexSize, keyBytesSize, len(keyHex))
	}
	raw, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("token key is not valid hex: %w", err)
	}
	key, err := paseto.V4SymmetricKeyFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("create token key: %w", err)
	}

	return &TokenService{
		key:             key,
		accessLifetime:  accessLifetime,
		refreshLifetime: refreshLifetime,
		now:             time.Now,
	}, nil
}

// GenerateAccessToken seals an access token for user bound to sessionID.
func (s *TokenService) GenerateAccessToken(user *domain.User, sessionID string) (string, error) {
	now := s.now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(user.ID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.accessLifetime))
	token.SetJti(uuid.NewString())

	custom := map[string]string{"owner_id": user.ID, "email": user.Email}
	if sessionID != "" {
		custom["session_id"] = sessionID
	}
	for k, v := range custom {
		if err := token.Set(k, v); err != nil {
			return "", fmt.Errorf("set claim %s: %w", k, err)
		}
	}

	return token.V4Encrypt(s.key, nil), nil
}

// VerifyAccessToken decrypts and validates an access token. Every failure
// wraps ErrInvalidToken.
func (s *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(
		paseto.ForAudience(tokenAudience),
		paseto.IssuedBy(tokenIssuer),
		paseto.ValidAt(s.now()),
	)

	token, err := parser.ParseV4Local(s.key, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var claims AccessClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("%w: claims: %w", ErrInvalidToken, err)
	}
	if claims.OwnerID == "" || claims.OwnerID != claims.Subject {
		return nil, fmt.Errorf("%w: owner does not match subject", ErrInvalidToken)
	}
	return &claims, nil
}

// GenerateRefreshToken returns 256 random bits, base64url encoded.
// Refresh tokens are opaque; only their hash is stored.
func (s *TokenService) GenerateRefreshToken() (string, error) {
	b := make([]byte, refreshTokenSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// HashRefreshToken derives the stored lookup key for a refresh token.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// AccessTokenDuration returns the access token lifetime.
func (s *TokenService) AccessTokenDuration() time.Duration {
	return s.accessLifetime
}

// RefreshTokenDuration returns the refresh token lifetime.
func (s *TokenService) RefreshTokenDuration() time.Duration {
	return s.refreshLifetime
}
