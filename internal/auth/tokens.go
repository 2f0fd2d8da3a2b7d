package auth

import (
	"encoding/hex"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "smart-todo"
	tokenAudience = "smart-todo-client"

	keyBytesSize = 32
	keyHexSize   = 64
)

// Claims are the verified contents of a session token.
type Claims struct {
	UserID    string
	SessionID string
	ExpiresAt time.Time
}

// TokenService issues and verifies PASETO v4.local session tokens.
type TokenService struct {
	key paseto.V4SymmetricKey
	ttl time.Duration
	now func() time.Time
}

// NewTokenService creates a token service. An empty keyHex generates a
// random key, so tokens will not survive a restart.
func NewTokenService(keyHex string, ttl time.Duration) (*TokenService, error) {
	var key paseto.V4SymmetricKey
	if keyHex == "" {
		key = paseto.NewV4SymmetricKey()
	} else {
		if len(keyHex) != keyHexSize {
			return nil, fmt.Errorf("PASETO v4 key must be exactly %d hex characters (%d bytes), got %d", keyHexSize, keyBytesSize, len(keyHex))
		}
		keyBytes, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid hex string for PASETO key: %w", err)
		}
		key, err = paseto.V4SymmetricKeyFromBytes(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
		}
	}
	return &TokenService{key: key, ttl: ttl, now: time.Now}, nil
}

// TTL returns the token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a token for userID under a fresh session id.
func (s *TokenService) Issue(userID string) (string, Claims, error) {
	now := s.now()
	claims := Claims{
		UserID:    userID,
		SessionID: uuid.NewString(),
		ExpiresAt: now.Add(s.ttl),
	}

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(claims.UserID)
	token.SetJti(claims.SessionID)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(claims.ExpiresAt)

	return token.V4Encrypt(s.key, nil), claims, nil
}

// Verify decrypts a token and checks issuer, audience and expiry.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ValidAt(s.now()))

	token, err := parser.ParseV4Local(s.key, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	var claims Claims
	if claims.UserID, err = token.GetSubject(); err != nil {
		return nil, fmt.Errorf("token subject: %w", err)
	}
	if claims.SessionID, err = token.GetJti(); err != nil {
		return nil, fmt.Errorf("token id: %w", err)
	}
	if claims.ExpiresAt, err = token.GetExpiration(); err != nil {
		return nil, fmt.Errorf("token expiration: %w", err)
	}
	return &claims, nil
}
