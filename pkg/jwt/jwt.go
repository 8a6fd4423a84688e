package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingKey   = errors.New("signing secret is empty")
)

// Claims is the identity carried by access tokens issued for the chat
// backend.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Type     string `json:"type"` // "access" or "refresh"
}

// Manager signs and validates HS256 tokens with a shared secret.
type Manager struct {
	secret         []byte
	issuer         string
	accessDuration time.Duration
}

// NewManager creates a new JWT manager.
func NewManager(secret, issuer string, accessDuration time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingKey
	}
	return &Manager{
		secret:         []byte(secret),
		issuer:         issuer,
		accessDuration: accessDuration,
	}, nil
}

// GenerateAccessToken signs an access token for the given identity.
func (m *Manager) GenerateAccessToken(userID, email, username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessDuration)),
		},
		UserID:   userID,
		Email:    email,
		Username: username,
		Type:     "access",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses an access token and returns its claims.
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != "access" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
