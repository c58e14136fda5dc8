package shared

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSession indicates a missing, expired or tampered bearer token.
var ErrInvalidSession = errors.New("session: invalid or expired token")

// Session is the explicit per-request caller context. It replaces any shared
// token storage: handlers read it from the request context and pass the
// relevant fields down to services.
type Session struct {
	UserName  string    `json:"userName"`
	Role      string    `json:"role"`
	StoreCode string    `json:"storeCode,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type sessionClaims struct {
	Role      string `json:"role"`
	StoreCode string `json:"store_code,omitempty"`
	jwt.RegisteredClaims
}

// SessionSigner issues and verifies HS256 session tokens.
type SessionSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionSigner constructs a SessionSigner.
func NewSessionSigner(secret string, ttl time.Duration) *SessionSigner {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the given session. ExpiresAt is derived from the TTL.
func (s *SessionSigner) Issue(sess Session) (string, error) {
	if strings.TrimSpace(sess.UserName) == "" {
		return "", errors.New("session: user name required")
	}
	now := s.now()
	claims := sessionClaims{
		Role:      sess.Role,
		StoreCode: sess.StoreCode,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.UserName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("session: sign: %w", err)
	}
	return signed, nil
}

// Parse verifies the token and returns the session it carries.
func (s *SessionSigner) Parse(raw string) (*Session, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}
	if claims.Subject == "" {
		return nil, ErrInvalidSession
	}
	sess := &Session{UserName: claims.Subject, Role: claims.Role, StoreCode: claims.StoreCode}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
