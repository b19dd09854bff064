package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionTokenType = "session"

// SessionCookieConfig configures the browser session cookie.
type SessionCookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
	// Key signs the cookie (HS256). Derive it from the session secret.
	Key []byte
}

// SessionCookies issues and reads the signed cookie that carries the opaque
// browser session id. The backend token itself never leaves the server.
type SessionCookies struct {
	cfg SessionCookieConfig
	now func() time.Time
}

type sessionClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// NewSessionCookies validates cfg and returns the cookie codec.
func NewSessionCookies(cfg SessionCookieConfig) (*SessionCookies, error) {
	if len(cfg.Key) < 32 {
		return nil, errors.New("session cookie key must be at least 32 bytes")
	}
	if cfg.Name == "" {
		cfg.Name = "sp_session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	return &SessionCookies{cfg: cfg, now: time.Now}, nil
}

// NewSessionID returns a fresh opaque session id.
func NewSessionID() string {
	return uuid.NewString()
}

// Issue signs sid into a cookie.
func (c *SessionCookies) Issue(sid string) (*http.Cookie, error) {
	now := c.now()
	claims := sessionClaims{
		Type: sessionTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.TTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("signing session cookie: %w", err)
	}
	return &http.Cookie{
		Name:     c.cfg.Name,
		Value:    signed,
		Path:     "/",
		Expires:  now.Add(c.cfg.TTL),
		MaxAge:   int(c.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Parse verifies a cookie value and returns the session id and when it was issued.
func (c *SessionCookies) Parse(value string) (string, time.Time, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.cfg.Key, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		return "", time.Time{}, err
	}
	if !token.Valid || claims.Type != sessionTokenType || claims.Subject == "" {
		return "", time.Time{}, errors.New("invalid session cookie")
	}
	var issued time.Time
	if claims.IssuedAt != nil {
		issued = claims.IssuedAt.Time
	}
	return claims.Subject, issued, nil
}

// needsRefresh reports whether a cookie issued at issued is past half its lifetime.
func (c *SessionCookies) needsRefresh(issued time.Time) bool {
	return issued.IsZero() || c.now().Sub(issued) > c.cfg.TTL/2
}
