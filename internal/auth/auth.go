//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package auth implements the demo authentication scheme: a passcode
// login that derives a stable user id and issues short-lived HS256
// tokens. It is a demo gate, not a production identity system.
package auth

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/grag-dev/grag-server/internal/config"
)

// Token verification errors.
var (
	ErrEmptyPasscode = errors.New("passcode must not be empty")
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrMissingToken  = errors.New("missing bearer token")
)

// Identity is the verified subject of a request.
type Identity struct {
	UserID string `json:"user_id"`
	Mode   string `json:"mode"`
}

// Authenticator issues and verifies demo tokens.
type Authenticator struct {
	mode     string
	secret   []byte
	tokenTTL time.Duration
}

// New creates an authenticator from the auth configuration.
func New(cfg config.AuthConfig) *Authenticator {
	return &Authenticator{
		mode:     cfg.Mode,
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: time.Duration(cfg.TokenTTLMinutes) * time.Minute,
	}
}

// Enabled reports whether requests must carry a token.
func (a *Authenticator) Enabled() bool {
	return a.mode != config.AuthModeDisabled
}

// Login exchanges a passcode for a signed token. The user id is a
// stable digest of the passcode, so the same passcode always maps to
// the same identity.
func (a *Authenticator) Login(passcode string) (token, userID string, err error) {
	if strings.TrimSpace(passcode) == "" {
		return "", "", ErrEmptyPasscode
	}

	sum := md5.Sum([]byte(passcode))
	userID = hex.EncodeToString(sum[:])[:8]

	claims := jwt.MapClaims{
		"user_id": userID,
		"mode":    a.mode,
		"exp":     time.Now().Add(a.tokenTTL).Unix(),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", "", fmt.Errorf("signing token: %w", err)
	}
	return token, userID, nil
}

// Verify parses and validates a token, returning the identity it
// carries.
func (a *Authenticator) Verify(token string) (*Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, ErrInvalidToken
	}
	mode, _ := claims["mode"].(string)

	return &Identity{UserID: userID, Mode: mode}, nil
}

// VerifyHeader extracts and verifies a bearer token from an
// Authorization header value.
func (a *Authenticator) VerifyHeader(header string) (*Identity, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return nil, ErrMissingToken
	}
	return a.Verify(strings.TrimSpace(strings.TrimPrefix(header, prefix)))
}
