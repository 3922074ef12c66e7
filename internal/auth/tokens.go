// Package auth issues the signed session and password-reset tokens and
// hashes passwords.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "yatube"

	purposeSession = "session"
	purposeReset   = "password_reset"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenService signs and verifies HS256 tokens.
type TokenService struct {
	secret     []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
}

// NewTokenService creates a TokenService. Sessions live for sessionTTL,
// password-reset links for one hour.
func NewTokenService(secret string, sessionTTL time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: secret key must be at least 16 characters")
	}
	return &TokenService{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		resetTTL:   time.Hour,
	}, nil
}

// SessionTTL is how long an issued session token stays valid.
func (s *TokenService) SessionTTL() time.Duration {
	return s.sessionTTL
}

type claims struct {
	Purpose     string `json:"purpose"`
	Fingerprint string `json:"fp,omitempty"`
	jwt.RegisteredClaims
}

// IssueSession returns a session token for userID.
func (s *TokenService) IssueSession(userID uint) (string, error) {
	return s.sign(userID, purposeSession, "", s.sessionTTL)
}

// ParseSession returns the user id carried by a session token.
func (s *TokenService) ParseSession(token string) (uint, error) {
	c, err := s.parse(token, purposeSession)
	if err != nil {
		return 0, err
	}
	return subject(c)
}

// IssueReset returns a password-reset token for a user. The token is bound
// to the current password hash, so it stops working once the password
// changes.
func (s *TokenService) IssueReset(userID uint, passwordHash string) (string, error) {
	return s.sign(userID, purposeReset, Fingerprint(passwordHash), s.resetTTL)
}

// ParseReset returns the user id and password fingerprint of a reset token.
// Callers must compare the fingerprint with Fingerprint(current hash).
func (s *TokenService) ParseReset(token string) (uint, string, error) {
	c, err := s.parse(token, purposeReset)
	if err != nil {
		return 0, "", err
	}
	id, err := subject(c)
	if err != nil {
		return 0, "", err
	}
	return id, c.Fingerprint, nil
}

// Fingerprint condenses a password hash into a short token claim.
func Fingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}

func (s *TokenService) sign(userID uint, purpose, fingerprint string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Purpose:     purpose,
		Fingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) parse(token, purpose string) (*claims, error) {
	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || c.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return c, nil
}

func subject(c *claims) (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}
