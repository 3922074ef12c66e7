package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestTokens(t *testing.T) *TokenService {
	t.Helper()
	s, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	return s
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short", time.Hour)
	assert.Error(t, err)
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestTokens(t)

	token, err := s.IssueSession(42)
	require.NoError(t, err)

	id, err := s.ParseSession(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestParseSession_Rejects(t *testing.T) {
	s := newTestTokens(t)
	other, err := NewTokenService("ffffffffffffffffffffffffffffffff", time.Hour)
	require.NoError(t, err)

	foreign, err := other.IssueSession(1)
	require.NoError(t, err)
	reset, err := s.IssueReset(1, "hash")
	require.NoError(t, err)

	expiredSvc := &TokenService{secret: []byte(testSecret), sessionTTL: -time.Minute}
	expired, err := expiredSvc.IssueSession(1)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "1", Issuer: issuer})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"reset token":  reset,
		"expired":      expired,
		"alg none":     unsigned,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.ParseSession(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestResetToken_BoundToPassword(t *testing.T) {
	s := newTestTokens(t)

	token, err := s.IssueReset(7, "old-hash")
	require.NoError(t, err)

	id, fp, err := s.ParseReset(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
	assert.Equal(t, Fingerprint("old-hash"), fp)
	assert.NotEqual(t, Fingerprint("new-hash"), fp)

	session, err := s.IssueSession(7)
	require.NoError(t, err)
	_, _, err = s.ParseReset(session)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHasher(t *testing.T) {
	p := NewPasswordHasher(4)

	hash, err := p.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.NoError(t, p.Verify(hash, "s3cret-pass"))
	assert.ErrorIs(t, p.Verify(hash, "wrong"), ErrInvalidPassword)
	assert.ErrorIs(t, p.Verify("", "anything"), ErrInvalidPassword)

	_, err = p.Hash(string(make([]byte, 73)))
	assert.Error(t, err)
}
