// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gibiteca/internal/platform/sec"
)

func TestRole_AtLeast(t *testing.T) {
	assert.True(t, sec.RoleAdmin.AtLeast(sec.RoleMember))
	assert.True(t, sec.RoleMember.AtLeast(sec.RoleMember))
	assert.False(t, sec.RoleMember.AtLeast(sec.RoleAdmin))
	assert.False(t, sec.UserRole("ghost").AtLeast(sec.RoleMember))
	assert.False(t, sec.UserRole("ghost").Valid())
}

func TestPasswordHash(t *testing.T) {
	hash, err := sec.HashPassword("s3cret-pass")
	require.NoError(t, err)

	assert.True(t, sec.CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, sec.CheckPasswordHash("wrong", hash))
	assert.False(t, sec.CheckPasswordHash("s3cret-pass", "not-a-bcrypt-hash"))

	_, err = sec.HashPassword(strings.Repeat("a", sec.MaxPasswordBytes+1))
	assert.Error(t, err)
}

func TestSecureToken(t *testing.T) {
	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, sec.HashToken(first), 64)
	assert.Equal(t, sec.HashToken(first), sec.HashToken(first))
}

/*
TestTokenService_RoundTrip signs and verifies an access token with a throwaway key pair.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	privPath, pubPath := writeKeyPair(t)

	service, err := sec.NewTokenService(privPath, pubPath, "gibiteca.test")
	require.NoError(t, err)

	token, err := service.GenerateAccessToken("user-1", "ana", string(sec.RoleMember), time.Minute)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ana", claims.Username)
	assert.Equal(t, "member", claims.Role)

	expired, err := service.GenerateAccessToken("user-1", "ana", "member", -time.Minute)
	require.NoError(t, err)
	_, err = service.VerifyToken(expired)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)
}

/*
TestTokenService_RejectsForeignTokens verifies that tokens from another issuer,
tokens with an unknown role and tampered tokens are all refused.
*/
func TestTokenService_RejectsForeignTokens(t *testing.T) {
	privPath, pubPath := writeKeyPair(t)

	service, err := sec.NewTokenService(privPath, pubPath, "gibiteca.test")
	require.NoError(t, err)
	other, err := sec.NewTokenService(privPath, pubPath, "someone.else")
	require.NoError(t, err)

	foreign, err := other.GenerateAccessToken("user-1", "ana", "member", time.Minute)
	require.NoError(t, err)
	_, err = service.VerifyToken(foreign)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)

	ghost, err := service.GenerateAccessToken("user-1", "ana", "ghost", time.Minute)
	require.NoError(t, err)
	_, err = service.VerifyToken(ghost)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)

	valid, err := service.GenerateAccessToken("user-1", "ana", "member", time.Minute)
	require.NoError(t, err)
	_, err = service.VerifyToken(valid[:len(valid)-4] + "AAAA")
	assert.ErrorIs(t, err, sec.ErrInvalidToken)
}

func TestNewTokenService_MismatchedKeys(t *testing.T) {
	privPath, _ := writeKeyPair(t)
	_, otherPub := writeKeyPair(t)

	_, err := sec.NewTokenService(privPath, otherPub, "gibiteca.test")
	assert.Error(t, err)

	_, err = sec.NewTokenService(filepath.Join(t.TempDir(), "missing.pem"), otherPub, "gibiteca.test")
	assert.Error(t, err)
}

func writeKeyPair(t *testing.T) (string, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	require.NoError(t, os.WriteFile(privPath, privBytes, 0o600))

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	require.NoError(t, os.WriteFile(pubPath, pubBytes, 0o600))

	return privPath, pubPath
}
