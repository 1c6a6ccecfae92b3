package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agribiz-identity/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKeyPair(t *testing.T) (privPath, pubPath string, key *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath = filepath.Join(dir, "private.pem")
	pubPath = filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))
	return privPath, pubPath, key
}

func TestNewProvider_SignVerifyRoundTrip(t *testing.T) {
	privPath, pubPath, _ := writeKeyPair(t)
	p, err := NewProvider(&config.Config{JWTPrivateKeyPath: privPath, JWTPublicKeyPath: pubPath, JWTExpiry: time.Hour})
	require.NoError(t, err)

	signed, expiresAt, err := p.Sign("u1", "a@x.com", "FARMER")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := p.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "FARMER", claims.Role)
}

func TestNewProvider_MissingKeyFile(t *testing.T) {
	_, err := NewProvider(&config.Config{JWTPrivateKeyPath: "/nonexistent.pem"})
	assert.ErrorContains(t, err, "read private key")
}

func TestVerify_ExpiredToken(t *testing.T) {
	_, _, key := writeKeyPair(t)
	p := NewProviderFromKeys(key, &key.PublicKey, time.Minute)
	p.now = func() time.Time { return time.Now().Add(-time.Hour) }

	signed, _, err := p.Sign("u1", "a@x.com", "BUYER")
	require.NoError(t, err)
	_, err = p.Verify(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerify_ForeignKey(t *testing.T) {
	_, _, key := writeKeyPair(t)
	_, _, other := writeKeyPair(t)
	signer := NewProviderFromKeys(other, &other.PublicKey, time.Hour)
	verifier := NewProviderFromKeys(key, &key.PublicKey, time.Hour)

	signed, _, err := signer.Sign("u1", "a@x.com", "BUYER")
	require.NoError(t, err)
	_, err = verifier.Verify(signed)
	assert.Error(t, err)
}

func TestVerify_RejectsHMAC(t *testing.T) {
	_, _, key := writeKeyPair(t)
	p := NewProviderFromKeys(key, &key.PublicKey, time.Hour)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString([]byte("shared-secret"))
	require.NoError(t, err)
	_, err = p.Verify(signed)
	assert.Error(t, err)
}
