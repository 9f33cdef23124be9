package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"ruralsite/internal/config"
	"ruralsite/internal/models"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSessionConfig() config.SessionConfig {
	return config.LoadTestConfig().Session
}

func admin() *models.AdminPrincipal {
	p := &models.AdminPrincipal{Email: "admin@example.org", Role: models.RoleAdmin, Active: true}
	p.ID = "principal-1"
	return p
}

func TestIssueAndParse(t *testing.T) {
	issuer, err := NewSessionIssuer(testSessionConfig())
	require.NoError(t, err)
	assert.Equal(t, "HS256", issuer.Algorithm())

	session, err := issuer.Issue(admin())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)

	claims, err := issuer.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "principal-1", claims.PrincipalID())
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "admin@example.org", claims.Email)
	assert.NotEmpty(t, claims.ID)
	assert.NotNil(t, claims.IssuedAt)
}

func TestNoSigningKeyIsAnError(t *testing.T) {
	cfg := testSessionConfig()
	cfg.Secret = ""
	cfg.PrivateKey = ""

	_, err := NewSessionIssuer(cfg)
	assert.ErrorIs(t, err, ErrNoSigningKey)
}

func TestParseRejectsExpired(t *testing.T) {
	issuer, err := NewSessionIssuer(testSessionConfig())
	require.NoError(t, err)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	session, err := issuer.Issue(admin())
	require.NoError(t, err)

	_, err = issuer.Parse(session.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	issuer, err := NewSessionIssuer(testSessionConfig())
	require.NoError(t, err)

	other := testSessionConfig()
	other.Secret = strings.Repeat("x", 40)
	forger, err := NewSessionIssuer(other)
	require.NoError(t, err)

	forged, err := forger.Issue(admin())
	require.NoError(t, err)

	_, err = issuer.Parse(forged.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestParseRejectsTamperedRole(t *testing.T) {
	issuer, err := NewSessionIssuer(testSessionConfig())
	require.NoError(t, err)

	p := admin()
	p.Role = models.RoleEditor
	session, err := issuer.Issue(p)
	require.NoError(t, err)

	parts := strings.Split(session.Token, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	payload = []byte(strings.Replace(string(payload), `"role":"editor"`, `"role":"admin"`, 1))
	parts[1] = base64.RawURLEncoding.EncodeToString(payload)

	_, err = issuer.Parse(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	issuer, err := NewSessionIssuer(testSessionConfig())
	require.NoError(t, err)

	claims := &Claims{
		Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "principal-1",
			Issuer:    testSessionConfig().Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestParseRejectsMissingExpiry(t *testing.T) {
	cfg := testSessionConfig()
	issuer, err := NewSessionIssuer(cfg)
	require.NoError(t, err)

	claims := &Claims{
		Role:             models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "principal-1", Issuer: cfg.Issuer},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestParseRejectsGarbage(t *testing.T) {
	issuer, err := NewSessionIssuer(testSessionConfig())
	require.NoError(t, err)

	for _, token := range []string{"", "abc", "a.b.c"} {
		_, err := issuer.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidSession, token)
	}
}

func TestRS256FromPrivateKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	cfg := testSessionConfig()
	cfg.Secret = ""
	cfg.PrivateKey = base64.StdEncoding.EncodeToString(pemBytes)

	issuer, err := NewSessionIssuer(cfg)
	require.NoError(t, err)
	assert.Equal(t, "RS256", issuer.Algorithm())

	session, err := issuer.Issue(admin())
	require.NoError(t, err)
	claims, err := issuer.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "principal-1", claims.Subject)
}

func TestLoadRSAPrivateKeyErrors(t *testing.T) {
	_, err := LoadRSAPrivateKey("%%%not-base64")
	assert.Error(t, err)

	_, err = LoadRSAPrivateKey(base64.StdEncoding.EncodeToString([]byte("not a pem")))
	assert.Error(t, err)
}
