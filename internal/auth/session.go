package auth

import (
	"errors"
	"fmt"
	"time"

	"ruralsite/internal/config"
	"ruralsite/internal/models"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Errors returned by NewSessionIssuer and Parse.
var (
	ErrNoSigningKey   = errors.New("no session signing key configured")
	ErrInvalidSession = errors.New("invalid session")
)

// Claims is the signed identity carried by a session token.
type Claims struct {
	Role  models.Role `json:"role"`
	Email string      `json:"email"`
	jwt.RegisteredClaims
}

// PrincipalID is the subject the token was issued to.
func (c *Claims) PrincipalID() string {
	return c.Subject
}

// Session is an issued token and its expiry.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Claims    *Claims   `json:"-"`
}

// SessionIssuer signs and verifies stateless session tokens. Logging out only
// discards the client's copy; a token stays valid for any other holder until
// it expires, so the TTL is kept short.
type SessionIssuer struct {
	method    jwt.SigningMethod
	signKey   interface{}
	verifyKey interface{}
	ttl       time.Duration
	issuer    string
	now       func() time.Time
}

// NewSessionIssuer selects RS256 when a private key is configured and HS256
// otherwise. There is no default secret.
func NewSessionIssuer(cfg config.SessionConfig) (*SessionIssuer, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	s := &SessionIssuer{ttl: ttl, issuer: cfg.Issuer, now: time.Now}

	switch {
	case cfg.PrivateKey != "":
		key, err := LoadRSAPrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		s.method = jwt.SigningMethodRS256
		s.signKey = key
		s.verifyKey = &key.PublicKey
	case cfg.Secret != "":
		s.method = jwt.SigningMethodHS256
		s.signKey = []byte(cfg.Secret)
		s.verifyKey = []byte(cfg.Secret)
	default:
		return nil, ErrNoSigningKey
	}
	return s, nil
}

func (s *SessionIssuer) TTL() time.Duration {
	return s.ttl
}

// Algorithm is the JWT alg the issuer signs with.
func (s *SessionIssuer) Algorithm() string {
	return s.method.Alg()
}

// Issue signs a session for a verified principal.
func (s *SessionIssuer) Issue(p *models.AdminPrincipal) (*Session, error) {
	if p == nil || p.ID == "" {
		return nil, errors.New("cannot issue a session without a principal")
	}
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := &Claims{
		Role:  p.Role,
		Email: p.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(s.method, claims)
	signed, err := token.SignedString(s.signKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session: %w", err)
	}

	return &Session{Token: signed, ExpiresAt: expiresAt, Claims: claims}, nil
}

// Parse verifies the signature, algorithm and expiry of a token. Every
// failure wraps ErrInvalidSession.
func (s *SessionIssuer) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidSession)
	}

	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{s.method.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.verifyKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, jwt.ErrSignatureInvalid)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing expiry", ErrInvalidSession)
	}
	if claims.Subject == "" || !models.IsValidRole(claims.Role) {
		return nil, fmt.Errorf("%w: missing subject or role", ErrInvalidSession)
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidSession, claims.Issuer)
	}
	return claims, nil
}
