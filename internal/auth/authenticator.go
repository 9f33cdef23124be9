package auth

import (
	"context"
	"errors"
	"time"

	"ruralsite/internal/apperrors"
	"ruralsite/internal/models"
	console "ruralsite/internal/utils/logger"

	"gorm.io/gorm"
)

var log = console.New("AUTH")

// Authenticator turns credentials into sessions.
type Authenticator struct {
	db           *gorm.DB
	issuer       *SessionIssuer
	dummyHash    string
	queryTimeout time.Duration
}

// NewAuthenticator precomputes a dummy hash at the configured cost so that
// unknown and inactive accounts cost the same as a wrong password.
func NewAuthenticator(db *gorm.DB, issuer *SessionIssuer, bcryptCost int, queryTimeout time.Duration) (*Authenticator, error) {
	dummy, err := HashPassword("not-a-real-password", bcryptCost)
	if err != nil {
		return nil, err
	}
	return &Authenticator{db: db, issuer: issuer, dummyHash: dummy, queryTimeout: queryTimeout}, nil
}

// Login checks email and password and issues a session. Unknown email,
// inactive principal and wrong password all return the same error.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*Session, *models.AdminPrincipal, error) {
	principal, err := a.findByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		VerifyPassword(password, a.dummyHash)
		return nil, nil, apperrors.Persistence(log.Error("Failed to look up principal", err))
	}

	if !principal.CanAuthenticate() {
		VerifyPassword(password, a.dummyHash)
		log.Debug("Rejected login for unknown or inactive principal")
		return nil, nil, apperrors.Authentication()
	}

	if !VerifyPassword(password, principal.PasswordHash) {
		log.Debug("Rejected login for principal %s", principal.ID)
		return nil, nil, apperrors.Authentication()
	}

	session, err := a.issuer.Issue(principal)
	if err != nil {
		return nil, nil, apperrors.Persistence(log.Error("Failed to issue session", err))
	}
	log.Info("Principal %s signed in", principal.ID)
	return session, principal, nil
}

// Principal loads the current principal for a verified session.
func (a *Authenticator) Principal(ctx context.Context, id string) (*models.AdminPrincipal, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	principal, err := models.FindPrincipalByID(a.db.WithContext(ctx), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Authorization()
	}
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return principal, nil
}

func (a *Authenticator) findByEmail(ctx context.Context, email string) (*models.AdminPrincipal, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, gorm.ErrRecordNotFound
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return models.FindPrincipalByEmail(a.db.WithContext(ctx), email)
}

func (a *Authenticator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.queryTimeout)
}
