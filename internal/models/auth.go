package models

import (
	"strings"
)

// AdminPrincipal is an operator allowed to sign in to the dashboard.
// Principals are created out-of-band and deactivated rather than deleted.
type AdminPrincipal struct {
	Base
	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"not null;default:'editor'" json:"role"`
	Active       bool   `gorm:"not null" json:"active"`
}

// NormalizeEmail lower-cases and trims an address so the unique index is
// effectively case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CanAuthenticate reports whether the principal may sign in at all.
func (p *AdminPrincipal) CanAuthenticate() bool {
	return p != nil && p.Active && p.PasswordHash != ""
}
