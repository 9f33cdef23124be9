package models

import (
	"errors"
	"fmt"

	"ruralsite/internal/config"
	console "ruralsite/internal/utils/logger"

	"gorm.io/gorm"
)

var log = console.New("SEEDER")

// ErrPrincipalExists is returned when the email is already registered.
var ErrPrincipalExists = errors.New("principal already exists")

// PasswordHasher turns a plaintext password into a storable hash.
type PasswordHasher func(password string) (string, error)

// CreatePrincipal registers an active principal. Principals are only ever
// created here, from the bootstrap path or the helper CLI.
func CreatePrincipal(db *gorm.DB, hash PasswordHasher, name, email, password string, role Role) (*AdminPrincipal, error) {
	if !IsValidRole(role) {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	var count int64
	if err := db.Model(&AdminPrincipal{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check principal: %w", err)
	}
	if count > 0 {
		return nil, ErrPrincipalExists
	}

	passwordHash, err := hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	principal := &AdminPrincipal{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Active:       true,
	}
	if err := db.Create(principal).Error; err != nil {
		return nil, fmt.Errorf("failed to create principal: %w", err)
	}
	return principal, nil
}

// SetPrincipalActive flips the active flag. Deactivated principals can no
// longer sign in and their open sessions stop passing the gate.
func SetPrincipalActive(db *gorm.DB, email string, active bool) error {
	res := db.Model(&AdminPrincipal{}).Where("email = ?", NormalizeEmail(email)).Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateAdminFromEnv seeds the first admin when none exists yet. Missing
// bootstrap settings are not an error once an admin is present.
func CreateAdminFromEnv(db *gorm.DB, boot config.AdminBootstrapConfig, hash PasswordHasher) error {
	var count int64
	if err := db.Model(&AdminPrincipal{}).Where("role = ?", RoleAdmin).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	if boot.Email == "" || boot.Password == "" {
		log.Warn("No admin principal exists and SUPERADMIN_EMAIL/SUPERADMIN_PASSWORD are not set")
		return nil
	}

	principal, err := CreatePrincipal(db, hash, boot.Name, boot.Email, boot.Password, RoleAdmin)
	if err != nil {
		return err
	}
	log.Success("Created admin principal %s", principal.Email)
	return nil
}
