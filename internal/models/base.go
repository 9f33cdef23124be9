package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base contains common columns for all tables
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *Base) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}

// Record is embedded by every managed content type. Active doubles as the
// published flag; public reads only ever see active records.
type Record struct {
	Base
	Active  bool `gorm:"not null;index" json:"active" form:"active"`
	Version int  `gorm:"not null;default:1" json:"version"`
}

// ManagedAsset is a file held by the remote asset host. Handle is the
// provider's delete key and is persisted next to the URL.
type ManagedAsset struct {
	URL         string `gorm:"column:url" json:"url,omitempty"`
	Handle      string `gorm:"column:handle;index" json:"handle,omitempty"`
	ContentType string `gorm:"column:content_type" json:"contentType,omitempty"`
	Size        int64  `gorm:"column:size" json:"size,omitempty"`
}

// IsZero reports whether no asset is referenced.
func (a ManagedAsset) IsZero() bool {
	return a.URL == "" && a.Handle == ""
}

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// IsValidRole checks if a given role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleEditor:
		return true
	default:
		return false
	}
}

// CanMutate reports whether the role may change protected resources.
func (r Role) CanMutate() bool {
	return r == RoleAdmin
}
