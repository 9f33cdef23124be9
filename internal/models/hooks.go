package models

import (
	"gorm.io/gorm"
)

func (p *AdminPrincipal) BeforeSave(tx *gorm.DB) error {
	p.Email = NormalizeEmail(p.Email)
	if p.Role == "" {
		p.Role = RoleEditor
	}
	return nil
}

func (s *StrandedAsset) AfterCreate(tx *gorm.DB) error {
	log.Warn("Recorded stranded asset %s (%s)", s.Handle, s.Reason)
	return nil
}
