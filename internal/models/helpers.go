package models

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

var (
	slugBreak = regexp.MustCompile(`[^a-z0-9]+`)
	slugShape = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Slugify folds accents, lower-cases s and turns every run of other
// characters into a single hyphen.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, _ := transform.String(t, s)

	out = slugBreak.ReplaceAllString(strings.ToLower(out), "-")
	return strings.Trim(out, "-")
}

// IsValidSlug reports whether s is already in canonical slug form.
func IsValidSlug(s string) bool {
	return slugShape.MatchString(s)
}

func slugOrDerive(slug, title string) string {
	if strings.TrimSpace(slug) != "" {
		return Slugify(slug)
	}
	return Slugify(title)
}

// FindPrincipalByEmail loads a principal regardless of its active flag.
func FindPrincipalByEmail(db *gorm.DB, email string) (*AdminPrincipal, error) {
	principal := &AdminPrincipal{}
	if err := db.Where("email = ?", NormalizeEmail(email)).First(principal).Error; err != nil {
		return nil, err
	}
	return principal, nil
}

// FindPrincipalByID loads a principal by primary key.
func FindPrincipalByID(db *gorm.DB, id string) (*AdminPrincipal, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	principal := &AdminPrincipal{}
	if err := db.Where("id = ?", id).First(principal).Error; err != nil {
		return nil, err
	}
	return principal, nil
}
