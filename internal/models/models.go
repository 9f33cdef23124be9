package models

import (
	"time"
)

// Folders on the asset host, one per content type.
const (
	FolderProducts     = "products"
	FolderBlog         = "blog"
	FolderStories      = "stories"
	FolderJobs         = "jobs"
	FolderDistributors = "distributors"
	FolderPages        = "pages"
)

type Product struct {
	Record
	Name        string       `gorm:"not null" json:"name" form:"name" validate:"required,max=200"`
	Description string       `gorm:"type:text" json:"description" form:"description"`
	Category    string       `gorm:"index" json:"category" form:"category" validate:"max=100"`
	Unit        string       `json:"unit" form:"unit" validate:"max=50"`
	Price       *float64     `gorm:"not null" json:"price" form:"price" validate:"required,gte=0"`
	Image       ManagedAsset `gorm:"embedded;embeddedPrefix:image_" json:"image"`
}

func (Product) ResourceName() string    { return "product" }
func (Product) AssetField() string      { return "image" }
func (Product) AssetFolder() string     { return FolderProducts }
func (Product) AssetRequired() bool     { return true }
func (p *Product) Asset() *ManagedAsset { return &p.Image }

type BlogPost struct {
	Record
	Title   string       `gorm:"not null" json:"title" form:"title" validate:"required,max=300"`
	Slug    string       `gorm:"uniqueIndex;not null" json:"slug" form:"slug" validate:"required,slug"`
	Excerpt string       `gorm:"type:text" json:"excerpt" form:"excerpt"`
	Content string       `gorm:"type:text;not null" json:"content" form:"content" validate:"required"`
	Author  string       `json:"author" form:"author" validate:"max=200"`
	Image   ManagedAsset `gorm:"embedded;embeddedPrefix:image_" json:"image"`
}

func (BlogPost) ResourceName() string    { return "blog post" }
func (BlogPost) AssetField() string      { return "image" }
func (BlogPost) AssetFolder() string     { return FolderBlog }
func (BlogPost) AssetRequired() bool     { return false }
func (b *BlogPost) Asset() *ManagedAsset { return &b.Image }
func (b *BlogPost) EnsureSlug()          { b.Slug = slugOrDerive(b.Slug, b.Title) }
func (b *BlogPost) SlugValue() string    { return b.Slug }

// Story is a field report or beneficiary story.
type Story struct {
	Record
	Title    string       `gorm:"not null" json:"title" form:"title" validate:"required,max=300"`
	Slug     string       `gorm:"uniqueIndex;not null" json:"slug" form:"slug" validate:"required,slug"`
	Summary  string       `gorm:"type:text" json:"summary" form:"summary"`
	Content  string       `gorm:"type:text;not null" json:"content" form:"content" validate:"required"`
	Location string       `json:"location" form:"location" validate:"max=200"`
	Image    ManagedAsset `gorm:"embedded;embeddedPrefix:image_" json:"image"`
}

func (Story) ResourceName() string    { return "story" }
func (Story) AssetField() string      { return "image" }
func (Story) AssetFolder() string     { return FolderStories }
func (Story) AssetRequired() bool     { return false }
func (s *Story) Asset() *ManagedAsset { return &s.Image }
func (s *Story) EnsureSlug()          { s.Slug = slugOrDerive(s.Slug, s.Title) }
func (s *Story) SlugValue() string    { return s.Slug }

// JobPosting is a careers page entry. Its asset is an optional job
// description document rather than an image.
type JobPosting struct {
	Record
	Title          string       `gorm:"not null" json:"title" form:"title" validate:"required,max=200"`
	Department     string       `json:"department" form:"department" validate:"max=100"`
	Location       string       `gorm:"not null" json:"location" form:"location" validate:"required,max=200"`
	EmploymentType string       `json:"employmentType" form:"employmentType" validate:"omitempty,oneof=full-time part-time contract internship volunteer"`
	Description    string       `gorm:"type:text;not null" json:"description" form:"description" validate:"required"`
	ApplyURL       string       `json:"applyUrl" form:"applyUrl" validate:"omitempty,url"`
	Deadline       *time.Time   `json:"deadline,omitempty" form:"deadline"`
	Document       ManagedAsset `gorm:"embedded;embeddedPrefix:document_" json:"document"`
}

func (JobPosting) ResourceName() string    { return "job posting" }
func (JobPosting) AssetField() string      { return "document" }
func (JobPosting) AssetFolder() string     { return FolderJobs }
func (JobPosting) AssetRequired() bool     { return false }
func (j *JobPosting) Asset() *ManagedAsset { return &j.Document }

type Distributor struct {
	Record
	Name    string       `gorm:"not null" json:"name" form:"name" validate:"required,max=200"`
	Region  string       `gorm:"not null;index" json:"region" form:"region" validate:"required,max=100"`
	Address string       `json:"address" form:"address" validate:"max=500"`
	Phone   string       `gorm:"not null" json:"phone" form:"phone" validate:"required,max=50"`
	Email   string       `json:"email" form:"email" validate:"omitempty,email"`
	Website string       `json:"website" form:"website" validate:"omitempty,url"`
	Image   ManagedAsset `gorm:"embedded;embeddedPrefix:image_" json:"image"`
}

func (Distributor) ResourceName() string    { return "distributor" }
func (Distributor) AssetField() string      { return "image" }
func (Distributor) AssetFolder() string     { return FolderDistributors }
func (Distributor) AssetRequired() bool     { return false }
func (d *Distributor) Asset() *ManagedAsset { return &d.Image }

// PageSection is one editable block of a static page such as "about".
type PageSection struct {
	Record
	Page     string       `gorm:"not null;uniqueIndex:idx_page_section" json:"page" form:"page" validate:"required,slug"`
	Section  string       `gorm:"not null;uniqueIndex:idx_page_section" json:"section" form:"section" validate:"required,slug"`
	Heading  string       `gorm:"not null" json:"heading" form:"heading" validate:"required,max=300"`
	Body     string       `gorm:"type:text" json:"body" form:"body"`
	Position int          `gorm:"not null" json:"position" form:"position" validate:"gte=0"`
	Image    ManagedAsset `gorm:"embedded;embeddedPrefix:image_" json:"image"`
}

func (PageSection) ResourceName() string    { return "page section" }
func (PageSection) AssetField() string      { return "image" }
func (PageSection) AssetFolder() string     { return FolderPages }
func (PageSection) AssetRequired() bool     { return false }
func (p *PageSection) Asset() *ManagedAsset { return &p.Image }

// StrandedAsset is a remote file whose delete failed after its owning record
// moved on. The cleanup worker retries these until they succeed.
type StrandedAsset struct {
	Base
	Handle    string `gorm:"uniqueIndex;not null" json:"handle"`
	URL       string `json:"url"`
	Resource  string `json:"resource"`
	Reason    string `json:"reason"`
	Attempts  int    `gorm:"not null" json:"attempts"`
	LastError string `gorm:"type:text" json:"lastError"`
}
