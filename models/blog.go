package models

import (
	"time"

	"gorm.io/datatypes"
)

// Blog repräsentiert einen zweisprachigen Blog-Artikel (Englisch/Bengalisch).
type Blog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title     string `json:"title" gorm:"not null"`
	TitleBn   string `json:"title_bn" gorm:"not null"`
	Excerpt   string `json:"excerpt" gorm:"type:text"`
	ExcerptBn string `json:"excerpt_bn" gorm:"type:text"`
	Content   string `json:"content" gorm:"type:text"`
	ContentBn string `json:"content_bn" gorm:"type:text"`

	Author   string `json:"author"`
	AuthorBn string `json:"author_bn"`

	// Kategorisierung
	Category   string         `json:"category" gorm:"index"`
	CategoryBn string         `json:"category_bn"`
	Tags       datatypes.JSON `json:"tags,omitempty"`
	TagsBn     datatypes.JSON `json:"tags_bn,omitempty"`

	ReadTime   string `json:"read_time,omitempty"`
	ReadTimeBn string `json:"read_time_bn,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`

	// Content Management
	Slug        string     `json:"slug" gorm:"uniqueIndex;not null"`
	Status      string     `json:"status" gorm:"index;default:'draft'"`
	PublishedAt *time.Time `json:"published_at,omitempty"`

	// Analytics
	Views uint `json:"views" gorm:"default:0"`
}

// TableName gibt explizit den Tabellennamen an.
func (Blog) TableName() string {
	return "blogs"
}

func (b *Blog) GetID() uint                 { return b.ID }
func (b *Blog) GetSlug() string             { return b.Slug }
func (b *Blog) SetSlug(slug string)         { b.Slug = slug }
func (b *Blog) SlugSource() string          { return b.Title }
func (b *Blog) GetStatus() string           { return b.Status }
func (b *Blog) SetStatus(status string)     { b.Status = status }
func (b *Blog) GetPublishedAt() *time.Time  { return b.PublishedAt }
func (b *Blog) SetPublishedAt(t *time.Time) { b.PublishedAt = t }

// Validate prüft die Pflichtfelder eines Blogs (beide Sprachen erforderlich).
func (b *Blog) Validate() map[string]string {
	errs := map[string]string{}
	requireField(errs, "title", b.Title)
	requireField(errs, "title_bn", b.TitleBn)
	requireField(errs, "excerpt", b.Excerpt)
	requireField(errs, "excerpt_bn", b.ExcerptBn)
	requireField(errs, "content", b.Content)
	requireField(errs, "content_bn", b.ContentBn)
	requireField(errs, "author", b.Author)
	requireField(errs, "author_bn", b.AuthorBn)
	requireField(errs, "category", b.Category)
	requireField(errs, "category_bn", b.CategoryBn)
	return errs
}

func requireField(errs map[string]string, name, value string) {
	if value == "" {
		errs[name] = "field is required"
	}
}
