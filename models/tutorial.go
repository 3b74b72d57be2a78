package models

import "time"

// Tutorial repräsentiert eine Lektion eines sprachspezifischen Lernpfads
// (z. B. "javascript", "python"). Die Reihenfolge innerhalb eines Pfads
// wird über das Order-Feld gesteuert.
type Tutorial struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LanguageID  string `json:"language_id" gorm:"index;not null"`
	Title       string `json:"title" gorm:"not null"`
	Content     string `json:"content" gorm:"type:text"`
	CodeExample string `json:"code_example,omitempty" gorm:"type:text"`
	Order       int    `json:"order" gorm:"column:sort_order;default:0"`

	// Content Management
	Slug        string     `json:"slug" gorm:"uniqueIndex;not null"`
	Status      string     `json:"status" gorm:"index;default:'draft'"`
	PublishedAt *time.Time `json:"published_at,omitempty"`

	// Analytics
	Views uint `json:"views" gorm:"default:0"`
}

// TableName gibt explizit den Tabellennamen an.
func (Tutorial) TableName() string {
	return "tutorials"
}

func (t *Tutorial) GetID() uint                  { return t.ID }
func (t *Tutorial) GetSlug() string              { return t.Slug }
func (t *Tutorial) SetSlug(slug string)          { t.Slug = slug }
func (t *Tutorial) SlugSource() string           { return t.Title }
func (t *Tutorial) GetStatus() string            { return t.Status }
func (t *Tutorial) SetStatus(status string)      { t.Status = status }
func (t *Tutorial) GetPublishedAt() *time.Time   { return t.PublishedAt }
func (t *Tutorial) SetPublishedAt(ts *time.Time) { t.PublishedAt = ts }

// Validate prüft die Pflichtfelder eines Tutorials.
func (t *Tutorial) Validate() map[string]string {
	errs := map[string]string{}
	requireField(errs, "language_id", t.LanguageID)
	requireField(errs, "title", t.Title)
	requireField(errs, "content", t.Content)
	return errs
}
