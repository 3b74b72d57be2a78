package models

import (
	"time"

	"gorm.io/gorm"
)

// Lifecycle-Status für alle Content-Typen (Blogs, Exercises, Tutorials).
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// ValidStatus prüft, ob der übergebene Status ein erlaubter Lifecycle-Wert ist.
func ValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished || s == StatusArchived
}

// Publishable abstrahiert die gemeinsamen Slug- und Publishing-Eigenschaften
// der Content-Typen, damit der ContentService die Logik nur einmal implementiert.
type Publishable interface {
	GetID() uint
	GetSlug() string
	SetSlug(slug string)
	// SlugSource liefert den Titel, aus dem der Slug abgeleitet wird.
	SlugSource() string
	GetStatus() string
	SetStatus(status string)
	GetPublishedAt() *time.Time
	SetPublishedAt(t *time.Time)
	// Validate liefert eine Map Feld -> Fehlermeldung (leer = gültig).
	Validate() map[string]string
}

// Published ist ein GORM-Scope für die öffentliche Sichtbarkeit:
// nur veröffentlichte Einträge mit gesetztem, nicht zukünftigem published_at.
func Published(db *gorm.DB) *gorm.DB {
	return db.Where("status = ? AND published_at IS NOT NULL AND published_at <= ?",
		StatusPublished, time.Now().UTC())
}
