package models

import (
	"time"

	"gorm.io/datatypes"
)

// Erlaubte Favoriten-Typen.
var FavoriteTypes = []string{"course", "tutorial", "blog", "tool", "resource"}

// ValidFavoriteType prüft, ob der Typ erlaubt ist.
func ValidFavoriteType(t string) bool {
	for _, ft := range FavoriteTypes {
		if t == ft {
			return true
		}
	}
	return false
}

// UserFavorite ist ein vom User gespeichertes Lernmaterial (freie CRUD-Liste,
// kein abgeleiteter Zustand).
type UserFavorite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `json:"user_id" gorm:"index:idx_favorites_user_type;not null"`

	// course, tutorial, blog, tool, resource
	Type        string         `json:"type" gorm:"index:idx_favorites_user_type;not null"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description,omitempty" gorm:"type:text"`
	URL         string         `json:"url,omitempty"`
	Category    string         `json:"category,omitempty"`
	Tags        datatypes.JSON `json:"tags,omitempty"`
	Order       int            `json:"order" gorm:"column:sort_order;default:0"`
}

// TableName gibt explizit den Tabellennamen an.
func (UserFavorite) TableName() string {
	return "user_favorites"
}
