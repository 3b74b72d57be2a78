package models

import "time"

// Rollen für die Zugriffskontrolle.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User repräsentiert ein Konto der Plattform. Das Passwort-Feld wird vom
// externen Auth-Dienst geschrieben und hier nie interpretiert.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name     string `json:"name" gorm:"not null"`
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Role     string `json:"role" gorm:"default:'user'"`
	Password string `json:"-" gorm:"column:password"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (User) TableName() string {
	return "users"
}

// APIToken ist ein Zugriffstoken für die API. Gespeichert wird nur der
// SHA-256-Hash; die Ausgabe des Klartext-Tokens übernimmt der Auth-Dienst.
type APIToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	UserID    uint       `json:"user_id" gorm:"index;not null"`
	TokenHash string     `json:"-" gorm:"uniqueIndex;not null"`
	Name      string     `json:"name"`
	LastUsed  *time.Time `json:"last_used_at,omitempty"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// TableName gibt explizit den Tabellennamen an.
func (APIToken) TableName() string {
	return "api_tokens"
}
