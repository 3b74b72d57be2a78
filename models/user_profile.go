package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserProfile enthält die öffentlichen und privaten Profildaten eines Users (1:1).
type UserProfile struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `json:"user_id" gorm:"uniqueIndex;not null"`

	Username  string     `json:"username,omitempty" gorm:"uniqueIndex"`
	Phone     string     `json:"phone,omitempty"`
	Bio       string     `json:"bio,omitempty" gorm:"type:text"`
	AvatarURL string     `json:"avatar_url,omitempty"`
	Location  string     `json:"location,omitempty"`
	Timezone  string     `json:"timezone,omitempty" gorm:"default:'UTC'"`
	BirthDate *time.Time `json:"date_of_birth,omitempty" gorm:"column:date_of_birth"`

	GitHubURL    string `json:"github_url,omitempty"`
	LinkedInURL  string `json:"linkedin_url,omitempty"`
	TwitterURL   string `json:"twitter_url,omitempty"`
	PortfolioURL string `json:"portfolio_url,omitempty"`

	// beginner, intermediate, advanced, expert
	SkillLevel           string         `json:"skill_level,omitempty" gorm:"default:'beginner'"`
	ProgrammingLanguages datatypes.JSON `json:"programming_languages,omitempty"`
	Interests            datatypes.JSON `json:"interests,omitempty"`

	DailyGoalMinutes   int  `json:"daily_goal_minutes" gorm:"default:30"`
	EmailNotifications bool `json:"email_notifications" gorm:"default:true"`
	IsPublic           bool `json:"is_public" gorm:"default:true"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// TableName gibt explizit den Tabellennamen an.
func (UserProfile) TableName() string {
	return "user_profiles"
}
