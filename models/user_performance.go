package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserPerformance ist das materialisierte Aggregat über alle UserActivity-
// Datensätze eines Users (1:1). Es wird nach jedem Aktivitäts-Upsert komplett
// neu berechnet, nie inkrementell gepflegt.
type UserPerformance struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `json:"user_id" gorm:"uniqueIndex;not null"`

	TotalLessonsCompleted   int     `json:"total_lessons_completed" gorm:"default:0"`
	TotalExercisesCompleted int     `json:"total_exercises_completed" gorm:"default:0"`
	TotalQuizzesCompleted   int     `json:"total_quizzes_completed" gorm:"default:0"`
	TotalHoursLearned       float64 `json:"total_hours_learned" gorm:"default:0"`

	CurrentStreak int `json:"current_streak" gorm:"default:0"`
	LongestStreak int `json:"longest_streak" gorm:"default:0"`

	TotalPoints     int `json:"total_points" gorm:"default:0"`
	ExperienceLevel int `json:"experience_level" gorm:"default:1"`

	// Append-only: Badges werden nie entfernt, Reihenfolge = Vergabereihenfolge.
	Badges datatypes.JSON `json:"badges,omitempty"`

	LastActiveDate *time.Time `json:"last_active_date,omitempty" gorm:"type:date"`
	JoinedDate     *time.Time `json:"joined_date,omitempty"`
}

// TableName gibt explizit den Tabellennamen an (Singular wie im Alt-Schema).
func (UserPerformance) TableName() string {
	return "user_performance"
}
