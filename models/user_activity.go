package models

import "time"

// UserActivity ist das Tagesjournal eines Users: genau ein Datensatz pro
// (user_id, activity_date). Wiederholtes Tracken am selben Tag ersetzt die
// Zähler, es wird nicht addiert.
type UserActivity struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID       uint      `json:"user_id" gorm:"uniqueIndex:idx_user_activity_day;not null"`
	ActivityDate time.Time `json:"activity_date" gorm:"uniqueIndex:idx_user_activity_day;type:date;not null"`

	MinutesActive       int `json:"minutes_active" gorm:"default:0"`
	LessonsCompleted    int `json:"lessons_completed" gorm:"default:0"`
	ExercisesCompleted  int `json:"exercises_completed" gorm:"default:0"`
	QuizzesCompleted    int `json:"quizzes_completed" gorm:"default:0"`
	BlogsRead           int `json:"blogs_read" gorm:"default:0"`
	CommentsPosted      int `json:"comments_posted" gorm:"default:0"`
	CodeSnippetsCreated int `json:"code_snippets_created" gorm:"default:0"`
}

// TableName gibt explizit den Tabellennamen an.
func (UserActivity) TableName() string {
	return "user_activities"
}

// DateOnly normalisiert einen Zeitstempel auf das reine Kalenderdatum (UTC).
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
