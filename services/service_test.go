package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pathshala-api/models"
)

// newTestDB öffnet eine In-Memory-SQLite-Datenbank mit vollständigem Schema.
// MaxOpenConns(1) hält die Verbindung auf derselben In-Memory-Instanz.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.APIToken{},
		&models.Blog{}, &models.Exercise{}, &models.Tutorial{},
		&models.UserProfile{}, &models.UserActivity{},
		&models.UserPerformance{}, &models.UserFavorite{},
	))
	return db
}

// testBlog liefert einen Blog mit allen Pflichtfeldern beider Sprachen.
func testBlog(title string) *models.Blog {
	return &models.Blog{
		Title:      title,
		TitleBn:    title + " (bn)",
		Excerpt:    "An excerpt",
		ExcerptBn:  "Ekti excerpt",
		Content:    "Full content",
		ContentBn:  "Purno content",
		Author:     "Rahim Uddin",
		AuthorBn:   "Rahim Uddin (bn)",
		Category:   "programming",
		CategoryBn: "programming (bn)",
	}
}
