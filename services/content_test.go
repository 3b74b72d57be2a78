package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pathshala-api/models"
)

func newContentService(t *testing.T) *ContentService {
	t.Helper()
	return NewContentService(newTestDB(t), zap.NewNop())
}

func TestCreateGeneratesSequentialSlugs(t *testing.T) {
	cs := newContentService(t)

	slugs := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		blog := testBlog("Hello World")
		require.NoError(t, cs.Create(blog))
		slugs = append(slugs, blog.Slug)
	}

	assert.Equal(t, []string{"hello-world", "hello-world-1", "hello-world-2"}, slugs)
}

func TestCreateDefaultsToDraft(t *testing.T) {
	cs := newContentService(t)

	blog := testBlog("Draft by default")
	require.NoError(t, cs.Create(blog))

	assert.Equal(t, models.StatusDraft, blog.Status)
	assert.Nil(t, blog.PublishedAt)
}

func TestCreateValidation(t *testing.T) {
	cs := newContentService(t)

	blog := testBlog("Broken")
	blog.ContentBn = ""
	blog.Status = "live"

	err := cs.Create(blog)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "content_bn")
	assert.Contains(t, validationErr.Fields, "status")
}

func TestCreatePublishedSetsPublishedAt(t *testing.T) {
	cs := newContentService(t)

	blog := testBlog("Go Generics")
	blog.Status = models.StatusPublished
	require.NoError(t, cs.Create(blog))

	require.NotNil(t, blog.PublishedAt)
	assert.WithinDuration(t, time.Now().UTC(), *blog.PublishedAt, time.Minute)
}

func TestCreateKeepsProvidedPublishedAt(t *testing.T) {
	cs := newContentService(t)

	past := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	blog := testBlog("Backdated")
	blog.Status = models.StatusPublished
	blog.PublishedAt = &past
	require.NoError(t, cs.Create(blog))

	assert.True(t, blog.PublishedAt.Equal(past))
}

func TestUpdateKeepsSlugWhenTitleUnchanged(t *testing.T) {
	cs := newContentService(t)

	blog := testBlog("Stable Title")
	require.NoError(t, cs.Create(blog))

	require.NoError(t, cs.Update(blog, map[string]interface{}{
		"title":    "Stable Title",
		"category": "databases",
	}))

	var reloaded models.Blog
	require.NoError(t, cs.DB.First(&reloaded, blog.ID).Error)
	assert.Equal(t, "stable-title", reloaded.Slug)
	assert.Equal(t, "databases", reloaded.Category)
}

func TestUpdateTitleRegeneratesSlugWithCollision(t *testing.T) {
	cs := newContentService(t)

	first := testBlog("Original Title")
	require.NoError(t, cs.Create(first))
	second := testBlog("Another Title")
	require.NoError(t, cs.Create(second))

	require.NoError(t, cs.Update(second, map[string]interface{}{
		"title": "Original Title",
	}))

	var reloaded models.Blog
	require.NoError(t, cs.DB.First(&reloaded, second.ID).Error)
	assert.Equal(t, "original-title-1", reloaded.Slug)
}

func TestUpdatePublishTransitionSetsPublishedAtOnce(t *testing.T) {
	cs := newContentService(t)

	blog := testBlog("Publish Me")
	require.NoError(t, cs.Create(blog))
	require.Nil(t, blog.PublishedAt)

	require.NoError(t, cs.Update(blog, map[string]interface{}{
		"status": models.StatusPublished,
	}))

	var published models.Blog
	require.NoError(t, cs.DB.First(&published, blog.ID).Error)
	require.NotNil(t, published.PublishedAt)
	firstPublish := *published.PublishedAt

	// Archivieren und erneut publizieren darf den Zeitstempel nicht ändern.
	require.NoError(t, cs.Update(&published, map[string]interface{}{
		"status": models.StatusArchived,
	}))
	require.NoError(t, cs.DB.First(&published, blog.ID).Error)
	require.NoError(t, cs.Update(&published, map[string]interface{}{
		"status": models.StatusPublished,
	}))

	var reloaded models.Blog
	require.NoError(t, cs.DB.First(&reloaded, blog.ID).Error)
	require.NotNil(t, reloaded.PublishedAt)
	assert.True(t, reloaded.PublishedAt.Equal(firstPublish))
}

func TestUpdateNullPublishedAtIsIgnored(t *testing.T) {
	cs := newContentService(t)

	// Publish-Übergang mit explizitem null: der Zeitstempel wird trotzdem
	// gesetzt, published ohne published_at darf nicht entstehen.
	blog := testBlog("Null Check")
	require.NoError(t, cs.Create(blog))
	require.NoError(t, cs.Update(blog, map[string]interface{}{
		"status":       models.StatusPublished,
		"published_at": nil,
	}))

	var reloaded models.Blog
	require.NoError(t, cs.DB.First(&reloaded, blog.ID).Error)
	require.NotNil(t, reloaded.PublishedAt)
	firstPublish := *reloaded.PublishedAt

	// Auch ohne Statuswechsel darf null den Wert nicht löschen.
	require.NoError(t, cs.Update(&reloaded, map[string]interface{}{
		"published_at": nil,
		"category":     "databases",
	}))
	require.NoError(t, cs.DB.First(&reloaded, blog.ID).Error)
	require.NotNil(t, reloaded.PublishedAt)
	assert.True(t, reloaded.PublishedAt.Equal(firstPublish))
	assert.Equal(t, "databases", reloaded.Category)
}

func TestUpdateRejectsInvalidStatus(t *testing.T) {
	cs := newContentService(t)

	blog := testBlog("Status Check")
	require.NoError(t, cs.Create(blog))

	err := cs.Update(blog, map[string]interface{}{"status": "live"})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "status")
}

func TestPublishedScope(t *testing.T) {
	cs := newContentService(t)
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	visible := testBlog("Visible")
	visible.Status = models.StatusPublished
	visible.PublishedAt = &past
	require.NoError(t, cs.Create(visible))

	draft := testBlog("Draft")
	require.NoError(t, cs.Create(draft))

	archived := testBlog("Archived")
	archived.Status = models.StatusArchived
	archived.PublishedAt = &past
	require.NoError(t, cs.Create(archived))

	scheduled := testBlog("Scheduled")
	scheduled.Status = models.StatusPublished
	scheduled.PublishedAt = &future
	require.NoError(t, cs.Create(scheduled))

	var found []models.Blog
	require.NoError(t, cs.DB.Scopes(models.Published).Find(&found).Error)
	require.Len(t, found, 1)
	assert.Equal(t, "Visible", found[0].Title)
}

func TestIncrementViewsIsCumulative(t *testing.T) {
	cs := newContentService(t)

	blog := testBlog("Counter")
	require.NoError(t, cs.Create(blog))

	cs.IncrementViews(blog)
	cs.IncrementViews(blog)

	var reloaded models.Blog
	require.NoError(t, cs.DB.First(&reloaded, blog.ID).Error)
	assert.Equal(t, uint(2), reloaded.Views)
}

func TestTutorialOrdering(t *testing.T) {
	cs := newContentService(t)
	past := time.Now().UTC().Add(-time.Hour)

	for i, title := range []string{"Variables", "Loops", "Functions"} {
		tutorial := &models.Tutorial{
			LanguageID:  "javascript",
			Title:       title,
			Content:     "...",
			Order:       3 - i,
			Status:      models.StatusPublished,
			PublishedAt: &past,
		}
		require.NoError(t, cs.Create(tutorial))
	}

	var tutorials []models.Tutorial
	require.NoError(t, cs.DB.Scopes(models.Published).
		Order("sort_order asc, id asc").
		Find(&tutorials).Error)
	require.Len(t, tutorials, 3)
	assert.Equal(t, "Functions", tutorials[0].Title)
	assert.Equal(t, "Variables", tutorials[2].Title)
}

func TestIncrementCompletions(t *testing.T) {
	cs := newContentService(t)

	exercise := &models.Exercise{Title: "Two Sum", Difficulty: "easy"}
	require.NoError(t, cs.Create(exercise))

	require.NoError(t, cs.IncrementCompletions(exercise))

	var reloaded models.Exercise
	require.NoError(t, cs.DB.First(&reloaded, exercise.ID).Error)
	assert.Equal(t, uint(1), reloaded.Completions)
}
