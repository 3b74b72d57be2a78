package services

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pathshala-api/models"
)

// ContentService kapselt die gemeinsame Publishing-Logik aller Content-Typen:
// Slug-Eindeutigkeit, Status-Übergänge und published_at-Konsistenz. Er arbeitet
// ausschließlich gegen das Publishable-Interface, damit Blogs, Exercises und
// Tutorials dieselbe Implementierung teilen.
type ContentService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewContentService erstellt eine neue Instanz des ContentService.
func NewContentService(db *gorm.DB, logger *zap.Logger) *ContentService {
	return &ContentService{DB: db, Logger: logger}
}

// Create validiert und persistiert eine neue Content-Entität. Fehlt der Slug,
// wird er aus dem Titel abgeleitet; Kollisionen werden deterministisch mit dem
// kleinsten freien Suffix aufgelöst. status=published ohne published_at setzt
// den Zeitstempel auf jetzt (UTC).
func (s *ContentService) Create(item models.Publishable) error {
	fieldErrs := item.Validate()

	status := item.GetStatus()
	if status == "" {
		item.SetStatus(models.StatusDraft)
	} else if !models.ValidStatus(status) {
		fieldErrs["status"] = "must be one of: draft, published, archived"
	}
	if len(fieldErrs) > 0 {
		return &ValidationError{Fields: fieldErrs}
	}

	base := item.GetSlug()
	if base == "" {
		base = Slugify(item.SlugSource())
	}
	slug, err := ResolveSlug(s.DB, item, base, 0)
	if err != nil {
		return err
	}
	item.SetSlug(slug)

	if item.GetStatus() == models.StatusPublished && item.GetPublishedAt() == nil {
		now := time.Now().UTC()
		item.SetPublishedAt(&now)
	}

	if err := s.DB.Create(item).Error; err != nil {
		// Race zwischen Existenz-Check und Insert: der Unique-Index auf slug
		// ist der finale Backstop, der Konflikt ist für den Aufrufer retrybar.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &ConflictError{Entity: entityName(item), Slug: slug}
		}
		return err
	}

	s.Logger.Info("Content item created",
		zap.String("entity", entityName(item)),
		zap.Uint("id", item.GetID()),
		zap.String("slug", item.GetSlug()),
		zap.String("status", item.GetStatus()))
	return nil
}

// Update führt ein partielles Update auf der bereits geladenen Entität aus.
// Ändert sich der Titel, wird der Slug mit demselben Algorithmus neu erzeugt,
// wobei die eigene Zeile vom Kollisions-Check ausgenommen ist. Der Übergang
// nach published setzt published_at nur, wenn es zuvor leer war; ein
// vorhandener Wert wird nie überschrieben.
func (s *ContentService) Update(item models.Publishable, changes map[string]interface{}) error {
	// published_at darf nie auf NULL zurückgesetzt werden; ein nil-Wert zählt
	// auch nicht als "mitgeliefert" für den Publish-Übergang.
	if v, provided := changes["published_at"]; provided && v == nil {
		delete(changes, "published_at")
	}

	if status, ok := changes["status"].(string); ok {
		if !models.ValidStatus(status) {
			return NewValidationError("status", "must be one of: draft, published, archived")
		}
		if status == models.StatusPublished && item.GetPublishedAt() == nil {
			if _, provided := changes["published_at"]; !provided {
				changes["published_at"] = time.Now().UTC()
			}
		}
	}

	if title, ok := changes["title"].(string); ok {
		if title == "" {
			return NewValidationError("title", "field is required")
		}
		if title != item.SlugSource() {
			slug, err := ResolveSlug(s.DB, item, Slugify(title), item.GetID())
			if err != nil {
				return err
			}
			changes["slug"] = slug
		}
	}

	if err := s.DB.Model(item).Updates(changes).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &ConflictError{Entity: entityName(item), Slug: item.GetSlug()}
		}
		return err
	}
	return nil
}

// IncrementViews erhöht den View-Zähler als einzelnes atomares Statement.
// Ein Fehler wird nur geloggt; ein fehlgeschlagener Zähler darf den eigentlich
// erfolgreichen Abruf nicht abbrechen.
func (s *ContentService) IncrementViews(item models.Publishable) {
	if err := s.DB.Model(item).UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		s.Logger.Warn("Failed to increment view counter",
			zap.String("entity", entityName(item)),
			zap.String("slug", item.GetSlug()),
			zap.Error(err))
	}
}

// IncrementCompletions erhöht den Completion-Zähler einer Exercise atomar.
func (s *ContentService) IncrementCompletions(exercise *models.Exercise) error {
	return s.DB.Model(exercise).UpdateColumn("completions", gorm.Expr("completions + 1")).Error
}

func entityName(item models.Publishable) string {
	switch item.(type) {
	case *models.Blog:
		return "blog"
	case *models.Exercise:
		return "exercise"
	case *models.Tutorial:
		return "tutorial"
	default:
		return "content"
	}
}
