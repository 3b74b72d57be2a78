package services

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"pathshala-api/models"
)

// slugFold zerlegt Unicode (NFD) und entfernt kombinierende Zeichen, damit
// z. B. "Café" zu "cafe" wird, bevor der eigentliche Slug gebaut wird.
var slugFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify leitet einen URL-tauglichen Slug aus einem Titel ab: Kleinbuchstaben,
// nicht-alphanumerische Läufe werden zu genau einem Bindestrich, Ränder getrimmt.
// Titel ohne ASCII-Substanz (z. B. rein bengalische) fallen auf "item" zurück.
func Slugify(title string) string {
	if folded, _, err := transform.String(slugFold, title); err == nil {
		title = folded
	}

	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "item"
	}
	return slug
}

// ResolveSlug findet den ersten freien Slug der Form base, base-1, base-2, ...
// für die Tabelle der übergebenen Entität. Der Suffix wächst pro Iteration
// strikt, die Schleife endet ausschließlich beim ersten freien Kandidaten.
// excludeID > 0 nimmt die eigene Zeile vom Kollisions-Check aus (Updates).
func ResolveSlug(db *gorm.DB, item models.Publishable, base string, excludeID uint) (string, error) {
	candidate := base
	for suffix := 1; ; suffix++ {
		query := db.Model(item).Where("slug = ?", candidate)
		if excludeID > 0 {
			query = query.Where("id <> ?", excludeID)
		}

		var count int64
		if err := query.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, suffix)
	}
}
