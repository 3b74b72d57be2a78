package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathshala-api/models"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Hello   World  ", "hello-world"},
		{"Go 1.24 Released!", "go-1-24-released"},
		{"Café au Lait", "cafe-au-lait"},
		{"C++ für Einsteiger", "c-fur-einsteiger"},
		{"___", "item"},
		{"", "item"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.in), "Slugify(%q)", tc.in)
	}
}

func TestResolveSlugPicksSmallestFreeSuffix(t *testing.T) {
	db := newTestDB(t)

	for _, slug := range []string{"hello-world", "hello-world-1"} {
		blog := testBlog("Hello World")
		blog.Slug = slug
		require.NoError(t, db.Create(blog).Error)
	}

	slug, err := ResolveSlug(db, &models.Blog{}, "hello-world", 0)
	require.NoError(t, err)
	assert.Equal(t, "hello-world-2", slug)
}

func TestResolveSlugExcludesOwnRow(t *testing.T) {
	db := newTestDB(t)

	blog := testBlog("Hello World")
	blog.Slug = "hello-world"
	require.NoError(t, db.Create(blog).Error)

	// Die eigene Zeile darf keine Kollision auslösen.
	slug, err := ResolveSlug(db, &models.Blog{}, "hello-world", blog.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello-world", slug)
}

func TestResolveSlugScopedPerContentType(t *testing.T) {
	db := newTestDB(t)

	blog := testBlog("Hello World")
	blog.Slug = "hello-world"
	require.NoError(t, db.Create(blog).Error)

	// Exercises haben einen eigenen Slug-Namensraum.
	slug, err := ResolveSlug(db, &models.Exercise{}, "hello-world", 0)
	require.NoError(t, err)
	assert.Equal(t, "hello-world", slug)
}
