package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, err := ParseCategory(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
		assert.True(t, c.Valid())
	}

	_, err := ParseCategory("gossip")
	assert.Error(t, err)
	assert.False(t, Category("").Valid())
	assert.False(t, Category("Tech").Valid(), "categories are case sensitive")
}

func TestPostSummary(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	p := &Post{
		ID:                "p1",
		Title:             "Hello",
		Content:           "long body",
		Category:          CategoryTech,
		AuthorID:          "u1",
		AuthorEmail:       "a@example.com",
		AuthorDisplayName: "Ada",
		CreatedAt:         created,
		UpdatedAt:         created.Add(time.Hour),
	}

	assert.Equal(t, PostSummary{
		ID:                "p1",
		Title:             "Hello",
		Category:          CategoryTech,
		AuthorEmail:       "a@example.com",
		AuthorDisplayName: "Ada",
		CreatedAt:         created,
	}, p.Summary())
}

func TestUserName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{Login: "ada", DisplayName: "Ada Lovelace"}).Name())
	assert.Equal(t, "ada", (&User{Login: "ada"}).Name())
}
