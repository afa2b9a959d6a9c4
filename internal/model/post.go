// Package model defines the blog's entities.
//
// The structs here are the typed side of the store boundary: repositories
// translate store documents (SQLite rows, BSON documents) into these values
// and back. Nothing in this package knows how or where they are stored.
package model

import (
	"fmt"
	"time"
)

// Category is the closed set of post categories.
type Category string

const (
	CategoryTech   Category = "tech"
	CategoryDaily  Category = "daily"
	CategoryReview Category = "review"
	CategoryEtc    Category = "etc"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryTech, CategoryDaily, CategoryReview, CategoryEtc}

// ParseCategory returns the Category named by s, or an error when s is not
// one of Categories.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Valid reports whether c is a member of the enumeration.
func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

// Post is a full blog post.
//
// The author fields are a snapshot of the user taken when the post was
// created. They are not refreshed when the user later changes their profile.
// CreatedAt never changes after creation; UpdatedAt is refreshed on every
// successful edit, so UpdatedAt >= CreatedAt always holds.
type Post struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Content           string    `json:"content"`
	Category          Category  `json:"category"`
	AuthorID          string    `json:"authorId"`
	AuthorEmail       string    `json:"authorEmail"`
	AuthorDisplayName string    `json:"authorDisplayName"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Summary projects the post down to its list-view fields.
func (p *Post) Summary() PostSummary {
	return PostSummary{
		ID:                p.ID,
		Title:             p.Title,
		Category:          p.Category,
		AuthorEmail:       p.AuthorEmail,
		AuthorDisplayName: p.AuthorDisplayName,
		CreatedAt:         p.CreatedAt,
	}
}

// PostSummary is the list-view projection of a Post. Content and UpdatedAt
// are left out to keep listing payloads small.
type PostSummary struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Category          Category  `json:"category"`
	AuthorEmail       string    `json:"authorEmail"`
	AuthorDisplayName string    `json:"authorDisplayName"`
	CreatedAt         time.Time `json:"createdAt"`
}

// PostInput carries the author-editable fields of a post.
type PostInput struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category Category `json:"category"`
}
