package model

import "time"

// Comment is a reply attached to a post by PostID.
//
// PostID is a plain reference: nothing stops a comment from outliving its
// post. A zero CreatedAt means the stored document carried no timestamp.
type Comment struct {
	ID                string    `json:"id"`
	PostID            string    `json:"postId"`
	Content           string    `json:"content"`
	AuthorID          string    `json:"authorId"`
	AuthorEmail       string    `json:"authorEmail"`
	AuthorDisplayName string    `json:"authorDisplayName"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// CommentInput carries the author-editable fields of a comment.
type CommentInput struct {
	Content string `json:"content"`
}
