package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/sakif/devblog/internal/model"
)

type postDoc struct {
	ID                bson.ObjectID `bson:"_id"`
	Title             string        `bson:"title"`
	Content           string        `bson:"content"`
	Category          string        `bson:"category"`
	AuthorID          string        `bson:"authorId"`
	AuthorEmail       string        `bson:"authorEmail"`
	AuthorDisplayName string        `bson:"authorDisplayName"`
	CreatedAt         time.Time     `bson:"createdAt"`
	UpdatedAt         time.Time     `bson:"updatedAt"`
}

func (d postDoc) toPost() *model.Post {
	return &model.Post{
		ID:                d.ID.Hex(),
		Title:             d.Title,
		Content:           d.Content,
		Category:          model.Category(d.Category),
		AuthorID:          d.AuthorID,
		AuthorEmail:       d.AuthorEmail,
		AuthorDisplayName: d.AuthorDisplayName,
		CreatedAt:         d.CreatedAt.UTC(),
		UpdatedAt:         d.UpdatedAt.UTC(),
	}
}

func (d postDoc) toSummary() model.PostSummary {
	return model.PostSummary{
		ID:                d.ID.Hex(),
		Title:             d.Title,
		Category:          model.Category(d.Category),
		AuthorEmail:       d.AuthorEmail,
		AuthorDisplayName: d.AuthorDisplayName,
		CreatedAt:         d.CreatedAt.UTC(),
	}
}

// commentDoc timestamps are pointers: documents written by older clients
// may lack them.
type commentDoc struct {
	ID                bson.ObjectID `bson:"_id"`
	PostID            string        `bson:"postId"`
	Content           string        `bson:"content"`
	AuthorID          string        `bson:"authorId"`
	AuthorEmail       string        `bson:"authorEmail"`
	AuthorDisplayName string        `bson:"authorDisplayName"`
	CreatedAt         *time.Time    `bson:"createdAt,omitempty"`
	UpdatedAt         *time.Time    `bson:"updatedAt,omitempty"`
}

func (d commentDoc) toComment() model.Comment {
	c := model.Comment{
		ID:                d.ID.Hex(),
		PostID:            d.PostID,
		Content:           d.Content,
		AuthorID:          d.AuthorID,
		AuthorEmail:       d.AuthorEmail,
		AuthorDisplayName: d.AuthorDisplayName,
	}
	if d.CreatedAt != nil {
		c.CreatedAt = d.CreatedAt.UTC()
	}
	if d.UpdatedAt != nil {
		c.UpdatedAt = d.UpdatedAt.UTC()
	}
	return c
}

type userDoc struct {
	ID          bson.ObjectID `bson:"_id"`
	GitHubID    int64         `bson:"githubId"`
	Login       string        `bson:"login"`
	Email       string        `bson:"email"`
	DisplayName string        `bson:"displayName"`
	AvatarURL   string        `bson:"avatarUrl"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

func (d userDoc) toUser() *model.User {
	return &model.User{
		ID:          d.ID.Hex(),
		GitHubID:    d.GitHubID,
		Login:       d.Login,
		Email:       d.Email,
		DisplayName: d.DisplayName,
		AvatarURL:   d.AvatarURL,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}
