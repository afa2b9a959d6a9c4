package model

import "time"

// User is an account signed in through GitHub.
//
// ID is our own identifier (the "uid" stamped on posts and comments as
// AuthorID). GitHubID is GitHub's numeric user id and is what logins are
// matched on. Only ID, Email and DisplayName are ever copied onto content.
type User struct {
	ID          string    `json:"uid"`
	GitHubID    int64     `json:"githubId"`
	Login       string    `json:"login"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Name returns DisplayName, falling back to Login when GitHub had no name
// for the account.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Login
}
