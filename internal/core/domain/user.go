package domain

import "time"

// User models a registered account. PasswordHash and RefreshToken never leave
// the process: they are excluded from JSON and cleared by Public.
type User struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Avatar       string    `json:"avatar"`
	AvatarID     string    `json:"-"`
	CoverImage   string    `json:"coverImage"`
	CoverImageID string    `json:"-"`
	WatchHistory []string  `json:"watchHistory"`
	PasswordHash string    `json:"-"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public returns a copy without the password hash and the refresh token.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	clone.RefreshToken = ""
	if u.WatchHistory != nil {
		clone.WatchHistory = append([]string(nil), u.WatchHistory...)
	}
	return &clone
}

// HasSession reports whether a refresh token is currently persisted.
func (u *User) HasSession() bool {
	return u.RefreshToken != ""
}

// Subscription is a directed edge: Subscriber follows Channel.
type Subscription struct {
	ID         string    `json:"_id"`
	Subscriber string    `json:"subscriber"`
	Channel    string    `json:"channel"`
	CreatedAt  time.Time `json:"createdAt"`
}
