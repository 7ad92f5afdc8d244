package domain

import "time"

// ChannelProfile is the public view of a user seen as a channel.
type ChannelProfile struct {
	ID                        string `json:"_id"`
	FullName                  string `json:"fullName"`
	Username                  string `json:"username"`
	Email                     string `json:"email"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage"`
	SubscribersCount          int    `json:"subscribersCount"`
	ChannelsSubscribedToCount int    `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

// VideoOwner is the projection of a video's owner inside the watch history.
type VideoOwner struct {
	ID       string `json:"_id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// WatchedVideo is one resolved entry of a user's watch history.
type WatchedVideo struct {
	ID          string      `json:"_id"`
	VideoFile   string      `json:"videoFile"`
	Thumbnail   string      `json:"thumbnail"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Duration    float64     `json:"duration"`
	Views       int64       `json:"views"`
	IsPublished bool        `json:"isPublished"`
	Owner       *VideoOwner `json:"owner"`
	CreatedAt   time.Time   `json:"createdAt"`
}
