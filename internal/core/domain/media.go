package domain

import "io"

// Media folders used when uploading profile images.
const (
	FolderAvatars     = "avatars"
	FolderCoverImages = "coverImages"
)

// MediaFile is an uploaded file waiting to be handed to the media store.
type MediaFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Media is a stored object: URL is public, PublicID is the key used for deletion.
type Media struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}
