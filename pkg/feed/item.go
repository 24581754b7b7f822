package feed

import (
	"context"
	"time"
)

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

type Author struct {
	Email    string `json:"email" msgpack:"email"`
	Username string `json:"username" msgpack:"username"`
	Avatar   string `json:"profilePicUrl" msgpack:"avatar"`
	Followed bool   `json:"isFollowed" msgpack:"followed"`
}

type Item struct {
	Id         string    `json:"memeID" msgpack:"id"`
	MediaType  MediaType `json:"mediaType" msgpack:"media_type"`
	URL        string    `json:"url" msgpack:"url"`
	Caption    string    `json:"caption" msgpack:"caption"`
	UploadedAt time.Time `json:"uploadTimestamp" msgpack:"uploaded_at"`
	Author     Author    `json:"author" msgpack:"author"`

	LikeCount     int  `json:"likeCount" msgpack:"likes"`
	DownloadCount int  `json:"downloadCount" msgpack:"downloads"`
	CommentCount  int  `json:"commentCount" msgpack:"comments"`
	ShareCount    int  `json:"shareCount" msgpack:"shares"`
	Liked         bool `json:"liked" msgpack:"liked"`

	// Set locally once the item has been on screen
	Viewed bool `json:"viewed" msgpack:"viewed"`
}

// Page is one server page. An empty NextCursor means there is nothing after it.
type Page struct {
	Items        []Item
	NextCursor   string
	LastViewedId string
}

type API interface {
	FetchFeedPage(ctx context.Context, cursor string, pageSize int) (Page, error)
}
