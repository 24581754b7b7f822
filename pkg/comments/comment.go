package comments

import "time"

type Comment struct {
	Id             string    `json:"commentId" msgpack:"id"`
	Text           string    `json:"text" msgpack:"text"`
	AuthorUsername string    `json:"username" msgpack:"username"`
	AuthorAvatar   string    `json:"profilePicUrl" msgpack:"avatar"`
	AuthorEmail    string    `json:"email" msgpack:"email"`
	LikeCount      int       `json:"likesCount" msgpack:"likes"`
	DislikeCount   int       `json:"dislikesCount" msgpack:"dislikes"`
	Timestamp      time.Time `json:"timestamp" msgpack:"ts"`
	ParentId       string    `json:"parentCommentId,omitempty" msgpack:"parent,omitempty"` // empty: top-level

	// Built locally by BuildTree, never sent by the server
	Replies []*Comment `json:"replies" msgpack:"-"`
}

// Score is the net score shown next to a comment.
func (c *Comment) Score() int {
	return c.LikeCount - c.DislikeCount
}

func (c *Comment) IsReply() bool {
	return c.ParentId != ""
}

type Author struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
	Avatar   string `json:"profilePic"`
}

type PostRequest struct {
	TargetId string
	Text     string
	Author   Author
	ParentId string
}
