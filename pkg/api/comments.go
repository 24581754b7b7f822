package api

import (
	"context"

	"github.com/jestr-media/client/pkg/comments"
)

var _ comments.API = (*Client)(nil)

func (c *Client) FetchComments(ctx context.Context, targetId string) ([]comments.Comment, error) {
	var wire []WireComment
	if err := c.do(ctx, "getComments", GetCommentsReq{MemeID: targetId}, &wire); err != nil {
		return nil, err
	}

	out := make([]comments.Comment, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toComment())
	}
	return out, nil
}

func (c *Client) PostComment(ctx context.Context, req comments.PostRequest) error {
	body := PostCommentReq{
		MemeID:     req.TargetId,
		Text:       req.Text,
		Email:      req.Author.Email,
		Username:   req.Author.Username,
		ProfilePic: req.Author.Avatar,
	}
	if req.ParentId != "" {
		parent := req.ParentId
		body.ParentCommentID = &parent
	}
	return c.do(ctx, "postComment", body, nil)
}

func (c *Client) UpdateCommentReaction(ctx context.Context, commentId string, targetId string, like bool, dislike bool) error {
	return c.do(ctx, "updateCommentReaction", UpdateCommentReactionReq{
		CommentID:         commentId,
		MemeID:            targetId,
		IncrementLikes:    like,
		IncrementDislikes: dislike,
		UserEmail:         c.user,
	}, nil)
}

func (c *Client) DeleteComment(ctx context.Context, commentId string, targetId string) error {
	if c.user == "" {
		return ErrNoUser
	}
	return c.do(ctx, "deleteComment", DeleteCommentReq{
		CommentID: commentId,
		MemeID:    targetId,
		Email:     c.user,
	}, nil)
}

func (w WireComment) toComment() comments.Comment {
	parent := ""
	if w.ParentCommentID != nil {
		parent = *w.ParentCommentID
	}
	username := w.Username
	if username == "" {
		username = "Unknown user"
	}
	return comments.Comment{
		Id:             w.CommentID,
		Text:           w.Text,
		AuthorUsername: username,
		AuthorAvatar:   w.ProfilePicUrl,
		AuthorEmail:    w.Email,
		LikeCount:      int(w.LikesCount),
		DislikeCount:   int(w.DislikesCount),
		Timestamp:      parseTime(w.Timestamp),
		ParentId:       parent,
	}
}
