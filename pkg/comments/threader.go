package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jestr-media/client/pkg/logging"
	"github.com/jestr-media/client/pkg/store"
	"go.uber.org/zap"
)

// API is the part of the remote API the threader consumes.
type API interface {
	FetchComments(ctx context.Context, targetId string) ([]Comment, error)
	PostComment(ctx context.Context, req PostRequest) error
	UpdateCommentReaction(ctx context.Context, commentId string, targetId string, like bool, dislike bool) error
	DeleteComment(ctx context.Context, commentId string, targetId string) error
}

type State struct {
	TargetId string
	Tree     []*Comment
	Count    int // size of the last fetched flat batch
	Loading  bool
	Err      error
}

type Options struct {
	Logger *zap.Logger

	// OnCount receives the flat comment count after every successful load
	OnCount func(targetId string, count int)
}

// Threader keeps the reply tree of one comment target. Every mutation is
// followed by a full reload; nothing is inserted optimistically, so reaction
// counters and new comments always come from the server.
type Threader struct {
	api     API
	state   *store.Store[State]
	gen     store.Generation
	log     *zap.Logger
	onCount func(string, int)
}

func NewThreader(api API, opts Options) *Threader {
	return &Threader{
		api:     api,
		state:   store.New(State{Tree: []*Comment{}}),
		log:     logging.OrNop(opts.Logger),
		onCount: opts.OnCount,
	}
}

func (t *Threader) State() State {
	return t.state.Get()
}

func (t *Threader) Subscribe(l store.Listener[State]) func() {
	return t.state.Subscribe(l)
}

// Load fetches the flat comment list of targetId and replaces the tree.
// A load superseded by a later one is dropped without touching state.
func (t *Threader) Load(ctx context.Context, targetId string) error {
	token := t.gen.Next()
	t.state.Update(func(s State) (State, bool) {
		if s.TargetId != targetId {
			s.Tree = []*Comment{}
			s.Count = 0
		}
		s.TargetId = targetId
		s.Loading = true
		s.Err = nil
		return s, true
	})

	flat, err := t.api.FetchComments(ctx, targetId)
	if !t.gen.IsCurrent(token) {
		t.log.Debug("Dropping superseded comment load", zap.String("target", targetId))
		return nil
	}
	if err != nil {
		logging.Report(t.log, err, "Failed to load comments", zap.String("target", targetId))
		t.state.Update(func(s State) (State, bool) {
			if !t.gen.IsCurrent(token) {
				return s, false
			}
			s.Loading = false
			s.Err = err
			return s, true
		})
		return fmt.Errorf("load comments: %w", err)
	}

	tree := BuildTree(flat)
	_, committed := t.state.Update(func(s State) (State, bool) {
		if !t.gen.IsCurrent(token) {
			return s, false
		}
		s.Tree = tree
		s.Count = len(flat)
		s.Loading = false
		s.Err = nil
		return s, true
	})
	if committed && t.onCount != nil {
		t.onCount(targetId, len(flat))
	}
	return nil
}

// Submit posts a comment, or a reply when parentId is set, and reloads the
// thread whether or not the post went through. On error the caller should
// keep the draft text.
func (t *Threader) Submit(ctx context.Context, targetId string, text string, author Author, parentId string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyComment
	}
	if author.Email == "" || author.Username == "" {
		return ErrMissingAuthor
	}

	var postErr error
	if err := t.api.PostComment(ctx, PostRequest{
		TargetId: targetId,
		Text:     text,
		Author:   author,
		ParentId: parentId,
	}); err != nil {
		logging.Report(t.log, err, "Failed to post comment",
			zap.String("target", targetId),
			zap.String("parent", parentId),
		)
		postErr = fmt.Errorf("post comment: %w", err)
	}

	return errors.Join(postErr, t.Load(ctx, targetId))
}

// React sends a like or dislike for commentId and reloads the thread.
func (t *Threader) React(ctx context.Context, commentId string, like bool, dislike bool) error {
	targetId := t.state.Get().TargetId
	if targetId == "" {
		return ErrNoTarget
	}

	var reactErr error
	if err := t.api.UpdateCommentReaction(ctx, commentId, targetId, like, dislike); err != nil {
		logging.Report(t.log, err, "Failed to update comment reaction", zap.String("comment", commentId))
		reactErr = fmt.Errorf("update reaction: %w", err)
	}

	return errors.Join(reactErr, t.Load(ctx, targetId))
}

// Delete removes one of the user's own comments and reloads the thread.
func (t *Threader) Delete(ctx context.Context, commentId string) error {
	targetId := t.state.Get().TargetId
	if targetId == "" {
		return ErrNoTarget
	}

	var deleteErr error
	if err := t.api.DeleteComment(ctx, commentId, targetId); err != nil {
		logging.Report(t.log, err, "Failed to delete comment", zap.String("comment", commentId))
		deleteErr = fmt.Errorf("delete comment: %w", err)
	}

	return errors.Join(deleteErr, t.Load(ctx, targetId))
}
