package devserver

import (
	"net/http"

	"github.com/jestr-media/client/pkg/api"
)

func (s *Server) getComments(w http.ResponseWriter, r *http.Request) {
	var body api.GetCommentsReq
	if !decodeBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	list := append([]api.WireComment{}, s.comments[body.MemeID]...)
	s.mu.Unlock()

	returnData(w, http.StatusOK, list)
}

func (s *Server) postComment(w http.ResponseWriter, r *http.Request) {
	var body api.PostCommentReq
	if !decodeBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Replies must point at a comment of the same meme
	if body.ParentCommentID != nil && *body.ParentCommentID != "" {
		if s.findComment(body.MemeID, *body.ParentCommentID) < 0 {
			returnErr(w, http.StatusNotFound, ErrNotFound, map[string]string{"ParentCommentID": "Parent comment not found."})
			return
		}
	} else {
		body.ParentCommentID = nil
	}

	comment := api.WireComment{
		CommentID:       s.ids.GenString(),
		MemeID:          body.MemeID,
		Text:            body.Text,
		Username:        body.Username,
		ProfilePicUrl:   body.ProfilePic,
		Email:           body.Email,
		Timestamp:       s.timestamp(),
		ParentCommentID: body.ParentCommentID,
	}
	s.comments[body.MemeID] = append(s.comments[body.MemeID], comment)
	s.bumpCommentCount(body.MemeID, 1)

	returnData(w, http.StatusCreated, comment)
}

func (s *Server) updateCommentReaction(w http.ResponseWriter, r *http.Request) {
	var body api.UpdateCommentReactionReq
	if !decodeBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findComment(body.MemeID, body.CommentID)
	if i < 0 {
		returnErr(w, http.StatusNotFound, ErrNotFound, nil)
		return
	}
	comment := &s.comments[body.MemeID][i]
	if body.IncrementLikes {
		comment.LikesCount++
	}
	if body.IncrementDislikes {
		comment.DislikesCount++
	}

	returnData(w, http.StatusOK, *comment)
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	var body api.DeleteCommentReq
	if !decodeBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findComment(body.MemeID, body.CommentID)
	if i < 0 {
		returnErr(w, http.StatusNotFound, ErrNotFound, nil)
		return
	}
	list := s.comments[body.MemeID]
	if list[i].Email != body.Email {
		returnErr(w, http.StatusForbidden, ErrForbidden, nil)
		return
	}

	// Replies stay; the client promotes them to the top level
	next := make([]api.WireComment, 0, len(list)-1)
	next = append(next, list[:i]...)
	s.comments[body.MemeID] = append(next, list[i+1:]...)
	s.bumpCommentCount(body.MemeID, -1)

	returnData(w, http.StatusOK, map[string]string{"commentID": body.CommentID})
}

// findComment must be called with mu held
func (s *Server) findComment(memeId string, commentId string) int {
	for i, c := range s.comments[memeId] {
		if c.CommentID == commentId {
			return i
		}
	}
	return -1
}

// bumpCommentCount must be called with mu held
func (s *Server) bumpCommentCount(memeId string, delta int) {
	for i := range s.memes {
		if s.memes[i].MemeID == memeId {
			s.memes[i].CommentCount += api.FlexInt(delta)
			return
		}
	}
}
