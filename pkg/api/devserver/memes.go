package devserver

import (
	"net/http"

	"github.com/jestr-media/client/pkg/api"
)

func (s *Server) fetchMemes(w http.ResponseWriter, r *http.Request) {
	if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
		returnErr(w, http.StatusUnauthorized, ErrUnauthorized, nil)
		return
	}

	var body api.FetchMemesReq
	if !decodeBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The cursor is the id of the last meme already delivered
	start := 0
	if body.LastEvaluatedKey != "" {
		for i, m := range s.memes {
			if m.MemeID == string(body.LastEvaluatedKey) {
				start = i + 1
				break
			}
		}
	}
	end := min(start+body.Limit, len(s.memes))

	page := append([]api.WireMeme{}, s.memes[start:end]...)
	var next api.Cursor
	if end < len(s.memes) && len(page) > 0 {
		next = api.Cursor(page[len(page)-1].MemeID)
	}

	returnData(w, http.StatusOK, api.FetchMemesResp{
		Memes:            page,
		LastEvaluatedKey: next,
		LastViewedMemeId: s.lastViewed[body.UserEmail],
	})
}

func (s *Server) recordMemeViews(w http.ResponseWriter, r *http.Request) {
	var body api.RecordMemeViewsReq
	if !decodeBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range body.Views {
		seen, ok := s.views[v.Email]
		if !ok {
			seen = map[string]struct{}{}
			s.views[v.Email] = seen
		}
		seen[v.MemeID] = struct{}{}
		s.lastViewed[v.Email] = v.MemeID
	}

	returnData(w, http.StatusOK, map[string]int{"recorded": len(body.Views)})
}
