// Package devserver is an in-memory implementation of the Jestr backend
// operations the client consumes, for local development and tests.
package devserver

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jestr-media/client/pkg/api"
	"github.com/jestr-media/client/pkg/ids"
	"github.com/jestr-media/client/pkg/logging"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const timeLayout = "2006-01-02T15:04:05.000Z"

type Options struct {
	// Token, when set, must be sent as bearer token with fetchMemes
	Token  string
	NodeId int
	Logger *zap.Logger
}

type Server struct {
	mu            sync.Mutex
	users         map[string]api.WirePartner
	memes         []api.WireMeme
	comments      map[string][]api.WireComment // by meme id
	views         map[string]map[string]struct{}
	lastViewed    map[string]string
	conversations map[string]*conversation
	ids           *ids.Snowflake
	now           func() time.Time

	token   string
	log     *zap.Logger
	metrics *metrics
}

type conversation struct {
	id           string
	participants [2]string
	messages     []api.WireMessage
	lastRead     map[string]string
}

func (c *conversation) partnerOf(user string) (string, bool) {
	switch user {
	case c.participants[0]:
		return c.participants[1], true
	case c.participants[1]:
		return c.participants[0], true
	default:
		return "", false
	}
}

func New(opts Options) *Server {
	return &Server{
		users:         map[string]api.WirePartner{},
		comments:      map[string][]api.WireComment{},
		views:         map[string]map[string]struct{}{},
		lastViewed:    map[string]string{},
		conversations: map[string]*conversation{},
		ids:           ids.NewSnowflake(opts.NodeId),
		now:           time.Now,
		token:         opts.Token,
		log:           logging.OrNop(opts.Logger),
		metrics:       newMetrics(),
	}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	// CORS middleware
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"OPTIONS", "POST"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler)

	r.Use(s.metrics.middleware)

	// Request log middleware
	r.Use(func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.log.Debug("Request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
			w.Header().Set("Content-Type", "application/json")
			h.ServeHTTP(w, r)
		})
	})

	r.Post("/getComments", s.getComments)
	r.Post("/postComment", s.postComment)
	r.Post("/updateCommentReaction", s.updateCommentReaction)
	r.Post("/deleteComment", s.deleteComment)

	r.Post("/fetchMemes", s.fetchMemes)
	r.Post("/recordMemeViews", s.recordMemeViews)

	r.Post("/getConversations", s.getConversations)
	r.Post("/sendMessage", s.sendMessage)
	r.Post("/getMessages", s.getMessages)

	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	return r
}

// SeedUser registers a profile used for partner summaries.
func (s *Server) SeedUser(email string, username string, profilePic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = api.WirePartner{Email: email, Username: username, ProfilePic: profilePic}
}

// SeedMeme appends a meme to the feed, assigning an id when it has none.
func (s *Server) SeedMeme(m api.WireMeme) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.MemeID == "" {
		m.MemeID = s.ids.GenString()
	}
	if m.UploadTimestamp == "" {
		m.UploadTimestamp = s.timestamp()
	}
	if m.MediaType == "" {
		m.MediaType = "image"
	}
	s.memes = append(s.memes, m)
	return m.MemeID
}

// Views returns the meme ids email has viewed.
func (s *Server) Views(email string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.views[email]))
	for id := range s.views[email] {
		out = append(out, id)
	}
	return out
}

// partner must be called with mu held
func (s *Server) partner(email string) api.WirePartner {
	if p, ok := s.users[email]; ok {
		return p
	}
	username, _, _ := strings.Cut(email, "@")
	return api.WirePartner{Email: email, Username: username}
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}
