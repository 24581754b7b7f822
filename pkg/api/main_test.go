package api_test

import (
	"net/http/httptest"
	"testing"

	"github.com/jestr-media/client/pkg/api"
	"github.com/jestr-media/client/pkg/api/devserver"
)

const (
	ana = "ana@jestr.app"
	ben = "ben@jestr.app"
)

func newBackend(t *testing.T, opts devserver.Options) (*devserver.Server, string) {
	t.Helper()
	s := devserver.New(opts)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return s, srv.URL
}

func clientFor(url string, user string, opts ...api.Option) *api.Client {
	return api.NewClient(url, append([]api.Option{api.WithUser(user)}, opts...)...)
}
