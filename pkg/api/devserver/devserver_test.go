package devserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jestr-media/client/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, h http.Handler, path string, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestValidationErrorsNameFields(t *testing.T) {
	h := New(Options{}).Router()

	rec := post(t, h, "/postComment", `{"operation":"postComment","memeID":"m1","text":"hi","email":"not-an-email","username":"ana"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ErrBadRequest.Error(), resp.Message)
	assert.Contains(t, resp.Fields, "email")
}

func TestFetchMemesRequiresToken(t *testing.T) {
	s := New(Options{Token: "secret"})
	s.SeedMeme(apiMeme("m1"))
	h := s.Router()
	body := `{"operation":"fetchMemes","userEmail":"ana@jestr.app","limit":5,"lastEvaluatedKey":null}`

	rec := post(t, h, "/fetchMemes", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(t, h, "/fetchMemes", body, map[string]string{"Authorization": "Bearer secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"memeID":"m1"`)
}

func TestDeleteCommentChecksOwner(t *testing.T) {
	h := New(Options{}).Router()

	rec := post(t, h, "/postComment", `{"memeID":"m1","text":"hi","email":"ana@jestr.app","username":"ana"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data struct {
			CommentID string `json:"CommentID"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = post(t, h, "/deleteComment", `{"commentID":"`+created.Data.CommentID+`","memeID":"m1","email":"ben@jestr.app"}`, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = post(t, h, "/deleteComment", `{"commentID":"`+created.Data.CommentID+`","memeID":"m1","email":"ana@jestr.app"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := New(Options{}).Router()
	post(t, h, "/getComments", `{"memeID":"m1"}`, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `jestr_devserver_requests_total{code="200",operation="getComments"} 1`)
}

func apiMeme(id string) api.WireMeme {
	return api.WireMeme{MemeID: id, URL: "https://cdn.jestr.app/" + id + ".jpg"}
}

func TestMetricsUnknownPathsShareOneLabel(t *testing.T) {
	h := New(Options{}).Router()
	for _, path := range []string{"/nope-1", "/nope-2", "/getComments/extra"} {
		rec := post(t, h, path, `{}`, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `jestr_devserver_requests_total{code="404",operation="unmatched"} 3`)
	assert.NotContains(t, body, "nope")
}
