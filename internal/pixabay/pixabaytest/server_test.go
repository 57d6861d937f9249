package pixabaytest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/pixa/internal/storage"
)

type body struct {
	Total     int             `json:"total"`
	TotalHits int             `json:"totalHits"`
	Hits      []storage.Image `json:"hits"`
}

func get(t *testing.T, s *Server, q url.Values) (*http.Response, body) {
	t.Helper()
	resp, err := http.Get(s.BaseURL() + "?" + q.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()

	var b body
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&b))
	}
	return resp, b
}

func TestServer_Paging(t *testing.T) {
	s := NewServer(WithTotal(30))
	defer s.Close()

	resp, b := get(t, s, url.Values{"key": {Key}, "page": {"1"}, "per_page": {"25"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 30, b.TotalHits)
	require.Len(t, b.Hits, 25)
	assert.Equal(t, 1, b.Hits[0].ID)

	_, b = get(t, s, url.Values{"key": {Key}, "page": {"2"}, "per_page": {"25"}})
	require.Len(t, b.Hits, 5)
	assert.Equal(t, 26, b.Hits[0].ID)

	resp, _ = get(t, s, url.Values{"key": {Key}, "page": {"3"}, "per_page": {"25"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	queries := s.Queries()
	require.Len(t, queries, 3)
	assert.NotContains(t, queries[0], "key")
}

func TestServer_QueryShapesHits(t *testing.T) {
	s := NewServer()
	defer s.Close()

	_, b := get(t, s, url.Values{"key": {Key}, "page": {"1"}, "q": {"cat"}, "image_type": {"vector"}, "colors": {"red"}})
	require.NotEmpty(t, b.Hits)
	hit := b.Hits[0]
	assert.Equal(t, searchOffset+1, hit.ID)
	assert.Equal(t, "vector", hit.Type)
	assert.Equal(t, []string{"test", "cat", "red"}, hit.TagList())
	assert.Equal(t, "image-200001_150.jpg", hit.FileName())

	_, b = get(t, s, url.Values{"key": {Key}, "page": {"1"}, "category": {"food"}})
	assert.Equal(t, categoryOffset+1, b.Hits[0].ID)
}

func TestServer_KeyAndFailures(t *testing.T) {
	s := NewServer()
	defer s.Close()

	resp, _ := get(t, s, url.Values{"key": {"nope"}, "page": {"1"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	s.Fail(1, http.StatusTooManyRequests, "slow down")
	resp, _ = get(t, s, url.Values{"key": {Key}, "page": {"1"}})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "42", resp.Header.Get("X-RateLimit-Reset"))

	s.Recover(1)
	resp, _ = get(t, s, url.Values{"key": {Key}, "page": {"1"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Images(t *testing.T) {
	s := NewServer()
	defer s.Close()

	_, b := get(t, s, url.Values{"key": {Key}, "page": {"1"}})
	resp, err := http.Get(b.Hits[0].LargeImageURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, ImageBytes, data)
	assert.Equal(t, 1, s.ImageRequests())
}
