// Package pixabaytest runs an in-process stand-in for the Pixabay API.
package pixabaytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/pders01/pixa/internal/storage"
)

const (
	// Key is the API key the server accepts unless WithKey changes it.
	Key = "test-key"

	defaultTotal   = 500
	defaultPerPage = 20

	categoryOffset = 100000
	searchOffset   = 200000
)

// ImageBytes is served for every image URL.
var ImageBytes = []byte("\xff\xd8\xff\xe0pixabaytest-image\xff\xd9")

type failure struct {
	status int
	body   string
}

// Server pages deterministic hits. IDs start at 1 for unfiltered browsing,
// at 100001 when a category is set and at 200001 when q is set.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	key      string
	total    int
	queries  []url.Values
	latency  map[int]time.Duration
	failures map[int]failure
	images   int
}

type Option func(*Server)

// WithTotal sets totalHits for every query.
func WithTotal(n int) Option {
	return func(s *Server) { s.total = n }
}

func WithKey(key string) Option {
	return func(s *Server) { s.key = key }
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		key:      Key,
		total:    defaultTotal,
		latency:  map[int]time.Duration{},
		failures: map[int]failure{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/", s.handleSearch).Methods("GET")
	r.HandleFunc("/images/{name}", s.handleImage).Methods("GET")
	return r
}

// BaseURL is the API endpoint to hand to the client.
func (s *Server) BaseURL() string { return s.URL + "/api/" }

// Queries returns every query received so far, API key removed.
func (s *Server) Queries() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]url.Values, len(s.queries))
	copy(out, s.queries)
	return out
}

// ImageRequests counts image downloads served.
func (s *Server) ImageRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.images
}

// SetLatency delays responses for page.
func (s *Server) SetLatency(page int, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency[page] = d
}

// Fail makes requests for page answer with status and body.
func (s *Server) Fail(page, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[page] = failure{status: status, body: body}
}

// Recover clears a failure set with Fail.
func (s *Server) Recover(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, page)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := q.Get("key")
	q.Del("key")

	s.mu.Lock()
	s.queries = append(s.queries, q)
	wantKey, total := s.key, s.total
	page := atoiDefault(q.Get("page"), 1)
	delay := s.latency[page]
	fail, failing := s.failures[page]
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if key != wantKey {
		http.Error(w, "[ERROR 400] Invalid or missing API key", http.StatusBadRequest)
		return
	}
	if failing {
		if fail.status == http.StatusTooManyRequests {
			w.Header().Set("X-RateLimit-Reset", "42")
		}
		http.Error(w, fail.body, fail.status)
		return
	}

	perPage := atoiDefault(q.Get("per_page"), defaultPerPage)
	if (page-1)*perPage > total && total > 0 {
		http.Error(w, `[ERROR 400] "page" is out of valid range.`, http.StatusBadRequest)
		return
	}

	resp := struct {
		Total     int             `json:"total"`
		TotalHits int             `json:"totalHits"`
		Hits      []storage.Image `json:"hits"`
	}{Total: total * 2, TotalHits: total, Hits: []storage.Image{}}

	offset := 0
	if q.Get("category") != "" {
		offset = categoryOffset
	}
	if q.Get("q") != "" {
		offset = searchOffset
	}
	for i := (page - 1) * perPage; i < page*perPage && i < total; i++ {
		resp.Hits = append(resp.Hits, s.hit(offset+i+1, q))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

var heights = []int{427, 640, 960}

func (s *Server) hit(id int, q url.Values) storage.Image {
	tags := []string{"test"}
	for _, k := range []string{"q", "category", "colors", "orientation"} {
		if v := q.Get(k); v != "" {
			tags = append(tags, v)
		}
	}
	kind := q.Get("image_type")
	if kind == "" || kind == "all" {
		kind = "photo"
	}
	name := fmt.Sprintf("image-%d", id)
	height := heights[id%len(heights)]
	return storage.Image{
		ID:            id,
		PageURL:       fmt.Sprintf("https://pixabay.com/photos/%s/", name),
		Type:          kind,
		Tags:          strings.Join(tags, ", "),
		PreviewURL:    fmt.Sprintf("%s/images/%s_150.jpg", s.URL, name),
		PreviewWidth:  150,
		PreviewHeight: height * 150 / 640,
		WebformatURL:  fmt.Sprintf("%s/images/%s_640.jpg", s.URL, name),
		LargeImageURL: fmt.Sprintf("%s/images/%s_1280.jpg", s.URL, name),
		ImageWidth:    640,
		ImageHeight:   height,
		Views:         id * 10,
		Downloads:     id * 3,
		Likes:         id % 97,
		Comments:      id % 13,
		UserID:        1000 + id%7,
		User:          fmt.Sprintf("user%d", id%7),
	}
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !strings.HasSuffix(name, ".jpg") {
		http.NotFound(w, r)
		return
	}
	s.mu.Lock()
	s.images++
	s.mu.Unlock()

	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(ImageBytes)
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
