package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"go-blog-list/internal/model"
	"go-blog-list/internal/server"
)

type fakeCollections struct {
	mu        sync.Mutex
	items     []model.Item
	err       error
	refreshes int
}

func (f *fakeCollections) Collection(context.Context, string) ([]model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items, f.err
}

func (f *fakeCollections) Refresh(context.Context, string) ([]model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return f.items, f.err
}

func sample(n int) []model.Item {
	out := make([]model.Item, n)
	for i := range out {
		out[i] = model.Item{
			Title:         fmt.Sprintf("Post %02d", i+1),
			PublishedDate: fmt.Sprintf("2024-02-%02d", i%28+1),
			Category:      []string{"tech", "life", ""}[i%3],
		}
	}
	return model.AssignIDs(out)
}

func newServer(src server.Collections) http.Handler {
	return server.New(src, server.Options{URL: "u", PageSize: 4, RefreshEvery: time.Hour}).Handler()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func doc(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	return d
}

func TestPage_FirstPageAndLoadMoreLink(t *testing.T) {
	h := newServer(&fakeCollections{items: sample(10)})
	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	d := doc(t, rec)
	require.Equal(t, 4, d.Find("article.blog-item").Length())
	href, ok := d.Find("a.load-more").Attr("href")
	require.True(t, ok)
	require.Equal(t, "/?pages=2", href)
	// "All categories" 加上集合中的两个分类
	require.Equal(t, 3, d.Find(`select[name="category"] option`).Length())
}

func TestPage_QueryParams(t *testing.T) {
	h := newServer(&fakeCollections{items: sample(12)})
	rec := get(t, h, "/?category=tech&sort=date&pages=2&search=post")
	require.Equal(t, http.StatusOK, rec.Code)

	d := doc(t, rec)
	require.Equal(t, 4, d.Find("article.blog-item").Length())
	require.Equal(t, 0, d.Find("a.load-more").Length())
	sel, _ := d.Find(`select[name="sort"] option[selected]`).Attr("value")
	require.Equal(t, "date", sel)
	v, _ := d.Find(`input[name="search"]`).Attr("value")
	require.Equal(t, "post", v)
}

func TestPage_NoResults(t *testing.T) {
	h := newServer(&fakeCollections{items: sample(3)})
	d := doc(t, get(t, h, "/?search=nothing-here"))
	require.Equal(t, "No blogs found", d.Find("p.no-results").Text())
}

func TestPage_FetchFailureIs502(t *testing.T) {
	h := newServer(&fakeCollections{err: errors.New("boom")})
	rec := get(t, h, "/")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	d := doc(t, rec)
	require.Equal(t, "Error: boom", strings.TrimSpace(d.Find(".blog-error").Text()))
	require.Equal(t, 0, d.Find("article").Length())
}

func TestAPIItems(t *testing.T) {
	h := newServer(&fakeCollections{items: sample(10)})
	rec := get(t, h, "/api/items?pages=2&sort=date")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items      []model.Item `json:"items"`
		Total      int          `json:"total"`
		PagesShown int          `json:"pages_shown"`
		HasMore    bool         `json:"has_more"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 8)
	require.Equal(t, 10, body.Total)
	require.Equal(t, 2, body.PagesShown)
	require.True(t, body.HasMore)
	require.Equal(t, "Post 10", body.Items[0].Title)
}

func TestAPIItems_EmptyIsArray(t *testing.T) {
	h := newServer(&fakeCollections{items: []model.Item{}})
	rec := get(t, h, "/api/items")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"items":[]`)
}

func TestAPIItems_Failure(t *testing.T) {
	h := newServer(&fakeCollections{err: errors.New("down")})
	rec := get(t, h, "/api/items")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), "down")
}

func TestRefresh_RateLimited(t *testing.T) {
	src := &fakeCollections{items: sample(2)}
	h := newServer(src)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, 1, src.refreshes)
}

func TestRefresh_Failure(t *testing.T) {
	h := newServer(&fakeCollections{err: errors.New("nope")})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealthzAndRequestID(t *testing.T) {
	h := newServer(&fakeCollections{})
	rec := get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
	_, err := uuid.Parse(rec.Header().Get("X-Request-Id"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "given-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "given-id", rec.Header().Get("X-Request-Id"))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newServer(&fakeCollections{})
	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := server.New(&fakeCollections{}, server.Options{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
