package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"go-blog-list/internal/fetch"
)

const miniRSS = `<?xml version="1.0"?><rss version="2.0"><channel><title>t</title></channel></rss>`

func feedClient(t *testing.T) *fetch.Client {
	return newClient(t, fetch.Options{Format: "feed"})
}

func TestDiscoverFeed_SiteIsFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(miniRSS))
	}))
	defer srv.Close()

	got, err := feedClient(t).DiscoverFeed(context.Background(), srv.URL+"/rss")
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/rss", got)
}

func TestDiscoverFeed_FromLinkTag(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/blog", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><link rel="alternate" type="application/atom+xml" href="/blog/atom.xml"></head><body>hi</body></html>`))
	})
	mux.HandleFunc("/blog/atom.xml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := feedClient(t).DiscoverFeed(context.Background(), srv.URL+"/blog")
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/blog/atom.xml", got)
}

func TestDiscoverFeed_ProbesCommonPaths(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/index.xml" {
			_, _ = w.Write([]byte(miniRSS))
			return
		}
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(`<html><body>no links</body></html>`))
			return
		}
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := feedClient(t).DiscoverFeed(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/index.xml", got)
}

func TestDiscoverFeed_NothingFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<html></html>`))
	}))
	defer srv.Close()

	_, err := feedClient(t).DiscoverFeed(context.Background(), srv.URL)
	require.Error(t, err)
}
