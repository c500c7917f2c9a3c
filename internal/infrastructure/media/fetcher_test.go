package media

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchDirectImage(t *testing.T) {
	t.Parallel()

	want := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(want)
	}))
	defer server.Close()

	f := NewFetcher(server.Client())
	got, err := f.Fetch(context.Background(), server.URL+"/full.jpg")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("unexpected bytes: %v", got)
	}
}

func TestFetchFollowsOGImage(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/image.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	})
	mux.HandleFunc("/artwork/1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<html><head><meta property="og:image" content="%s/image.png"></head></html>`, server.URL)
	})

	f := NewFetcher(server.Client())
	got, err := f.Fetch(context.Background(), server.URL+"/artwork/1")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if string(got) != "png-bytes" {
		t.Fatalf("unexpected bytes: %q", got)
	}
}

func TestFetchHTMLWithoutOGImage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>gallery</title></head></html>`))
	}))
	defer server.Close()

	f := NewFetcher(server.Client())
	if _, err := f.Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for HTML page without og:image")
	}
}
