package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMetadataFetcher_PrefersOpenGraph(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html><head>
<title>Plain title</title>
<meta property="og:title" content="OG title" />
<meta name="description" content="Plain description" />
<meta property="og:description" content="OG description" />
<meta property="og:image" content="https://img.example.com/a.png" />
</head><body></body></html>`))
	}))
	defer srv.Close()

	meta, err := NewMetadataFetcher().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if meta.Title != "OG title" {
		t.Fatalf("expected og:title to win, got %q", meta.Title)
	}
	if meta.Description != "OG description" {
		t.Fatalf("expected og:description to win, got %q", meta.Description)
	}
	if meta.Image != "https://img.example.com/a.png" {
		t.Fatalf("unexpected image %q", meta.Image)
	}
}

func TestMetadataFetcher_FallsBackToTitleTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Only title</title></head><body></body></html>`))
	}))
	defer srv.Close()

	meta, err := NewMetadataFetcher().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if meta.Title != "Only title" {
		t.Fatalf("expected title tag fallback, got %q", meta.Title)
	}
	if meta.Description != "" || meta.Image != "" {
		t.Fatalf("expected empty description/image, got %+v", meta)
	}
}

func TestMetadataFetcher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := NewMetadataFetcher().Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected an error for a non-2xx response")
	}
}
