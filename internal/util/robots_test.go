package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRobotsChecker_CanFetch(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			t.Errorf("Expected only robots.txt requests, got %s", r.URL.Path)
		}
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("User-agent: TruthGuard\nDisallow: /private\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /\n"))
	}))
	defer server.Close()

	checker := NewRobotsChecker("TruthGuard/0.1 (+https://example.com)", server.Client(), time.Second)

	tests := []struct {
		desc    string
		path    string
		allowed bool
	}{
		{desc: "open path", path: "/articles/earth", allowed: true},
		{desc: "disallowed path", path: "/private/notes", allowed: false},
		{desc: "root", path: "", allowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			allowed, delay, err := checker.CanFetch(context.Background(), server.URL+tt.path)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if allowed != tt.allowed {
				t.Errorf("Expected allowed=%v, got %v", tt.allowed, allowed)
			}
			if allowed && delay != 2*time.Second {
				t.Errorf("Expected crawl delay 2s, got %v", delay)
			}
		})
	}

	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("Expected robots.txt fetched once, got %d", hits)
	}
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	checker := NewRobotsChecker("TruthGuard/0.1", server.Client(), time.Second)
	if !checker.IsAllowed(context.Background(), server.URL+"/anything") {
		t.Error("Expected fetch allowed when robots.txt is missing")
	}
}

func TestRobotsChecker_BadURL(t *testing.T) {
	checker := NewRobotsChecker("TruthGuard/0.1", nil, time.Second)
	if _, _, err := checker.CanFetch(context.Background(), "not a url"); err == nil {
		t.Error("Expected error for URL without host")
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"TruthGuard/0.1 (+https://github.com/ppiankov/truthguard)", "TruthGuard"},
		{"curl/8.0", "curl"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeUserAgent(tt.in); got != tt.want {
			t.Errorf("NormalizeUserAgent(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
