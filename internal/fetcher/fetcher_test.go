package fetcher

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(useFallback bool) *Client {
	return New(Options{
		Timeout:       5 * time.Second,
		StrategyDelay: time.Millisecond,
		UseFallback:   useFallback,
	})
}

func TestFetchFirstStrategySucceeds(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	client := newTestClient(true)
	result, attempted, err := client.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(attempted) != 1 || attempted[0] != "chrome-windows" {
		t.Errorf("attempted = %v, want [chrome-windows]", attempted)
	}
	if requests.Load() != 1 {
		t.Errorf("requests = %d, want 1", requests.Load())
	}
	if !strings.Contains(string(result.Body), "ok") {
		t.Errorf("unexpected body %q", result.Body)
	}
	if result.Strategy != "chrome-windows" {
		t.Errorf("Strategy = %q", result.Strategy)
	}
}

func TestFetchExhaustsAllStrategies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	client := newTestClient(true)
	_, attempted, err := client.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error")
	}
	wantNames := []string{"chrome-windows", "firefox-windows", "safari-macos", "mobile-safari", "crawler-bot"}
	if len(attempted) != len(wantNames) {
		t.Fatalf("attempted = %v, want %d strategies", attempted, len(wantNames))
	}
	for i, name := range wantNames {
		if attempted[i] != name {
			t.Errorf("attempted[%d] = %q, want %q", i, attempted[i], name)
		}
	}
}

func TestFetchFallbackDisabled(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(false)
	_, attempted, err := client.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(attempted) != 1 {
		t.Errorf("attempted = %v, want single attempt", attempted)
	}
	if requests.Load() != 1 {
		t.Errorf("requests = %d, want 1", requests.Load())
	}
}

func TestFetchRejectsNonHTMLContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"not":"html"}`))
	}))
	defer srv.Close()

	client := newTestClient(false)
	_, _, err := client.Fetch(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "content type") {
		t.Errorf("err = %v, want content type failure", err)
	}
}

func TestFetchFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>landed</body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(false)
	result, _, err := client.Fetch(context.Background(), srv.URL+"/start")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if !strings.HasSuffix(result.FinalAddress, "/final") {
		t.Errorf("FinalAddress = %q, want .../final", result.FinalAddress)
	}
}

func TestFetchDecodesGzipBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("<html><body>compressed page body</body></html>"))
		gz.Close()
	}))
	defer srv.Close()

	client := newTestClient(false)
	result, _, err := client.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if !strings.Contains(string(result.Body), "compressed page body") {
		t.Errorf("body not decoded: %q", result.Body)
	}
}

func TestFetchEnforcesBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer srv.Close()

	client := New(Options{
		Timeout:       time.Second,
		StrategyDelay: time.Millisecond,
		MaxBodyBytes:  1024,
	})
	_, _, err := client.Fetch(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "exceeds limit") {
		t.Errorf("err = %v, want body limit failure", err)
	}
}

func TestFetchHonoursCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	client := newTestClient(false)
	_, _, err := client.Fetch(ctx, srv.URL)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("unexpected deadline error: %v", err)
	}
}
