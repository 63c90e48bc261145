package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"siteharvest/internal/extractor"
	"siteharvest/internal/fetcher"
	"siteharvest/internal/urlutil"
	"siteharvest/pkg/types"
)

// testSite serves HTML fixtures and counts requests per path.
type testSite struct {
	mu       sync.Mutex
	requests map[string]int
	pages    map[string]string
	srv      *httptest.Server
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	site := &testSite{
		requests: make(map[string]int),
		pages:    make(map[string]string),
	}
	site.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site.mu.Lock()
		site.requests[r.URL.Path]++
		page, ok := site.pages[r.URL.Path]
		site.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}))
	t.Cleanup(site.srv.Close)
	return site
}

func (s *testSite) addPage(path, body string, links ...string) {
	var b strings.Builder
	b.WriteString("<html><body><article><p>")
	b.WriteString(body)
	b.WriteString("</p></article>")
	for i, link := range links {
		fmt.Fprintf(&b, `<a href=%q>link %d</a>`, link, i)
	}
	b.WriteString("</body></html>")
	s.mu.Lock()
	s.pages[path] = b.String()
	s.mu.Unlock()
}

func (s *testSite) hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

func newTestEngine(opts Options) *Engine {
	fetch := fetcher.New(fetcher.Options{
		Timeout:       5 * time.Second,
		StrategyDelay: time.Millisecond,
		UseFallback:   true,
	})
	extract := extractor.NewDensityExtractor(extractor.Options{MinContentLength: 10})
	return NewEngine(opts, fetch, extract, nil)
}

const filler = "Plenty of readable article text for the extraction gate to accept."

func TestCrawlFollowsSameSiteLinks(t *testing.T) {
	site := newTestSite(t)
	site.addPage("/", filler, "/y", "https://elsewhere.invalid/z")
	site.addPage("/y", filler)

	engine := newTestEngine(Options{MaxDepth: 1, MaxPages: 10, SameDomainOnly: true})
	result, err := engine.Crawl(context.Background(), site.srv.URL+"/")
	if err != nil {
		t.Fatalf("Crawl error: %v", err)
	}

	if len(result.Success) != 2 {
		t.Fatalf("success = %d pages %v, want 2", len(result.Success), addressesOf(result))
	}
	if len(result.Failed) != 0 {
		t.Errorf("failed = %v, want none", result.Failed)
	}
	for _, addr := range result.VisitedAddresses {
		if strings.Contains(addr, "elsewhere.invalid") {
			t.Errorf("external address visited: %s", addr)
		}
	}
}

func TestCrawlRespectsMaxPages(t *testing.T) {
	site := newTestSite(t)
	links := make([]string, 10)
	for i := range links {
		path := fmt.Sprintf("/p%d", i)
		links[i] = path
		site.addPage(path, filler)
	}
	site.addPage("/", filler, links...)

	engine := newTestEngine(Options{MaxDepth: 3, MaxPages: 1, SameDomainOnly: true})
	result, err := engine.Crawl(context.Background(), site.srv.URL+"/")
	if err != nil {
		t.Fatalf("Crawl error: %v", err)
	}
	if got := len(result.Success) + len(result.Failed); got != 1 {
		t.Errorf("processed = %d, want exactly 1", got)
	}
}

func TestCrawlRespectsMaxDepthZero(t *testing.T) {
	site := newTestSite(t)
	site.addPage("/", filler, "/deeper")
	site.addPage("/deeper", filler)

	engine := newTestEngine(Options{MaxDepth: 0, MaxPages: 10, SameDomainOnly: true})
	result, err := engine.Crawl(context.Background(), site.srv.URL+"/")
	if err != nil {
		t.Fatalf("Crawl error: %v", err)
	}
	if len(result.Success) != 1 {
		t.Errorf("success = %v, want only the seed", addressesOf(result))
	}
	if site.hits("/deeper") != 0 {
		t.Errorf("/deeper fetched %d times, want 0", site.hits("/deeper"))
	}
}

func TestCrawlVisitsEachAddressAtMostOnce(t *testing.T) {
	site := newTestSite(t)
	site.addPage("/", filler, "/b", "/b", "/")
	site.addPage("/b", filler, "/")

	engine := newTestEngine(Options{MaxDepth: 3, MaxPages: 10, SameDomainOnly: true})
	result, err := engine.Crawl(context.Background(), site.srv.URL+"/")
	if err != nil {
		t.Fatalf("Crawl error: %v", err)
	}

	if site.hits("/") != 1 {
		t.Errorf("/ fetched %d times, want 1", site.hits("/"))
	}
	if site.hits("/b") != 1 {
		t.Errorf("/b fetched %d times, want 1", site.hits("/b"))
	}

	seen := make(map[string]int)
	for _, page := range result.Success {
		seen[urlutil.Normalize(page.Address)]++
	}
	for _, failure := range result.Failed {
		seen[urlutil.Normalize(failure.Address)]++
	}
	for addr, n := range seen {
		if n > 1 {
			t.Errorf("address %s appears %d times across success+failure", addr, n)
		}
	}
}

func TestCrawlRecordsFailureAndContinues(t *testing.T) {
	site := newTestSite(t)
	site.addPage("/", filler, "/missing", "/fine")
	site.addPage("/fine", filler)

	engine := newTestEngine(Options{MaxDepth: 1, MaxPages: 10, SameDomainOnly: true})
	result, err := engine.Crawl(context.Background(), site.srv.URL+"/")
	if err != nil {
		t.Fatalf("Crawl error: %v", err)
	}

	if len(result.Success) != 2 {
		t.Errorf("success = %v, want / and /fine", addressesOf(result))
	}
	if len(result.Failed) != 1 {
		t.Fatalf("failed = %v, want one entry", result.Failed)
	}
	failure := result.Failed[0]
	if !strings.HasSuffix(failure.Address, "/missing") {
		t.Errorf("failure address = %q", failure.Address)
	}
	if len(failure.AttemptedStrategies) != 5 {
		t.Errorf("attempted strategies = %v, want all 5", failure.AttemptedStrategies)
	}
	if failure.Depth != 1 {
		t.Errorf("failure depth = %d, want 1", failure.Depth)
	}
}

func TestCrawlNeverEnqueuesAssetLinks(t *testing.T) {
	site := newTestSite(t)
	site.addPage("/", filler, "/paper.pdf", "/image.jpg", "/doc")
	site.addPage("/doc", filler)

	engine := newTestEngine(Options{MaxDepth: 1, MaxPages: 10, SameDomainOnly: true})
	if _, err := engine.Crawl(context.Background(), site.srv.URL+"/"); err != nil {
		t.Fatalf("Crawl error: %v", err)
	}
	if site.hits("/paper.pdf") != 0 || site.hits("/image.jpg") != 0 {
		t.Error("asset links were fetched")
	}
	if site.hits("/doc") != 1 {
		t.Errorf("/doc fetched %d times, want 1", site.hits("/doc"))
	}
}

func TestCrawlExcludeAndIncludePatterns(t *testing.T) {
	site := newTestSite(t)
	site.addPage("/posts/a", filler, "/posts/b", "/posts/c-draft", "/admin/x")
	site.addPage("/posts/b", filler)
	site.addPage("/posts/c-draft", filler)
	site.addPage("/admin/x", filler)

	engine := newTestEngine(Options{
		MaxDepth:        1,
		MaxPages:        10,
		SameDomainOnly:  true,
		IncludePatterns: []string{"/posts/"},
		ExcludePatterns: []string{"draft"},
	})
	result, err := engine.Crawl(context.Background(), site.srv.URL+"/posts/a")
	if err != nil {
		t.Fatalf("Crawl error: %v", err)
	}

	for _, page := range result.Success {
		if strings.Contains(page.Address, "draft") || strings.Contains(page.Address, "admin") {
			t.Errorf("policy-rejected address crawled: %s", page.Address)
		}
	}
	if site.hits("/posts/b") != 1 {
		t.Errorf("/posts/b fetched %d times, want 1", site.hits("/posts/b"))
	}
	if site.hits("/posts/c-draft") != 0 || site.hits("/admin/x") != 0 {
		t.Error("excluded or non-included pages were fetched")
	}
}

func TestCrawlEmitsProgressSnapshots(t *testing.T) {
	site := newTestSite(t)
	site.addPage("/", filler, "/next")
	site.addPage("/next", filler)

	var snapshots []types.Progress
	engine := newTestEngine(Options{
		MaxDepth:       1,
		MaxPages:       10,
		SameDomainOnly: true,
		OnProgress:     func(p types.Progress) { snapshots = append(snapshots, p) },
	})
	if _, err := engine.Crawl(context.Background(), site.srv.URL+"/"); err != nil {
		t.Fatalf("Crawl error: %v", err)
	}

	if len(snapshots) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(snapshots))
	}
	if snapshots[0].Depth != 0 || snapshots[1].Depth != 1 {
		t.Errorf("snapshot depths = %d,%d", snapshots[0].Depth, snapshots[1].Depth)
	}
	if snapshots[1].SuccessCount != 1 {
		t.Errorf("second snapshot success = %d, want 1", snapshots[1].SuccessCount)
	}
}

func TestCrawlRecordsDiscoveryOrder(t *testing.T) {
	site := newTestSite(t)
	site.addPage("/", filler, "/a", "/b")
	site.addPage("/a", filler)
	site.addPage("/b", filler)

	engine := newTestEngine(Options{MaxDepth: 1, MaxPages: 10, SameDomainOnly: true})
	result, err := engine.Crawl(context.Background(), site.srv.URL+"/")
	if err != nil {
		t.Fatalf("Crawl error: %v", err)
	}
	if len(result.Success) != 3 {
		t.Fatalf("success = %v", addressesOf(result))
	}
	if !strings.HasSuffix(result.Success[1].Address, "/a") || !strings.HasSuffix(result.Success[2].Address, "/b") {
		t.Errorf("records out of discovery order: %v", addressesOf(result))
	}
}

func TestCrawlHonoursCancellation(t *testing.T) {
	site := newTestSite(t)
	site.addPage("/", filler, "/a", "/b", "/c")
	site.addPage("/a", filler)
	site.addPage("/b", filler)
	site.addPage("/c", filler)

	ctx, cancel := context.WithCancel(context.Background())
	engine := newTestEngine(Options{
		MaxDepth:       1,
		MaxPages:       10,
		SameDomainOnly: true,
		OnProgress: func(p types.Progress) {
			if p.Processed >= 1 {
				cancel()
			}
		},
	})
	result, err := engine.Crawl(ctx, site.srv.URL+"/")
	if err != nil {
		t.Fatalf("Crawl error: %v", err)
	}
	if got := len(result.Success) + len(result.Failed); got >= 4 {
		t.Errorf("cancellation ignored, processed %d pages", got)
	}
}

func addressesOf(result *types.CrawlResult) []string {
	var out []string
	for _, page := range result.Success {
		out = append(out, page.Address)
	}
	return out
}
