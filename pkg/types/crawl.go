package types

import "time"

// FrontierEntry is a pending unit of work in the crawl queue.
type FrontierEntry struct {
	Address string
	Depth   int
}

// ExtractedLink is a hyperlink discovered on a fetched page. Depth is left at
// zero by the link extractor; the orchestrator assigns the real depth when it
// enqueues the link.
type ExtractedLink struct {
	Address    string
	AnchorText string
	Depth      int
}

// PageRecord is the normalized outcome of one successfully crawled page.
// Records are immutable once appended to a run's success list.
type PageRecord struct {
	Title         string
	Content       string
	Address       string
	WordCount     int
	PublishedTime string
	Author        string
	SiteName      string
	Depth         int
	FetchedAt     time.Time
}

// CrawlFailure records a page that could not be fetched or extracted.
// AttemptedStrategies holds the ordered names of the request profiles tried
// before giving up; it may be partial when the fetch succeeded but extraction
// did not.
type CrawlFailure struct {
	Address             string
	Error               string
	AttemptedStrategies []string
	Depth               int
}

// Progress is a snapshot emitted to an optional observer before each page is
// processed.
type Progress struct {
	CurrentURL   string
	Processed    int
	QueueLength  int
	SuccessCount int
	FailedCount  int
	Depth        int
}

// CrawlResult aggregates the outcome of one crawl run. Success and Failed are
// ordered by discovery (BFS over depth, FIFO within a depth).
type CrawlResult struct {
	Success          []PageRecord
	Failed           []CrawlFailure
	TotalTime        time.Duration
	VisitedAddresses []string
}
