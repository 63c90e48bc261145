// Package crawler drives the bounded breadth-first traversal: it schedules
// the frontier, invokes fetch and extraction per page, and accumulates
// successes and failures without ever letting one page abort the run.
package crawler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"siteharvest/internal/extractor"
	"siteharvest/internal/fetcher"
	"siteharvest/internal/urlutil"
	"siteharvest/pkg/types"
)

// Options configure a single crawl engine. Pattern matching is by substring.
type Options struct {
	MaxDepth             int
	MaxPages             int
	SameDomainOnly       bool
	IncludePatterns      []string
	ExcludePatterns      []string
	DelayBetweenRequests time.Duration
	OnProgress           func(types.Progress)
}

// Engine runs crawls. It holds no per-run state; each Crawl call constructs
// its own, so one Engine may serve concurrent runs.
type Engine struct {
	fetch   *fetcher.Client
	extract extractor.ContentExtractor
	opts    Options
	logger  *slog.Logger
}

// NewEngine wires an engine from its collaborators. The logger may be nil.
func NewEngine(opts Options, fetch *fetcher.Client, extract extractor.ContentExtractor, logger *slog.Logger) *Engine {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 50
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{fetch: fetch, extract: extract, opts: opts, logger: logger}
}

// runState is the per-run bookkeeping. It lives for one Crawl invocation and
// is never shared.
type runState struct {
	frontier *Frontier
	success  []types.PageRecord
	failed   []types.CrawlFailure
	started  time.Time
}

func (s *runState) processed() int {
	return len(s.success) + len(s.failed)
}

// Crawl performs a bounded breadth-first traversal from startAddress and
// returns the aggregate result. Per-page failures are recorded, never
// propagated; an empty success list is a valid outcome. Context cancellation
// ends the run early with the partial result accumulated so far.
func (e *Engine) Crawl(ctx context.Context, startAddress string) (*types.CrawlResult, error) {
	state := &runState{frontier: NewFrontier(), started: time.Now()}
	pacer := NewPacer(e.opts.DelayBetweenRequests)
	scopeDomain := urlutil.DomainOf(startAddress)

	state.frontier.Push(startAddress, 0)

	for state.frontier.Len() > 0 && state.processed() < e.opts.MaxPages {
		entry, ok := state.frontier.Pop()
		if !ok {
			break
		}

		key := urlutil.Normalize(entry.Address)
		if state.frontier.Visited(key) {
			continue
		}
		if entry.Depth > e.opts.MaxDepth {
			continue
		}
		if !e.admit(entry.Address, scopeDomain) {
			continue
		}
		state.frontier.MarkVisited(key)

		e.emitProgress(state, entry)

		if err := pacer.Wait(ctx); err != nil {
			break
		}
		if ctx.Err() != nil {
			break
		}

		e.processPage(ctx, entry, state)
	}

	return &types.CrawlResult{
		Success:          state.success,
		Failed:           state.failed,
		TotalTime:        time.Since(state.started),
		VisitedAddresses: state.frontier.VisitedAddresses(),
	}, nil
}

func (e *Engine) processPage(ctx context.Context, entry types.FrontierEntry, state *runState) {
	result, attempted, err := e.fetch.Fetch(ctx, entry.Address)
	if err != nil {
		e.logger.Warn("fetch failed", "url", entry.Address, "depth", entry.Depth,
			"attempts", len(attempted), "error", err)
		state.failed = append(state.failed, types.CrawlFailure{
			Address:             entry.Address,
			Error:               err.Error(),
			AttemptedStrategies: attempted,
			Depth:               entry.Depth,
		})
		return
	}

	content, err := e.extract.Extract(result.Body, result.FinalAddress)
	if err != nil {
		e.logger.Warn("extraction failed", "url", entry.Address, "depth", entry.Depth, "error", err)
		state.failed = append(state.failed, types.CrawlFailure{
			Address:             entry.Address,
			Error:               err.Error(),
			AttemptedStrategies: attempted,
			Depth:               entry.Depth,
		})
		return
	}

	state.success = append(state.success, types.PageRecord{
		Title:         content.Title,
		Content:       content.Markdown,
		Address:       entry.Address,
		WordCount:     content.WordCount,
		PublishedTime: content.PublishedTime,
		Author:        content.Author,
		SiteName:      content.SiteName,
		Depth:         entry.Depth,
		FetchedAt:     time.Now(),
	})

	e.logger.Info("page crawled", "url", entry.Address, "depth", entry.Depth,
		"words", content.WordCount, "strategy", result.Strategy)

	if entry.Depth >= e.opts.MaxDepth {
		return
	}
	for _, link := range extractor.ExtractLinks(result.Body, result.FinalAddress) {
		normalized := urlutil.Normalize(link.Address)
		if state.frontier.Visited(normalized) {
			continue
		}
		state.frontier.Push(normalized, entry.Depth+1)
	}
}

// admit applies the scoping policy in order: same-domain, then exclude
// patterns (any match rejects), then include patterns (must match one when
// any are configured). A rejection is not an error; the address simply never
// appears in either output list.
func (e *Engine) admit(address, scopeDomain string) bool {
	if e.opts.SameDomainOnly {
		domain := urlutil.DomainOf(address)
		if domain == "" || domain != scopeDomain {
			return false
		}
	}
	for _, pattern := range e.opts.ExcludePatterns {
		if strings.Contains(address, pattern) {
			return false
		}
	}
	if len(e.opts.IncludePatterns) > 0 {
		matched := false
		for _, pattern := range e.opts.IncludePatterns {
			if strings.Contains(address, pattern) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func (e *Engine) emitProgress(state *runState, entry types.FrontierEntry) {
	if e.opts.OnProgress == nil {
		return
	}
	e.opts.OnProgress(types.Progress{
		CurrentURL:   entry.Address,
		Processed:    state.processed(),
		QueueLength:  state.frontier.Len(),
		SuccessCount: len(state.success),
		FailedCount:  len(state.failed),
		Depth:        entry.Depth,
	})
}

// ErrNoStartAddress reports a crawl invoked without a seed.
var ErrNoStartAddress = errors.New("start address required")

// Validate checks that a start address is usable before a run begins.
func Validate(startAddress string) error {
	if strings.TrimSpace(startAddress) == "" {
		return ErrNoStartAddress
	}
	if urlutil.DomainOf(startAddress) == "" {
		return errors.New("start address has no resolvable host")
	}
	return nil
}
