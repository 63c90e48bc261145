// Package fetcher retrieves pages over HTTP, falling back through an ordered
// set of request-identity profiles when a site resists the default one.
package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

// Options controls fetching behaviour.
type Options struct {
	Timeout       time.Duration
	StrategyDelay time.Duration
	UseFallback   bool
	MaxBodyBytes  int64
	Strategies    []Strategy
	Logger        *slog.Logger
}

// Result is a successful fetch: the raw HTML body and the address the request
// resolved to after redirects.
type Result struct {
	Body         []byte
	FinalAddress string
	Strategy     string
}

// Client fetches pages with strategy fallback. One Client may serve many
// sequential crawl runs.
type Client struct {
	client        *http.Client
	strategies    []Strategy
	timeout       time.Duration
	strategyDelay time.Duration
	maxBodyBytes  int64
	logger        *slog.Logger
}

// New constructs a fetch client from the given options.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.StrategyDelay <= 0 {
		opts.StrategyDelay = 500 * time.Millisecond
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 6 * 1024 * 1024
	}
	strategies := opts.Strategies
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	if !opts.UseFallback {
		strategies = strategies[:1]
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		client:        &http.Client{Transport: transport},
		strategies:    strategies,
		timeout:       opts.Timeout,
		strategyDelay: opts.StrategyDelay,
		maxBodyBytes:  opts.MaxBodyBytes,
		logger:        logger,
	}
}

// Fetch tries each strategy in order until one yields an acceptable HTML
// response. The returned slice holds the names of all strategies attempted,
// in order, whether or not the fetch succeeded.
func (c *Client) Fetch(ctx context.Context, address string) (*Result, []string, error) {
	attempted := make([]string, 0, len(c.strategies))
	var lastErr error

	for i, strategy := range c.strategies {
		attempted = append(attempted, strategy.Name)

		result, err := c.attempt(ctx, address, strategy)
		if err == nil {
			result.Strategy = strategy.Name
			return result, attempted, nil
		}
		lastErr = err
		c.logger.Debug("fetch attempt failed",
			"url", address, "strategy", strategy.Name, "error", err)

		if i == len(c.strategies)-1 {
			break
		}
		// Fixed pause before the next identity, to avoid hammering the host.
		timer := time.NewTimer(c.strategyDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, attempted, ctx.Err()
		}
	}

	return nil, attempted, fmt.Errorf("all %d strategies failed: %w", len(attempted), lastErr)
}

func (c *Client) attempt(ctx context.Context, address string, strategy Strategy) (*Result, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, address, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for name, value := range strategy.Headers {
		req.Header.Set(name, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if !acceptableContentType(resp.Header.Get("Content-Type")) {
		resp.Body.Close()
		return nil, fmt.Errorf("non-HTML content type %q", resp.Header.Get("Content-Type"))
	}

	body, err := c.readBody(resp)
	if err != nil {
		return nil, err
	}

	finalAddress := address
	if resp.Request != nil && resp.Request.URL != nil {
		finalAddress = resp.Request.URL.String()
	}

	return &Result{Body: body, FinalAddress: finalAddress}, nil
}

func acceptableContentType(ct string) bool {
	if ct == "" {
		return true
	}
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	reader := io.Reader(resp.Body)
	closers := []io.Closer{resp.Body}

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch encoding {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		reader = gz
		closers = append(closers, gz)
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		reader = fl
		closers = append(closers, fl)
	}

	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	limited := io.LimitReader(reader, c.maxBodyBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, fmt.Errorf("response body exceeds limit of %d bytes", c.maxBodyBytes)
	}
	return body, nil
}
