package crawler

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/nao1215/webmirror/internal/stats"
)

// Spider drives the crawl: it drains the frontier one URL at a time,
// fetches, processes, extracts links, and enqueues the in-scope ones.
// The whole loop runs on a single goroutine; politeness comes from the
// per-request delay, not from connection limiting.
type Spider struct {
	scope     *Scope
	frontier  *Frontier
	fetcher   *Fetcher
	processor *Processor
	stats     *stats.Stats
	logger    *slog.Logger

	maxRequests int
	maxFiles    int
	delay       time.Duration
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxRequests stops the crawl once n requests have been issued.
// Zero means unlimited.
func WithMaxRequests(n int) SpiderOption {
	return func(s *Spider) { s.maxRequests = n }
}

// WithMaxFiles stops the crawl once n files have been stored.
// Zero means unlimited.
func WithMaxFiles(n int) SpiderOption {
	return func(s *Spider) { s.maxFiles = n }
}

// WithDelay sets the upper bound on the randomized pause between
// requests. Zero disables throttling.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) { s.delay = d }
}

// WithLogger sets the crawl logger.
func WithLogger(l *slog.Logger) SpiderOption {
	return func(s *Spider) { s.logger = l }
}

// NewSpider wires the crawl components together.
func NewSpider(scope *Scope, frontier *Frontier, fetcher *Fetcher, processor *Processor, st *stats.Stats, opts ...SpiderOption) *Spider {
	s := &Spider{
		scope:     scope,
		frontier:  frontier,
		fetcher:   fetcher,
		processor: processor,
		stats:     st,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run crawls until the frontier is empty, a budget is exhausted, or ctx
// is canceled. Cancellation is checked between pages, so an in-flight
// request finishes before the loop stops. The run is stamped finished on
// every exit path.
func (s *Spider) Run(ctx context.Context) error {
	defer s.stats.Finish()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if s.budgetExhausted() {
			return nil
		}

		raw, ok := s.frontier.Dequeue()
		if !ok {
			return nil
		}

		u, err := ParseURL(raw)
		if err != nil {
			s.logger.Warn("discarding unparsable queue entry", "url", raw, "error", err)
			continue
		}

		s.logger.Debug("fetching", "url", raw, "queued", s.frontier.Len())

		req, err := s.fetcher.BuildRequest(ctx, u, s.frontier.Referer(raw))
		if err != nil {
			s.logger.Warn("cannot build request", "url", raw, "error", err)
			continue
		}

		extracted := s.processor.Process(s.fetcher.Do(req))
		if extracted != nil {
			s.enqueueLinks(extracted)
		}

		if s.budgetExhausted() {
			return nil
		}

		s.throttle(ctx)
	}
}

// enqueueLinks parses the page for links and queues the ones the crawl
// is allowed to follow. Parse failure costs only this page's links, not
// the crawl.
func (s *Spider) enqueueLinks(e *Extracted) {
	links, err := ExtractLinks(e.BaseURL, e.Body, e.ContentType)
	if err != nil {
		s.logger.Warn("html parse failed", "url", e.BaseURL.String(), "error", err)
		return
	}

	referer := e.BaseURL.String()
	for _, link := range links {
		c := Canonicalize(link)
		if !s.scope.IsInScope(c) {
			continue
		}
		target := c.String()
		if s.frontier.Seen(target) {
			continue
		}
		s.frontier.Enqueue(referer, target)
	}
}

// budgetExhausted reports whether a stop condition has been reached.
// Checked at the top of the loop and again after each page: the top
// check guards the paths that count a request but skip the rest of the
// iteration, and the post-page check halts without a needless throttle.
func (s *Spider) budgetExhausted() bool {
	if s.maxFiles > 0 && s.stats.Files >= s.maxFiles {
		s.logger.Debug("file budget exhausted", "files", s.stats.Files)
		return true
	}
	if s.maxRequests > 0 && s.stats.Requests >= s.maxRequests {
		s.logger.Debug("request budget exhausted", "requests", s.stats.Requests)
		return true
	}
	return false
}

// throttle sleeps a random duration up to the configured delay. The
// jitter makes the request pattern less regular than a fixed pause.
func (s *Spider) throttle(ctx context.Context) {
	if s.delay <= 0 {
		return
	}

	t := time.NewTimer(rand.N(s.delay))
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
