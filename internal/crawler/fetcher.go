package crawler

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/nao1215/webmirror/internal/config"
	"github.com/nao1215/webmirror/internal/stats"
)

// Cache reports whether a URL already has a non-empty local copy from a
// previous run. A non-empty return rewrites the fetch to the local file
// instead of hitting the network; no freshness check is performed.
type Cache interface {
	// CachedPath returns the absolute filesystem path of the local copy
	// of u, or "" when no usable copy exists.
	CachedPath(u *url.URL) string
}

// Response is the outcome of a single fetch attempt. Exactly one of the
// transport error and the HTTP fields is meaningful: when Err is set the
// request never produced a response and StatusCode is zero.
type Response struct {
	// FinalURL is the URL the response ultimately came from, after any
	// redirects the client followed.
	FinalURL *url.URL

	// StatusCode is the HTTP status, or 0 on transport failure.
	StatusCode int

	// Server is the value of the Server response header, "" when absent.
	Server string

	// ContentType is the raw Content-Type response header.
	ContentType string

	// Body holds the response body, truncated at the configured
	// maximum body size.
	Body []byte

	// Err is the transport error, nil on any HTTP response including
	// error statuses.
	Err error
}

// Fetcher builds and executes HTTP requests for the crawl. Every request
// carries the configured identity headers, credentials, and referer, and
// every attempt is counted against the request budget whether or not it
// reaches the network.
type Fetcher struct {
	cfg    *config.Config
	site   config.SiteConfig
	client *http.Client
	cache  Cache
	stats  *stats.Stats
}

// NewFetcher creates a Fetcher. cache may be nil to disable local-copy
// rewriting.
func NewFetcher(cfg *config.Config, site config.SiteConfig, cache Cache, st *stats.Stats) *Fetcher {
	return &Fetcher{
		cfg:  cfg,
		site: site,
		// The default client: redirects are followed up to the
		// standard library's limit and no overall timeout is imposed.
		client: &http.Client{},
		cache:  cache,
		stats:  st,
	}
}

// BuildRequest constructs the request for u. The attempt is counted
// immediately, before the cache lookup, so rewritten local fetches still
// consume request budget. When a prior run left a non-empty copy of u on
// disk the request target becomes a file:// URL pointing at it.
func (f *Fetcher) BuildRequest(ctx context.Context, u *url.URL, referer string) (*http.Request, error) {
	f.stats.CountRequest()

	target := u
	if f.cache != nil {
		if local := f.cache.CachedPath(u); local != "" {
			target = &url.URL{Scheme: "file", Path: local}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.userAgent())
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("Connection", "close")
	req.Host = u.Host

	for k, v := range f.site.Headers {
		req.Header.Set(k, v)
	}
	if f.site.Cookie != "" {
		req.Header.Set("Cookie", f.site.Cookie)
	}

	if user, pass := f.credentials(); user != "" && pass != "" {
		req.SetBasicAuth(user, pass)
	}

	switch {
	case referer != "":
		req.Header.Set("Referer", referer)
	case f.cfg.Referer != "":
		req.Header.Set("Referer", f.cfg.Referer)
	}

	return req, nil
}

// Do executes req and reads the body. A file:// request means the page
// is already mirrored locally: it is reported as a synthetic 200 with an
// empty body and no I/O happens at all.
func (f *Fetcher) Do(req *http.Request) *Response {
	if req.URL.Scheme == "file" {
		return &Response{FinalURL: req.URL, StatusCode: http.StatusOK}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return &Response{FinalURL: req.URL, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodySize))
	if err != nil {
		return &Response{
			FinalURL:   resp.Request.URL,
			StatusCode: resp.StatusCode,
			Server:     resp.Header.Get("Server"),
			Err:        err,
		}
	}

	return &Response{
		FinalURL:    resp.Request.URL,
		StatusCode:  resp.StatusCode,
		Server:      resp.Header.Get("Server"),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}
}

func (f *Fetcher) userAgent() string {
	if f.site.UserAgent != "" {
		return f.site.UserAgent
	}
	if f.cfg.UserAgent != "" {
		return f.cfg.UserAgent
	}
	return config.DefaultUserAgent
}

func (f *Fetcher) credentials() (user, pass string) {
	if f.site.User != "" && f.site.Password != "" {
		return f.site.User, f.site.Password
	}
	return f.cfg.AuthUser, f.cfg.AuthPassword
}
