package crawler

import (
	"log/slog"
	"mime"
	"net/url"
	"strings"

	"github.com/nao1215/webmirror/internal/stats"
)

// ContentKind classifies a response body for the link-extraction step.
type ContentKind int

const (
	// ContentOpaque is any body that is not parsed for links.
	ContentOpaque ContentKind = iota
	// ContentHTML marks bodies whose media type is text/html.
	ContentHTML
)

// Store persists response bodies into the mirror tree.
type Store interface {
	// StorePath maps a URL to its root-relative mirror path. The second
	// return value is false when the URL has no storable path.
	StorePath(u *url.URL) (string, bool)

	// ExistsNonEmpty reports whether the relative path already holds a
	// non-empty regular file.
	ExistsNonEmpty(relPath string) bool

	// Store writes data at the relative path, creating directories as
	// needed.
	Store(data []byte, relPath string) error
}

// Recorder receives one entry per processed page, for run history.
type Recorder interface {
	RecordVisit(v PageVisit)
}

// PageVisit describes one processed page for the history log.
type PageVisit struct {
	URL         string
	StatusCode  int
	ContentType string
	StoredPath  string
	Size        int64
}

// Extracted is a response body ready for link extraction.
type Extracted struct {
	BaseURL     *url.URL
	Kind        ContentKind
	ContentType string
	Body        []byte
}

// Processor turns a fetched response into a stored mirror file. It owns
// the post-fetch bookkeeping: marking the final URL seen, skipping pages
// that already exist on disk, tallying the response, and deciding
// whether the body should be parsed for further links.
type Processor struct {
	frontier *Frontier
	store    Store
	stats    *stats.Stats
	recorder Recorder
	logger   *slog.Logger
}

// NewProcessor creates a Processor. recorder may be nil when no history
// is kept.
func NewProcessor(frontier *Frontier, store Store, st *stats.Stats, recorder Recorder, logger *slog.Logger) *Processor {
	return &Processor{
		frontier: frontier,
		store:    store,
		stats:    st,
		recorder: recorder,
		logger:   logger,
	}
}

// Process handles one fetch outcome. It returns a non-nil Extracted only
// when the body is HTML and should be scanned for links.
//
// The order of the early exits is significant: the final URL is marked
// seen first so redirect targets are never re-fetched; local-file
// rewrites and already-mirrored pages bail out before the response is
// tallied; transport failures and HTTP error statuses are tallied but
// never stored.
func (p *Processor) Process(resp *Response) *Extracted {
	final := Canonicalize(resp.FinalURL)
	p.frontier.MarkSeen(final.String())

	if final.Scheme == "file" {
		p.logger.Debug("already mirrored locally", "path", final.Path)
		return nil
	}

	relPath, ok := p.store.StorePath(final)
	if ok && p.store.ExistsNonEmpty(relPath) {
		p.logger.Debug("already on disk", "url", final.String(), "path", relPath)
		return nil
	}

	p.stats.RecordResponse(resp.StatusCode, resp.Server)

	if resp.Err != nil {
		p.logger.Warn("fetch failed", "url", final.String(), "error", resp.Err)
		return nil
	}
	if resp.StatusCode >= 400 {
		p.logger.Warn("server error", "url", final.String(), "status", resp.StatusCode)
		return nil
	}

	if ok {
		if err := p.store.Store(resp.Body, relPath); err != nil {
			// A failed write abandons this entry; the crawl moves on
			// to the next queued URL without following its links.
			p.logger.Warn("store failed", "url", final.String(), "path", relPath, "error", err)
			return nil
		}
	}

	if p.recorder != nil {
		p.recorder.RecordVisit(PageVisit{
			URL:         final.String(),
			StatusCode:  resp.StatusCode,
			ContentType: resp.ContentType,
			StoredPath:  relPath,
			Size:        int64(len(resp.Body)),
		})
	}

	kind := ContentOpaque
	if isHTML(resp.ContentType) {
		kind = ContentHTML
	}
	if kind != ContentHTML {
		return nil
	}

	return &Extracted{
		BaseURL:     final,
		Kind:        kind,
		ContentType: resp.ContentType,
		Body:        resp.Body,
	}
}

// isHTML reports whether the Content-Type header names an HTML body.
func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Fall back to a prefix check for malformed headers.
		return strings.HasPrefix(strings.ToLower(contentType), "text/html")
	}
	return mediaType == "text/html"
}
