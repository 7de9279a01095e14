package crawler

import (
	"net"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Canonicalize returns the canonical form of a URL: scheme and host
// lowercased, fragment removed, dot segments resolved, and an empty path
// normalized to "/". Two URLs that differ only by fragment canonicalize
// identically, and the operation is idempotent.
func Canonicalize(u *url.URL) *url.URL {
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)
	c.Fragment = ""
	c.RawFragment = ""

	if c.Host != "" && c.Path == "" {
		c.Path = "/"
	}
	if c.Path != "" {
		cleaned := path.Clean(c.Path)
		// path.Clean drops the trailing slash, which is significant for
		// store-path mapping, so restore it.
		if cleaned != "/" && strings.HasSuffix(c.Path, "/") {
			cleaned += "/"
		}
		c.Path = cleaned
		c.RawPath = ""
	}

	return &c
}

// ParseURL parses a raw link into a URL. Parse failure is an explicit
// branch at every call site: candidates that do not parse are discarded,
// never retried.
func ParseURL(raw string) (*url.URL, error) {
	return url.Parse(raw)
}

// DirPrefix returns the directory portion of a URL path, including the
// trailing slash. This is the scope prefix derived from the seed URL:
// "/blog/post1" yields "/blog/", "/blog/" yields itself, and an empty
// path yields "/".
func DirPrefix(u *url.URL) string {
	p := u.Path
	if p == "" {
		return "/"
	}
	idx := strings.LastIndex(p, "/")
	return p[:idx+1]
}

// dottedQuad matches IPv4 literals handed to RegisterDomain.
var dottedQuad = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

// Scope decides which URLs the crawl is allowed to follow: the host must
// be in the allowed-domain set and the path must carry the scope prefix.
type Scope struct {
	// allowed is the set of lowercased host names that pass the filter.
	// It grows at runtime when an allowed IP literal resolves to a
	// hostname or when a referer host is registered.
	allowed map[string]bool

	// pathPrefix is the directory portion of the seed URL's path. The
	// check is a plain string prefix, not segment-aware: "/foo" also
	// matches "/foobar". Intentional; do not "fix" it to match on
	// path segments.
	pathPrefix string

	// lookupAddr resolves an IP literal to hostnames. Overridable in
	// tests; defaults to net.LookupAddr.
	lookupAddr func(addr string) ([]string, error)
}

// ScopeOption configures a Scope.
type ScopeOption func(*Scope)

// WithLookupAddr replaces the reverse DNS lookup used for IP literals.
func WithLookupAddr(fn func(addr string) ([]string, error)) ScopeOption {
	return func(s *Scope) {
		s.lookupAddr = fn
	}
}

// NewScope creates a Scope restricting paths to the given prefix.
// No domain is allowed until RegisterDomain is called.
func NewScope(pathPrefix string, opts ...ScopeOption) *Scope {
	s := &Scope{
		allowed:    make(map[string]bool),
		pathPrefix: pathPrefix,
		lookupAddr: net.LookupAddr,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// PathPrefix returns the scope path prefix.
func (s *Scope) PathPrefix() string {
	return s.pathPrefix
}

// RegisterDomain adds a domain to the allowed set and returns the name
// that was registered. A dotted-quad IP literal is reverse-resolved and
// the resolved hostname registered in its place; when the lookup fails
// the literal is kept as given.
func (s *Scope) RegisterDomain(domain string) string {
	effective := strings.ToLower(domain)

	if dottedQuad.MatchString(effective) {
		if names, err := s.lookupAddr(effective); err == nil && len(names) > 0 {
			effective = strings.ToLower(strings.TrimSuffix(names[0], "."))
		}
	}

	s.allowed[effective] = true
	return effective
}

// IsAllowedDomain reports whether host is in the allowed-domain set.
// The comparison is case-insensitive.
func (s *Scope) IsAllowedDomain(host string) bool {
	return s.allowed[strings.ToLower(host)]
}

// IsInScope reports whether a URL may be crawled: its host must be
// allowed, its path must carry the scope prefix, and its scheme must not
// be a javascript pseudo-link.
func (s *Scope) IsInScope(u *url.URL) bool {
	if strings.HasPrefix(strings.ToLower(u.Scheme), "javascript") {
		return false
	}
	if !s.IsAllowedDomain(u.Hostname()) {
		return false
	}
	return strings.HasPrefix(u.Path, s.pathPrefix)
}
