package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultUserAgent identifies webmirror in HTTP requests.
	// A descriptive User-Agent lets site operators identify mirror traffic
	// in their logs. It can be overridden via --user-agent.
	DefaultUserAgent = "webmirror/2.0 (+https://github.com/nao1215/webmirror)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 10MB covers HTML pages and typical page resources (images, scripts)
	// while preventing memory exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultDelay is the delay between HTTP requests. Zero means no delay;
	// when set via --delay, each pause is randomized within the bound so
	// requests do not arrive at a fixed cadence.
	DefaultDelay = 0 * time.Second

	// AppName is the application name used for XDG directory paths.
	AppName = "webmirror"
)

// ArchiveFormat selects how the mirrored tree is bundled after the crawl.
type ArchiveFormat int

// Archive formats. ArchiveNone leaves the mirror tree as plain files.
const (
	ArchiveNone ArchiveFormat = iota
	ArchiveTar
	ArchiveTgz
	ArchiveZip
)

// String returns the file extension for the format, without the dot.
func (f ArchiveFormat) String() string {
	switch f {
	case ArchiveTar:
		return "tar"
	case ArchiveTgz:
		return "tgz"
	case ArchiveZip:
		return "zip"
	default:
		return "none"
	}
}

// Config holds all configuration options for one mirror run.
// It is populated from CLI flags and passed through the application via
// dependency injection rather than global state.
//
// Design decision: a single flat struct instead of nested sub-structs.
// The number of options is manageable, and nesting would add complexity
// without significant benefit.
type Config struct {
	// Seed is the URL the crawl starts from. Its host seeds the allowed
	// domain set and its path directory becomes the scope prefix.
	Seed string

	// OutputDir is the directory the mirror tree is written under.
	// The process must be able to enter it; failure is fatal.
	OutputDir string

	// FlatMode collapses each stored path to the final path segment under
	// the host directory. Collisions across directories are possible and
	// accepted in this mode.
	FlatMode bool

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// AuthUser and AuthPassword are HTTP basic credentials. When both are
	// set they are attached to every request regardless of target host.
	// This is a documented limitation, not an oversight.
	AuthUser     string
	AuthPassword string

	// Referer overrides the Referer header for the seed request. Its host
	// is added to the allowed domain set.
	Referer string

	// ExtraHosts are additional hosts allowed by the scope filter.
	ExtraHosts []string

	// MaxRequests stops the crawl once this many requests have been
	// issued. Zero means unlimited.
	MaxRequests int

	// MaxFiles stops the crawl once this many files have been stored.
	// Zero means unlimited.
	MaxFiles int

	// Delay bounds the randomized pause between requests.
	// Zero disables throttling.
	Delay time.Duration

	// MaxBodySize is the maximum response body size in bytes to read.
	// Larger bodies are truncated. Zero means use DefaultMaxBodySize.
	MaxBodySize int64

	// Archive selects the post-crawl bundle format.
	Archive ArchiveFormat

	// JSONSummary and MarkdownSummary select the run summary format.
	// Mutually exclusive; the default is a human-readable text summary.
	JSONSummary     bool
	MarkdownSummary bool

	// SummaryFile, when set, receives the summary instead of stdout.
	SummaryFile string

	// ConfigFilePath is the path to the configuration file. If empty, the
	// tool searches for .webmirror in the current directory and then in
	// the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site settings loaded from the config file.
	SiteConfigs *File

	// SaveHistory records the run in the history database.
	SaveHistory bool

	// DBDir is the directory holding the history database.
	// Defaults to the XDG data directory.
	DBDir string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool
}

// NewConfig creates a new Config with default values.
//
// Design decision: a constructor instead of relying on zero values because
// several defaults are non-zero (user agent, body size cap). It also
// documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		OutputDir:   ".",
		UserAgent:   DefaultUserAgent,
		Delay:       DefaultDelay,
		MaxBodySize: DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for webmirror.
// On Linux: ~/.local/share/webmirror
// On macOS: ~/Library/Application Support/webmirror
// On Windows: %LOCALAPPDATA%\webmirror
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for webmirror.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific sentinel error describing what is invalid,
// and returns the first error found: fixing one error often makes
// the others irrelevant.
func (c *Config) Validate() error {
	if c.Seed == "" {
		return ErrNoSeed
	}

	if c.MaxRequests < 0 {
		return ErrInvalidMaxRequests
	}

	if c.MaxFiles < 0 {
		return ErrInvalidMaxFiles
	}

	if c.Delay < 0 {
		return ErrInvalidDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.JSONSummary && c.MarkdownSummary {
		return ErrConflictingSummaryFormats
	}

	return nil
}
