package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/webmirror/internal/config"
	"github.com/nao1215/webmirror/internal/crawler"
	"github.com/nao1215/webmirror/internal/database"
	"github.com/nao1215/webmirror/internal/log"
	"github.com/nao1215/webmirror/internal/report"
	"github.com/nao1215/webmirror/internal/stats"
	"github.com/nao1215/webmirror/internal/storage"
)

// NewMirrorCmd creates the mirror command.
func NewMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror <seed-url>",
		Short: "Download a website into a local directory tree",
		Long: `Mirror downloads a website starting from the seed URL. Links are
followed recursively as long as they stay on the seed's host (plus any
extra hosts given with --host) and under the seed path's directory.

Each page is stored at <output>/<host>/<path>; directory-style URLs are
stored as index.html. Pages already present on disk from a previous run
are reused instead of re-fetched.

Examples:
  # Mirror a site into ./example.com/
  webmirror mirror http://example.com/

  # Mirror a subtree politely, pausing up to 2s between requests
  webmirror mirror -d 2s http://example.com/docs/

  # Mirror into a specific directory and bundle it as a tgz
  webmirror mirror -o /srv/mirrors --tgz http://example.com/

  # Allow an extra asset host and stop after 500 requests
  webmirror mirror -H cdn.example.com --max-requests 500 http://example.com/

Configuration file (.webmirror) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      extraHosts:
        - cdn.example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runMirrorCmd,
	}

	// Output flags
	cmd.Flags().StringP("output", "o", ".",
		"Directory the mirror tree is written under")
	cmd.Flags().Bool("flat", false,
		"Store every file directly under the host directory, dropping subdirectories")

	// Request identity flags
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().String("auth-user", "",
		"HTTP basic auth user (sent with every request when both credentials are set)")
	cmd.Flags().String("auth-password", "",
		"HTTP basic auth password")
	cmd.Flags().String("referer", "",
		"Referer header for the seed request; its host is added to the allowed hosts")
	cmd.Flags().StringArrayP("host", "H", nil,
		"Additional host allowed by the scope filter (repeatable)")

	// Crawl budget flags
	cmd.Flags().Int("max-requests", 0,
		"Stop after this many HTTP requests (0 = unlimited)")
	cmd.Flags().Int("max-files", 0,
		"Stop after this many stored files (0 = unlimited)")
	cmd.Flags().DurationP("delay", "d", config.DefaultDelay,
		"Upper bound on the randomized pause between requests (0 = no pause)")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes; larger bodies are truncated")

	// Archive flags
	cmd.Flags().Bool("tar", false, "Bundle the mirrored tree into a tar archive")
	cmd.Flags().Bool("tgz", false, "Bundle the mirrored tree into a gzip-compressed tar archive")
	cmd.Flags().Bool("zip", false, "Bundle the mirrored tree into a zip archive")
	cmd.MarkFlagsMutuallyExclusive("tar", "tgz", "zip")

	// Summary flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown summary (mutually exclusive with --json)")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	cmd.Flags().String("output-file", "",
		"Write the summary to the specified file path (creates directories if needed)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webmirror in current or home directory)")

	// History flags
	cmd.Flags().Bool("no-db", false,
		"Do not record the run in the history database")

	return cmd
}

// runMirrorCmd executes the mirror command.
func runMirrorCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential masking
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runMirror(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Seed = args[0]
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.FlatMode, err = cmd.Flags().GetBool("flat")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.AuthUser, err = cmd.Flags().GetString("auth-user")
	if err != nil {
		return nil, err
	}

	cfg.AuthPassword, err = cmd.Flags().GetString("auth-password")
	if err != nil {
		return nil, err
	}

	cfg.Referer, err = cmd.Flags().GetString("referer")
	if err != nil {
		return nil, err
	}

	cfg.ExtraHosts, err = cmd.Flags().GetStringArray("host")
	if err != nil {
		return nil, err
	}

	cfg.MaxRequests, err = cmd.Flags().GetInt("max-requests")
	if err != nil {
		return nil, err
	}

	cfg.MaxFiles, err = cmd.Flags().GetInt("max-files")
	if err != nil {
		return nil, err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	if cfg.Archive, err = archiveFormat(cmd); err != nil {
		return nil, err
	}

	cfg.JSONSummary, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownSummary, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.SummaryFile, err = cmd.Flags().GetString("output-file")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noDB
	cfg.DBDir = config.XDGDataDir()

	return cfg, nil
}

// archiveFormat resolves the archive flags into a format.
func archiveFormat(cmd *cobra.Command) (config.ArchiveFormat, error) {
	for _, f := range []struct {
		name   string
		format config.ArchiveFormat
	}{
		{"tar", config.ArchiveTar},
		{"tgz", config.ArchiveTgz},
		{"zip", config.ArchiveZip},
	} {
		set, err := cmd.Flags().GetBool(f.name)
		if err != nil {
			return config.ArchiveNone, err
		}
		if set {
			return f.format, nil
		}
	}
	return config.ArchiveNone, nil
}

// visitRecorder collects page visits during the crawl for the history
// database.
type visitRecorder struct {
	pages []database.Page
}

// RecordVisit implements crawler.Recorder.
func (r *visitRecorder) RecordVisit(v crawler.PageVisit) {
	r.pages = append(r.pages, database.Page{
		URL:         v.URL,
		StatusCode:  v.StatusCode,
		ContentType: v.ContentType,
		StoredPath:  v.StoredPath,
		Size:        v.Size,
	})
}

// runMirror executes the crawl described by cfg and prints the summary.
func runMirror(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	seed, err := url.Parse(cfg.Seed)
	if err != nil {
		return fmt.Errorf("invalid seed URL %q: %w", cfg.Seed, err)
	}
	if seed.Scheme != "http" && seed.Scheme != "https" {
		return fmt.Errorf("invalid seed URL %q: scheme must be http or https", cfg.Seed)
	}
	if seed.Host == "" {
		return fmt.Errorf("invalid seed URL %q: missing host", cfg.Seed)
	}
	seed = crawler.Canonicalize(seed)

	if err := os.MkdirAll(cfg.OutputDir, 0750); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", cfg.OutputDir, err)
	}

	site := cfg.SiteConfigs.GetSiteConfig(seed.Hostname())

	scope := crawler.NewScope(crawler.DirPrefix(seed))
	scope.RegisterDomain(seed.Hostname())
	if cfg.Referer != "" {
		if ref, err := url.Parse(cfg.Referer); err == nil && ref.Hostname() != "" {
			scope.RegisterDomain(ref.Hostname())
		}
	}
	for _, host := range cfg.ExtraHosts {
		scope.RegisterDomain(host)
	}
	for _, host := range site.ExtraHosts {
		scope.RegisterDomain(host)
	}

	logger.Info("starting mirror",
		"seed", seed.String(),
		"output", cfg.OutputDir,
		"scopePath", scope.PathPrefix(),
	)

	st := stats.New()
	store := storage.NewWriter(cfg.OutputDir, cfg.FlatMode, st)
	frontier := crawler.NewFrontier()
	fetcher := crawler.NewFetcher(cfg, site, store, st)

	var recorder crawler.Recorder
	visits := &visitRecorder{}
	if cfg.SaveHistory {
		recorder = visits
	}

	processor := crawler.NewProcessor(frontier, store, st, recorder, logger)
	frontier.Enqueue("", seed.String())

	spider := crawler.NewSpider(scope, frontier, fetcher, processor, st,
		crawler.WithMaxRequests(cfg.MaxRequests),
		crawler.WithMaxFiles(cfg.MaxFiles),
		crawler.WithDelay(cfg.Delay),
		crawler.WithLogger(logger),
	)

	runErr := spider.Run(ctx)
	interrupted := errors.Is(runErr, context.Canceled)
	if runErr != nil && !interrupted {
		return runErr
	}

	summary := report.NewSummary(seed.String(), cfg.OutputDir, st)
	summary.Interrupted = interrupted

	// A partial mirror is still archived; the summary flags the
	// interruption.
	if cfg.Archive != config.ArchiveNone && st.Files > 0 {
		archivePath, err := storage.Archive(cfg.Archive, cfg.OutputDir, seed.Host)
		if err != nil {
			logger.Error("archive failed", "error", err)
		} else {
			summary.ArchivePath = archivePath
			logger.Info("archive written", "path", archivePath)
		}
	}

	if err := outputSummary(cfg, summary); err != nil {
		logger.Error("summary output failed", "error", err)
	}

	if cfg.SaveHistory {
		// A fresh context so an interrupted run is still recorded.
		if err := saveRun(context.Background(), cfg, summary, visits.pages); err != nil {
			logger.Error("failed to save run history", "error", err)
		}
	}

	return nil
}

// outputSummary writes the run summary in the requested format. When a
// summary file is given, the formatted summary goes to the file and the
// plain text summary is still printed to stdout.
func outputSummary(cfg *config.Config, summary *report.Summary) error {
	var output io.Writer = os.Stdout
	var toFile bool

	if cfg.SummaryFile != "" {
		dir := filepath.Dir(cfg.SummaryFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.SummaryFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close() //nolint:errcheck // write errors surface via Write
		output = f
		toFile = true
	}

	var writer report.Writer
	switch {
	case cfg.JSONSummary:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownSummary:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output)
	}

	if toFile {
		// Keep the terminal informative while the file gets the
		// requested format.
		writer = report.NewMultiWriter(writer, report.NewSimpleWriter(os.Stdout))
	}

	_, err := writer.Write(summary)
	return err
}

// saveRun records the completed run in the history database.
func saveRun(ctx context.Context, cfg *config.Config, summary *report.Summary, pages []database.Page) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close() //nolint:errcheck // read-mostly close

	run := &database.Run{
		Seed:     summary.Seed,
		Started:  summary.Started,
		Finished: summary.Finished,
		Requests: summary.Requests,
		Files:    summary.Files,
		Bytes:    summary.Bytes,
	}

	if _, err := db.SaveRun(ctx, run, pages); err != nil {
		return err
	}
	return nil
}
