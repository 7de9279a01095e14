package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/webmirror/internal/config"
	"github.com/nao1215/webmirror/internal/log"
	"github.com/nao1215/webmirror/internal/report"
)

// TestNewMirrorCmd tests the mirror command creation.
func TestNewMirrorCmd(t *testing.T) {
	t.Parallel()

	cmd := NewMirrorCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "mirror <seed-url>" {
			t.Errorf("expected use 'mirror <seed-url>', got %q", cmd.Use)
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()

		for _, name := range []string{
			"output", "flat", "user-agent", "auth-user", "auth-password",
			"referer", "host", "max-requests", "max-files", "delay",
			"max-body-size", "tar", "tgz", "zip", "json", "markdown",
			"output-file", "config", "no-db",
		} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected flag %q", name)
			}
		}
	})

	t.Run("requires exactly one argument", func(t *testing.T) {
		t.Parallel()

		cmd := NewMirrorCmd()
		cmd.SetArgs([]string{})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error with no arguments")
		}
	})
}

// TestBuildConfig tests flag-to-config translation.
func TestBuildConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cmd := newMirrorCmdForBuild(t)
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{"http://example.com/"})
		if err != nil {
			t.Fatal(err)
		}

		if cfg.Seed != "http://example.com/" {
			t.Errorf("Seed = %q", cfg.Seed)
		}
		if cfg.OutputDir != "." {
			t.Errorf("OutputDir = %q, want .", cfg.OutputDir)
		}
		if cfg.UserAgent != config.DefaultUserAgent {
			t.Errorf("UserAgent = %q", cfg.UserAgent)
		}
		if cfg.MaxBodySize != config.DefaultMaxBodySize {
			t.Errorf("MaxBodySize = %d", cfg.MaxBodySize)
		}
		if cfg.Archive != config.ArchiveNone {
			t.Errorf("Archive = %v, want none", cfg.Archive)
		}
		if !cfg.SaveHistory {
			t.Error("history should be saved by default")
		}
	})

	t.Run("flags map onto config", func(t *testing.T) {
		cmd := newMirrorCmdForBuild(t)
		args := []string{
			"-o", "/tmp/out",
			"--flat",
			"-u", "custom-agent",
			"--auth-user", "alice",
			"--auth-password", "secret",
			"--referer", "http://ref.example/",
			"-H", "cdn.example.com",
			"-H", "static.example.com",
			"--max-requests", "100",
			"--max-files", "50",
			"-d", "2s",
			"--tgz",
			"--no-db",
		}
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{"http://example.com/docs/"})
		if err != nil {
			t.Fatal(err)
		}

		if cfg.OutputDir != "/tmp/out" || !cfg.FlatMode {
			t.Errorf("output config = %q flat=%v", cfg.OutputDir, cfg.FlatMode)
		}
		if cfg.AuthUser != "alice" || cfg.AuthPassword != "secret" {
			t.Error("auth flags not applied")
		}
		if len(cfg.ExtraHosts) != 2 || cfg.ExtraHosts[0] != "cdn.example.com" {
			t.Errorf("ExtraHosts = %v", cfg.ExtraHosts)
		}
		if cfg.MaxRequests != 100 || cfg.MaxFiles != 50 {
			t.Errorf("budgets = %d/%d", cfg.MaxRequests, cfg.MaxFiles)
		}
		if cfg.Delay != 2*time.Second {
			t.Errorf("Delay = %v", cfg.Delay)
		}
		if cfg.Archive != config.ArchiveTgz {
			t.Errorf("Archive = %v, want tgz", cfg.Archive)
		}
		if cfg.SaveHistory {
			t.Error("--no-db should disable history")
		}
	})

	t.Run("explicit missing config file fails", func(t *testing.T) {
		cmd := newMirrorCmdForBuild(t)
		if err := cmd.ParseFlags([]string{"-c", "/does/not/exist.yaml"}); err != nil {
			t.Fatal(err)
		}

		if _, err := buildConfig(cmd, []string{"http://example.com/"}); err == nil {
			t.Error("expected error for missing explicit config file")
		}
	})

	t.Run("site config loaded from explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sites.yaml")
		yaml := `sites:
  example.com:
    cookie: "session=abc"
`
		if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := newMirrorCmdForBuild(t)
		if err := cmd.ParseFlags([]string{"-c", path}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{"http://example.com/"})
		if err != nil {
			t.Fatal(err)
		}

		site := cfg.SiteConfigs.GetSiteConfig("example.com")
		if site.Cookie != "session=abc" {
			t.Errorf("site cookie = %q", site.Cookie)
		}
	})
}

// newMirrorCmdForBuild returns a fresh mirror command for flag parsing
// tests. The verbose lookup falls back to false when the command is not
// attached to the root.
func newMirrorCmdForBuild(t *testing.T) *cobra.Command {
	t.Helper()
	return NewMirrorCmd()
}

// TestRunMirrorErrors tests the fatal error paths of a run.
func TestRunMirrorErrors(t *testing.T) {
	t.Parallel()

	logger := log.NewSecureLogger(os.Stderr, false)

	t.Run("unparsable seed", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.Seed = "http://bad url with spaces/"
		cfg.OutputDir = t.TempDir()
		cfg.SiteConfigs = &config.File{Sites: map[string]config.SiteConfig{}}

		if err := runMirror(context.Background(), cfg, logger); err == nil {
			t.Error("expected error for unparsable seed")
		}
	})

	t.Run("non-http scheme", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.Seed = "ftp://example.com/"
		cfg.OutputDir = t.TempDir()
		cfg.SiteConfigs = &config.File{Sites: map[string]config.SiteConfig{}}

		if err := runMirror(context.Background(), cfg, logger); err == nil {
			t.Error("expected error for non-http seed")
		}
	})

	t.Run("missing host", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.Seed = "http:///path-only"
		cfg.OutputDir = t.TempDir()
		cfg.SiteConfigs = &config.File{Sites: map[string]config.SiteConfig{}}

		if err := runMirror(context.Background(), cfg, logger); err == nil {
			t.Error("expected error for seed without host")
		}
	})

	t.Run("unwritable output directory", func(t *testing.T) {
		t.Parallel()

		blocked := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocked, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}

		cfg := config.NewConfig()
		cfg.Seed = "http://example.com/"
		cfg.OutputDir = filepath.Join(blocked, "sub")
		cfg.SiteConfigs = &config.File{Sites: map[string]config.SiteConfig{}}

		if err := runMirror(context.Background(), cfg, logger); err == nil {
			t.Error("expected error for unusable output directory")
		}
	})
}

// TestRunMirrorEndToEnd mirrors a small site served from localhost.
func TestRunMirrorEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><a href="/page">page</a></html>`))
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("mirrored content"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	// The scope registers host names as given; using localhost avoids
	// reverse resolution of the IP literal.
	seed := strings.Replace(srv.URL, "127.0.0.1", "localhost", 1) + "/"

	outDir := t.TempDir()
	summaryFile := filepath.Join(t.TempDir(), "summary.json")

	cfg := config.NewConfig()
	cfg.Seed = seed
	cfg.OutputDir = outDir
	cfg.JSONSummary = true
	cfg.SummaryFile = summaryFile
	cfg.SaveHistory = false
	cfg.SiteConfigs = &config.File{Sites: map[string]config.SiteConfig{}}

	logger := log.NewSecureLogger(os.Stderr, false)
	if err := runMirror(context.Background(), cfg, logger); err != nil {
		t.Fatal(err)
	}

	// The mirror tree holds both pages.
	host := strings.TrimPrefix(strings.Replace(srv.URL, "127.0.0.1", "localhost", 1), "http://")
	if _, err := os.Stat(filepath.Join(outDir, host, "index.html")); err != nil {
		t.Errorf("seed page not mirrored: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, host, "page")); err != nil {
		t.Errorf("linked page not mirrored: %v", err)
	}

	// The JSON summary landed in the requested file.
	data, err := os.ReadFile(summaryFile)
	if err != nil {
		t.Fatal(err)
	}

	var summary report.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("summary file is not valid JSON: %v", err)
	}
	if summary.Files != 2 || summary.Requests != 2 {
		t.Errorf("summary counters = %d files / %d requests, want 2/2", summary.Files, summary.Requests)
	}
	if summary.Interrupted {
		t.Error("completed run should not be flagged interrupted")
	}
}
