package storage

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/webmirror/internal/stats"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestWriterStorePath(t *testing.T) {
	t.Parallel()

	t.Run("tree mode", func(t *testing.T) {
		t.Parallel()

		w := NewWriter(t.TempDir(), false, stats.New())

		tests := []struct {
			url  string
			want string
			ok   bool
		}{
			{url: "http://example.com/", want: "example.com/index.html", ok: true},
			{url: "http://example.com/page", want: "example.com/page", ok: true},
			{url: "http://example.com/a/b/c.html", want: "example.com/a/b/c.html", ok: true},
			{url: "http://example.com/dir/", want: "example.com/dir/index.html", ok: true},
			{url: "http://example.com:8080/page", want: "example.com:8080/page", ok: true},
		}

		for _, tt := range tests {
			got, ok := w.StorePath(mustParse(t, tt.url))
			if ok != tt.ok || got != tt.want {
				t.Errorf("StorePath(%q) = %q, %v; want %q, %v", tt.url, got, ok, tt.want, tt.ok)
			}
		}
	})

	t.Run("flat mode keeps only the basename", func(t *testing.T) {
		t.Parallel()

		w := NewWriter(t.TempDir(), true, stats.New())

		tests := []struct {
			url  string
			want string
		}{
			{url: "http://example.com/a/b/c.html", want: "example.com/c.html"},
			{url: "http://example.com/dir/", want: "example.com/index.html"},
			{url: "http://example.com/", want: "example.com/index.html"},
		}

		for _, tt := range tests {
			got, ok := w.StorePath(mustParse(t, tt.url))
			if !ok || got != tt.want {
				t.Errorf("StorePath(%q) = %q, %v; want %q, true", tt.url, got, ok, tt.want)
			}
		}
	})

	t.Run("no host means no path", func(t *testing.T) {
		t.Parallel()

		w := NewWriter(t.TempDir(), false, stats.New())
		if _, ok := w.StorePath(mustParse(t, "/relative/only")); ok {
			t.Error("URL without host should not map to a store path")
		}
	})
}

func TestWriterStore(t *testing.T) {
	t.Parallel()

	t.Run("writes file and counts it", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		st := stats.New()
		w := NewWriter(root, false, st)

		if err := w.Store([]byte("hello"), "example.com/a/b.html"); err != nil {
			t.Fatal(err)
		}

		data, err := os.ReadFile(filepath.Join(root, "example.com", "a", "b.html"))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "hello" {
			t.Errorf("file contents = %q, want hello", data)
		}
		if st.Files != 1 || st.Bytes != 5 {
			t.Errorf("Files = %d, Bytes = %d; want 1, 5", st.Files, st.Bytes)
		}
	})

	t.Run("directory at target path fails", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		w := NewWriter(root, false, stats.New())

		// /a/b stored first makes example.com/a a directory.
		if err := w.Store([]byte("x"), "example.com/a/b"); err != nil {
			t.Fatal(err)
		}

		err := w.Store([]byte("y"), "example.com/a")
		if !errors.Is(err, ErrPathIsDirectory) {
			t.Errorf("Store = %v, want ErrPathIsDirectory", err)
		}
	})

	t.Run("plain file replaced by needed directory", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		st := stats.New()
		w := NewWriter(root, false, st)

		// /a stored first occupies the spot the directory needs.
		if err := w.Store([]byte("x"), "example.com/a"); err != nil {
			t.Fatal(err)
		}
		if err := w.Store([]byte("y"), "example.com/a/b"); err != nil {
			t.Fatal(err)
		}

		data, err := os.ReadFile(filepath.Join(root, "example.com", "a", "b"))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "y" {
			t.Errorf("file contents = %q, want y", data)
		}
	})

	t.Run("created directories reported sorted", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		w := NewWriter(root, false, stats.New())

		if err := w.Store([]byte("x"), "example.com/b/page"); err != nil {
			t.Fatal(err)
		}
		if err := w.Store([]byte("x"), "example.com/a/page"); err != nil {
			t.Fatal(err)
		}

		want := []string{
			filepath.Join(root, "example.com"),
			filepath.Join(root, "example.com", "a"),
			filepath.Join(root, "example.com", "b"),
		}
		got := w.CreatedDirectories()
		if len(got) != len(want) {
			t.Fatalf("CreatedDirectories = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("CreatedDirectories[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})
}

func TestWriterExistsNonEmpty(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := NewWriter(root, false, stats.New())

	if w.ExistsNonEmpty("example.com/missing") {
		t.Error("missing file reported as existing")
	}

	if err := w.Store(nil, "example.com/empty"); err != nil {
		t.Fatal(err)
	}
	if w.ExistsNonEmpty("example.com/empty") {
		t.Error("empty file should not count as a usable copy")
	}

	if err := w.Store([]byte("data"), "example.com/full"); err != nil {
		t.Fatal(err)
	}
	if !w.ExistsNonEmpty("example.com/full") {
		t.Error("non-empty file should count as a usable copy")
	}
}

func TestWriterCachedPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := NewWriter(root, false, stats.New())

	u := mustParse(t, "http://example.com/page")
	if got := w.CachedPath(u); got != "" {
		t.Errorf("CachedPath before store = %q, want empty", got)
	}

	if err := w.Store([]byte("cached"), "example.com/page"); err != nil {
		t.Fatal(err)
	}

	want := filepath.Join(root, "example.com", "page")
	if got := w.CachedPath(u); got != want {
		t.Errorf("CachedPath = %q, want %q", got, want)
	}
}
