package storage

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nao1215/webmirror/internal/stats"
)

// ErrPathIsDirectory is returned when a URL maps onto a path that is
// already a directory in the mirror tree, e.g. /a after /a/b was stored.
var ErrPathIsDirectory = errors.New("storage: target path is a directory")

// indexFile is substituted for the empty final path segment of
// directory-style URLs.
const indexFile = "index.html"

// Writer persists response bodies under a mirror root. It is not safe
// for concurrent use; the crawl drives it from a single goroutine.
type Writer struct {
	// root is the absolute output directory holding one subtree per host.
	root string

	// flat collapses stored paths to host/basename.
	flat bool

	// created tracks every directory this run made, for reporting.
	created map[string]bool

	stats *stats.Stats
}

// NewWriter creates a Writer storing files under root.
func NewWriter(root string, flat bool, st *stats.Stats) *Writer {
	return &Writer{
		root:    root,
		flat:    flat,
		created: make(map[string]bool),
		stats:   st,
	}
}

// StorePath maps a URL to its root-relative mirror path. A trailing
// slash in the URL path becomes index.html. In flat mode only the final
// path segment is kept under the host directory. The second return value
// is false for URLs with no storable file name.
func (w *Writer) StorePath(u *url.URL) (string, bool) {
	if u.Host == "" {
		return "", false
	}

	p := u.Path
	if p == "" || strings.HasSuffix(p, "/") {
		p += indexFile
	}

	if w.flat {
		base := path.Base(p)
		if base == "/" || base == "." {
			return "", false
		}
		return path.Join(u.Host, base), true
	}

	return path.Join(u.Host, strings.TrimPrefix(p, "/")), true
}

// abs joins a root-relative mirror path with the output directory.
func (w *Writer) abs(relPath string) string {
	return filepath.Join(w.root, filepath.FromSlash(relPath))
}

// ExistsNonEmpty reports whether relPath already holds a non-empty
// regular file from a previous run.
func (w *Writer) ExistsNonEmpty(relPath string) bool {
	info, err := os.Stat(w.abs(relPath))
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// CachedPath returns the absolute path of the local copy of u, or ""
// when none exists. It makes the Writer double as the fetch cache.
func (w *Writer) CachedPath(u *url.URL) string {
	relPath, ok := w.StorePath(u)
	if !ok || !w.ExistsNonEmpty(relPath) {
		return ""
	}
	return w.abs(relPath)
}

// Store writes data at relPath, creating intermediate directories as
// needed. A plain file squatting where a directory is needed is removed
// and replaced; the reverse collision, a directory where the file should
// go, fails with ErrPathIsDirectory.
func (w *Writer) Store(data []byte, relPath string) error {
	target := w.abs(relPath)

	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return fmt.Errorf("%w: %s", ErrPathIsDirectory, relPath)
	}

	if err := w.ensureDir(filepath.Dir(target)); err != nil {
		return err
	}

	if err := os.WriteFile(target, data, 0600); err != nil {
		return fmt.Errorf("storage: write %s: %w", relPath, err)
	}

	w.stats.RecordStored(int64(len(data)))
	return nil
}

// ensureDir creates dir and its parents, removing any plain file that
// occupies a needed path component.
func (w *Writer) ensureDir(dir string) error {
	if info, err := os.Stat(dir); err == nil {
		if info.IsDir() {
			return nil
		}
		// A file was stored earlier for a URL that now turns out to be
		// a directory. The directory wins.
		if err := os.Remove(dir); err != nil {
			return fmt.Errorf("storage: replace file with directory %s: %w", dir, err)
		}
	} else if parent := filepath.Dir(dir); parent != dir {
		if err := w.ensureDir(parent); err != nil {
			return err
		}
	}

	if err := os.Mkdir(dir, 0750); err != nil && !os.IsExist(err) {
		return fmt.Errorf("storage: mkdir %s: %w", dir, err)
	}
	w.created[dir] = true
	return nil
}

// CreatedDirectories returns the directories this run created, sorted.
func (w *Writer) CreatedDirectories() []string {
	dirs := make([]string, 0, len(w.created))
	for d := range w.created {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// Root returns the output directory.
func (w *Writer) Root() string {
	return w.root
}
