package storage

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/webmirror/internal/config"
	"github.com/nao1215/webmirror/internal/stats"
)

// seedTree stores a small mirror tree and returns its root.
func seedTree(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	w := NewWriter(root, false, stats.New())
	for rel, body := range map[string]string{
		"example.com/index.html":     "<html>home</html>",
		"example.com/blog/post.html": "<html>post</html>",
		"example.com/logo.png":       "png-bytes",
	} {
		if err := w.Store([]byte(body), rel); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestArchiveNone(t *testing.T) {
	t.Parallel()

	got, err := Archive(config.ArchiveNone, t.TempDir(), "example.com")
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("Archive = %q, want empty for ArchiveNone", got)
	}
}

func TestArchiveTar(t *testing.T) {
	t.Parallel()

	root := seedTree(t)
	out, err := Archive(config.ArchiveTar, root, "example.com")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(root, "example.com.tar"); out != want {
		t.Errorf("archive path = %q, want %q", out, want)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	checkTarContents(t, tar.NewReader(f))
}

func TestArchiveTgz(t *testing.T) {
	t.Parallel()

	root := seedTree(t)
	out, err := Archive(config.ArchiveTgz, root, "example.com")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(root, "example.com.tgz"); out != want {
		t.Errorf("archive path = %q, want %q", out, want)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer gz.Close()

	checkTarContents(t, tar.NewReader(gz))
}

func TestArchiveZip(t *testing.T) {
	t.Parallel()

	root := seedTree(t)
	out, err := Archive(config.ArchiveZip, root, "example.com")
	if err != nil {
		t.Fatal(err)
	}

	zr, err := zip.OpenReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	got := make(map[string]string)
	for _, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		got[zf.Name] = string(data)
	}

	checkEntries(t, got)
}

// checkTarContents reads every regular file from tr and checks the set.
func checkTarContents(t *testing.T, tr *tar.Reader) {
	t.Helper()

	got := make(map[string]string)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			t.Fatal(err)
		}
		got[hdr.Name] = string(data)
	}

	checkEntries(t, got)
}

func checkEntries(t *testing.T, got map[string]string) {
	t.Helper()

	want := map[string]string{
		"example.com/index.html":     "<html>home</html>",
		"example.com/blog/post.html": "<html>post</html>",
		"example.com/logo.png":       "png-bytes",
	}

	for name, body := range want {
		if got[name] != body {
			t.Errorf("entry %q = %q, want %q", name, got[name], body)
		}
	}
	for name := range got {
		if _, ok := want[name]; !ok {
			t.Errorf("unexpected entry %q", name)
		}
	}
}
