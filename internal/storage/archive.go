package storage

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nao1215/webmirror/internal/config"
)

// Archive bundles the mirrored host tree under root into a single file
// next to it. The archive is named <host>.<ext> and contains paths
// relative to root, so extracting it recreates the host directory.
// It returns the path of the archive it wrote, or "" for ArchiveNone.
func Archive(format config.ArchiveFormat, root, host string) (string, error) {
	if format == config.ArchiveNone {
		return "", nil
	}

	out := filepath.Join(root, host+"."+format.String())
	f, err := os.Create(out) //nolint:gosec // path derived from crawl config
	if err != nil {
		return "", fmt.Errorf("storage: create archive: %w", err)
	}

	switch format {
	case config.ArchiveTar:
		err = writeTar(f, root, host, false)
	case config.ArchiveTgz:
		err = writeTar(f, root, host, true)
	case config.ArchiveZip:
		err = writeZip(f, root, host)
	}
	if err != nil {
		f.Close()          //nolint:errcheck // already failing
		_ = os.Remove(out) // do not leave a partial archive behind
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage: close archive: %w", err)
	}
	return out, nil
}

func writeTar(w io.Writer, root, host string, compress bool) error {
	var dst io.Writer = w
	if compress {
		gz := gzip.NewWriter(w)
		defer gz.Close() //nolint:errcheck // flushed via explicit Close below
		dst = gz
	}

	tw := tar.NewWriter(dst)

	err := walkTree(root, host, func(relPath string, info fs.FileInfo, data []byte) error {
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = relPath
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		_, err = tw.Write(data)
		return err
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("storage: finalize tar: %w", err)
	}
	if gz, ok := dst.(*gzip.Writer); ok {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("storage: finalize gzip: %w", err)
		}
	}
	return nil
}

func writeZip(w io.Writer, root, host string) error {
	zw := zip.NewWriter(w)

	err := walkTree(root, host, func(relPath string, info fs.FileInfo, data []byte) error {
		if info.IsDir() {
			return nil
		}
		fw, err := zw.Create(relPath)
		if err != nil {
			return err
		}
		_, err = fw.Write(data)
		return err
	})
	if err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("storage: finalize zip: %w", err)
	}
	return nil
}

// walkTree visits every entry under root/host in lexical order, handing
// the callback the slash-separated path relative to root and, for
// regular files, the file contents.
func walkTree(root, host string, fn func(relPath string, info fs.FileInfo, data []byte) error) error {
	base := filepath.Join(root, host)
	return filepath.Walk(base, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		var data []byte
		if info.Mode().IsRegular() {
			data, err = os.ReadFile(p) //nolint:gosec // walking our own mirror tree
			if err != nil {
				return err
			}
		}

		return fn(filepath.ToSlash(rel), info, data)
	})
}
