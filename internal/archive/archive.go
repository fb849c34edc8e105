package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/akolanti/extractview/internal/fsutil"
)

// maxEntrySize caps a single decompressed entry.
const maxEntrySize = 2 << 30

// ExpandFile extracts the archive at zipPath into destDir, overwriting files.
func ExpandFile(zipPath, destDir string) (int, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, fmt.Errorf("opening archive: %w: %w", extractionModel.ErrValidation, err)
	}
	defer r.Close()
	return expand(&r.Reader, destDir)
}

// Expand extracts an in-memory or on-disk archive given as a ReaderAt.
func Expand(ra io.ReaderAt, size int64, destDir string) (int, error) {
	r, err := zip.NewReader(ra, size)
	if err != nil {
		return 0, fmt.Errorf("reading archive: %w: %w", extractionModel.ErrValidation, err)
	}
	return expand(r, destDir)
}

func expand(r *zip.Reader, destDir string) (int, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, err
	}
	written := 0
	for _, f := range r.File {
		name := strings.ReplaceAll(f.Name, `\`, "/")
		if skipEntry(name) {
			continue
		}
		target, err := fsutil.SafeJoin(destDir, filepath.FromSlash(name))
		if err != nil {
			return written, fmt.Errorf("archive entry %q: %w", f.Name, err)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return written, err
			}
			continue
		}
		if err := writeEntry(f, target); err != nil {
			return written, fmt.Errorf("archive entry %q: %w", f.Name, err)
		}
		written++
	}
	return written, nil
}

func skipEntry(name string) bool {
	return strings.HasPrefix(name, "__MACOSX/") || strings.HasSuffix(name, "/.DS_Store") || name == ".DS_Store"
}

func writeEntry(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	n, err := io.Copy(dst, io.LimitReader(src, maxEntrySize+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > maxEntrySize {
		err = fmt.Errorf("entry exceeds %d bytes: %w", int64(maxEntrySize), extractionModel.ErrValidation)
	}
	return err
}

// WriteDir streams every file under srcDir into w as a zip archive, with
// paths relative to srcDir.
func WriteDir(w io.Writer, srcDir string) error {
	zw := zip.NewWriter(w)
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		header.Method = zip.Deflate
		dst, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(dst, src)
		return err
	})
	if err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}
