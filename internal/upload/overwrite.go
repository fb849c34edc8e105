package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/akolanti/extractview/internal/archive"
	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/akolanti/extractview/internal/fsutil"
	"github.com/akolanti/extractview/pkg/logger_i"
)

// UploadKind says what an overwrite upload does with its bytes.
type UploadKind int

const (
	// LiteralFile stores the upload at the target path.
	LiteralFile UploadKind = iota
	// ArchiveExpand unpacks the upload into the target's folder.
	ArchiveExpand
)

func (k UploadKind) String() string {
	if k == ArchiveExpand {
		return "archive"
	}
	return "file"
}

// KindFor decides from the declared filename extension alone.
func KindFor(filename string) UploadKind {
	if strings.EqualFold(filepath.Ext(filename), ".zip") {
		return ArchiveExpand
	}
	return LiteralFile
}

// Overwrite replaces (or adds) relativePath inside extraction id. A .zip
// upload is expanded into the folder containing relativePath instead.
func (s *Service) Overwrite(ctx context.Context, id, relativePath, filename string, src io.Reader) (UploadKind, error) {
	kind := KindFor(filename)
	dir, err := fsutil.ExtractionDir(s.UploadsDir, id)
	if err != nil {
		return kind, err
	}
	if !fsutil.IsDir(dir) {
		return kind, fmt.Errorf("extraction %s: %w", id, extractionModel.ErrNotFound)
	}
	if strings.TrimSpace(relativePath) == "" {
		return kind, fmt.Errorf("relative path is required: %w", extractionModel.ErrValidation)
	}
	target, err := fsutil.SafeJoin(dir, relativePath)
	if err != nil {
		return kind, err
	}
	if root, _ := fsutil.SafeJoin(dir); target == root {
		return kind, fmt.Errorf("relative path must name a file: %w", extractionModel.ErrValidation)
	}
	targetDir := filepath.Dir(target)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return kind, err
	}

	log := logger_i.FromContext(ctx, "Upload").With("extractionId", id, "kind", kind.String())
	switch kind {
	case ArchiveExpand:
		tmp, err := os.CreateTemp(s.UploadsDir, ".overwrite-*.zip")
		if err != nil {
			return kind, err
		}
		defer os.Remove(tmp.Name())
		_, err = io.Copy(tmp, src)
		if cerr := tmp.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return kind, err
		}
		n, err := archive.ExpandFile(tmp.Name(), targetDir)
		if err != nil {
			return kind, err
		}
		log.Info("archive expanded", "target", fsutil.ToSlash(relativePath), "files", n)
	default:
		if fsutil.IsDir(target) {
			return kind, fmt.Errorf("%s is a folder: %w", relativePath, extractionModel.ErrValidation)
		}
		if _, err := writeFile(target, src); err != nil {
			return kind, err
		}
		log.Info("file replaced", "target", fsutil.ToSlash(relativePath))
	}
	return kind, nil
}
