// Package upload turns uploaded documents and archives into extraction
// folders and replaces files inside existing extractions.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/akolanti/extractview/internal/archive"
	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/akolanti/extractview/internal/fsutil"
	"github.com/akolanti/extractview/internal/scanner"
	"github.com/akolanti/extractview/pkg/logger_i"
)

type Service struct {
	UploadsDir string
	History    extractionModel.HistoryStore
	Scanner    *scanner.Scanner
	Inspect    Inspector
	now        func() time.Time
	logger     *logger_i.Logger
}

func NewService(uploadsDir string, history extractionModel.HistoryStore, sc *scanner.Scanner) *Service {
	if sc == nil {
		sc = scanner.New()
	}
	return &Service{
		UploadsDir: uploadsDir,
		History:    history,
		Scanner:    sc,
		Inspect:    InspectPDF,
		now:        time.Now,
		logger:     logger_i.NewLogger("Upload"),
	}
}

// Result is what an accepted upload produced.
type Result struct {
	Entry extractionModel.Extraction
	// Scan is set for archives, which arrive already extracted.
	Scan *extractionModel.ScanResult
}

// NewExtractionId derives the folder name from the upload's base name plus
// a millisecond timestamp.
func NewExtractionId(filename string, at time.Time) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return fsutil.SanitizeName(base) + "_" + strconv.FormatInt(at.UnixMilli(), 10)
}

// Ingest stores an uploaded PDF (recorded Unprocessed) or expands an
// uploaded ZIP (recorded Done with scanned counters).
func (s *Service) Ingest(ctx context.Context, filename string, src io.Reader) (Result, error) {
	filename = filepath.Base(filename)
	var source extractionModel.SourceType
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		source = extractionModel.SourcePDF
	case ".zip":
		source = extractionModel.SourceZIP
	default:
		return Result{}, fmt.Errorf("only .pdf and .zip uploads are accepted: %w", extractionModel.ErrValidation)
	}

	uploadedAt := s.now().UTC()
	id := NewExtractionId(filename, uploadedAt)
	dir, err := fsutil.ExtractionDir(s.UploadsDir, id)
	if err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating extraction folder: %w", err)
	}
	log := logger_i.FromContext(ctx, "Upload").With("extractionId", id)

	entry := extractionModel.Extraction{
		Id:         id,
		Filename:   filename,
		UploadDate: uploadedAt,
		SourceType: source,
	}
	var result Result
	if source == extractionModel.SourcePDF {
		result, err = s.ingestPDF(dir, entry, src)
	} else {
		result, err = s.ingestZIP(dir, entry, src)
	}
	if err == nil {
		err = s.History.Add(ctx, result.Entry)
	}
	if err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			log.Error("could not clean up failed upload", "err", rmErr)
		}
		return Result{}, err
	}
	log.Info("upload accepted", "source", source, "size", result.Entry.Size)
	return result, nil
}

func (s *Service) ingestPDF(dir string, entry extractionModel.Extraction, src io.Reader) (Result, error) {
	target := filepath.Join(dir, entry.Filename)
	size, err := writeFile(target, src)
	if err != nil {
		return Result{}, err
	}
	pages, err := s.Inspect(target)
	if err != nil {
		return Result{}, err
	}
	entry.Size = size
	entry.SourcePages = pages
	entry.Status = extractionModel.StatusUnprocessed
	return Result{Entry: entry}, nil
}

func (s *Service) ingestZIP(dir string, entry extractionModel.Extraction, src io.Reader) (Result, error) {
	tmp, err := os.CreateTemp(s.UploadsDir, ".upload-*.zip")
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(tmp.Name())
	size, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Result{}, fmt.Errorf("storing upload: %w", err)
	}
	if _, err := archive.ExpandFile(tmp.Name(), dir); err != nil {
		return Result{}, err
	}
	scan, err := s.Scanner.Scan(dir)
	if err != nil {
		return Result{}, err
	}
	entry.Size = size
	entry.Status = extractionModel.StatusDone
	finished := entry.UploadDate
	entry.FinishedAt = &finished
	entry.ApplyCounters(scan)
	return Result{Entry: entry, Scan: &scan}, nil
}

// writeFile streams src into path through a temp file in the same folder.
func writeFile(path string, src io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".part-*")
	if err != nil {
		return 0, err
	}
	size, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return size, nil
}

// Delete removes the extraction folder and its history entry. Missing
// pieces are not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	dir, err := fsutil.ExtractionDir(s.UploadsDir, id)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return s.History.Remove(ctx, id)
}
