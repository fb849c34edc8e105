package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/akolanti/extractview/internal/config"
	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/akolanti/extractview/pkg/logger_i"
	"github.com/maruel/natural"
	"golang.org/x/sync/errgroup"
)

var (
	pageFolderPattern       = regexp.MustCompile(`^(?:page_)?(\d+)$`)
	extractionFolderPattern = regexp.MustCompile(`_\d{13}$`)
)

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".webp": {},
	".svg": {}, ".wmf": {}, ".emf": {}, ".tiff": {}, ".tif": {},
}

// Scanner builds the page model from an extraction folder. It only reads,
// so it is safe to call on every request.
type Scanner struct {
	logger *logger_i.Logger
}

func New() *Scanner {
	return &Scanner{logger: logger_i.NewLogger("Scanner")}
}

// IsExtractionFolder matches folder names produced by uploads.
func IsExtractionFolder(name string) bool {
	return strings.HasPrefix(name, "extract-") || extractionFolderPattern.MatchString(name)
}

func (s *Scanner) Scan(root string) (extractionModel.ScanResult, error) {
	result := extractionModel.ScanResult{
		Pages:    []extractionModel.Page{},
		PdfFiles: []string{},
	}
	info, err := os.Stat(root)
	if errors.Is(err, os.ErrNotExist) {
		return result, fmt.Errorf("extraction folder %s: %w", filepath.Base(root), extractionModel.ErrNotFound)
	} else if err != nil {
		return result, err
	}
	if !info.IsDir() {
		return result, fmt.Errorf("%s is not a folder: %w", filepath.Base(root), extractionModel.ErrNotFound)
	}

	container, prefix := s.resolveContainer(root)
	log := s.logger.With("root", root)
	if prefix != "" {
		log.Debug("using nested folder", "folder", prefix)
	}

	for _, folder := range pageFolders(container) {
		page := s.scanPage(filepath.Join(container, folder.name), path.Join(prefix, folder.name), folder.number)
		result.Pages = append(result.Pages, page)
		result.TotalImages += page.Stats.Images
		result.TotalTables += page.Stats.Tables
		if page.PdfFile != nil {
			result.TotalPdfs++
		}
	}
	result.TotalPages = len(result.Pages)
	result.PdfFiles = documentPDFs(root, container, prefix)
	result.TotalPdfs += len(result.PdfFiles)
	return result, nil
}

// resolveContainer descends into a lone subfolder when it holds page folders.
func (s *Scanner) resolveContainer(root string) (string, string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		s.logger.Warn("unreadable extraction root", "root", root, "error", err)
		return root, ""
	}
	var dirs []string
	for _, e := range entries {
		if isDir(root, e) {
			dirs = append(dirs, e.Name())
		}
	}
	if len(dirs) != 1 {
		return root, ""
	}
	nested := filepath.Join(root, dirs[0])
	nestedEntries, err := os.ReadDir(nested)
	if err != nil {
		return root, ""
	}
	for _, e := range nestedEntries {
		if !isDir(nested, e) {
			continue
		}
		if isAllDigits(e.Name()) || strings.HasPrefix(e.Name(), "page_") {
			return nested, dirs[0]
		}
	}
	return root, ""
}

type pageFolder struct {
	name   string
	number int
}

func pageFolders(container string) []pageFolder {
	entries, err := os.ReadDir(container)
	if err != nil {
		return nil
	}
	var folders []pageFolder
	for _, e := range entries {
		m := pageFolderPattern.FindStringSubmatch(e.Name())
		if m == nil || !isDir(container, e) {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		folders = append(folders, pageFolder{name: e.Name(), number: n})
	}
	sort.SliceStable(folders, func(i, j int) bool {
		if folders[i].number != folders[j].number {
			return folders[i].number < folders[j].number
		}
		return folders[i].name < folders[j].name
	})
	return folders
}

func (s *Scanner) scanPage(folderPath, relPrefix string, number int) extractionModel.Page {
	page := extractionModel.Page{
		PageNumber: number,
		Images:     []extractionModel.FileRef{},
		Tables:     []extractionModel.FileRef{},
	}
	entries, err := os.ReadDir(folderPath)
	if err != nil {
		s.logger.Warn("unreadable page folder", "folder", folderPath, "error", err)
		return page
	}

	var textFiles, pdfFiles []string
	for _, e := range entries {
		name := e.Name()
		lower := strings.ToLower(name)
		if isDir(folderPath, e) {
			switch lower {
			case "images":
				if len(page.Images) == 0 {
					page.Images = collect(folderPath, name, relPrefix, isImage)
				}
			case "tables":
				if len(page.Tables) == 0 {
					page.Tables = collect(folderPath, name, relPrefix, isTable)
				}
			}
			continue
		}
		switch filepath.Ext(lower) {
		case ".txt":
			textFiles = append(textFiles, name)
		case ".pdf":
			pdfFiles = append(pdfFiles, name)
		}
	}
	page.Stats.Images = len(page.Images)
	page.Stats.Tables = len(page.Tables)

	sort.Strings(textFiles)
	var texts []string
	for _, name := range textFiles {
		data, err := os.ReadFile(filepath.Join(folderPath, name))
		if err != nil {
			s.logger.Warn("unreadable text file", "file", name, "error", err)
			continue
		}
		texts = append(texts, DecodeText(data, s.logger.With("file", path.Join(relPrefix, name))))
		// the last file read is where edits get saved
		page.TextFile = &extractionModel.FileRef{Filename: name, Path: path.Join(relPrefix, name)}
	}
	page.Text = strings.Join(texts, "\n\n")
	page.Stats.TextLength = utf8.RuneCountInString(page.Text)

	if len(pdfFiles) > 0 {
		sort.Strings(pdfFiles)
		page.PdfFile = &extractionModel.FileRef{Filename: pdfFiles[0], Path: path.Join(relPrefix, pdfFiles[0])}
	}
	return page
}

// collect walks dir recursively and returns matching files sorted by name,
// numbers compared by value.
func collect(pageDir, dirName, relPrefix string, keep func(string) bool) []extractionModel.FileRef {
	refs := []extractionModel.FileRef{}
	base := filepath.Join(pageDir, dirName)
	_ = filepath.WalkDir(base, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !keep(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(pageDir, p)
		if err != nil {
			return nil
		}
		refs = append(refs, extractionModel.FileRef{
			Filename: d.Name(),
			Path:     path.Join(relPrefix, filepath.ToSlash(rel)),
		})
		return nil
	})
	SortRefs(refs)
	return refs
}

func SortRefs(refs []extractionModel.FileRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].Filename != refs[j].Filename {
			return natural.Less(refs[i].Filename, refs[j].Filename)
		}
		return refs[i].Path < refs[j].Path
	})
}

// SortNatural orders names so "img2" precedes "img10".
func SortNatural(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return natural.Less(names[i], names[j])
	})
}

func documentPDFs(root, container, prefix string) []string {
	seen := make(map[string]struct{})
	pdfs := []string{}
	add := func(dir, relDir string) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, e := range entries {
			if isDir(dir, e) || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
				continue
			}
			rel := path.Join(relDir, e.Name())
			if _, dup := seen[rel]; dup {
				continue
			}
			seen[rel] = struct{}{}
			pdfs = append(pdfs, rel)
		}
	}
	add(root, "")
	if container != root {
		add(container, prefix)
	}
	sort.Strings(pdfs)
	return pdfs
}

func isImage(name string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

func isTable(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".xlsx")
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isDir follows symlinks so linked page folders are still found.
func isDir(parent string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, e.Name()))
	return err == nil && info.IsDir()
}

type FolderScan struct {
	Id      string
	Created time.Time
	Result  extractionModel.ScanResult
}

// ScanAll scans the given extraction folders concurrently. Folders that fail
// to scan are logged and left out.
func (s *Scanner) ScanAll(ctx context.Context, uploadsDir string, ids []string) ([]FolderScan, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(config.ScanConcurrency)

	var mu sync.Mutex
	scans := make([]FolderScan, 0, len(ids))
	for _, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dir := filepath.Join(uploadsDir, id)
			info, err := os.Stat(dir)
			if err != nil {
				s.logger.Warn("skipping extraction folder", "id", id, "error", err)
				return nil
			}
			result, err := s.Scan(dir)
			if err != nil {
				s.logger.Warn("skipping extraction folder", "id", id, "error", err)
				return nil
			}
			mu.Lock()
			scans = append(scans, FolderScan{Id: id, Created: info.ModTime(), Result: result})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(scans, func(i, j int) bool { return scans[i].Id < scans[j].Id })
	return scans, nil
}
