package sheet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/akolanti/extractview/internal/metrics"
	"github.com/akolanti/extractview/pkg/logger_i"
)

const cacheWriteTimeout = 5 * time.Second

// Service renders tables through the render cache.
type Service struct {
	loader   Loader
	renderer *Renderer
	cache    extractionModel.RenderCache
	writes   sync.WaitGroup
	logger   *logger_i.Logger
}

func NewService(loader Loader, cache extractionModel.RenderCache, locale string) *Service {
	return &Service{
		loader:   loader,
		renderer: NewRenderer(locale),
		cache:    cache,
		logger:   logger_i.NewLogger("TableRender"),
	}
}

// CacheKey is the sha256 of the absolute path and the modification time, so
// any write to the file lands on a fresh key.
func CacheKey(absPath string, modTime time.Time) string {
	sum := sha256.Sum256([]byte(absPath + "\x00" + strconv.FormatInt(modTime.UnixNano(), 10)))
	return hex.EncodeToString(sum[:])
}

func (s *Service) Render(ctx context.Context, path string, opts RenderOptions) (extractionModel.RenderResult, error) {
	log := logger_i.FromContext(ctx, "TableRender").With("path", path)
	absPath, err := filepath.Abs(path)
	if err != nil {
		return extractionModel.RenderResult{}, err
	}
	info, err := os.Stat(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return extractionModel.RenderResult{}, fmt.Errorf("table %s: %w", filepath.Base(path), extractionModel.ErrNotFound)
	} else if err != nil {
		return extractionModel.RenderResult{}, err
	}
	if info.IsDir() {
		return extractionModel.RenderResult{}, fmt.Errorf("table %s is a folder: %w", filepath.Base(path), extractionModel.ErrValidation)
	}

	key := CacheKey(absPath, info.ModTime())
	if cached, found, err := s.cache.Get(ctx, key); err != nil {
		metrics.RecordCacheLookup("error")
		log.Warn("render cache lookup failed", "error", err)
	} else if found {
		metrics.RecordCacheLookup("hit")
		log.Debug("render cache hit")
		return cached, nil
	}
	metrics.RecordCacheLookup("miss")

	start := time.Now()
	ws, err := s.loader.Load(absPath)
	if err != nil {
		return extractionModel.RenderResult{}, err
	}
	result := extractionModel.RenderResult{
		HTML:        s.renderer.Render(ws, opts),
		SheetName:   ws.Name,
		RowCount:    ws.RowCount,
		ColumnCount: ws.ColumnCount,
	}
	metrics.CaptureExecutionMetrics("render_table", time.Since(start))
	log.Debug("table rendered", "rows", ws.RowCount, "columns", ws.ColumnCount)

	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheWriteTimeout)
		defer cancel()
		if err := s.cache.Put(writeCtx, key, result); err != nil {
			log.Warn("render cache write failed", "error", err)
		}
	}()
	return result, nil
}

// Wait blocks until background cache writes have finished.
func (s *Service) Wait() {
	s.writes.Wait()
}

type SheetData struct {
	Name string     `json:"name"`
	Data [][]string `json:"data"`
}

// ReadSheets dumps every sheet as a grid of display strings.
func ReadSheets(path string) ([]SheetData, error) {
	f, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []SheetData
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", name, err)
		}
		if rows == nil {
			rows = [][]string{}
		}
		out = append(out, SheetData{Name: name, Data: rows})
	}
	return out, nil
}
