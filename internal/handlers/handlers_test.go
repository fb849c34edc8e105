package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/extractview/internal/api"
	"github.com/akolanti/extractview/internal/config"
	"github.com/akolanti/extractview/internal/data/store"
	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/akolanti/extractview/internal/job"
	"github.com/akolanti/extractview/internal/scanner"
	"github.com/akolanti/extractview/internal/sheet"
	"github.com/akolanti/extractview/internal/upload"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type instantRunner struct {
	starts atomic.Int32
}

func (r *instantRunner) Start(ctx context.Context, documentPath, logPath string) (<-chan job.RunResult, error) {
	r.starts.Add(1)
	results := make(chan job.RunResult, 1)
	results <- job.RunResult{ExitCode: 0}
	close(results)
	return results, nil
}

type fakeUploader struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (f *fakeUploader) UploadAndGetLink(ctx context.Context, localPath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, localPath)
	if f.err != nil {
		return "", f.err
	}
	return "https://onedrive.example/edit/" + filepath.Base(localPath), nil
}

type fixture struct {
	handler *Handler
	router  chi.Router
	uploads string
	history *store.InMemoryHistoryStore
	jobs    *job.Service
	runner  *instantRunner
}

func newFixture(t *testing.T, uploader *fakeUploader, entries ...extractionModel.Extraction) fixture {
	t.Helper()
	uploads := t.TempDir()
	cfg := config.Default()
	cfg.UploadsDir = uploads
	cfg.TagsFile = filepath.Join(t.TempDir(), "tags.json")
	cfg.OneDrive.RootPath = "Documents/uploads"

	history := store.InitInMemoryHistoryStore(entries...)
	sc := scanner.New()
	runner := &instantRunner{}
	jobs := job.InitJobService(job.ServiceConfig{History: history, Scanner: sc, Runner: runner, UploadsDir: uploads})
	t.Cleanup(jobs.Wait)

	uploadService := upload.NewService(uploads, history, sc)
	uploadService.Inspect = func(string) (int, error) { return 2, nil }

	tables := sheet.NewService(sheet.ExcelizeLoader{}, store.InitInMemoryRenderCache(), cfg.Render.Locale)
	t.Cleanup(tables.Wait)

	deps := Dependencies{
		Config:      cfg,
		History:     history,
		Jobs:        jobs,
		Uploads:     uploadService,
		Tables:      tables,
		Scanner:     sc,
		Annotations: store.InitAnnotationStore(cfg.TagsFile),
	}
	if uploader != nil {
		deps.OneDrive = uploader
	}
	h := New(deps)

	r := chi.NewRouter()
	r.Post("/api/upload", h.Upload)
	r.Get("/api/history", h.History)
	r.Get("/api/extractions", h.Extractions)
	r.Get("/api/extraction/{id}", h.GetExtraction)
	r.Delete("/api/extraction/{id}", h.DeleteExtraction)
	r.Post("/api/process/{id}", h.Process)
	r.Post("/api/rescan/{id}", h.Rescan)
	r.Get("/api/render-table/{id}/*", h.RenderTable)
	r.Get("/api/file/{id}/*", h.GetFile)
	r.Post("/api/save-text", h.SaveText)
	r.Post("/api/overwrite-file", h.OverwriteFile)
	r.Post("/api/delete-file", h.DeleteFile)
	r.Post("/api/delete-folder", h.DeleteFolder)
	r.Get("/api/download-folder", h.DownloadFolder)
	r.Post("/api/save-groups", h.SaveGroups)
	r.Get("/api/tags", h.GetTags)
	r.Post("/api/save-tags", h.SaveTags)
	r.Get("/api/config", h.Config)
	r.Post("/api/open-onedrive", h.OpenOneDrive)

	return fixture{handler: h, router: r, uploads: uploads, history: history, jobs: jobs, runner: runner}
}

func (f fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f fixture) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return f.do(t, req)
}

func (f fixture) writeFile(t *testing.T, rel string, content []byte) string {
	t.Helper()
	p := filepath.Join(f.uploads, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, content, 0o644))
	return p
}

func multipartRequest(t *testing.T, path, field, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func done(id string, uploaded time.Time) extractionModel.Extraction {
	return extractionModel.Extraction{Id: id, Filename: id + ".pdf", Status: extractionModel.StatusDone, UploadDate: uploaded}
}

func pending(id string) extractionModel.Extraction {
	return extractionModel.Extraction{Id: id, Filename: id + ".pdf", Status: extractionModel.StatusUnprocessed}
}

func TestUpload_PDFIsRecordedUnprocessed(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, multipartRequest(t, "/api/upload", "file", "report.pdf", []byte("%PDF-1.4"), nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[api.UploadResponse](t, rec)
	assert.True(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.Id, "report_"))
	assert.Equal(t, "/uploads/"+resp.Id, resp.ExtractPath)
	assert.Equal(t, "Unprocessed", resp.HistoryEntry.StatusText)
	assert.Equal(t, 2, resp.HistoryEntry.SourcePages)
	assert.FileExists(t, filepath.Join(f.uploads, resp.Id, "report.pdf"))

	entry, err := f.history.Get(context.Background(), resp.Id)
	require.NoError(t, err)
	assert.Equal(t, extractionModel.StatusUnprocessed, entry.Status)
}

func TestUpload_ZipFieldIsRecordedDone(t *testing.T) {
	f := newFixture(t, nil)
	archive := zipBytes(t, map[string]string{
		"1/images/a.png": "x",
		"1/text.txt":     "hello",
		"2/images/b.png": "y",
	})

	rec := f.do(t, multipartRequest(t, "/api/upload", "zipFile", "scan.zip", archive, nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[api.UploadResponse](t, rec)
	assert.Equal(t, "Done", resp.HistoryEntry.StatusText)
	assert.Equal(t, 2, resp.HistoryEntry.TotalPages)
	assert.Equal(t, 2, resp.HistoryEntry.TotalImages)
	require.NotNil(t, resp.Data)
	assert.Len(t, resp.Data.Pages, 2)
}

func TestUpload_Rejections(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, multipartRequest(t, "/api/upload", "file", "notes.docx", []byte("x"), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode[api.Envelope](t, rec)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)

	rec = f.do(t, multipartRequest(t, "/api/upload", "other", "report.pdf", []byte("x"), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, f.do(t, req).Code)

	list, err := f.history.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestExtractions_MergesHistoryAndFoldersNewestFirst(t *testing.T) {
	old := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	f := newFixture(t, nil,
		done("report_1704164645000", old),
		done("vanished_1704164645000", old.Add(time.Hour)),
	)
	f.writeFile(t, "report_1704164645000/1/text.txt", []byte("a"))
	f.writeFile(t, "extract-legacy/1/images/a.png", []byte("x"))
	f.writeFile(t, "extract-legacy/2/images/b.png", []byte("x"))
	f.writeFile(t, "not-an-extraction/1/text.txt", []byte("x"))

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/extractions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.ExtractionsResponse](t, rec)

	require.Len(t, resp.Extractions, 2)
	assert.Equal(t, "extract-legacy", resp.Extractions[0].Id)
	assert.Equal(t, "Done", resp.Extractions[0].StatusText)
	assert.Equal(t, 2, resp.Extractions[0].TotalPages)
	assert.Equal(t, 2, resp.Extractions[0].TotalImages)
	assert.Equal(t, "report_1704164645000", resp.Extractions[1].Id)
}

func TestHistory_ListsEverything(t *testing.T) {
	f := newFixture(t, nil, pending("a_1"), pending("b_2"))
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.HistoryResponse](t, rec)
	require.Len(t, resp.History, 2)
	assert.Equal(t, "a_1", resp.History[0].Id)
}

func TestGetExtraction(t *testing.T) {
	f := newFixture(t, nil, done("doc_1", time.Now()))
	f.writeFile(t, "doc_1/1/page.txt", []byte("first page"))
	f.writeFile(t, "doc_1/1/tables/T1.xlsx", []byte("stub"))
	f.writeFile(t, "doc_1/groups.json", []byte(`[{"name":"Header","page":1,"subGroups":[]}]`))

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/extraction/doc_1", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[api.ExtractionResponse](t, rec)
	assert.Equal(t, "/uploads/doc_1", resp.ExtractPath)
	require.Len(t, resp.Data.Pages, 1)
	assert.Equal(t, "first page", resp.Data.Pages[0].Text)
	assert.Equal(t, 1, resp.Data.TotalTables)
	require.Len(t, resp.Data.Groups, 1)
	assert.Equal(t, "Header", resp.Data.Groups[0].Name)
	require.NotNil(t, resp.Data.Entry)
	assert.Equal(t, "Done", resp.Data.Entry.StatusText)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/extraction/missing_1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, decode[api.Envelope](t, rec).Success)
}

func TestProcess_RunsToDoneAndRejectsRetrigger(t *testing.T) {
	f := newFixture(t, nil, pending("doc_1"))
	f.writeFile(t, "doc_1/doc_1.pdf", []byte("%PDF"))

	rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/process/doc_1", nil))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	resp := decode[api.ProcessResponse](t, rec)
	assert.Equal(t, "api/extraction/doc_1", resp.StatusURL)

	f.jobs.Wait()
	entry, err := f.history.Get(context.Background(), "doc_1")
	require.NoError(t, err)
	assert.Equal(t, extractionModel.StatusDone, entry.Status)

	rec = f.do(t, httptest.NewRequest(http.MethodPost, "/api/process/doc_1", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, int32(1), f.runner.starts.Load())
}

func TestProcess_ConflictWhileLocked(t *testing.T) {
	f := newFixture(t, nil, pending("doc_1"))
	f.writeFile(t, "doc_1/doc_1.pdf", []byte("%PDF"))
	f.writeFile(t, "doc_1/"+config.LockFileName, []byte(time.Now().Format(time.RFC3339)))

	rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/process/doc_1", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Zero(t, f.runner.starts.Load())

	rec = f.do(t, httptest.NewRequest(http.MethodPost, "/api/process/unknown_1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRescan_UpdatesCounters(t *testing.T) {
	f := newFixture(t, nil, done("doc_1", time.Now()))
	f.writeFile(t, "doc_1/1/images/a.png", []byte("x"))
	f.writeFile(t, "doc_1/2/images/b.png", []byte("x"))

	rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/rescan/doc_1", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[api.RescanResponse](t, rec)
	assert.Equal(t, 2, resp.Entry.TotalPages)
	assert.Equal(t, 2, resp.Data.TotalImages)
}

func TestDeleteExtraction(t *testing.T) {
	f := newFixture(t, nil, done("doc_1", time.Now()))
	f.writeFile(t, "doc_1/1/page.txt", []byte("x"))

	rec := f.do(t, httptest.NewRequest(http.MethodDelete, "/api/extraction/doc_1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoDirExists(t, filepath.Join(f.uploads, "doc_1"))
	_, err := f.history.Get(context.Background(), "doc_1")
	assert.ErrorIs(t, err, extractionModel.ErrNotFound)
}

func writeWorkbook(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	wb := excelize.NewFile()
	defer wb.Close()
	require.NoError(t, wb.SetCellValue("Sheet1", "A1", 2547))
	require.NoError(t, wb.SetCellValue("Sheet1", "B1", "total"))
	require.NoError(t, wb.SaveAs(path))
}

func TestRenderTable(t *testing.T) {
	f := newFixture(t, nil, done("doc_1", time.Now()))
	writeWorkbook(t, filepath.Join(f.uploads, "doc_1", "1", "tables", "T1.xlsx"))

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/render-table/doc_1/1/tables/T1.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[api.RenderTableResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "Sheet1", resp.SheetName)
	assert.Contains(t, resp.HTML, "2,547")

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/render-table/doc_1/1/tables/missing.xlsx", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/render-table/doc_1/../../secret.xlsx", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetFile(t *testing.T) {
	f := newFixture(t, nil, done("doc_1", time.Now()))
	f.writeFile(t, "doc_1/1/page.txt", []byte("caf\xe9 au lait, cr\xe8me br\xfbl\xe9e, d\xe9j\xe0 vu, na\xefve fa\xe7ade"))
	f.writeFile(t, "doc_1/1/images/a.png", []byte("PNGDATA"))
	writeWorkbook(t, filepath.Join(f.uploads, "doc_1", "1", "tables", "T1.xlsx"))

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/file/doc_1/1/page.txt", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	text := decode[api.TextContentResponse](t, rec)
	assert.Contains(t, text.Content, "au lait")
	assert.NotContains(t, text.Content, "\xe9")

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/file/doc_1/1/tables/T1.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	sheets := decode[api.SheetsResponse](t, rec)
	require.Len(t, sheets.Sheets, 1)
	assert.Equal(t, "Sheet1", sheets.Sheets[0].Name)
	assert.Equal(t, []string{"2547", "total"}, sheets.Sheets[0].Data[0])

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/file/doc_1/1/images/a.png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PNGDATA", rec.Body.String())

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/file/doc_1/1/nope.txt", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/file/doc_1/1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveText(t *testing.T) {
	f := newFixture(t, nil, done("doc_1", time.Now()))
	p := f.writeFile(t, "doc_1/1/page.txt", []byte("old"))

	rec := f.postJSON(t, "/api/save-text", map[string]string{"extractId": "doc_1", "filePath": "1/page.txt", "content": "new text"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "new text", string(data))

	// an empty string is a valid edit
	rec = f.postJSON(t, "/api/save-text", map[string]string{"extractId": "doc_1", "filePath": "1/page.txt", "content": ""})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.postJSON(t, "/api/save-text", map[string]string{"extractId": "doc_1", "filePath": "1/other.txt", "content": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoFileExists(t, filepath.Join(f.uploads, "doc_1", "1", "other.txt"))

	rec = f.postJSON(t, "/api/save-text", map[string]string{"extractId": "doc_1", "filePath": "../../escape.txt", "content": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.postJSON(t, "/api/save-text", map[string]string{"extractId": "doc_1", "filePath": "1/page.txt"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOverwriteFile(t *testing.T) {
	f := newFixture(t, nil, done("doc_1", time.Now()))
	f.writeFile(t, "doc_1/1/images/a.png", []byte("old"))
	fields := map[string]string{"extractPath": "/uploads/doc_1", "relativePath": "1/images/a.png"}

	rec := f.do(t, multipartRequest(t, "/api/overwrite-file", "file", "a.png", []byte("new"), fields))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "File replaced", decode[api.MessageResponse](t, rec).Message)
	data, err := os.ReadFile(filepath.Join(f.uploads, "doc_1", "1", "images", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	archive := zipBytes(t, map[string]string{"b.png": "b", "c.png": "c"})
	rec = f.do(t, multipartRequest(t, "/api/overwrite-file", "file", "more.zip", archive, fields))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Archive expanded", decode[api.MessageResponse](t, rec).Message)
	assert.FileExists(t, filepath.Join(f.uploads, "doc_1", "1", "images", "b.png"))
	assert.NoFileExists(t, filepath.Join(f.uploads, "doc_1", "1", "images", "more.zip"))

	escape := map[string]string{"extractPath": "doc_1", "relativePath": "../../x.png"}
	rec = f.do(t, multipartRequest(t, "/api/overwrite-file", "file", "x.png", []byte("x"), escape))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, multipartRequest(t, "/api/overwrite-file", "file", "x.png", []byte("x"), map[string]string{"extractPath": "doc_1"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteFileAndFolder(t *testing.T) {
	f := newFixture(t, nil, done("doc_1", time.Now()))
	f.writeFile(t, "doc_1/1/images/a.png", []byte("x"))
	f.writeFile(t, "doc_1/2/images/b.png", []byte("x"))

	rec := f.postJSON(t, "/api/delete-file", map[string]string{"extractId": "doc_1", "filePath": "1/images/a.png"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoFileExists(t, filepath.Join(f.uploads, "doc_1", "1", "images", "a.png"))

	rec = f.postJSON(t, "/api/delete-file", map[string]string{"extractId": "doc_1", "filePath": "2"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.postJSON(t, "/api/delete-folder", map[string]string{"extractId": "doc_1", "folderName": "2"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoDirExists(t, filepath.Join(f.uploads, "doc_1", "2"))

	rec = f.postJSON(t, "/api/delete-folder", map[string]string{"extractId": "doc_1", "folderName": "."})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.DirExists(t, filepath.Join(f.uploads, "doc_1"))

	rec = f.postJSON(t, "/api/delete-folder", map[string]string{"extractId": "doc_1", "folderName": "../.."})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.postJSON(t, "/api/delete-folder", map[string]string{"extractId": "doc_1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadFolder(t *testing.T) {
	f := newFixture(t, nil, done("doc_1", time.Now()))
	f.writeFile(t, "doc_1/1/images/a.png", []byte("aaa"))
	f.writeFile(t, "doc_1/1/images/sub/b.png", []byte("bbb"))

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/download-folder?extractPath=/uploads/doc_1&folderName=1/images", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="images_`)

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	names := map[string]string{}
	for _, zf := range zr.File {
		rc, err := zf.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		names[zf.Name] = string(data)
	}
	assert.Equal(t, map[string]string{"a.png": "aaa", "sub/b.png": "bbb"}, names)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/download-folder?extractPath=doc_1&folderName=nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/download-folder?extractPath=doc_1&folderName=../..", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/download-folder", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveGroups(t *testing.T) {
	f := newFixture(t, nil, done("doc_1", time.Now()))
	f.writeFile(t, "doc_1/1/page.txt", []byte("x"))

	groups := []extractionModel.MasterGroup{{
		Name: "Header",
		Page: 1,
		SubGroups: []extractionModel.SubGroup{{
			Tag:   "title",
			Items: []extractionModel.ItemRef{{Id: "text-1-0", Type: extractionModel.ItemText, Page: 1}},
		}},
	}}
	rec := f.postJSON(t, "/api/save-groups", api.SaveGroupsRequest{ExtractPath: "/uploads/doc_1", Groups: groups})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.FileExists(t, filepath.Join(f.uploads, "doc_1", config.GroupsFileName))

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/extraction/doc_1", nil))
	resp := decode[api.ExtractionResponse](t, rec)
	require.Len(t, resp.Data.Groups, 1)
	assert.Equal(t, "title", resp.Data.Groups[0].SubGroups[0].Tag)

	duplicate := append(groups, extractionModel.MasterGroup{Name: "Again", Page: 1, SubGroups: groups[0].SubGroups})
	rec = f.postJSON(t, "/api/save-groups", api.SaveGroupsRequest{ExtractPath: "doc_1", Groups: duplicate})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.postJSON(t, "/api/save-groups", api.SaveGroupsRequest{ExtractPath: "missing_1", Groups: groups})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTags(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/tags", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]extractionModel.Tag](t, rec), len(store.DefaultTags))

	tags := []extractionModel.Tag{{Id: "figure", Label: "Figure", Color: "#123abc"}}
	rec = f.postJSON(t, "/api/save-tags", api.SaveTagsRequest{Tags: tags})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/tags", nil))
	assert.Equal(t, tags, decode[[]extractionModel.Tag](t, rec))

	rec = f.postJSON(t, "/api/save-tags", api.SaveTagsRequest{Tags: []extractionModel.Tag{{Id: "x", Label: "X", Color: "red"}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfigAndOneDrive_NotConfigured(t *testing.T) {
	f := newFixture(t, nil, done("doc_1", time.Now()))

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := decode[api.ConfigResponse](t, rec)
	assert.False(t, cfg.OneDrive.Enabled)
	assert.Equal(t, "Documents/uploads", cfg.OneDrive.RootPath)

	rec = f.postJSON(t, "/api/open-onedrive", map[string]string{"extractId": "doc_1", "filePath": "1/tables/T1.xlsx"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestOpenOneDrive(t *testing.T) {
	uploader := &fakeUploader{}
	f := newFixture(t, uploader, done("doc_1", time.Now()))
	table := f.writeFile(t, "doc_1/1/tables/T1.xlsx", []byte("stub"))

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	assert.True(t, decode[api.ConfigResponse](t, rec).OneDrive.Enabled)

	rec = f.postJSON(t, "/api/open-onedrive", map[string]string{"extractId": "doc_1", "filePath": "1/tables/T1.xlsx"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://onedrive.example/edit/T1.xlsx", decode[api.LinkResponse](t, rec).URL)
	assert.Equal(t, []string{table}, uploader.paths)

	rec = f.postJSON(t, "/api/open-onedrive", map[string]string{"extractId": "doc_1", "filePath": "1/page.txt"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.postJSON(t, "/api/open-onedrive", map[string]string{"extractId": "doc_1", "filePath": "1/tables/none.xlsx"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	uploader.err = errors.New("user drive not found")
	rec = f.postJSON(t, "/api/open-onedrive", map[string]string{"extractId": "doc_1", "filePath": "1/tables/T1.xlsx"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		extractionModel.ErrNotFound:          http.StatusNotFound,
		extractionModel.ErrConflict:          http.StatusConflict,
		extractionModel.ErrValidation:        http.StatusBadRequest,
		extractionModel.ErrSecurityViolation: http.StatusForbidden,
		extractionModel.ErrSubprocessFailure: http.StatusBadGateway,
		errors.New("disk on fire"):           http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(fmt.Errorf("wrapped: %w", err)), err.Error())
	}
}
