package upload

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/extractview/internal/data/store"
	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalPDF builds a small but well-formed document with a correct xref table.
func minimalPDF(pages int) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}
	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 3+i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>")
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, o := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", o)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func zipOf(t *testing.T, files map[string]string) []byte {
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

func newService(t *testing.T) (*Service, *store.InMemoryHistoryStore) {
	t.Helper()
	history := store.InitInMemoryHistoryStore()
	svc := NewService(t.TempDir(), history, nil)
	svc.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return svc, history
}

func TestInspectPDF(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.pdf")
	require.NoError(t, os.WriteFile(good, minimalPDF(2), 0o644))
	pages, err := InspectPDF(good)
	require.NoError(t, err)
	assert.Equal(t, 2, pages)

	bad := filepath.Join(dir, "bad.pdf")
	require.NoError(t, os.WriteFile(bad, []byte("definitely not a pdf"), 0o644))
	_, err = InspectPDF(bad)
	assert.ErrorIs(t, err, extractionModel.ErrValidation)
}

func TestNewExtractionId(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "B_o_c_o_Q1_1700000000123", NewExtractionId("Báo cáo Q1.pdf", at))
	assert.Equal(t, "scan-2_1700000000123", NewExtractionId("scan-2.ZIP", at))
}

func TestIngest_PDFIsUnprocessed(t *testing.T) {
	svc, history := newService(t)
	svc.Inspect = func(string) (int, error) { return 3, nil }

	res, err := svc.Ingest(context.Background(), "My Report.pdf", bytes.NewReader([]byte("%PDF-fake")))
	require.NoError(t, err)

	assert.Equal(t, "My_Report_1700000000123", res.Entry.Id)
	assert.Equal(t, extractionModel.StatusUnprocessed, res.Entry.Status)
	assert.Equal(t, extractionModel.SourcePDF, res.Entry.SourceType)
	assert.Equal(t, 3, res.Entry.SourcePages)
	assert.Equal(t, int64(9), res.Entry.Size)
	assert.Nil(t, res.Scan)
	assert.FileExists(t, filepath.Join(svc.UploadsDir, res.Entry.Id, "My Report.pdf"))

	stored, err := history.Get(context.Background(), res.Entry.Id)
	require.NoError(t, err)
	assert.Equal(t, "My Report.pdf", stored.Filename)
}

func TestIngest_InvalidPDFLeavesNothing(t *testing.T) {
	svc, history := newService(t)

	_, err := svc.Ingest(context.Background(), "broken.pdf", strings.NewReader("nope"))
	assert.ErrorIs(t, err, extractionModel.ErrValidation)

	entries, _ := history.List(context.Background())
	assert.Empty(t, entries)
	leftovers, _ := os.ReadDir(svc.UploadsDir)
	assert.Empty(t, leftovers)
}

func TestIngest_ZIPIsDoneWithCounters(t *testing.T) {
	svc, _ := newService(t)
	archive := zipOf(t, map[string]string{
		"1/images/a.png":  "png",
		"1/tables/t.xlsx": "xlsx",
		"2/page.txt":      "hello",
		"__MACOSX/._junk": "x",
	})

	res, err := svc.Ingest(context.Background(), "bundle.zip", bytes.NewReader(archive))
	require.NoError(t, err)

	assert.Equal(t, extractionModel.StatusDone, res.Entry.Status)
	assert.Equal(t, extractionModel.SourceZIP, res.Entry.SourceType)
	require.NotNil(t, res.Scan)
	assert.Equal(t, 2, res.Entry.TotalPages)
	assert.Equal(t, 1, res.Entry.TotalImages)
	assert.Equal(t, 1, res.Entry.TotalTables)
	assert.NoDirExists(t, filepath.Join(svc.UploadsDir, res.Entry.Id, "__MACOSX"))

	entries, _ := os.ReadDir(svc.UploadsDir)
	assert.Len(t, entries, 1, "temporary archive is removed")
}

func TestIngest_RejectsOtherTypes(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Ingest(context.Background(), "notes.docx", strings.NewReader("x"))
	assert.ErrorIs(t, err, extractionModel.ErrValidation)
}

func TestIngest_CorruptZIP(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Ingest(context.Background(), "bad.zip", strings.NewReader("PK not really"))
	assert.ErrorIs(t, err, extractionModel.ErrValidation)
	leftovers, _ := os.ReadDir(svc.UploadsDir)
	assert.Empty(t, leftovers)
}

func TestKindFor(t *testing.T) {
	assert.Equal(t, ArchiveExpand, KindFor("images.ZIP"))
	assert.Equal(t, LiteralFile, KindFor("table.xlsx"))
	assert.Equal(t, LiteralFile, KindFor("zip"))
}

func seedExtraction(t *testing.T, svc *Service, id string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(svc.UploadsDir, id)
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestOverwrite_LiteralFile(t *testing.T) {
	svc, _ := newService(t)
	dir := seedExtraction(t, svc, "ex_1", map[string]string{"1/tables/t.xlsx": "old"})

	kind, err := svc.Overwrite(context.Background(), "ex_1", "1/tables/t.xlsx", "edited.xlsx", strings.NewReader("new"))
	require.NoError(t, err)
	assert.Equal(t, LiteralFile, kind)

	data, err := os.ReadFile(filepath.Join(dir, "1", "tables", "t.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	_, err = svc.Overwrite(context.Background(), "ex_1", "2/images/new.png", "new.png", strings.NewReader("img"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "2", "images", "new.png"))
}

func TestOverwrite_ArchiveExpandsIntoTargetFolder(t *testing.T) {
	svc, _ := newService(t)
	dir := seedExtraction(t, svc, "ex_2", map[string]string{"1/images/old.png": "old"})
	archive := zipOf(t, map[string]string{"x.png": "x", "y.png": "y"})

	kind, err := svc.Overwrite(context.Background(), "ex_2", "1/images/old.png", "batch.zip", bytes.NewReader(archive))
	require.NoError(t, err)
	assert.Equal(t, ArchiveExpand, kind)

	assert.FileExists(t, filepath.Join(dir, "1", "images", "x.png"))
	assert.FileExists(t, filepath.Join(dir, "1", "images", "y.png"))
	data, _ := os.ReadFile(filepath.Join(dir, "1", "images", "old.png"))
	assert.Equal(t, "old", string(data))
}

func TestOverwrite_Guards(t *testing.T) {
	svc, _ := newService(t)
	seedExtraction(t, svc, "ex_3", map[string]string{"a.txt": "a"})

	_, err := svc.Overwrite(context.Background(), "ex_3", "../../escape.txt", "escape.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, extractionModel.ErrSecurityViolation)

	_, err = svc.Overwrite(context.Background(), "missing", "a.txt", "a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, extractionModel.ErrNotFound)

	_, err = svc.Overwrite(context.Background(), "ex_3", "", "a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, extractionModel.ErrValidation)

	_, err = svc.Overwrite(context.Background(), "ex_3", ".", "a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, extractionModel.ErrValidation)
}

func TestDelete(t *testing.T) {
	svc, history := newService(t)
	dir := seedExtraction(t, svc, "ex_4", map[string]string{"1/a.txt": "a"})
	require.NoError(t, history.Add(context.Background(), extractionModel.Extraction{Id: "ex_4"}))

	require.NoError(t, svc.Delete(context.Background(), "ex_4"))
	assert.NoDirExists(t, dir)
	_, err := history.Get(context.Background(), "ex_4")
	assert.ErrorIs(t, err, extractionModel.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), "../x"), extractionModel.ErrSecurityViolation)
}
