package job

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/extractview/internal/config"
	"github.com/akolanti/extractview/internal/data/store"
	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/akolanti/extractview/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner stands in for the extraction tool. produce runs against the
// extraction folder and returns the exit code.
type fakeRunner struct {
	starts   int32
	startErr error
	release  chan struct{}
	produce  func(dir string) int
}

func (f *fakeRunner) Start(ctx context.Context, documentPath, logPath string) (<-chan RunResult, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	atomic.AddInt32(&f.starts, 1)
	results := make(chan RunResult, 1)
	go func() {
		defer close(results)
		if f.release != nil {
			<-f.release
		}
		code := 0
		if f.produce != nil {
			code = f.produce(filepath.Dir(documentPath))
		}
		results <- RunResult{ExitCode: code}
	}()
	return results, nil
}

func setup(t *testing.T, runner Runner, entries ...extractionModel.Extraction) (*Service, string) {
	t.Helper()
	uploads := t.TempDir()
	svc := InitJobService(ServiceConfig{
		History:           store.InitInMemoryHistoryStore(entries...),
		Scanner:           scanner.New(),
		Runner:            runner,
		UploadsDir:        uploads,
		HeartbeatInterval: 20 * time.Millisecond,
	})
	return svc, uploads
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func waitDone(t *testing.T, done <-chan extractionModel.Extraction) extractionModel.Extraction {
	t.Helper()
	select {
	case e := <-done:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
		return extractionModel.Extraction{}
	}
}

func unprocessed(id, filename string) extractionModel.Extraction {
	return extractionModel.Extraction{Id: id, Filename: filename, Status: extractionModel.StatusUnprocessed, SourceType: extractionModel.SourcePDF}
}

func TestTrigger_SuccessRenamesDocumentAndCounts(t *testing.T) {
	runner := &fakeRunner{produce: func(dir string) int {
		writeFile(t, filepath.Join(dir, "1", "images", "a.png"), "png")
		writeFile(t, filepath.Join(dir, "1", "tables", "t.xlsx"), "xlsx")
		writeFile(t, filepath.Join(dir, "1", "page.txt"), "hello")
		writeFile(t, filepath.Join(dir, config.StatusFileName), "2\n")
		// status.txt reporting success outweighs a nonzero exit
		return 1
	}}
	svc, uploads := setup(t, runner, unprocessed("doc_1", "My Doc.pdf"))
	dir := filepath.Join(uploads, "doc_1")
	writeFile(t, filepath.Join(dir, "My Doc.pdf"), "%PDF-1.4")

	done, err := svc.Trigger(context.Background(), "doc_1")
	require.NoError(t, err)

	during, err := svc.History.Get(context.Background(), "doc_1")
	require.NoError(t, err)
	final := waitDone(t, done)
	svc.Wait()

	assert.Contains(t, []extractionModel.Status{extractionModel.StatusProcessing, extractionModel.StatusDone}, during.Status)
	assert.Equal(t, extractionModel.StatusDone, final.Status)
	assert.Equal(t, "doc_1.pdf", final.Filename)
	assert.Equal(t, "My Doc.pdf", final.DisplayName)
	assert.FileExists(t, filepath.Join(dir, "doc_1.pdf"))
	assert.NoFileExists(t, filepath.Join(dir, config.LockFileName))
	assert.NotNil(t, final.FinishedAt)

	scan, err := scanner.New().Scan(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, final.TotalPages)
	assert.Equal(t, 1, final.TotalImages)
	assert.Equal(t, 1, final.TotalTables)
	assert.Equal(t, scan.TotalPdfs, final.TotalPdfs)
	assert.False(t, svc.IsRunning("doc_1"))
}

func TestTrigger_NonzeroExitWithoutMarkerIsError(t *testing.T) {
	runner := &fakeRunner{produce: func(string) int { return 3 }}
	svc, uploads := setup(t, runner, unprocessed("doc_2", "doc_2.pdf"))
	writeFile(t, filepath.Join(uploads, "doc_2", "doc_2.pdf"), "%PDF")

	done, err := svc.Trigger(context.Background(), "doc_2")
	require.NoError(t, err)
	final := waitDone(t, done)

	assert.Equal(t, extractionModel.StatusError, final.Status)
	assert.Contains(t, final.LastError, "code 3")
	assert.NoFileExists(t, filepath.Join(uploads, "doc_2", config.LockFileName))
}

func TestTrigger_ConflictWhenLockExists(t *testing.T) {
	runner := &fakeRunner{}
	svc, uploads := setup(t, runner, unprocessed("doc_3", "doc_3.pdf"))
	writeFile(t, filepath.Join(uploads, "doc_3", "doc_3.pdf"), "%PDF")
	writeFile(t, filepath.Join(uploads, "doc_3", config.LockFileName), time.Now().Format(time.RFC3339))

	_, err := svc.Trigger(context.Background(), "doc_3")
	assert.ErrorIs(t, err, extractionModel.ErrConflict)
	assert.Equal(t, int32(0), atomic.LoadInt32(&runner.starts))
}

func TestTrigger_ConflictWhileRunning(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	svc, uploads := setup(t, runner, unprocessed("doc_4", "doc_4.pdf"))
	writeFile(t, filepath.Join(uploads, "doc_4", "doc_4.pdf"), "%PDF")

	done, err := svc.Trigger(context.Background(), "doc_4")
	require.NoError(t, err)
	assert.True(t, svc.IsRunning("doc_4"))
	assert.FileExists(t, filepath.Join(uploads, "doc_4", config.LockFileName))

	_, err = svc.Trigger(context.Background(), "doc_4")
	assert.ErrorIs(t, err, extractionModel.ErrConflict)

	close(runner.release)
	waitDone(t, done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runner.starts))
}

func TestTrigger_UnknownAndMissingDocument(t *testing.T) {
	svc, _ := setup(t, &fakeRunner{}, unprocessed("doc_5", "gone.pdf"))

	_, err := svc.Trigger(context.Background(), "nope")
	assert.ErrorIs(t, err, extractionModel.ErrNotFound)

	_, err = svc.Trigger(context.Background(), "doc_5")
	assert.ErrorIs(t, err, extractionModel.ErrNotFound)

	entry, err := svc.History.Get(context.Background(), "doc_5")
	require.NoError(t, err)
	assert.Equal(t, extractionModel.StatusUnprocessed, entry.Status)
	assert.False(t, svc.IsRunning("doc_5"))
}

func TestTrigger_DoneIsNotRetriggered(t *testing.T) {
	entry := unprocessed("doc_6", "doc_6.pdf")
	entry.Status = extractionModel.StatusDone
	svc, uploads := setup(t, &fakeRunner{}, entry)
	writeFile(t, filepath.Join(uploads, "doc_6", "doc_6.pdf"), "%PDF")

	_, err := svc.Trigger(context.Background(), "doc_6")
	assert.ErrorIs(t, err, extractionModel.ErrConflict)
}

func TestTrigger_StartFailure(t *testing.T) {
	runner := &fakeRunner{startErr: errors.New("exec: not found")}
	svc, uploads := setup(t, runner, unprocessed("doc_7", "doc_7.pdf"))
	writeFile(t, filepath.Join(uploads, "doc_7", "doc_7.pdf"), "%PDF")

	_, err := svc.Trigger(context.Background(), "doc_7")
	assert.ErrorIs(t, err, extractionModel.ErrSubprocessFailure)

	entry, err := svc.History.Get(context.Background(), "doc_7")
	require.NoError(t, err)
	assert.Equal(t, extractionModel.StatusError, entry.Status)
	assert.Contains(t, entry.LastError, "not found")
	assert.NoFileExists(t, filepath.Join(uploads, "doc_7", config.LockFileName))
	assert.False(t, svc.IsRunning("doc_7"))
}

func TestTrigger_RetryIgnoresMarkerFromEarlierRun(t *testing.T) {
	entry := unprocessed("doc_12", "doc_12.pdf")
	entry.Status = extractionModel.StatusError
	svc, uploads := setup(t, &fakeRunner{produce: func(string) int { return 1 }}, entry)
	dir := filepath.Join(uploads, "doc_12")
	writeFile(t, filepath.Join(dir, "doc_12.pdf"), "%PDF")
	writeFile(t, filepath.Join(dir, config.StatusFileName), "2")
	writeFile(t, filepath.Join(dir, "out", config.StatusFileName), "2")

	done, err := svc.Trigger(context.Background(), "doc_12")
	require.NoError(t, err)
	final := waitDone(t, done)

	assert.Equal(t, extractionModel.StatusError, final.Status)
	assert.NoFileExists(t, filepath.Join(dir, config.StatusFileName))
	assert.NoFileExists(t, filepath.Join(dir, "out", config.StatusFileName))
}

// brokenHistory accepts reads but fails every update.
type brokenHistory struct {
	*store.InMemoryHistoryStore
}

func (brokenHistory) Update(ctx context.Context, id string, mutate func(*extractionModel.Extraction) error) (extractionModel.Extraction, error) {
	return extractionModel.Extraction{}, errors.New("disk full")
}

func TestTrigger_FailedHistoryUpdateKeepsOriginalName(t *testing.T) {
	uploads := t.TempDir()
	runner := &fakeRunner{}
	svc := InitJobService(ServiceConfig{
		History:    brokenHistory{store.InitInMemoryHistoryStore(unprocessed("doc_13", "My Doc.pdf"))},
		Scanner:    scanner.New(),
		Runner:     runner,
		UploadsDir: uploads,
	})
	dir := filepath.Join(uploads, "doc_13")
	writeFile(t, filepath.Join(dir, "My Doc.pdf"), "%PDF")

	_, err := svc.Trigger(context.Background(), "doc_13")
	require.Error(t, err)

	assert.FileExists(t, filepath.Join(dir, "My Doc.pdf"))
	assert.NoFileExists(t, filepath.Join(dir, "doc_13.pdf"))
	assert.NoFileExists(t, filepath.Join(dir, config.LockFileName))
	assert.Zero(t, atomic.LoadInt32(&runner.starts))
	assert.False(t, svc.IsRunning("doc_13"))

	entry, err := svc.History.Get(context.Background(), "doc_13")
	require.NoError(t, err)
	assert.Equal(t, "My Doc.pdf", entry.Filename)
}

func TestTrigger_HeartbeatRefreshesLock(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	svc, uploads := setup(t, runner, unprocessed("doc_8", "doc_8.pdf"))
	dir := filepath.Join(uploads, "doc_8")
	writeFile(t, filepath.Join(dir, "doc_8.pdf"), "%PDF")

	done, err := svc.Trigger(context.Background(), "doc_8")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(filepath.Join(dir, config.LockFileName))
		if err != nil {
			return false
		}
		var lock extractionModel.LockPayload
		return json.Unmarshal(data, &lock) == nil && lock.HeartbeatAt.After(lock.StartedAt)
	}, 2*time.Second, 10*time.Millisecond)

	close(runner.release)
	waitDone(t, done)
	svc.Wait()
	assert.NoFileExists(t, filepath.Join(dir, config.LockFileName))
}

func TestReclaimStaleLock(t *testing.T) {
	svc, uploads := setup(t, &fakeRunner{}, unprocessed("doc_9", "doc_9.pdf"))
	dir := filepath.Join(uploads, "doc_9")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	fresh := extractionModel.LockPayload{RunId: "r1", StartedAt: time.Now(), HeartbeatAt: time.Now()}
	require.NoError(t, writeLock(dir, fresh))
	reclaimed, err := svc.ReclaimStaleLock("doc_9", time.Hour)
	require.NoError(t, err)
	assert.False(t, reclaimed)

	reclaimed, err = svc.ReclaimStaleLock("doc_9", 0)
	require.NoError(t, err)
	assert.False(t, reclaimed, "zero timeout disables reclamation")

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, writeLock(dir, extractionModel.LockPayload{RunId: "r1", StartedAt: old, HeartbeatAt: old}))
	reclaimed, err = svc.ReclaimStaleLock("doc_9", time.Hour)
	require.NoError(t, err)
	assert.True(t, reclaimed)
	assert.NoFileExists(t, filepath.Join(dir, config.LockFileName))
}

func TestReclaimStaleLock_PlainTimestampUsesModTime(t *testing.T) {
	svc, uploads := setup(t, &fakeRunner{}, unprocessed("doc_10", "doc_10.pdf"))
	dir := filepath.Join(uploads, "doc_10")
	path := filepath.Join(dir, config.LockFileName)
	writeFile(t, path, "2024-03-09T10:00:00Z")
	old := time.Now().Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	lock, held, err := svc.Lock("doc_10")
	require.NoError(t, err)
	assert.True(t, held)
	assert.WithinDuration(t, old, lock.HeartbeatAt, time.Second)

	reclaimed, err := svc.ReclaimStaleLock("doc_10", time.Hour)
	require.NoError(t, err)
	assert.True(t, reclaimed)
}

func TestRescanUpdatesCounters(t *testing.T) {
	entry := unprocessed("doc_11", "doc_11.pdf")
	entry.Status = extractionModel.StatusDone
	svc, uploads := setup(t, &fakeRunner{}, entry)
	dir := filepath.Join(uploads, "doc_11")
	writeFile(t, filepath.Join(dir, "1", "images", "a.png"), "x")
	writeFile(t, filepath.Join(dir, "2", "images", "b.png"), "x")

	updated, scan, err := svc.Rescan(context.Background(), "doc_11")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.TotalPages)
	assert.Equal(t, 2, updated.TotalImages)
	assert.Len(t, scan.Pages, 2)
}

func TestMarkInterrupted(t *testing.T) {
	entry := unprocessed("doc_12", "doc_12.pdf")
	entry.Status = extractionModel.StatusProcessing
	svc, _ := setup(t, &fakeRunner{}, entry, unprocessed("doc_13", "doc_13.pdf"))

	require.NoError(t, svc.MarkInterrupted(context.Background(), "doc_12", "interrupted"))
	require.NoError(t, svc.MarkInterrupted(context.Background(), "doc_13", "interrupted"))

	got, _ := svc.History.Get(context.Background(), "doc_12")
	assert.Equal(t, extractionModel.StatusError, got.Status)
	assert.Equal(t, "interrupted", got.LastError)
	got, _ = svc.History.Get(context.Background(), "doc_13")
	assert.Equal(t, extractionModel.StatusUnprocessed, got.Status)
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "tool.sh")
	writeFile(t, script, "echo processing \"$1\"\nexit 4\n")
	logPath := filepath.Join(dir, config.ProcessLogName)

	results, err := ExecRunner{Command: []string{"sh", script}}.Start(context.Background(), "/tmp/x.pdf", logPath)
	require.NoError(t, err)

	select {
	case res := <-results:
		assert.Equal(t, 4, res.ExitCode)
	case <-time.After(5 * time.Second):
		t.Fatal("tool did not exit")
	}
	out, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(out), "processing /tmp/x.pdf")

	_, err = ExecRunner{Command: []string{filepath.Join(dir, "missing-binary")}}.Start(context.Background(), "x.pdf", logPath)
	assert.Error(t, err)
}
