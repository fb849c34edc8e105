package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/akolanti/extractview/internal/config"
	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/akolanti/extractview/internal/fsutil"
	"github.com/akolanti/extractview/internal/metrics"
	"github.com/akolanti/extractview/internal/scanner"
	"github.com/akolanti/extractview/pkg/logger_i"
	"github.com/google/uuid"
)

const historyWriteTimeout = 10 * time.Second

// Service owns the per-extraction state machine:
// Unprocessed/Error -> Processing -> Done/Error.
type Service struct {
	History           extractionModel.HistoryStore
	Scanner           *scanner.Scanner
	Runner            Runner
	UploadsDir        string
	HeartbeatInterval time.Duration

	mu       sync.Mutex
	inFlight map[string]string
	runs     sync.WaitGroup
	logger   *logger_i.Logger
}

type ServiceConfig struct {
	History           extractionModel.HistoryStore
	Scanner           *scanner.Scanner
	Runner            Runner
	UploadsDir        string
	HeartbeatInterval time.Duration
}

func InitJobService(cfg ServiceConfig) *Service {
	if cfg.Scanner == nil {
		cfg.Scanner = scanner.New()
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = config.HeartbeatInterval
	}
	return &Service{
		History:           cfg.History,
		Scanner:           cfg.Scanner,
		Runner:            cfg.Runner,
		UploadsDir:        cfg.UploadsDir,
		HeartbeatInterval: cfg.HeartbeatInterval,
		inFlight:          make(map[string]string),
		logger:            logger_i.NewLogger("JobService"),
	}
}

// Trigger starts the extraction tool for id and returns as soon as the tool
// is running. The returned channel receives the final history entry once
// the run completes.
func (s *Service) Trigger(ctx context.Context, id string) (<-chan extractionModel.Extraction, error) {
	log := logger_i.FromContext(ctx, "JobService").With("extractionId", id)

	entry, err := s.History.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dir, err := fsutil.ExtractionDir(s.UploadsDir, id)
	if err != nil {
		return nil, err
	}
	if lockExists(dir) {
		return nil, fmt.Errorf("%w: extraction %s is already processing", extractionModel.ErrConflict, id)
	}
	if !entry.Status.CanTrigger() {
		return nil, fmt.Errorf("%w: extraction %s is %s", extractionModel.ErrConflict, id, entry.Status)
	}

	runId := uuid.NewString()
	if !s.reserve(id, runId) {
		return nil, fmt.Errorf("%w: extraction %s is already processing", extractionModel.ErrConflict, id)
	}

	current, docPath, displayName, err := s.locateDocument(dir, entry)
	if err != nil {
		s.release(id)
		return nil, err
	}

	now := time.Now().UTC()
	lock := extractionModel.LockPayload{RunId: runId, Pid: os.Getpid(), StartedAt: now, HeartbeatAt: now}
	if err := createLock(dir, lock); err != nil {
		s.release(id)
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: extraction %s is already processing", extractionModel.ErrConflict, id)
		}
		return nil, fmt.Errorf("writing lock: %w", err)
	}

	// a marker left by an earlier run must not decide this one
	if err := clearStatusMarkers(dir); err != nil {
		s.abort(dir, id)
		return nil, fmt.Errorf("clearing status marker: %w", err)
	}

	if current != docPath {
		if err := os.Rename(current, docPath); err != nil {
			s.abort(dir, id)
			return nil, fmt.Errorf("renaming source document: %w", err)
		}
	}

	_, err = s.History.Update(ctx, id, func(e *extractionModel.Extraction) error {
		e.Status = extractionModel.StatusProcessing
		e.Filename = filepath.Base(docPath)
		if displayName != "" {
			e.DisplayName = displayName
		}
		e.StartedAt = &now
		e.FinishedAt = nil
		e.LastError = ""
		return nil
	})
	if err != nil {
		// history still names the original file
		if current != docPath {
			if rerr := os.Rename(docPath, current); rerr != nil {
				log.Error("could not restore source document name", "err", rerr)
			}
		}
		s.abort(dir, id)
		return nil, err
	}

	results, err := s.Runner.Start(context.WithoutCancel(ctx), docPath, filepath.Join(dir, config.ProcessLogName))
	if err != nil {
		s.abort(dir, id)
		s.fail(id, fmt.Sprintf("could not start extraction tool: %v", err))
		log.Error("extraction tool failed to start", "err", err)
		return nil, fmt.Errorf("%w: %v", extractionModel.ErrSubprocessFailure, err)
	}

	log.Info("extraction started", "runId", runId, "document", filepath.Base(docPath))
	metrics.IncrementJobsRunning()

	done := make(chan extractionModel.Extraction, 1)
	stop := make(chan struct{})
	beating := make(chan struct{})
	s.runs.Add(1)
	go s.heartbeat(dir, lock, stop, beating)
	go s.await(id, dir, now, results, stop, beating, done)
	return done, nil
}

// locateDocument finds the uploaded PDF and the <id>.pdf path the tool is
// run against, so its output lands under a predictable name. The display
// name is the original filename when the two differ.
func (s *Service) locateDocument(dir string, entry extractionModel.Extraction) (current, canonical, displayName string, err error) {
	canonical = filepath.Join(dir, entry.Id+".pdf")
	if fsutil.Exists(canonical) {
		return canonical, canonical, "", nil
	}
	if entry.Filename != "" {
		original, err := fsutil.SafeJoin(dir, entry.Filename)
		if err != nil {
			return "", "", "", err
		}
		if fsutil.Exists(original) && !fsutil.IsDir(original) {
			return original, canonical, entry.Filename, nil
		}
	}
	return "", "", "", fmt.Errorf("%w: no source document for extraction %s", extractionModel.ErrNotFound, entry.Id)
}

func (s *Service) heartbeat(dir string, lock extractionModel.LockPayload, stop <-chan struct{}, beating chan<- struct{}) {
	defer close(beating)
	ticker := time.NewTicker(s.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case t := <-ticker.C:
			if !lockExists(dir) {
				return
			}
			lock.HeartbeatAt = t.UTC()
			if err := writeLock(dir, lock); err != nil {
				s.logger.Warn("heartbeat write failed", "dir", dir, "err", err)
			}
		}
	}
}

func (s *Service) await(id, dir string, started time.Time, results <-chan RunResult, stop chan<- struct{}, beating <-chan struct{}, done chan<- extractionModel.Extraction) {
	defer s.runs.Done()
	defer close(done)
	log := s.logger.With("extractionId", id)

	result, ok := <-results
	if !ok {
		result = RunResult{ExitCode: -1, Err: errors.New("runner closed without a result")}
	}
	close(stop)
	<-beating
	if err := removeLock(dir); err != nil {
		log.Error("could not remove lock", "err", err)
	}
	metrics.DecrementJobsRunning()

	marker := readStatusMarker(dir)
	succeeded := result.ExitCode == 0 || marker == config.ToolSuccessMarker

	ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
	defer cancel()

	var final extractionModel.Extraction
	var err error
	if succeeded {
		scan, scanErr := s.Scanner.Scan(dir)
		if scanErr != nil {
			log.Warn("rescan after extraction failed", "err", scanErr)
		}
		final, err = s.History.Update(ctx, id, func(e *extractionModel.Extraction) error {
			finished := time.Now().UTC()
			e.Status = extractionModel.StatusDone
			e.FinishedAt = &finished
			e.LastError = ""
			if scanErr == nil {
				e.ApplyCounters(scan)
			}
			return nil
		})
		log.Info("extraction finished", "exitCode", result.ExitCode, "status", marker, "pages", final.TotalPages)
		metrics.CaptureJobMetrics("done", time.Since(started))
	} else {
		reason := fmt.Sprintf("extraction tool exited with code %d", result.ExitCode)
		if result.Err != nil && result.ExitCode < 0 {
			reason = fmt.Sprintf("extraction tool failed: %v", result.Err)
		}
		final, err = s.History.Update(ctx, id, func(e *extractionModel.Extraction) error {
			finished := time.Now().UTC()
			e.Status = extractionModel.StatusError
			e.FinishedAt = &finished
			e.LastError = reason
			return nil
		})
		log.Warn("extraction failed", "exitCode", result.ExitCode, "status", marker)
		metrics.CaptureJobMetrics("error", time.Since(started))
	}
	if err != nil {
		log.Error("could not record extraction outcome", "err", err)
	}

	s.release(id)
	done <- final
}

// abort undoes a trigger that got as far as the lock file.
func (s *Service) abort(dir, id string) {
	if err := removeLock(dir); err != nil {
		s.logger.Error("could not remove lock", "extractionId", id, "err", err)
	}
	s.release(id)
}

func (s *Service) fail(id, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
	defer cancel()
	_, err := s.History.Update(ctx, id, func(e *extractionModel.Extraction) error {
		finished := time.Now().UTC()
		e.Status = extractionModel.StatusError
		e.FinishedAt = &finished
		e.LastError = reason
		return nil
	})
	if err != nil {
		s.logger.Error("could not mark extraction failed", "extractionId", id, "err", err)
	}
}

func (s *Service) reserve(id, runId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[id]; busy {
		return false
	}
	s.inFlight[id] = runId
	return true
}

func (s *Service) release(id string) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}

// IsRunning reports whether this process is currently running id.
func (s *Service) IsRunning(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[id]
	return ok
}

func (s *Service) RunningCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}

// Wait blocks until every started run has been recorded.
func (s *Service) Wait() {
	s.runs.Wait()
}

// Rescan recounts the extraction folder and stores the counters.
func (s *Service) Rescan(ctx context.Context, id string) (extractionModel.Extraction, extractionModel.ScanResult, error) {
	dir, err := fsutil.ExtractionDir(s.UploadsDir, id)
	if err != nil {
		return extractionModel.Extraction{}, extractionModel.ScanResult{}, err
	}
	if _, err := s.History.Get(ctx, id); err != nil {
		return extractionModel.Extraction{}, extractionModel.ScanResult{}, err
	}
	scan, err := s.Scanner.Scan(dir)
	if err != nil {
		return extractionModel.Extraction{}, extractionModel.ScanResult{}, err
	}
	entry, err := s.History.Update(ctx, id, func(e *extractionModel.Extraction) error {
		e.ApplyCounters(scan)
		return nil
	})
	return entry, scan, err
}

// Lock returns the lock currently held on id, if any.
func (s *Service) Lock(id string) (extractionModel.LockPayload, bool, error) {
	dir, err := fsutil.ExtractionDir(s.UploadsDir, id)
	if err != nil {
		return extractionModel.LockPayload{}, false, err
	}
	return readLock(dir)
}

// ReclaimStaleLock removes id's lock when its heartbeat is older than
// timeout and no run for id is live in this process. A zero timeout never
// reclaims.
func (s *Service) ReclaimStaleLock(id string, timeout time.Duration) (bool, error) {
	if timeout <= 0 || s.IsRunning(id) {
		return false, nil
	}
	dir, err := fsutil.ExtractionDir(s.UploadsDir, id)
	if err != nil {
		return false, err
	}
	lock, held, err := readLock(dir)
	if err != nil || !held {
		return false, err
	}
	if time.Since(lock.HeartbeatAt) < timeout {
		return false, nil
	}
	if err := removeLock(dir); err != nil {
		return false, err
	}
	s.logger.Warn("reclaimed stale lock", "extractionId", id, "runId", lock.RunId, "heartbeatAt", lock.HeartbeatAt)
	metrics.IncrementStaleLocksReclaimed()
	return true, nil
}

// MarkInterrupted moves a Processing entry with no live run to Error.
func (s *Service) MarkInterrupted(ctx context.Context, id, reason string) error {
	_, err := s.History.Update(ctx, id, func(e *extractionModel.Extraction) error {
		if e.Status != extractionModel.StatusProcessing {
			return nil
		}
		finished := time.Now().UTC()
		e.Status = extractionModel.StatusError
		e.FinishedAt = &finished
		e.LastError = reason
		return nil
	})
	return err
}
