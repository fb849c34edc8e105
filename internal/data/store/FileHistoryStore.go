package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/akolanti/extractview/pkg/logger_i"
)

var ErrStoreClosed = errors.New("history store closed")

// historyOp mutates the loaded list in place and reports whether it must be persisted.
type historyOp func(entries *[]extractionModel.Extraction) (dirty bool, err error)

type historyRequest struct {
	op    historyOp
	reply chan error
}

// FileHistoryStore owns history.json through a single goroutine. Every
// operation is a load, mutate, persist cycle executed in arrival order, so
// concurrent handlers and the scheduler never clobber each other.
type FileHistoryStore struct {
	path     string
	requests chan historyRequest
	quit     chan struct{}
	wg       sync.WaitGroup
	closed   sync.Once
	logger   *logger_i.Logger
}

func InitFileHistoryStore(path string) *FileHistoryStore {
	s := &FileHistoryStore{
		path:     path,
		requests: make(chan historyRequest),
		quit:     make(chan struct{}),
		logger:   logger_i.NewLogger("HistoryStore"),
	}
	s.wg.Add(1)
	go s.loop()
	return s
}

func (s *FileHistoryStore) loop() {
	defer s.wg.Done()
	for {
		select {
		case req := <-s.requests:
			req.reply <- s.apply(req.op)
		case <-s.quit:
			return
		}
	}
}

func (s *FileHistoryStore) apply(op historyOp) error {
	entries := make([]extractionModel.Extraction, 0)
	if _, err := readJSON(s.path, &entries); err != nil {
		s.logger.Error("history unreadable", "path", s.path, "error", err)
		return err
	}
	dirty, err := op(&entries)
	if err != nil {
		return err
	}
	if !dirty {
		return nil
	}
	if err := writeJSONAtomic(s.path, entries); err != nil {
		s.logger.Error("history write failed", "path", s.path, "error", err)
		return fmt.Errorf("persisting history: %w", err)
	}
	return nil
}

func (s *FileHistoryStore) do(ctx context.Context, op historyOp) error {
	req := historyRequest{op: op, reply: make(chan error, 1)}
	select {
	case s.requests <- req:
	case <-s.quit:
		return ErrStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-req.reply
}

// Close stops the owner goroutine after the in-flight operation finishes.
func (s *FileHistoryStore) Close() {
	s.closed.Do(func() {
		close(s.quit)
	})
	s.wg.Wait()
}

func (s *FileHistoryStore) List(ctx context.Context) ([]extractionModel.Extraction, error) {
	var out []extractionModel.Extraction
	err := s.do(ctx, func(entries *[]extractionModel.Extraction) (bool, error) {
		out = append(make([]extractionModel.Extraction, 0, len(*entries)), *entries...)
		return false, nil
	})
	return out, err
}

func (s *FileHistoryStore) Get(ctx context.Context, id string) (extractionModel.Extraction, error) {
	var found extractionModel.Extraction
	err := s.do(ctx, func(entries *[]extractionModel.Extraction) (bool, error) {
		i := indexOf(*entries, id)
		if i < 0 {
			return false, fmt.Errorf("extraction %s: %w", id, extractionModel.ErrNotFound)
		}
		found = (*entries)[i]
		return false, nil
	})
	return found, err
}

func (s *FileHistoryStore) Add(ctx context.Context, entry extractionModel.Extraction) error {
	return s.do(ctx, func(entries *[]extractionModel.Extraction) (bool, error) {
		if indexOf(*entries, entry.Id) >= 0 {
			return false, fmt.Errorf("extraction %s already recorded: %w", entry.Id, extractionModel.ErrValidation)
		}
		*entries = append(*entries, entry)
		s.logger.Debug("history entry added", "id", entry.Id)
		return true, nil
	})
}

func (s *FileHistoryStore) Update(ctx context.Context, id string, mutate func(*extractionModel.Extraction) error) (extractionModel.Extraction, error) {
	var updated extractionModel.Extraction
	err := s.do(ctx, func(entries *[]extractionModel.Extraction) (bool, error) {
		i := indexOf(*entries, id)
		if i < 0 {
			return false, fmt.Errorf("extraction %s: %w", id, extractionModel.ErrNotFound)
		}
		candidate := (*entries)[i]
		if err := mutate(&candidate); err != nil {
			return false, err
		}
		candidate.Id = id
		(*entries)[i] = candidate
		updated = candidate
		return true, nil
	})
	return updated, err
}

func (s *FileHistoryStore) Remove(ctx context.Context, id string) error {
	return s.do(ctx, func(entries *[]extractionModel.Extraction) (bool, error) {
		i := indexOf(*entries, id)
		if i < 0 {
			return false, nil
		}
		*entries = append((*entries)[:i], (*entries)[i+1:]...)
		return true, nil
	})
}

func indexOf(entries []extractionModel.Extraction, id string) int {
	for i := range entries {
		if entries[i].Id == id {
			return i
		}
	}
	return -1
}
