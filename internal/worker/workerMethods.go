package worker

import (
	"context"
	"errors"

	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/akolanti/extractview/internal/metrics"
)

type TickAction string

const (
	ActionSkipped TickAction = "skipped" // previous tick still running
	ActionBusy    TickAction = "busy"
	ActionIdle    TickAction = "idle"
	ActionStarted TickAction = "started"
	ActionFailed  TickAction = "failed"
)

// Tick makes one scheduling decision and reports it.
func (s *Scheduler) Tick(ctx context.Context) TickAction {
	if !s.ticking.TryLock() {
		return ActionSkipped
	}
	defer s.ticking.Unlock()

	action := s.tick(ctx)
	metrics.RecordSchedulerTick(string(action))
	if action != ActionIdle && action != ActionBusy {
		s.logger.Debug("scheduler tick", "action", action)
	}
	return action
}

func (s *Scheduler) tick(ctx context.Context) TickAction {
	if s.jobService.RunningCount() > 0 {
		return ActionBusy
	}
	entries, err := s.history.List(ctx)
	if err != nil {
		s.logger.Error("could not list history", "err", err)
		return ActionFailed
	}

	for _, e := range entries {
		if e.Status != extractionModel.StatusProcessing {
			continue
		}
		if s.recoverProcessing(ctx, e) {
			return ActionBusy
		}
	}

	for _, e := range entries {
		if !e.Status.CanTrigger() {
			continue
		}
		if s.heldByLiveLock(e.Id) {
			return ActionBusy
		}
		_, err := s.jobService.Trigger(ctx, e.Id)
		switch {
		case err == nil:
			s.logger.Info("scheduled extraction", "extractionId", e.Id)
			return ActionStarted
		case errors.Is(err, extractionModel.ErrConflict):
			return ActionBusy
		case errors.Is(err, extractionModel.ErrNotFound):
			// source document is gone; move on so it cannot block the queue
			s.logger.Warn("skipping extraction without source document", "extractionId", e.Id)
			continue
		default:
			s.logger.Error("could not start extraction", "extractionId", e.Id, "err", err)
			return ActionFailed
		}
	}
	return ActionIdle
}

// recoverProcessing decides whether a Processing entry is still running.
// Entries whose lock went stale, or that lost their lock without a live
// run, are moved to Error so the queue can move on.
func (s *Scheduler) recoverProcessing(ctx context.Context, e extractionModel.Extraction) bool {
	if s.jobService.IsRunning(e.Id) || s.heldByLiveLock(e.Id) {
		return true
	}
	if err := s.jobService.MarkInterrupted(ctx, e.Id, "extraction interrupted before it finished"); err != nil {
		s.logger.Error("could not recover interrupted extraction", "extractionId", e.Id, "err", err)
		return true
	}
	s.logger.Warn("recovered interrupted extraction", "extractionId", e.Id)
	return false
}

// heldByLiveLock reclaims a stale lock and reports whether one remains.
func (s *Scheduler) heldByLiveLock(id string) bool {
	if _, err := s.jobService.ReclaimStaleLock(id, s.staleTimeout); err != nil {
		s.logger.Warn("stale lock check failed", "extractionId", id, "err", err)
	}
	_, held, err := s.jobService.Lock(id)
	if err != nil {
		return true
	}
	return held
}
