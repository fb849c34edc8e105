package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/akolanti/extractview/pkg/logger_i"
)

var inMemLogger = logger_i.NewLogger("InMem HistoryStore")

// InMemoryHistoryStore keeps history in process memory. Used by tests and
// one-off CLI runs that should not touch history.json.
type InMemoryHistoryStore struct {
	historyMutex *sync.RWMutex
	entries      []extractionModel.Extraction
}

func InitInMemoryHistoryStore(seed ...extractionModel.Extraction) *InMemoryHistoryStore {
	return &InMemoryHistoryStore{
		historyMutex: new(sync.RWMutex),
		entries:      append([]extractionModel.Extraction{}, seed...),
	}
}

func (store *InMemoryHistoryStore) List(ctx context.Context) ([]extractionModel.Extraction, error) {
	store.historyMutex.RLock()
	defer store.historyMutex.RUnlock()
	return append([]extractionModel.Extraction{}, store.entries...), nil
}

func (store *InMemoryHistoryStore) Get(ctx context.Context, id string) (extractionModel.Extraction, error) {
	store.historyMutex.RLock()
	defer store.historyMutex.RUnlock()
	i := indexOf(store.entries, id)
	inMemLogger.Debug("history lookup", "id", id, "found", i >= 0)
	if i < 0 {
		return extractionModel.Extraction{}, fmt.Errorf("extraction %s: %w", id, extractionModel.ErrNotFound)
	}
	return store.entries[i], nil
}

func (store *InMemoryHistoryStore) Add(ctx context.Context, entry extractionModel.Extraction) error {
	store.historyMutex.Lock()
	defer store.historyMutex.Unlock()
	if indexOf(store.entries, entry.Id) >= 0 {
		return fmt.Errorf("extraction %s already recorded: %w", entry.Id, extractionModel.ErrValidation)
	}
	store.entries = append(store.entries, entry)
	return nil
}

func (store *InMemoryHistoryStore) Update(ctx context.Context, id string, mutate func(*extractionModel.Extraction) error) (extractionModel.Extraction, error) {
	store.historyMutex.Lock()
	defer store.historyMutex.Unlock()
	i := indexOf(store.entries, id)
	if i < 0 {
		return extractionModel.Extraction{}, fmt.Errorf("extraction %s: %w", id, extractionModel.ErrNotFound)
	}
	candidate := store.entries[i]
	if err := mutate(&candidate); err != nil {
		return extractionModel.Extraction{}, err
	}
	candidate.Id = id
	store.entries[i] = candidate
	return candidate, nil
}

func (store *InMemoryHistoryStore) Remove(ctx context.Context, id string) error {
	store.historyMutex.Lock()
	defer store.historyMutex.Unlock()
	if i := indexOf(store.entries, id); i >= 0 {
		store.entries = append(store.entries[:i], store.entries[i+1:]...)
	}
	return nil
}
