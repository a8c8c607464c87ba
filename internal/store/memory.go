package store

import (
	"context"
	"sync"

	"github.com/f-sync/followqueue/internal/profiles"
)

// MemoryStore keeps state in memory. It is safe for concurrent use.
type MemoryStore struct {
	mutex    sync.RWMutex
	profiles []profiles.AnalyzedProfile
	present  bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (store *MemoryStore) Load(ctx context.Context) (profiles.AppState, bool, error) {
	if err := ctx.Err(); err != nil {
		return profiles.AppState{}, false, err
	}
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	if !store.present {
		return profiles.AppState{}, false, nil
	}
	return profiles.NewAppState(store.profiles), true, nil
}

func (store *MemoryStore) Save(ctx context.Context, state profiles.AppState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.profiles = append([]profiles.AnalyzedProfile(nil), state.Profiles...)
	store.present = true
	return nil
}

func (store *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.profiles = nil
	store.present = false
	return nil
}

// Close is a no-op.
func (store *MemoryStore) Close() error {
	return nil
}
