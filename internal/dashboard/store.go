// Package dashboard owns the dashboard's working dataset: the current
// snapshot and the task that keeps it fresh.
package dashboard

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"dashboard-service/internal/model"
)

var ErrNotLoaded = errors.New("dataset not loaded")

// Store holds the current snapshot. Readers always see a complete snapshot;
// Replace swaps it in one step.
type Store struct {
	current atomic.Pointer[model.Snapshot]

	mu            sync.RWMutex
	lastAttemptAt time.Time
	lastSuccessAt time.Time
	lastErr       error
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Current() (*model.Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

func (s *Store) Replace(snap *model.Snapshot) {
	s.mu.Lock()
	s.lastAttemptAt = snap.FetchedAt
	s.lastSuccessAt = snap.FetchedAt
	s.lastErr = nil
	s.current.Store(snap)
	s.mu.Unlock()
}

// RecordFailure keeps the current snapshot and remembers why the refresh
// attempt failed.
func (s *Store) RecordFailure(at time.Time, err error) {
	s.mu.Lock()
	s.lastAttemptAt = at
	s.lastErr = err
	s.mu.Unlock()
}

func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Store) Status() model.RefreshStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := model.RefreshStatus{}
	if snap := s.current.Load(); snap != nil {
		meta := snap.Meta()
		status.Snapshot = &meta
	}
	if !s.lastAttemptAt.IsZero() {
		at := s.lastAttemptAt
		status.LastAttemptAt = &at
	}
	if !s.lastSuccessAt.IsZero() {
		at := s.lastSuccessAt
		status.LastSuccessAt = &at
	}
	if s.lastErr != nil {
		status.LastError = s.lastErr.Error()
	}
	return status
}
