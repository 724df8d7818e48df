package service

import (
	"sync"
)

// fetchTracker counts upstream fetches in progress per (cell, issuance) key.
// Fetches are never shared between requests; the count only feeds the
// duplicate-fetch metrics so overlapping lookups for one cell are visible.
type fetchTracker struct {
	mu     sync.Mutex
	active map[string]int
}

func newFetchTracker() *fetchTracker {
	return &fetchTracker{active: make(map[string]int)}
}

// Begin records a fetch for key and returns the number now in progress, itself included.
// Callers must call Done(key) once the fetch returns, typically with defer.
func (ft *fetchTracker) Begin(key string) int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.active[key]++
	return ft.active[key]
}

// Done records completion of a fetch for key.
func (ft *fetchTracker) Done(key string) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if n, ok := ft.active[key]; ok && n > 0 {
		ft.active[key]--
		if ft.active[key] == 0 {
			delete(ft.active, key)
		}
	}
}

// InProgress returns the number of fetches in progress for key.
func (ft *fetchTracker) InProgress(key string) int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.active[key]
}
