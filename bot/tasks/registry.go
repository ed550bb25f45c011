// Package tasks tracks detached background work per workspace so tests
// can assert that nothing is left dangling after cleanup.
package tasks

import (
	"sync"
)

// Registry counts in-flight detached tasks keyed by workspace id.
type Registry struct {
	mu     sync.Mutex
	active map[int64]int
	idle   map[int64]chan struct{}
}

// NewRegistry returns an empty task registry.
func NewRegistry() *Registry {
	return &Registry{
		active: make(map[int64]int),
		idle:   make(map[int64]chan struct{}),
	}
}

// Go runs fn on its own goroutine, tracked under the workspace id.
func (r *Registry) Go(wsID int64, fn func()) {
	r.mu.Lock()
	r.active[wsID]++
	r.mu.Unlock()

	go func() {
		defer r.done(wsID)
		fn()
	}()
}

// Active reports the number of in-flight tasks for a workspace.
func (r *Registry) Active(wsID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[wsID]
}

// Wait blocks until the workspace has no in-flight tasks.
func (r *Registry) Wait(wsID int64) {
	r.mu.Lock()
	if r.active[wsID] == 0 {
		r.mu.Unlock()
		return
	}
	ch, ok := r.idle[wsID]
	if !ok {
		ch = make(chan struct{})
		r.idle[wsID] = ch
	}
	r.mu.Unlock()
	<-ch
}

func (r *Registry) done(wsID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[wsID]--
	if r.active[wsID] > 0 {
		return
	}
	delete(r.active, wsID)
	if ch, ok := r.idle[wsID]; ok {
		close(ch)
		delete(r.idle, wsID)
	}
}
