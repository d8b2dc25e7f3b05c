package workflow

import "sync"

// Registry tracks active runs keyed by workflow id. It is the only shared
// mutable state between concurrent callers; every read or write of a
// registered execution goes through its mutex. The lock is never held
// while a step executes.
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*WorkflowExecution
}

func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*WorkflowExecution)}
}

func (r *Registry) add(e *WorkflowExecution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[e.ID] = e
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, id)
}

// mutate runs bookkeeping on a registered execution under the write lock.
func (r *Registry) mutate(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

// Get returns a snapshot of an active run.
func (r *Registry) Get(id string) (*WorkflowExecution, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.runs[id]
	if !ok {
		return nil, false
	}
	return snapshot(e), true
}

// List returns snapshots of all active runs.
func (r *Registry) List() []*WorkflowExecution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*WorkflowExecution, 0, len(r.runs))
	for _, e := range r.runs {
		out = append(out, snapshot(e))
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.runs)
}

// Cancel marks a pending or running workflow cancelled and removes it
// from the registry. The in-flight step, if any, finishes on its own;
// no further steps start. Returns false for unknown or terminal runs.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.runs[id]
	if !ok {
		return false
	}
	if e.Status != StatusPending && e.Status != StatusRunning {
		return false
	}
	e.Status = StatusCancelled
	delete(r.runs, id)
	return true
}

// status reads an execution's status under the lock. The execution does
// not need to be registered; cancelled runs are read after removal.
func (r *Registry) status(e *WorkflowExecution) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return e.Status
}

func snapshot(e *WorkflowExecution) *WorkflowExecution {
	cp := *e
	cp.Steps = make([]*WorkflowStep, len(e.Steps))
	for i, s := range e.Steps {
		step := *s
		cp.Steps[i] = &step
	}
	return &cp
}
