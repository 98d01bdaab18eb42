package operations

import (
	"fmt"
	"strings"
	"sync"
)

// Registry holds the steps of one run in execution order: load, clean, the
// chart jobs in configuration order, then export
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
	order []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]Step)}
}

// Register appends step. IDs must be non-empty and unique within the run.
func (r *Registry) Register(step Step) error {
	if step == nil {
		return NewInvalidStateError("", "cannot register nil step")
	}

	id := step.ID()
	if id == "" {
		return NewInvalidStateError("", "step ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.steps[id]; exists {
		return NewInvalidStateError(id, "already registered")
	}
	r.steps[id] = step
	r.order = append(r.order, id)
	return nil
}

// Get returns the step with the given ID
func (r *Registry) Get(id string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	step, ok := r.steps[id]
	if !ok {
		return nil, NewInvalidStateError(id, "not registered")
	}
	return step, nil
}

// List returns every step in registration order
func (r *Registry) List() []Step {
	return r.filter(func(string) bool { return true })
}

// Charts returns the chart job steps in registration order
func (r *Registry) Charts() []Step {
	return r.filter(func(id string) bool { return strings.HasPrefix(id, chartStepPrefix) })
}

// Count returns the number of registered steps
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}

func (r *Registry) filter(keep func(id string) bool) []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()

	steps := make([]Step, 0, len(r.order))
	for _, id := range r.order {
		if keep(id) {
			steps = append(steps, r.steps[id])
		}
	}
	return steps
}

// String lists the registered step IDs
func (r *Registry) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fmt.Sprintf("[%s]", strings.Join(r.order, " "))
}
