package jobs

import (
	"context"
	"fmt"
	"sync"
)

// Mux dispatches jobs to the handler registered for their type.
type Mux struct {
	mu       sync.RWMutex
	handlers map[JobType]JobHandler
}

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{handlers: make(map[JobType]JobHandler)}
}

// Handle registers h for jobType, replacing any previous handler.
func (m *Mux) Handle(jobType JobType, h JobHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[jobType] = h
}

// Process is a JobHandler that routes job by type.
func (m *Mux) Process(ctx context.Context, job *Job) error {
	m.mu.RLock()
	h, ok := m.handlers[job.Type]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("Process: no handler for job type %q", job.Type)
	}
	return h(ctx, job)
}
