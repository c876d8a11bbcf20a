package scheduling

import "sync"

// Factory builds the manager for a clinic.
type Factory func(clinicID int64) *Manager

// Registry hands out one long-lived manager per clinic.
type Registry struct {
	factory Factory

	mu       sync.Mutex
	managers map[int64]*Manager
}

func NewRegistry(factory Factory) *Registry {
	if factory == nil {
		panic("scheduling: manager factory required")
	}
	return &Registry{factory: factory, managers: make(map[int64]*Manager)}
}

// Get returns the clinic's manager, creating it on first use.
func (r *Registry) Get(clinicID int64) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.managers[clinicID]; ok {
		return m
	}
	m := r.factory(clinicID)
	r.managers[clinicID] = m
	return m
}
