package appointments

import (
	"context"
	"sort"
	"sync"
)

// Repository persists appointments scoped by clinic.
type Repository interface {
	List(ctx context.Context, clinicID int64) ([]Appointment, error)
	Create(ctx context.Context, clinicID int64, p Payload) (*Appointment, error)
	Update(ctx context.Context, clinicID, id int64, p Payload) (*Appointment, error)
	Delete(ctx context.Context, clinicID, id int64) error
}

// InMemoryRepository is a process-local Repository for development and tests.
type InMemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]map[int64]Appointment
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{rows: make(map[int64]map[int64]Appointment)}
}

// List returns the clinic's appointments ordered by date, time and id.
func (r *InMemoryRepository) List(ctx context.Context, clinicID int64) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Appointment, 0, len(r.rows[clinicID]))
	for _, a := range r.rows[clinicID] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Create stores a new appointment and assigns its id.
func (r *InMemoryRepository) Create(ctx context.Context, clinicID int64, p Payload) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	a := p.Appointment(r.nextID)
	if r.rows[clinicID] == nil {
		r.rows[clinicID] = make(map[int64]Appointment)
	}
	r.rows[clinicID][a.ID] = a
	return &a, nil
}

// Update replaces an existing appointment.
func (r *InMemoryRepository) Update(ctx context.Context, clinicID, id int64, p Payload) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[clinicID][id]; !ok {
		return nil, ErrNotFound
	}
	a := p.Appointment(id)
	r.rows[clinicID][id] = a
	return &a, nil
}

// Delete removes an appointment.
func (r *InMemoryRepository) Delete(ctx context.Context, clinicID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[clinicID][id]; !ok {
		return ErrNotFound
	}
	delete(r.rows[clinicID], id)
	return nil
}
