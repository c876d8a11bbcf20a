package scheduling

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/clinic-scheduler/internal/appointments"
	"github.com/wolfman30/clinic-scheduler/internal/directory"
	"github.com/wolfman30/clinic-scheduler/internal/observability/metrics"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

type fakeBackend struct {
	mu          sync.Mutex
	records     []map[string]any
	listCalls   int
	createCalls int
	updateCalls int
	deleteCalls int
	writeErr    error
	listErr     error

	// listGate, when set, blocks List until it is closed or ctx ends.
	listGate chan struct{}
	// createGate, when set, blocks Create until it is closed.
	createGate    chan struct{}
	createStarted chan struct{}
}

func (f *fakeBackend) List(ctx context.Context, clinicID int64) ([]map[string]any, error) {
	f.mu.Lock()
	f.listCalls++
	gate := f.listGate
	err := f.listErr
	out := make([]map[string]any, len(f.records))
	copy(out, f.records)
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeBackend) Create(ctx context.Context, clinicID int64, p appointments.Payload) (map[string]any, error) {
	f.mu.Lock()
	f.createCalls++
	gate := f.createGate
	started := f.createStarted
	f.createStarted = nil
	err := f.writeErr
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	raw := p.Appointment(int64(len(f.records) + 1)).Raw()
	f.records = append(f.records, raw)
	return raw, nil
}

func (f *fakeBackend) Update(ctx context.Context, clinicID, id int64, p appointments.Payload) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	for i, r := range f.records {
		if appointments.Normalize(r).ID == id {
			f.records[i] = p.Appointment(id).Raw()
			return f.records[i], nil
		}
	}
	return nil, appointments.ErrNotFound
}

func (f *fakeBackend) Delete(ctx context.Context, clinicID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.writeErr != nil {
		return f.writeErr
	}
	for i, r := range f.records {
		if appointments.Normalize(r).ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return appointments.ErrNotFound
}

func (f *fakeBackend) counts() (list, create int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.createCalls
}

type fakeDirectory struct{}

func (fakeDirectory) Professionals(ctx context.Context, clinicID int64) ([]directory.Professional, error) {
	off := false
	return []directory.Professional{
		{ID: 5, Name: "Dra. Lima"},
		{ID: 6, Name: "Dr. Reis"},
		{ID: 7, Name: "Dr. Away", Available: &off},
	}, nil
}

func (fakeDirectory) Services(ctx context.Context, clinicID int64) ([]directory.Service, error) {
	return []directory.Service{{ID: 9, Name: "Consulta", Duration: 30, Price: 150}}, nil
}

func seedRecords() []map[string]any {
	return []map[string]any{
		{"id": 1, "patient_name": "Ana", "professional_id": 5, "date": "2024-01-01", "time": "09:00", "end_time": "09:30", "service_id": 9},
		{"id": 2, "patientName": "Bia", "professionalId": 6, "date": "2024-01-01", "time": "10:00"},
		{"id": 3, "patientName": "Sem data", "professionalId": 5, "time": "11:00"},
	}
}

func fixedNow() time.Time {
	return time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
}

func newTestManager(backend *fakeBackend) (*Manager, *metrics.SchedulingMetrics) {
	m := metrics.NewSchedulingMetrics(prometheus.NewRegistry())
	return NewManager(3, backend, fakeDirectory{}, m, logging.New("error"), Options{Now: fixedNow}), m
}

func validPayload() appointments.Payload {
	return appointments.Payload{
		PatientName:    "Carla",
		ProfessionalID: 5,
		Date:           "2024-01-01",
		Time:           "13:00",
		EndTime:        "13:30",
	}
}
