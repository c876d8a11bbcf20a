// Package scheduling orchestrates the clinic calendar: it loads appointments
// and the directory, renders calendar views, prefills the appointment form
// and persists changes through the clinic backend.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/clinic-scheduler/internal/appointments"
	"github.com/wolfman30/clinic-scheduler/internal/calendar"
	"github.com/wolfman30/clinic-scheduler/internal/directory"
	"github.com/wolfman30/clinic-scheduler/internal/observability/metrics"
	"github.com/wolfman30/clinic-scheduler/internal/timegrid"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

var managerTracer = otel.Tracer("clinic-scheduler.internal.scheduling.manager")

// ErrSaveInProgress is returned when a write is attempted while another
// write for the same clinic is still in flight.
var ErrSaveInProgress = errors.New("scheduling: save already in progress")

// IsAborted reports whether err comes from a cancelled load. Aborted loads
// are not failures and must not be shown to the user.
func IsAborted(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Backend is the appointments contract the manager writes through.
type Backend interface {
	List(ctx context.Context, clinicID int64) ([]map[string]any, error)
	Create(ctx context.Context, clinicID int64, p appointments.Payload) (map[string]any, error)
	Update(ctx context.Context, clinicID, id int64, p appointments.Payload) (map[string]any, error)
	Delete(ctx context.Context, clinicID, id int64) error
}

// Options tune how a manager maps and renders appointments.
type Options struct {
	Location  *time.Location
	EndPolicy calendar.EndPolicy
	Now       func() time.Time
}

// Snapshot is one complete load. It is never modified after creation.
type Snapshot struct {
	Appointments []appointments.Appointment `json:"appointments"`
	Events       []calendar.Event           `json:"events"`
	Excluded     []calendar.Exclusion       `json:"excluded,omitempty"`
	Resources    []calendar.Resource        `json:"resources"`
	Services     []directory.Service        `json:"services"`
	LoadedAt     time.Time                  `json:"loadedAt"`
}

// WriteResult is the outcome of a write the backend accepted. When the
// reload that follows fails, Stale is set and Snapshot is the last completed
// load, which does not yet show the write.
type WriteResult struct {
	Saved       bool           `json:"saved"`
	Record      map[string]any `json:"record,omitempty"`
	Snapshot    *Snapshot      `json:"snapshot,omitempty"`
	Stale       bool           `json:"stale"`
	ReloadError string         `json:"reloadError,omitempty"`

	ReloadErr error `json:"-"`
}

// FindAppointment returns the appointment with the given id.
func (s *Snapshot) FindAppointment(id int64) (appointments.Appointment, bool) {
	if s == nil {
		return appointments.Appointment{}, false
	}
	for _, a := range s.Appointments {
		if a.ID == id {
			return a, true
		}
	}
	return appointments.Appointment{}, false
}

// Manager owns one clinic's calendar state.
type Manager struct {
	clinicID  int64
	backend   Backend
	directory directory.Source
	metrics   *metrics.SchedulingMetrics
	logger    *logging.Logger
	opts      Options

	mu         sync.Mutex
	snapshot   *Snapshot
	loading    bool
	loadSeq    uint64
	cancelLoad context.CancelFunc

	saving atomic.Bool
}

// NewManager builds a manager for clinicID.
func NewManager(clinicID int64, backend Backend, dir directory.Source, m *metrics.SchedulingMetrics, logger *logging.Logger, opts Options) *Manager {
	if backend == nil || dir == nil {
		panic("scheduling: backend and directory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		clinicID:  clinicID,
		backend:   backend,
		directory: dir,
		metrics:   m,
		logger:    logger.WithClinic(clinicID),
		opts:      opts,
	}
}

// ClinicID returns the clinic this manager serves.
func (m *Manager) ClinicID() int64 { return m.clinicID }

// Snapshot returns the last completed load (nil before the first) and
// whether a load is in flight.
func (m *Manager) Snapshot() (*Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot, m.loading
}

// Load fetches the directory and appointments and replaces the snapshot.
// Starting a load cancels the one in flight; the cancelled load returns an
// error for which IsAborted is true and leaves the snapshot untouched.
func (m *Manager) Load(ctx context.Context) (*Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	if m.cancelLoad != nil {
		m.cancelLoad()
	}
	m.loadSeq++
	seq := m.loadSeq
	m.cancelLoad = cancel
	m.loading = true
	m.mu.Unlock()

	snap, err := m.fetch(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if seq != m.loadSeq {
		// superseded by a newer load
		if err == nil {
			err = fmt.Errorf("scheduling: load superseded: %w", context.Canceled)
		}
		return nil, err
	}
	m.loading = false
	m.cancelLoad = nil
	if err != nil {
		if !IsAborted(err) {
			m.logger.Error("calendar load failed", "error", err)
		}
		return nil, err
	}
	m.snapshot = snap
	return snap, nil
}

func (m *Manager) fetch(ctx context.Context) (*Snapshot, error) {
	ctx, span := managerTracer.Start(ctx, "scheduling.manager.load")
	defer span.End()
	span.SetAttributes(attribute.Int64("clinic_id", m.clinicID))

	professionals, err := m.directory.Professionals(ctx, m.clinicID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("scheduling: load professionals: %w", err)
	}
	services, err := m.directory.Services(ctx, m.clinicID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("scheduling: load services: %w", err)
	}
	raw, err := m.backend.List(ctx, m.clinicID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("scheduling: load appointments: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scheduling: load: %w", err)
	}

	appts := appointments.NormalizeAll(raw)
	resources := calendar.Resources(professionals)
	events, excluded := calendar.MapEvents(appts, calendar.MappingContext{
		Services:  services,
		Resources: resources,
		Location:  m.opts.Location,
		EndPolicy: m.opts.EndPolicy,
	})
	for _, ex := range excluded {
		m.metrics.ObserveExcluded(string(ex.Reason))
		m.logger.Warn("appointment excluded from calendar", "appointment_id", ex.Appointment.ID, "reason", ex.Reason)
	}
	span.SetAttributes(attribute.Int("appointments", len(appts)), attribute.Int("excluded", len(excluded)))

	return &Snapshot{
		Appointments: appts,
		Events:       events,
		Excluded:     excluded,
		Resources:    resources,
		Services:     services,
		LoadedAt:     m.opts.Now().UTC(),
	}, nil
}

func (m *Manager) current(ctx context.Context, refresh bool) (*Snapshot, bool, error) {
	snap, loading := m.Snapshot()
	if snap != nil && !refresh {
		return snap, loading, nil
	}
	if refresh {
		m.invalidateDirectory(ctx)
	}
	snap, err := m.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	return snap, false, nil
}

// invalidateDirectory drops cached professionals and services so a refresh
// sees directory changes too. A failure only means the cache may serve stale
// entries until its TTL.
func (m *Manager) invalidateDirectory(ctx context.Context) {
	inv, ok := m.directory.(directory.Invalidator)
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx, m.clinicID); err != nil {
		m.logger.Warn("directory cache invalidation failed", "error", err)
	}
}

// CalendarRequest selects what Calendar renders.
type CalendarRequest struct {
	Mode         calendar.Mode
	Anchor       time.Time
	Nav          calendar.Nav
	Professional *int64
	Refresh      bool
}

// Calendar renders the requested view, loading first when nothing is loaded
// yet or a refresh is asked for. A zero anchor means today; Nav moves the
// anchor one step before rendering.
func (m *Manager) Calendar(ctx context.Context, req CalendarRequest) (calendar.View, error) {
	snap, loading, err := m.current(ctx, req.Refresh)
	if err != nil {
		return calendar.View{}, err
	}
	anchor := req.Anchor
	if anchor.IsZero() {
		anchor = m.opts.Now().In(m.opts.Location)
	}
	anchor = time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, m.opts.Location)

	shell := calendar.NewShell(req.Mode, anchor, m.opts.Now)
	shell.WeekProfessional = req.Professional
	shell.Navigate(req.Nav)
	return shell.Render(calendar.ViewInput{
		Resources: snap.Resources,
		Events:    snap.Events,
		Loading:   loading,
	}), nil
}

// FormRequest opens the appointment form, either for an existing
// appointment (EventID) or for a new one prefilled from a calendar gesture.
type FormRequest struct {
	EventID *int64 `json:"eventId,omitempty"`
	calendar.NewEventInfo
}

// Form is the prefilled appointment form.
type Form struct {
	AppointmentID *int64               `json:"appointmentId,omitempty"`
	Payload       appointments.Payload `json:"payload"`
	TimeOptions   []timegrid.Slot      `json:"timeOptions"`
	EndOptions    []timegrid.Slot      `json:"endOptions"`
	Professionals []calendar.Resource  `json:"professionals"`
	Services      []directory.Service  `json:"services"`
}

// OpenForm prefills the form. Times off the grid fall back to the first
// slot; a missing or invalid end time becomes the slot after the start.
func (m *Manager) OpenForm(ctx context.Context, req FormRequest) (Form, error) {
	snap, _, err := m.current(ctx, false)
	if err != nil {
		return Form{}, err
	}

	form := Form{Professionals: snap.Resources, Services: snap.Services, TimeOptions: timegrid.Slots()}
	if req.EventID != nil {
		appt, ok := snap.FindAppointment(*req.EventID)
		if !ok {
			return Form{}, appointments.ErrNotFound
		}
		id := appt.ID
		form.AppointmentID = &id
		form.Payload = appointments.PayloadFrom(appt)
	} else {
		form.Payload = appointments.Payload{
			Date:   strings.TrimSpace(req.Date),
			Time:   req.Time,
			Status: appointments.StatusPending,
		}
		if req.ProfessionalID != nil {
			form.Payload.ProfessionalID = *req.ProfessionalID
		}
		form.Payload.EndTime = req.EndTime
	}
	if form.Payload.Date == "" {
		form.Payload.Date = m.opts.Now().In(m.opts.Location).Format(appointments.DateLayout)
	}

	start := timegrid.Coerce(form.Payload.Time)
	form.Payload.Time = start.String()
	end := timegrid.Slot(strings.TrimSpace(form.Payload.EndTime))
	if !timegrid.IsValid(end) || !start.Before(end) {
		end = timegrid.Next(start)
	}
	form.Payload.EndTime = end.String()
	form.EndOptions = timegrid.EndOptions(start)
	return form, nil
}

// Save creates (id nil) or updates an appointment, then reloads. Validation
// failures return before any request is made. Only one write per clinic may
// be in flight. A returned error means nothing was written; a failed reload
// after an accepted write is reported in the result instead.
func (m *Manager) Save(ctx context.Context, id *int64, p appointments.Payload) (*WriteResult, error) {
	op := "create"
	if id != nil {
		op = "update"
	}
	if !m.saving.CompareAndSwap(false, true) {
		m.metrics.ObserveSave(op, "busy")
		return nil, ErrSaveInProgress
	}
	defer m.saving.Store(false)

	p.Clean()
	if err := p.Validate(); err != nil {
		m.metrics.ObserveSave(op, "invalid")
		return nil, err
	}

	ctx, span := managerTracer.Start(ctx, "scheduling.manager.save")
	defer span.End()
	span.SetAttributes(attribute.String("operation", op), attribute.Int64("clinic_id", m.clinicID))

	var (
		record map[string]any
		err    error
	)
	if id == nil {
		record, err = m.backend.Create(ctx, m.clinicID, p)
	} else {
		record, err = m.backend.Update(ctx, m.clinicID, *id, p)
	}
	if err != nil {
		span.RecordError(err)
		m.metrics.ObserveSave(op, "error")
		m.logger.Warn("appointment save failed", "operation", op, "error", err)
		return nil, err
	}
	m.metrics.ObserveSave(op, "ok")
	return m.reload(ctx, op, record), nil
}

// Delete removes an appointment, then reloads. It shares the write guard
// with Save.
func (m *Manager) Delete(ctx context.Context, id int64) (*WriteResult, error) {
	if !m.saving.CompareAndSwap(false, true) {
		m.metrics.ObserveSave("delete", "busy")
		return nil, ErrSaveInProgress
	}
	defer m.saving.Store(false)

	ctx, span := managerTracer.Start(ctx, "scheduling.manager.delete")
	defer span.End()

	if err := m.backend.Delete(ctx, m.clinicID, id); err != nil {
		span.RecordError(err)
		m.metrics.ObserveSave("delete", "error")
		m.logger.Warn("appointment delete failed", "appointment_id", id, "error", err)
		return nil, err
	}
	m.metrics.ObserveSave("delete", "ok")
	return m.reload(ctx, "delete", nil), nil
}

func (m *Manager) reload(ctx context.Context, op string, record map[string]any) *WriteResult {
	res := &WriteResult{Saved: true, Record: record}
	snap, err := m.Load(ctx)
	if err != nil {
		m.logger.Warn("reload after write failed", "operation", op, "error", err)
		res.Stale = true
		res.ReloadErr = err
		res.ReloadError = err.Error()
		res.Snapshot, _ = m.Snapshot()
		return res
	}
	res.Snapshot = snap
	return res
}
