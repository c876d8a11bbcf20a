package scheduling

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-scheduler/internal/appointments"
	"github.com/wolfman30/clinic-scheduler/internal/calendar"
	"github.com/wolfman30/clinic-scheduler/internal/clinicapi"
	"github.com/wolfman30/clinic-scheduler/internal/tenancy"
	"github.com/wolfman30/clinic-scheduler/internal/timegrid"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// StatusClientClosedRequest is reported when the caller went away mid-load.
const StatusClientClosedRequest = 499

// Handler exposes the calendar manager over HTTP. The clinic comes from the
// request context (see tenancy.WithClinicID).
type Handler struct {
	registry *Registry
	location *time.Location
	logger   *logging.Logger
}

// NewHandler builds the calendar handler.
func NewHandler(registry *Registry, location *time.Location, logger *logging.Logger) *Handler {
	if registry == nil {
		panic("scheduling: registry required")
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{registry: registry, location: location, logger: logger}
}

// Routes returns a router serving the calendar endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

// Register adds the calendar endpoints to r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/calendar", h.Calendar)
	r.Post("/calendar/form", h.OpenForm)
	r.Get("/calendar/drag", h.Drag)
	r.Get("/timeslots", h.TimeSlots)
	r.Post("/appointments", h.Create)
	r.Put("/appointments/{appointmentID}", h.Update)
	r.Delete("/appointments/{appointmentID}", h.Delete)
}

func (h *Handler) manager(w http.ResponseWriter, r *http.Request) (*Manager, bool) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusBadRequest, "missing clinic id")
		return nil, false
	}
	return h.registry.Get(clinicID), true
}

// Calendar renders ?view=day|week|month&date=YYYY-MM-DD&nav=prev|next|today&professional=<id>&refresh=1.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	mode, err := calendar.ParseMode(q.Get("view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "view must be day, week or month")
		return
	}
	nav, err := calendar.ParseNav(q.Get("nav"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "nav must be prev, next or today")
		return
	}
	req := CalendarRequest{Mode: mode, Nav: nav, Refresh: q.Get("refresh") == "1" || strings.EqualFold(q.Get("refresh"), "true")}
	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		anchor, err := time.ParseInLocation(appointments.DateLayout, raw, h.location)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		req.Anchor = anchor
	}
	if raw := strings.TrimSpace(q.Get("professional")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "professional must be numeric")
			return
		}
		req.Professional = &id
	}

	view, err := m.Calendar(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// OpenForm returns the prefilled appointment form.
func (h *Handler) OpenForm(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r)
	if !ok {
		return
	}
	var req FormRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	form, err := m.OpenForm(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// TimeSlots lists the grid, or with ?after=HH:MM the valid end times.
func (h *Handler) TimeSlots(w http.ResponseWriter, r *http.Request) {
	after := strings.TrimSpace(r.URL.Query().Get("after"))
	if after == "" {
		writeJSON(w, http.StatusOK, map[string]any{"slots": timegrid.Slots()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": timegrid.EndOptions(timegrid.Coerce(after))})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, nil)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := appointmentParam(w, r)
	if !ok {
		return
	}
	h.save(w, r, &id)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, id *int64) {
	m, ok := h.manager(w, r)
	if !ok {
		return
	}
	var p appointments.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := m.Save(r.Context(), id, p)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if id == nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r)
	if !ok {
		return
	}
	id, ok := appointmentParam(w, r)
	if !ok {
		return
	}
	res, err := m.Delete(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var verr *appointments.ValidationError
	var serr *clinicapi.StatusError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": verr.Err.Error(), "field": verr.Field})
	case errors.Is(err, ErrSaveInProgress):
		writeError(w, http.StatusConflict, "a save is already in progress")
	case errors.Is(err, clinicapi.ErrNoRoute):
		writeError(w, http.StatusBadGateway, "no matching route found")
	case errors.As(err, &serr):
		writeError(w, serr.StatusCode, serr.Message)
	case errors.Is(err, appointments.ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment not found")
	case IsAborted(err):
		w.WriteHeader(StatusClientClosedRequest)
	default:
		h.logger.Error("calendar request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func appointmentParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "appointmentID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
