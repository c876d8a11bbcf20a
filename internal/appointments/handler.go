package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinic-scheduler/internal/tenancy"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// Handler serves the canonical clinic-scoped appointments API.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new appointments API handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if repo == nil {
		panic("appointments: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Routes returns the router mounted at /api/clinics/{clinicID}/appointments.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{appointmentID}", h.Update)
	r.Delete("/{appointmentID}", h.Delete)
	return r
}

// List handles GET /api/clinics/{clinicID}/appointments
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := clinicParam(w, r)
	if !ok {
		return
	}
	list, err := h.repo.List(r.Context(), clinicID)
	if err != nil {
		h.logger.Error("failed to list appointments", "clinic_id", clinicID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	if list == nil {
		list = []Appointment{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Create handles POST /api/clinics/{clinicID}/appointments
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := clinicParam(w, r)
	if !ok {
		return
	}
	p, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	created, err := h.repo.Create(r.Context(), clinicID, p)
	if err != nil {
		h.logger.Error("failed to create appointment", "clinic_id", clinicID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create appointment")
		return
	}
	h.logger.Info("appointment created", "clinic_id", clinicID, "appointment_id", created.ID)
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/clinics/{clinicID}/appointments/{appointmentID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := clinicParam(w, r)
	if !ok {
		return
	}
	id, ok := appointmentParam(w, r)
	if !ok {
		return
	}
	p, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	updated, err := h.repo.Update(r.Context(), clinicID, id, p)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to update appointment", "clinic_id", clinicID, "appointment_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update appointment")
		return
	}
	h.logger.Info("appointment updated", "clinic_id", clinicID, "appointment_id", id)
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/clinics/{clinicID}/appointments/{appointmentID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := clinicParam(w, r)
	if !ok {
		return
	}
	id, ok := appointmentParam(w, r)
	if !ok {
		return
	}
	err := h.repo.Delete(r.Context(), clinicID, id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to delete appointment", "clinic_id", clinicID, "appointment_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete appointment")
		return
	}
	h.logger.Info("appointment deleted", "clinic_id", clinicID, "appointment_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request) (Payload, bool) {
	var p Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return p, false
	}
	p.Clean()
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return p, false
	}
	return p, true
}

func clinicParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	clinicID, err := tenancy.ParseClinicID(chi.URLParam(r, "clinicID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "clinic_id required")
		return 0, false
	}
	return clinicID, true
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
