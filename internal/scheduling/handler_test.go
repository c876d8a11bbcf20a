package scheduling

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/clinic-scheduler/internal/clinicapi"
	"github.com/wolfman30/clinic-scheduler/internal/tenancy"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

func withClinic(id int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(tenancy.WithClinicID(r.Context(), id)))
	})
}

func newTestHandler(backend *fakeBackend) http.Handler {
	reg := NewRegistry(func(clinicID int64) *Manager {
		mgr, _ := newTestManager(backend)
		return mgr
	})
	return withClinic(3, NewHandler(reg, time.UTC, logging.New("error")).Routes())
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Calendar(t *testing.T) {
	h := newTestHandler(&fakeBackend{records: seedRecords()})

	rec := doJSON(t, h, http.MethodGet, "/calendar?view=week&date=2024-01-07&professional=6", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		Mode string `json:"mode"`
		Week struct {
			Start        string `json:"start"`
			Professional struct {
				ID int64 `json:"id"`
			} `json:"professional"`
		} `json:"week"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "week", view.Mode)
	assert.Equal(t, "2024-01-01", view.Week.Start)
	assert.Equal(t, int64(6), view.Week.Professional.ID)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodGet, "/calendar?view=year", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodGet, "/calendar?date=01/02/2024", nil).Code)
}

func TestHandler_CalendarNavigation(t *testing.T) {
	h := newTestHandler(&fakeBackend{records: seedRecords()})

	var view struct {
		Anchor string `json:"anchor"`
		Title  string `json:"title"`
		Nav    struct {
			Prev  string `json:"prev"`
			Next  string `json:"next"`
			Today string `json:"today"`
		} `json:"nav"`
	}
	rec := doJSON(t, h, http.MethodGet, "/calendar?view=month&date=2024-01-31&nav=next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "2024-02-29", view.Anchor)
	assert.Equal(t, "February 2024", view.Title)
	assert.Equal(t, "2024-01-29", view.Nav.Prev)
	assert.Equal(t, "2024-03-29", view.Nav.Next)
	assert.Equal(t, "2024-01-01", view.Nav.Today)

	rec = doJSON(t, h, http.MethodGet, "/calendar?view=week&date=2024-03-10&nav=today", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "2024-01-01", view.Anchor)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodGet, "/calendar?nav=forward", nil).Code)
}

func TestHandler_MissingClinic(t *testing.T) {
	built := 0
	reg := NewRegistry(func(clinicID int64) *Manager {
		built++
		mgr, _ := newTestManager(&fakeBackend{})
		return mgr
	})
	h := NewHandler(reg, nil, nil).Routes()

	rec := doJSON(t, h, http.MethodGet, "/calendar", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, built)
}

func TestHandler_SaveErrors(t *testing.T) {
	backend := &fakeBackend{records: seedRecords()}
	h := newTestHandler(backend)

	p := validPayload()
	p.EndTime = p.Time
	rec := doJSON(t, h, http.MethodPost, "/appointments", p)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"endTime"`)
	_, create := backend.counts()
	assert.Zero(t, create)

	backend.mu.Lock()
	backend.writeErr = &clinicapi.StatusError{StatusCode: http.StatusConflict, Message: "slot already booked"}
	backend.mu.Unlock()
	rec = doJSON(t, h, http.MethodPost, "/appointments", validPayload())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "slot already booked")

	backend.mu.Lock()
	backend.writeErr = &clinicapi.NoRouteError{Operation: clinicapi.OpCreate}
	backend.mu.Unlock()
	rec = doJSON(t, h, http.MethodPost, "/appointments", validPayload())
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "no matching route found")

	rec = doJSON(t, h, http.MethodPut, "/appointments/abc", validPayload())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_CreateUpdateDelete(t *testing.T) {
	h := newTestHandler(&fakeBackend{records: seedRecords()})

	rec := doJSON(t, h, http.MethodPost, "/appointments", validPayload())
	require.Equal(t, http.StatusCreated, rec.Code)
	var res struct {
		Saved    bool `json:"saved"`
		Snapshot struct {
			Appointments []map[string]any `json:"appointments"`
		} `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Saved)
	assert.Len(t, res.Snapshot.Appointments, 4)

	rec = doJSON(t, h, http.MethodPut, "/appointments/1", validPayload())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/appointments/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/calendar/form", FormRequest{EventID: int64Ptr(1)})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_SaveReportsSuccessWhenReloadFails(t *testing.T) {
	backend := &fakeBackend{records: seedRecords()}
	h := newTestHandler(backend)
	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodGet, "/calendar?view=day&date=2024-01-01", nil).Code)

	backend.mu.Lock()
	backend.listErr = errors.New("upstream list timed out")
	backend.mu.Unlock()

	rec := doJSON(t, h, http.MethodPost, "/appointments", validPayload())
	require.Equal(t, http.StatusCreated, rec.Code)
	var res struct {
		Saved       bool   `json:"saved"`
		Stale       bool   `json:"stale"`
		ReloadError string `json:"reloadError"`
		Snapshot    struct {
			Appointments []map[string]any `json:"appointments"`
		} `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Saved)
	assert.True(t, res.Stale)
	assert.Contains(t, res.ReloadError, "upstream list timed out")
	assert.Len(t, res.Snapshot.Appointments, 3)

	_, create := backend.counts()
	assert.Equal(t, 1, create)

	rec = doJSON(t, h, http.MethodDelete, "/appointments/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stale":true`)
}

func TestHandler_OpenFormAndTimeSlots(t *testing.T) {
	h := newTestHandler(&fakeBackend{records: seedRecords()})

	rec := doJSON(t, h, http.MethodPost, "/calendar/form", map[string]any{"date": "2024-01-05", "professionalId": 5, "time": "10:00"})
	require.Equal(t, http.StatusOK, rec.Code)
	var form Form
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &form))
	assert.Equal(t, "10:15", form.Payload.EndTime)
	assert.Equal(t, int64(5), form.Payload.ProfessionalID)

	rec = doJSON(t, h, http.MethodGet, "/timeslots?after=21:30", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"slots":["21:45","22:00"]}`, rec.Body.String())
}

func TestHandler_DragWebSocket(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(&fakeBackend{}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/calendar/drag?date=2024-01-01"
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	require.NoError(t, err)
	defer conn.Close()

	var out DragOutbound
	require.NoError(t, websocket.JSON.Receive(conn, &out))
	assert.Equal(t, "session", out.Type)
	assert.NotEmpty(t, out.SessionID)

	send := func(msg DragInbound) {
		require.NoError(t, websocket.JSON.Send(conn, msg))
	}
	send(DragInbound{Type: "down", ResourceID: "5", Time: "09:00"})
	require.NoError(t, websocket.JSON.Receive(conn, &out))
	assert.Equal(t, "selection", out.Type)
	assert.Equal(t, "09:00", out.To)

	send(DragInbound{Type: "enter", ResourceID: "5", Time: "09:30"})
	require.NoError(t, websocket.JSON.Receive(conn, &out))
	assert.Equal(t, "09:30", out.To)

	send(DragInbound{Type: "enter", ResourceID: "6", Time: "10:00"})
	send(DragInbound{Type: "up"})
	out = DragOutbound{}
	require.NoError(t, websocket.JSON.Receive(conn, &out))
	assert.Equal(t, "new_event", out.Type)
	require.NotNil(t, out.Event)
	assert.Equal(t, "2024-01-01", out.Event.Date)
	require.NotNil(t, out.Event.ProfessionalID)
	assert.Equal(t, int64(5), *out.Event.ProfessionalID)
	assert.Equal(t, "09:00", out.Event.Time)
	assert.Equal(t, "09:45", out.Event.EndTime)
}

func int64Ptr(v int64) *int64 { return &v }
