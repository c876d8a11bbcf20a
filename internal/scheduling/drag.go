package scheduling

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/clinic-scheduler/internal/appointments"
	"github.com/wolfman30/clinic-scheduler/internal/calendar"
	"github.com/wolfman30/clinic-scheduler/internal/tenancy"
	"github.com/wolfman30/clinic-scheduler/internal/timegrid"
)

// DragInbound is a pointer event from the day grid.
type DragInbound struct {
	Type       string `json:"type"` // "down", "enter", "up", "leave"
	ResourceID string `json:"resourceId,omitempty"`
	Time       string `json:"time,omitempty"`
}

// DragOutbound is sent back after each pointer event that changes something.
type DragOutbound struct {
	Type       string                 `json:"type"` // "session", "selection", "new_event", "idle", "error"
	SessionID  string                 `json:"sessionId,omitempty"`
	ResourceID string                 `json:"resourceId,omitempty"`
	From       string                 `json:"from,omitempty"`
	To         string                 `json:"to,omitempty"`
	Event      *calendar.NewEventInfo `json:"event,omitempty"`
	Text       string                 `json:"text,omitempty"`
}

// Drag upgrades to a WebSocket driving a drag controller for ?date=YYYY-MM-DD.
// Each connection owns its own controller.
func (h *Handler) Drag(w http.ResponseWriter, r *http.Request) {
	if _, ok := tenancy.ClinicIDFromContext(r.Context()); !ok {
		writeError(w, http.StatusBadRequest, "missing clinic id")
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		date = time.Now().In(h.location).Format(appointments.DateLayout)
	}
	if _, err := time.Parse(appointments.DateLayout, date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveDrag(conn, date)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveDrag(conn *websocket.Conn, date string) {
	sessionID := uuid.NewString()
	ctrl := calendar.NewDragController(date)
	_ = websocket.JSON.Send(conn, DragOutbound{Type: "session", SessionID: sessionID})
	h.logger.Debug("drag session opened", "session_id", sessionID, "date", date)

	for {
		var msg DragInbound
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("drag session closed", "session_id", sessionID, "error", err)
			return
		}
		out, ok := applyDrag(ctrl, msg)
		if !ok {
			continue
		}
		if err := websocket.JSON.Send(conn, out); err != nil {
			return
		}
	}
}

// applyDrag feeds one pointer event to the controller. ok is false when the
// event changed nothing worth reporting.
func applyDrag(ctrl *calendar.DragController, msg DragInbound) (DragOutbound, bool) {
	slot := timegrid.Slot(strings.TrimSpace(msg.Time))
	switch msg.Type {
	case "down":
		if !ctrl.PointerDown(msg.ResourceID, slot) {
			return DragOutbound{Type: "error", Text: "invalid cell"}, true
		}
		return selection(ctrl), true
	case "enter":
		if !ctrl.PointerEnter(msg.ResourceID, slot) {
			return DragOutbound{}, false
		}
		return selection(ctrl), true
	case "up":
		info, ok := ctrl.PointerUp()
		if !ok {
			return DragOutbound{}, false
		}
		return DragOutbound{Type: "new_event", Event: &info}, true
	case "leave":
		if ctrl.State() != calendar.DragSelecting {
			return DragOutbound{}, false
		}
		ctrl.PointerLeave()
		return DragOutbound{Type: "idle"}, true
	default:
		return DragOutbound{Type: "error", Text: "unknown event type"}, true
	}
}

func selection(ctrl *calendar.DragController) DragOutbound {
	resourceID, from, to, _ := ctrl.Selection()
	return DragOutbound{Type: "selection", ResourceID: resourceID, From: from.String(), To: to.String()}
}
