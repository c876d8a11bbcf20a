package calendar

import (
	"github.com/wolfman30/clinic-scheduler/internal/timegrid"
)

// DragState is the drag controller's state.
type DragState int

const (
	DragIdle DragState = iota
	DragSelecting
)

func (s DragState) String() string {
	if s == DragSelecting {
		return "selecting"
	}
	return "idle"
}

// DragController turns pointer gestures over the day grid into a time range
// for a single professional. It is not safe for concurrent use.
type DragController struct {
	date       string
	state      DragState
	resourceID string
	start      int
	end        int
}

// NewDragController tracks drags on the day grid for date (YYYY-MM-DD).
func NewDragController(date string) *DragController {
	return &DragController{date: date}
}

// State returns the current state.
func (d *DragController) State() DragState { return d.state }

// PointerDown starts a selection at slot in the resource's column. Slots off
// the grid are ignored.
func (d *DragController) PointerDown(resourceID string, slot timegrid.Slot) bool {
	idx := timegrid.Index(slot)
	if idx < 0 || resourceID == "" {
		return false
	}
	d.state = DragSelecting
	d.resourceID = resourceID
	d.start = idx
	d.end = idx
	return true
}

// PointerEnter extends the selection. Cells of another resource are ignored.
func (d *DragController) PointerEnter(resourceID string, slot timegrid.Slot) bool {
	if d.state != DragSelecting || resourceID != d.resourceID {
		return false
	}
	idx := timegrid.Index(slot)
	if idx < 0 {
		return false
	}
	d.end = idx
	return true
}

// PointerUp finishes the selection. The end time is exclusive: one slot past
// the last highlighted cell, clamped to the last slot.
func (d *DragController) PointerUp() (NewEventInfo, bool) {
	if d.state != DragSelecting {
		return NewEventInfo{}, false
	}
	lo, hi := d.bounds()
	resourceID := d.resourceID
	d.reset()

	from, _ := timegrid.At(lo)
	to, ok := timegrid.At(hi + 1)
	if !ok {
		to, _ = timegrid.At(hi)
	}
	return NewEventInfo{
		Date:           d.date,
		ProfessionalID: parseResourceID(resourceID),
		Time:           from.String(),
		EndTime:        to.String(),
	}, true
}

// PointerLeave cancels an in-progress selection without emitting anything.
func (d *DragController) PointerLeave() {
	d.reset()
}

// Selection returns the highlighted range, both ends inclusive.
func (d *DragController) Selection() (resourceID string, from, to timegrid.Slot, ok bool) {
	if d.state != DragSelecting {
		return "", "", "", false
	}
	lo, hi := d.bounds()
	from, _ = timegrid.At(lo)
	to, _ = timegrid.At(hi)
	return d.resourceID, from, to, true
}

func (d *DragController) bounds() (int, int) {
	if d.start <= d.end {
		return d.start, d.end
	}
	return d.end, d.start
}

func (d *DragController) reset() {
	d.state = DragIdle
	d.resourceID = ""
	d.start, d.end = 0, 0
}
