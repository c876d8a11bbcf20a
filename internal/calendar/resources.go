// Package calendar turns appointments into calendar events and builds the
// day, week and month view models the front desk renders.
package calendar

import (
	"strconv"

	"github.com/wolfman30/clinic-scheduler/internal/appointments"
	"github.com/wolfman30/clinic-scheduler/internal/directory"
)

var palette = []string{
	"#3b82f6",
	"#10b981",
	"#f59e0b",
	"#8b5cf6",
	"#ef4444",
	"#14b8a6",
	"#ec4899",
	"#6366f1",
}

var statusColors = map[appointments.Status]string{
	appointments.StatusPending:   "#f59e0b",
	appointments.StatusConfirmed: "#3b82f6",
	appointments.StatusCompleted: "#10b981",
	appointments.StatusCancelled: "#9ca3af",
}

// Resource is a calendar column: a professional with a display color.
type Resource struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Key is the string identity used to match events to resources.
func (r Resource) Key() string {
	return strconv.FormatInt(r.ID, 10)
}

// Resources drops professionals marked unavailable and assigns palette colors
// by position, cycling when there are more professionals than colors.
func Resources(professionals []directory.Professional) []Resource {
	out := make([]Resource, 0, len(professionals))
	for _, p := range professionals {
		if !p.IsAvailable() {
			continue
		}
		out = append(out, Resource{
			ID:    p.ID,
			Name:  p.Name,
			Color: palette[len(out)%len(palette)],
		})
	}
	return out
}

// FindResource looks a resource up by its key.
func FindResource(resources []Resource, key string) (Resource, bool) {
	for _, r := range resources {
		if r.Key() == key {
			return r, true
		}
	}
	return Resource{}, false
}

// StatusColor is the fallback event color when the professional has no column.
func StatusColor(s appointments.Status) string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return statusColors[appointments.StatusPending]
}
