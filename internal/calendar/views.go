package calendar

import (
	"sort"
	"strconv"
	"time"

	"github.com/wolfman30/clinic-scheduler/internal/appointments"
	"github.com/wolfman30/clinic-scheduler/internal/timegrid"
)

// NewEventInfo is what a click or drag on free space asks the form to prefill.
// Fields the gesture cannot determine are left empty.
type NewEventInfo struct {
	Date           string `json:"date"`
	ProfessionalID *int64 `json:"professionalId,omitempty"`
	Time           string `json:"time,omitempty"`
	EndTime        string `json:"endTime,omitempty"`
}

// ViewInput is everything a view is built from. Views never fetch data.
type ViewInput struct {
	Resources []Resource
	Day       time.Time
	Events    []Event
	Loading   bool
}

// DayCell is one (slot, professional) cell of the day grid.
type DayCell struct {
	ResourceID string        `json:"resourceId"`
	EventIDs   []int64       `json:"eventIds,omitempty"`
	New        *NewEventInfo `json:"new,omitempty"`
}

// DayRow is one time slot across every professional.
type DayRow struct {
	Time  timegrid.Slot `json:"time"`
	Cells []DayCell     `json:"cells"`
}

// DayView lays slots out as rows and professionals as columns.
type DayView struct {
	Date      string     `json:"date"`
	Resources []Resource `json:"resources"`
	Rows      []DayRow   `json:"rows"`
	Events    []Event    `json:"events"`
	Loading   bool       `json:"loading"`
}

// BuildDayView builds the day grid. A free cell's click is a single-slot
// selection ending at the following slot.
func BuildDayView(in ViewInput) DayView {
	day := dateOnly(in.Day)
	date := day.Format(appointments.DateLayout)
	events := eventsOn(in.Events, date)

	view := DayView{
		Date:      date,
		Resources: in.Resources,
		Events:    events,
		Loading:   in.Loading,
	}
	for _, slot := range timegrid.Slots() {
		at := slotTime(day, slot)
		row := DayRow{Time: slot, Cells: make([]DayCell, 0, len(in.Resources))}
		for _, r := range in.Resources {
			cell := DayCell{ResourceID: r.Key()}
			for _, ev := range events {
				if ev.Occupies(cell.ResourceID, at) {
					cell.EventIDs = append(cell.EventIDs, ev.ID)
				}
			}
			if len(cell.EventIDs) == 0 {
				cell.New = &NewEventInfo{
					Date:           date,
					ProfessionalID: int64Ptr(r.ID),
					Time:           slot.String(),
					EndTime:        timegrid.Next(slot).String(),
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

// WeekCell is one (day, hour) cell of the week grid.
type WeekCell struct {
	Date   string        `json:"date"`
	Events []Event       `json:"events,omitempty"`
	New    *NewEventInfo `json:"new,omitempty"`
}

// WeekRow is one hour across the seven days.
type WeekRow struct {
	Hour  int        `json:"hour"`
	Cells []WeekCell `json:"cells"`
}

// WeekView shows one professional's week, Monday first.
type WeekView struct {
	Start        string     `json:"start"`
	Days         []string   `json:"days"`
	Professional *Resource  `json:"professional,omitempty"`
	Resources    []Resource `json:"resources"`
	Rows         []WeekRow  `json:"rows"`
	Loading      bool       `json:"loading"`
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	d := dateOnly(t)
	offset := 1 - int(d.Weekday())
	if d.Weekday() == time.Sunday {
		offset = -6
	}
	return d.AddDate(0, 0, offset)
}

// BuildWeekView builds the week grid for professionalID, defaulting to the
// first resource when it is nil or unknown. Clicks carry no time.
func BuildWeekView(in ViewInput, professionalID *int64) WeekView {
	start := WeekStart(in.Day)
	view := WeekView{
		Start:     start.Format(appointments.DateLayout),
		Resources: in.Resources,
		Loading:   in.Loading,
	}

	var selected *Resource
	for i := range in.Resources {
		if professionalID == nil || in.Resources[i].ID == *professionalID {
			selected = &in.Resources[i]
			break
		}
	}
	if selected == nil && len(in.Resources) > 0 {
		selected = &in.Resources[0]
	}
	view.Professional = selected

	days := make([]string, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i).Format(appointments.DateLayout)
	}
	view.Days = days

	for hour := timegrid.FirstHour; hour <= timegrid.LastHour; hour++ {
		row := WeekRow{Hour: hour, Cells: make([]WeekCell, 0, 7)}
		for _, date := range days {
			cell := WeekCell{Date: date}
			if selected != nil {
				for _, ev := range in.Events {
					if ev.ResourceID == selected.Key() && ev.Date() == date && ev.Start.Hour() == hour {
						cell.Events = append(cell.Events, ev)
					}
				}
			}
			if len(cell.Events) == 0 {
				info := &NewEventInfo{Date: date}
				if selected != nil {
					info.ProfessionalID = int64Ptr(selected.ID)
				}
				cell.New = info
			}
			row.Cells = append(row.Cells, cell)
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

// MonthCell is one day of the month grid with its appointment count.
type MonthCell struct {
	Date    string       `json:"date"`
	Day     int          `json:"day"`
	InMonth bool         `json:"inMonth"`
	Count   int          `json:"count"`
	New     NewEventInfo `json:"new"`
}

// MonthView is a fixed six-week grid.
type MonthView struct {
	Year    int           `json:"year"`
	Month   time.Month    `json:"month"`
	Weeks   [][]MonthCell `json:"weeks"`
	Loading bool          `json:"loading"`
}

// MonthWeeks is the number of rows in the month grid.
const MonthWeeks = 6

// MonthGridStart returns the Monday on or before the first of t's month.
func MonthGridStart(t time.Time) time.Time {
	d := dateOnly(t)
	return WeekStart(time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location()))
}

// BuildMonthView counts events per day over the six-week grid.
func BuildMonthView(in ViewInput) MonthView {
	anchor := dateOnly(in.Day)
	counts := make(map[string]int, len(in.Events))
	for _, ev := range in.Events {
		counts[ev.Date()]++
	}

	view := MonthView{Year: anchor.Year(), Month: anchor.Month(), Loading: in.Loading}
	cursor := MonthGridStart(anchor)
	for w := 0; w < MonthWeeks; w++ {
		week := make([]MonthCell, 7)
		for i := range week {
			date := cursor.Format(appointments.DateLayout)
			week[i] = MonthCell{
				Date:    date,
				Day:     cursor.Day(),
				InMonth: cursor.Month() == anchor.Month(),
				Count:   counts[date],
				New:     NewEventInfo{Date: date},
			}
			cursor = cursor.AddDate(0, 0, 1)
		}
		view.Weeks = append(view.Weeks, week)
	}
	return view
}

func eventsOn(events []Event, date string) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		if ev.Date() == date {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func slotTime(day time.Time, slot timegrid.Slot) time.Time {
	m := slot.Minutes()
	return time.Date(day.Year(), day.Month(), day.Day(), m/60, m%60, 0, 0, day.Location())
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func int64Ptr(v int64) *int64 { return &v }

func parseResourceID(key string) *int64 {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}
