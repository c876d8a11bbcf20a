package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/clinic-scheduler/internal/appointments"
)

// Mode is the active calendar view.
type Mode string

const (
	ModeDay   Mode = "day"
	ModeWeek  Mode = "week"
	ModeMonth Mode = "month"
)

// ParseMode reads a view mode, defaulting to day when raw is blank.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeDay:
		return ModeDay, nil
	case ModeWeek:
		return ModeWeek, nil
	case ModeMonth:
		return ModeMonth, nil
	}
	return ModeDay, fmt.Errorf("calendar: unknown view %q", raw)
}

// Nav is a navigation control of the shell header.
type Nav string

const (
	NavNone  Nav = ""
	NavPrev  Nav = "prev"
	NavNext  Nav = "next"
	NavToday Nav = "today"
)

// ParseNav reads a navigation control. Blank means no navigation.
func ParseNav(raw string) (Nav, error) {
	switch n := Nav(strings.ToLower(strings.TrimSpace(raw))); n {
	case NavNone, NavPrev, NavNext, NavToday:
		return n, nil
	}
	return NavNone, fmt.Errorf("calendar: unknown navigation %q", raw)
}

// Shell owns the view mode, the anchor date and the week view's professional.
type Shell struct {
	Mode             Mode
	Anchor           time.Time
	WeekProfessional *int64

	now func() time.Time
}

// NewShell anchors a shell at the given date. A nil clock uses time.Now.
func NewShell(mode Mode, anchor time.Time, now func() time.Time) *Shell {
	if now == nil {
		now = time.Now
	}
	return &Shell{Mode: mode, Anchor: dateOnly(anchor), now: now}
}

// Next moves the anchor forward one view step.
func (s *Shell) Next() { s.step(1) }

// Prev moves the anchor back one view step.
func (s *Shell) Prev() { s.step(-1) }

// Today moves the anchor to the current date in the anchor's location.
func (s *Shell) Today() {
	loc := s.Anchor.Location()
	s.Anchor = dateOnly(s.now().In(loc))
}

// Navigate applies one navigation control.
func (s *Shell) Navigate(n Nav) {
	switch n {
	case NavPrev:
		s.Prev()
	case NavNext:
		s.Next()
	case NavToday:
		s.Today()
	}
}

// Navigation returns the anchors the prev, next and today controls lead to,
// without moving the shell.
func (s *Shell) Navigation() Navigation {
	prev, next, today := *s, *s, *s
	prev.Prev()
	next.Next()
	today.Today()
	return Navigation{
		Prev:  prev.Anchor.Format(appointments.DateLayout),
		Next:  next.Anchor.Format(appointments.DateLayout),
		Today: today.Anchor.Format(appointments.DateLayout),
	}
}

// Navigation holds the target anchor (YYYY-MM-DD) of each header control.
type Navigation struct {
	Prev  string `json:"prev"`
	Next  string `json:"next"`
	Today string `json:"today"`
}

func (s *Shell) step(dir int) {
	switch s.Mode {
	case ModeWeek:
		s.Anchor = s.Anchor.AddDate(0, 0, 7*dir)
	case ModeMonth:
		s.Anchor = AddMonthsClamped(s.Anchor, dir)
	default:
		s.Anchor = s.Anchor.AddDate(0, 0, dir)
	}
}

// AddMonthsClamped adds n months keeping the day of month, clamped to the
// last day of the target month (Jan 31 + 1 month is Feb 28 or 29).
func AddMonthsClamped(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// Range is the half-open date window the active view shows.
func (s *Shell) Range() (from, to time.Time) {
	switch s.Mode {
	case ModeWeek:
		from = WeekStart(s.Anchor)
		return from, from.AddDate(0, 0, 7)
	case ModeMonth:
		from = MonthGridStart(s.Anchor)
		return from, from.AddDate(0, 0, 7*MonthWeeks)
	default:
		from = dateOnly(s.Anchor)
		return from, from.AddDate(0, 0, 1)
	}
}

// Title is the header shown above the active view.
func (s *Shell) Title() string {
	switch s.Mode {
	case ModeWeek:
		from, to := s.Range()
		last := to.AddDate(0, 0, -1)
		return fmt.Sprintf("%s - %s", from.Format("02 Jan"), last.Format("02 Jan 2006"))
	case ModeMonth:
		return s.Anchor.Format("January 2006")
	default:
		return s.Anchor.Format("Monday, 02 January 2006")
	}
}

// View is the rendered output of the shell's active view. Exactly one of
// Day, Week and Month is set.
type View struct {
	Mode   Mode       `json:"mode"`
	Anchor string     `json:"anchor"`
	Title  string     `json:"title"`
	Nav    Navigation `json:"nav"`
	Day    *DayView   `json:"day,omitempty"`
	Week   *WeekView  `json:"week,omitempty"`
	Month  *MonthView `json:"month,omitempty"`
}

// Render delegates to the active view. in.Day is replaced by the anchor.
func (s *Shell) Render(in ViewInput) View {
	in.Day = s.Anchor
	v := View{Mode: s.Mode, Anchor: s.Anchor.Format(appointments.DateLayout), Title: s.Title(), Nav: s.Navigation()}
	switch s.Mode {
	case ModeWeek:
		wv := BuildWeekView(in, s.WeekProfessional)
		v.Week = &wv
	case ModeMonth:
		mv := BuildMonthView(in)
		v.Month = &mv
	default:
		dv := BuildDayView(in)
		v.Day = &dv
	}
	return v
}
