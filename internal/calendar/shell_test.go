package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/clinic-scheduler/internal/appointments"
)

func fixedClock(s string) func() time.Time {
	ts, _ := time.Parse(time.RFC3339, s)
	return func() time.Time { return ts }
}

func anchorOf(s *Shell) string { return s.Anchor.Format(appointments.DateLayout) }

func TestShell_Navigation(t *testing.T) {
	s := NewShell(ModeDay, day(t, "2024-01-31"), fixedClock("2024-06-10T15:00:00Z"))

	s.Next()
	assert.Equal(t, "2024-02-01", anchorOf(s))
	s.Prev()
	assert.Equal(t, "2024-01-31", anchorOf(s))

	s.Mode = ModeWeek
	s.Next()
	assert.Equal(t, "2024-02-07", anchorOf(s))
	s.Prev()

	s.Mode = ModeMonth
	s.Next()
	assert.Equal(t, "2024-02-29", anchorOf(s))
	s.Next()
	assert.Equal(t, "2024-03-29", anchorOf(s))

	s.Today()
	assert.Equal(t, "2024-06-10", anchorOf(s))
	assert.Equal(t, ModeMonth, s.Mode)
}

func TestAddMonthsClamped(t *testing.T) {
	assert.Equal(t, "2023-02-28", AddMonthsClamped(day(t, "2023-01-31"), 1).Format(appointments.DateLayout))
	assert.Equal(t, "2024-02-29", AddMonthsClamped(day(t, "2024-03-31"), -1).Format(appointments.DateLayout))
	assert.Equal(t, "2025-01-15", AddMonthsClamped(day(t, "2024-12-15"), 1).Format(appointments.DateLayout))
}

func TestShell_RangeAndTitle(t *testing.T) {
	s := NewShell(ModeWeek, day(t, "2024-01-07"), nil)
	from, to := s.Range()
	assert.Equal(t, "2024-01-01", from.Format(appointments.DateLayout))
	assert.Equal(t, "2024-01-08", to.Format(appointments.DateLayout))
	assert.Equal(t, "01 Jan - 07 Jan 2024", s.Title())

	s.Mode = ModeMonth
	from, to = s.Range()
	assert.Equal(t, "2024-01-01", from.Format(appointments.DateLayout))
	assert.Equal(t, 42, int(to.Sub(from).Hours()/24))
	assert.Equal(t, "January 2024", s.Title())

	s.Mode = ModeDay
	assert.Equal(t, "Sunday, 07 January 2024", s.Title())
}

func TestShell_RenderDelegates(t *testing.T) {
	s := NewShell(ModeDay, day(t, "2024-01-01"), nil)
	in := ViewInput{Resources: []Resource{{ID: 1}}}

	v := s.Render(in)
	require.NotNil(t, v.Day)
	assert.Nil(t, v.Week)
	assert.Equal(t, "2024-01-01", v.Day.Date)

	s.Mode = ModeMonth
	v = s.Render(in)
	require.NotNil(t, v.Month)
	assert.Nil(t, v.Day)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeDay, m)

	m, err = ParseMode("WEEK")
	require.NoError(t, err)
	assert.Equal(t, ModeWeek, m)

	_, err = ParseMode("year")
	assert.Error(t, err)
}

func TestShell_RenderCarriesNavigation(t *testing.T) {
	s := NewShell(ModeMonth, day(t, "2024-01-31"), fixedClock("2024-06-10T15:00:00Z"))

	v := s.Render(ViewInput{})
	assert.Equal(t, Navigation{Prev: "2023-12-31", Next: "2024-02-29", Today: "2024-06-10"}, v.Nav)
	assert.Equal(t, "2024-01-31", anchorOf(s))

	s.Mode = ModeWeek
	assert.Equal(t, Navigation{Prev: "2024-01-24", Next: "2024-02-07", Today: "2024-06-10"}, s.Navigation())
}

func TestShell_Navigate(t *testing.T) {
	s := NewShell(ModeMonth, day(t, "2024-01-31"), fixedClock("2024-06-10T15:00:00Z"))

	s.Navigate(NavNone)
	assert.Equal(t, "2024-01-31", anchorOf(s))
	s.Navigate(NavNext)
	assert.Equal(t, "2024-02-29", anchorOf(s))
	s.Navigate(NavPrev)
	assert.Equal(t, "2024-01-29", anchorOf(s))
	s.Navigate(NavToday)
	assert.Equal(t, "2024-06-10", anchorOf(s))
}

func TestParseNav(t *testing.T) {
	n, err := ParseNav(" Next ")
	require.NoError(t, err)
	assert.Equal(t, NavNext, n)

	n, err = ParseNav("")
	require.NoError(t, err)
	assert.Equal(t, NavNone, n)

	_, err = ParseNav("forward")
	assert.Error(t, err)
}
