package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/clinic-scheduler/internal/appointments"
	"github.com/wolfman30/clinic-scheduler/internal/timegrid"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(appointments.DateLayout, s)
	require.NoError(t, err)
	return d
}

func mustEvents(t *testing.T, appts ...appointments.Appointment) []Event {
	t.Helper()
	events, excluded := MapEvents(appts, MappingContext{})
	require.Empty(t, excluded)
	return events
}

func rowAt(t *testing.T, v DayView, slot timegrid.Slot) DayRow {
	t.Helper()
	for _, r := range v.Rows {
		if r.Time == slot {
			return r
		}
	}
	t.Fatalf("no row for %s", slot)
	return DayRow{}
}

func TestBuildDayView_HalfOpenOccupancy(t *testing.T) {
	in := ViewInput{
		Resources: []Resource{{ID: 5, Name: "Dra. Lima"}, {ID: 6, Name: "Dr. Reis"}},
		Day:       day(t, "2024-01-01"),
		Events:    mustEvents(t, appt(1, 5, "2024-01-01", "09:00", "09:30"), appt(2, 5, "2024-01-02", "09:00", "10:00")),
	}
	v := BuildDayView(in)

	require.Len(t, v.Rows, timegrid.Len())
	require.Len(t, v.Events, 1)
	assert.Equal(t, []int64{1}, rowAt(t, v, "09:00").Cells[0].EventIDs)
	assert.Equal(t, []int64{1}, rowAt(t, v, "09:15").Cells[0].EventIDs)

	free := rowAt(t, v, "09:30").Cells[0]
	assert.Empty(t, free.EventIDs)
	require.NotNil(t, free.New)
	assert.Equal(t, "09:30", free.New.Time)
	assert.Equal(t, "09:45", free.New.EndTime)
	assert.Equal(t, int64(5), *free.New.ProfessionalID)

	assert.Empty(t, rowAt(t, v, "09:00").Cells[1].EventIDs)
}

func TestBuildDayView_LastSlotClickClamps(t *testing.T) {
	v := BuildDayView(ViewInput{Resources: []Resource{{ID: 1}}, Day: day(t, "2024-01-01")})
	cell := rowAt(t, v, timegrid.Last()).Cells[0]
	require.NotNil(t, cell.New)
	assert.Equal(t, "22:00", cell.New.Time)
	assert.Equal(t, "22:00", cell.New.EndTime)
}

func TestWeekStart(t *testing.T) {
	cases := map[string]string{
		"2024-01-07": "2024-01-01", // Sunday
		"2024-01-01": "2024-01-01", // Monday
		"2024-01-03": "2024-01-01",
		"2024-03-02": "2024-02-26",
	}
	for in, want := range cases {
		assert.Equal(t, want, WeekStart(day(t, in)).Format(appointments.DateLayout), in)
	}
}

func TestBuildWeekView_SelectedProfessional(t *testing.T) {
	resources := []Resource{{ID: 5}, {ID: 6}}
	in := ViewInput{
		Resources: resources,
		Day:       day(t, "2024-01-07"),
		Events: mustEvents(t,
			appt(1, 5, "2024-01-02", "09:00", "09:30"),
			appt(2, 6, "2024-01-02", "09:00", "09:30"),
		),
	}

	v := BuildWeekView(in, nil)
	assert.Equal(t, "2024-01-01", v.Start)
	require.Len(t, v.Days, 7)
	assert.Equal(t, "2024-01-07", v.Days[6])
	require.NotNil(t, v.Professional)
	assert.Equal(t, int64(5), v.Professional.ID)

	nine := v.Rows[9-timegrid.FirstHour]
	require.Len(t, nine.Cells[1].Events, 1)
	assert.Equal(t, int64(1), nine.Cells[1].Events[0].ID)
	assert.Nil(t, nine.Cells[1].New)

	free := nine.Cells[0]
	require.NotNil(t, free.New)
	assert.Equal(t, "2024-01-01", free.New.Date)
	assert.Equal(t, int64(5), *free.New.ProfessionalID)
	assert.Empty(t, free.New.Time)

	other := int64(6)
	v = BuildWeekView(in, &other)
	assert.Equal(t, int64(2), v.Rows[9-timegrid.FirstHour].Cells[1].Events[0].ID)
}

func TestBuildMonthView_Grid(t *testing.T) {
	in := ViewInput{
		Day: day(t, "2024-02-15"),
		Events: mustEvents(t,
			appt(1, 5, "2024-02-01", "09:00", "09:30"),
			appt(2, 6, "2024-02-01", "11:00", ""),
			appt(3, 5, "2024-03-01", "09:00", ""),
		),
	}
	v := BuildMonthView(in)

	require.Len(t, v.Weeks, MonthWeeks)
	first := v.Weeks[0][0]
	assert.Equal(t, "2024-01-29", first.Date)
	assert.False(t, first.InMonth)

	feb1 := v.Weeks[0][3]
	assert.Equal(t, "2024-02-01", feb1.Date)
	assert.True(t, feb1.InMonth)
	assert.Equal(t, 2, feb1.Count)
	assert.Equal(t, NewEventInfo{Date: "2024-02-01"}, feb1.New)

	last := v.Weeks[MonthWeeks-1][6]
	assert.Equal(t, "2024-03-10", last.Date)
	assert.Equal(t, 1, v.Weeks[4][4].Count) // 2024-03-01
}
