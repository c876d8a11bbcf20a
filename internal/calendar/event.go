package calendar

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/clinic-scheduler/internal/appointments"
	"github.com/wolfman30/clinic-scheduler/internal/directory"
)

const (
	// EventTimeLayout is the wall-clock timestamp format of event bounds.
	EventTimeLayout = "2006-01-02T15:04:05"
	// DefaultTitle labels events whose patient name is blank.
	DefaultTitle = "Evento"
)

// EndPolicy decides the end of an event whose appointment has no end time.
type EndPolicy int

const (
	// EndAtStart makes the event a zero-duration point event.
	EndAtStart EndPolicy = iota
	// EndAfterServiceDuration ends the event after the service's duration
	// when the service is known, else behaves like EndAtStart.
	EndAfterServiceDuration
)

// ParseEndPolicy reads "start" or "service".
func ParseEndPolicy(raw string) (EndPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "start":
		return EndAtStart, nil
	case "service":
		return EndAfterServiceDuration, nil
	default:
		return EndAtStart, fmt.Errorf("calendar: unknown end policy %q", raw)
	}
}

func (p EndPolicy) String() string {
	if p == EndAfterServiceDuration {
		return "service"
	}
	return "start"
}

// ExclusionReason says why an appointment produced no event.
type ExclusionReason string

const (
	ReasonMissingDate         ExclusionReason = "missing_date"
	ReasonMissingTime         ExclusionReason = "missing_time"
	ReasonInvalidTimestamp    ExclusionReason = "invalid_timestamp"
	ReasonMissingProfessional ExclusionReason = "missing_professional"
)

// MappingContext carries what event mapping needs beyond the appointment.
type MappingContext struct {
	Services  []directory.Service
	Resources []Resource
	Location  *time.Location
	EndPolicy EndPolicy
}

func (mc MappingContext) location() *time.Location {
	if mc.Location == nil {
		return time.UTC
	}
	return mc.Location
}

// Event is the view-only form of an appointment.
type Event struct {
	ID              int64
	Title           string
	Start           time.Time
	End             time.Time
	ResourceID      string
	Status          appointments.Status
	PatientName     string
	ServiceName     string
	BackgroundColor string
	ExtendedProps   appointments.Appointment
}

// IsPoint reports whether the event has zero duration.
func (e Event) IsPoint() bool {
	return !e.End.After(e.Start)
}

// Date is the event's calendar day.
func (e Event) Date() string {
	return e.Start.Format(appointments.DateLayout)
}

// Occupies reports whether the event covers the instant at in the given
// resource column. Intervals are half-open, and a point event covers only
// its start.
func (e Event) Occupies(resourceID string, at time.Time) bool {
	if e.ResourceID != resourceID {
		return false
	}
	if e.IsPoint() {
		return at.Equal(e.Start)
	}
	return !at.Before(e.Start) && at.Before(e.End)
}

type eventJSON struct {
	ID              int64                    `json:"id"`
	Title           string                   `json:"title"`
	Start           string                   `json:"start"`
	End             string                   `json:"end"`
	ResourceID      string                   `json:"resourceId"`
	Status          appointments.Status      `json:"status"`
	PatientName     string                   `json:"patientName,omitempty"`
	ServiceName     string                   `json:"serviceName,omitempty"`
	BackgroundColor string                   `json:"backgroundColor,omitempty"`
	ExtendedProps   appointments.Appointment `json:"extendedProps"`
}

// MarshalJSON renders start and end as wall-clock timestamps.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		ID:              e.ID,
		Title:           e.Title,
		Start:           e.Start.Format(EventTimeLayout),
		End:             e.End.Format(EventTimeLayout),
		ResourceID:      e.ResourceID,
		Status:          e.Status,
		PatientName:     e.PatientName,
		ServiceName:     e.ServiceName,
		BackgroundColor: e.BackgroundColor,
		ExtendedProps:   e.ExtendedProps,
	})
}

// ToEvent maps an appointment to an event. ok is false when the appointment
// has no usable date, time or professional.
func ToEvent(appt appointments.Appointment, mc MappingContext) (Event, bool) {
	ev, reason := toEvent(appt, mc)
	return ev, reason == ""
}

// Exclusion is an appointment that could not be placed on the calendar.
type Exclusion struct {
	Appointment appointments.Appointment `json:"appointment"`
	Reason      ExclusionReason          `json:"reason"`
}

// MapEvents maps every appointment and reports the ones left out. Input
// order is preserved.
func MapEvents(appts []appointments.Appointment, mc MappingContext) ([]Event, []Exclusion) {
	events := make([]Event, 0, len(appts))
	var excluded []Exclusion
	for _, a := range appts {
		ev, reason := toEvent(a, mc)
		if reason != "" {
			excluded = append(excluded, Exclusion{Appointment: a, Reason: reason})
			continue
		}
		events = append(events, ev)
	}
	return events, excluded
}

func toEvent(appt appointments.Appointment, mc MappingContext) (Event, ExclusionReason) {
	date := strings.TrimSpace(appt.Date)
	clock := strings.TrimSpace(appt.Time)
	if date == "" {
		return Event{}, ReasonMissingDate
	}
	if clock == "" {
		return Event{}, ReasonMissingTime
	}
	loc := mc.location()
	start, err := time.ParseInLocation(EventTimeLayout, date+"T"+clock+":00", loc)
	if err != nil {
		return Event{}, ReasonInvalidTimestamp
	}
	if !appt.HasProfessional() {
		return Event{}, ReasonMissingProfessional
	}

	serviceName := strings.TrimSpace(appt.ServiceName)
	service, hasService := lookupService(appt, mc.Services)
	if serviceName == "" && hasService {
		serviceName = service.Name
	}

	end := start
	if et := strings.TrimSpace(appt.EndTime); et != "" {
		if parsed, err := time.ParseInLocation(EventTimeLayout, date+"T"+et+":00", loc); err == nil && parsed.After(start) {
			end = parsed
		}
	} else if mc.EndPolicy == EndAfterServiceDuration && hasService && service.Duration > 0 {
		end = start.Add(time.Duration(service.Duration) * time.Minute)
	}

	resourceID := strconv.FormatInt(*appt.ProfessionalID, 10)
	color := StatusColor(appt.Status)
	if r, ok := FindResource(mc.Resources, resourceID); ok {
		color = r.Color
	}

	title := strings.TrimSpace(appt.PatientName)
	if title == "" {
		title = DefaultTitle
	}

	return Event{
		ID:              appt.ID,
		Title:           title,
		Start:           start,
		End:             end,
		ResourceID:      resourceID,
		Status:          appt.Status,
		PatientName:     appt.PatientName,
		ServiceName:     serviceName,
		BackgroundColor: color,
		ExtendedProps:   appt,
	}, ""
}

func lookupService(appt appointments.Appointment, services []directory.Service) (directory.Service, bool) {
	if appt.ServiceID != nil {
		if s, ok := directory.FindService(services, *appt.ServiceID); ok {
			return s, true
		}
	}
	return directory.FindServiceByName(services, appt.ServiceName)
}
