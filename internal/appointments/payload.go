package appointments

import (
	"strings"
	"time"

	"github.com/wolfman30/clinic-scheduler/internal/timegrid"
)

// DateLayout is the wire format of appointment dates.
const DateLayout = "2006-01-02"

// Payload is the create/update body sent to the appointments backend.
type Payload struct {
	PatientID      *int64 `json:"patientId,omitempty"`
	PatientName    string `json:"patientName"`
	PatientPhone   string `json:"patientPhone,omitempty"`
	ProfessionalID int64  `json:"professionalId"`
	ServiceID      *int64 `json:"serviceId,omitempty"`
	ServiceName    string `json:"serviceName"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	EndTime        string `json:"endTime"`
	Status         Status `json:"status"`
	Notes          string `json:"notes,omitempty"`
}

// PayloadFrom seeds a payload from an existing appointment, e.g. to edit it.
func PayloadFrom(a Appointment) Payload {
	p := Payload{
		PatientID:    a.PatientID,
		PatientName:  a.PatientName,
		PatientPhone: a.PatientPhone,
		ServiceID:    a.ServiceID,
		ServiceName:  a.ServiceName,
		Date:         a.Date,
		Time:         a.Time,
		EndTime:      a.EndTime,
		Status:       a.Status,
		Notes:        a.Notes,
	}
	if a.ProfessionalID != nil {
		p.ProfessionalID = *a.ProfessionalID
	}
	return p
}

// Clean trims free text, snaps an off-grid start time to the first slot and
// defaults the status. The end time is left untouched so Validate can reject it.
func (p *Payload) Clean() {
	p.PatientName = strings.TrimSpace(p.PatientName)
	p.PatientPhone = strings.TrimSpace(p.PatientPhone)
	p.ServiceName = strings.TrimSpace(p.ServiceName)
	p.Notes = strings.TrimSpace(p.Notes)
	p.Date = strings.TrimSpace(p.Date)
	p.Time = string(timegrid.Coerce(strings.TrimSpace(p.Time)))
	p.EndTime = strings.TrimSpace(p.EndTime)
	if p.Status == "" {
		p.Status = StatusPending
	}
}

// Validate checks the payload before any request is issued.
func (p Payload) Validate() error {
	if strings.TrimSpace(p.PatientName) == "" {
		return invalid("patientName", ErrPatientNameRequired)
	}
	if p.ProfessionalID <= 0 {
		return invalid("professionalId", ErrProfessionalRequired)
	}
	if _, err := time.Parse(DateLayout, p.Date); err != nil {
		return invalid("date", ErrDateInvalid)
	}
	if p.EndTime == "" {
		return invalid("endTime", ErrEndTimeRequired)
	}
	end := timegrid.Slot(p.EndTime)
	if !timegrid.IsValid(end) {
		return invalid("endTime", ErrEndTimeInvalid)
	}
	if !timegrid.Slot(p.Time).Before(end) {
		return invalid("endTime", ErrEndNotAfterStart)
	}
	if p.Status != "" && !p.Status.Valid() {
		return invalid("status", ErrStatusInvalid)
	}
	return nil
}

// Appointment materialises the payload as a stored appointment with the given id.
func (p Payload) Appointment(id int64) Appointment {
	return Appointment{
		ID:             id,
		PatientID:      p.PatientID,
		PatientName:    p.PatientName,
		PatientPhone:   p.PatientPhone,
		ProfessionalID: int64Ptr(p.ProfessionalID),
		ServiceID:      p.ServiceID,
		ServiceName:    p.ServiceName,
		Date:           p.Date,
		Time:           p.Time,
		EndTime:        p.EndTime,
		Status:         p.Status,
		Notes:          p.Notes,
	}
}
