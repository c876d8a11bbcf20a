// Package appointments holds the canonical appointment shape, the normalizer
// that folds heterogeneous backend records into it, form payload validation,
// and the canonical clinic-scoped appointments API.
package appointments

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment is the canonical appointment record.
//
// ProfessionalID is nil when the raw record carried no usable professional;
// callers use that to reject malformed rows instead of guessing a resource.
type Appointment struct {
	ID             int64  `json:"id"`
	PatientID      *int64 `json:"patientId,omitempty"`
	PatientName    string `json:"patientName"`
	PatientPhone   string `json:"patientPhone,omitempty"`
	ProfessionalID *int64 `json:"professionalId"`
	ServiceID      *int64 `json:"serviceId,omitempty"`
	ServiceName    string `json:"serviceName"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	EndTime        string `json:"endTime,omitempty"`
	Status         Status `json:"status"`
	Notes          string `json:"notes,omitempty"`
}

// HasProfessional reports whether the record resolved to a professional.
func (a Appointment) HasProfessional() bool {
	return a.ProfessionalID != nil
}

// Raw renders the appointment back into a key map using canonical keys.
// Normalize(a.Raw()) returns a record equal to a.
func (a Appointment) Raw() map[string]any {
	raw := map[string]any{
		"id":          a.ID,
		"patientName": a.PatientName,
		"serviceName": a.ServiceName,
		"date":        a.Date,
		"time":        a.Time,
		"status":      string(a.Status),
	}
	if a.PatientID != nil {
		raw["patientId"] = *a.PatientID
	}
	if a.PatientPhone != "" {
		raw["patientPhone"] = a.PatientPhone
	}
	if a.ProfessionalID != nil {
		raw["professionalId"] = *a.ProfessionalID
	}
	if a.ServiceID != nil {
		raw["serviceId"] = *a.ServiceID
	}
	if a.EndTime != "" {
		raw["endTime"] = a.EndTime
	}
	if a.Notes != "" {
		raw["notes"] = a.Notes
	}
	return raw
}

func int64Ptr(v int64) *int64 { return &v }
