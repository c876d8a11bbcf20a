package appointments

import "errors"

var (
	// ErrPatientNameRequired is returned when the patient name is blank.
	ErrPatientNameRequired = errors.New("patient name is required")

	// ErrProfessionalRequired is returned when no professional was chosen.
	ErrProfessionalRequired = errors.New("professional is required")

	// ErrDateInvalid is returned when the date is not YYYY-MM-DD.
	ErrDateInvalid = errors.New("date must be YYYY-MM-DD")

	// ErrEndTimeRequired is returned when the end time is blank.
	ErrEndTimeRequired = errors.New("end time is required")

	// ErrEndTimeInvalid is returned when the end time is not on the time grid.
	ErrEndTimeInvalid = errors.New("end time is not a valid time slot")

	// ErrEndNotAfterStart is returned when the end time is at or before the start time.
	ErrEndNotAfterStart = errors.New("end time must be after start time")

	// ErrStatusInvalid is returned for an unknown status.
	ErrStatusInvalid = errors.New("status is not recognised")

	// ErrNotFound is returned when an appointment does not exist for the clinic.
	ErrNotFound = errors.New("appointment not found")
)

// ValidationError names the offending field of a rejected payload.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}
