// Package tenancy threads the clinic (tenant) identifier explicitly through
// request contexts. The inbound X-Clinic-Id header is the only place it is read.
package tenancy

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

type ctxKey string

const clinicKey ctxKey = "scheduler.clinic_id"

// ErrInvalidClinicID is returned when a clinic id is blank, non-numeric or not positive.
var ErrInvalidClinicID = errors.New("tenancy: invalid clinic id")

// WithClinicID stores the clinic id in context.
func WithClinicID(ctx context.Context, clinicID int64) context.Context {
	return context.WithValue(ctx, clinicKey, clinicID)
}

// ClinicIDFromContext extracts the clinic id if present.
func ClinicIDFromContext(ctx context.Context) (int64, bool) {
	val := ctx.Value(clinicKey)
	if val == nil {
		return 0, false
	}
	clinicID, ok := val.(int64)
	return clinicID, ok && clinicID > 0
}

// ParseClinicID parses the textual clinic id used by headers and URL params.
func ParseClinicID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidClinicID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidClinicID
	}
	return id, nil
}
