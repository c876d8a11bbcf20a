// Package directory describes the clinic's professionals and services as
// consumed by the scheduling core, plus a Redis-backed cache in front of the
// upstream directory.
package directory

import (
	"context"
	"strings"
)

// Professional is a staff member as listed by the professionals provider.
// Available is nil when the provider omitted it; only an explicit false hides
// the professional from the calendar.
type Professional struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty,omitempty"`
	Photo     string `json:"photo,omitempty"`
	Available *bool  `json:"available,omitempty"`
}

// IsAvailable reports whether the professional should be offered as a calendar resource.
func (p Professional) IsAvailable() bool {
	return p.Available == nil || *p.Available
}

// Service is a bookable service.
type Service struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Duration int     `json:"duration"`
	Price    float64 `json:"price"`
}

// Source lists a clinic's professionals and services.
type Source interface {
	Professionals(ctx context.Context, clinicID int64) ([]Professional, error)
	Services(ctx context.Context, clinicID int64) ([]Service, error)
}

// Invalidator is implemented by sources that cache and can drop a clinic's
// entries so the next read goes upstream.
type Invalidator interface {
	Invalidate(ctx context.Context, clinicID int64) error
}

// FindService returns the service with the given id.
func FindService(services []Service, id int64) (Service, bool) {
	for _, s := range services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// FindServiceByName matches a service name case-insensitively.
func FindServiceByName(services []Service, name string) (Service, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Service{}, false
	}
	for _, s := range services {
		if strings.EqualFold(strings.TrimSpace(s.Name), name) {
			return s, true
		}
	}
	return Service{}, false
}
