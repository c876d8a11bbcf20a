package router

import (
	"net/http"
	"strings"

	"github.com/wolfman30/clinic-scheduler/internal/tenancy"
)

const (
	clinicHeader = "X-Clinic-Id"
	// browsers cannot set headers on WebSocket upgrades
	clinicQueryParam = "clinicId"
)

// requireClinicID resolves the tenant once at the edge and threads it through
// the request context.
func requireClinicID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(clinicHeader))
		if raw == "" {
			raw = strings.TrimSpace(r.URL.Query().Get(clinicQueryParam))
		}
		if raw == "" {
			http.Error(w, "missing X-Clinic-Id", http.StatusBadRequest)
			return
		}
		clinicID, err := tenancy.ParseClinicID(raw)
		if err != nil {
			http.Error(w, "invalid X-Clinic-Id", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r.WithContext(tenancy.WithClinicID(r.Context(), clinicID)))
	})
}
