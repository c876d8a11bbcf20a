package appointments

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field resolution order, first defined key wins. A JSON null counts as undefined.
var (
	keysPatientID      = []string{"patientId", "patient_id"}
	keysPatientName    = []string{"patientName", "patient_name", "patient_name_full"}
	keysPatientPhone   = []string{"patientPhone", "patient_phone"}
	keysProfessionalID = []string{"professionalId", "professional_id", "professional"}
	keysServiceID      = []string{"serviceId", "service_id"}
	keysServiceName    = []string{"serviceName", "service", "service_name"}
	keysDate           = []string{"date", "appointment_date"}
	keysTime           = []string{"time", "start_time"}
	keysEndTime        = []string{"endTime", "end_time"}
)

// Normalize folds a backend record with arbitrary key casing into the canonical
// Appointment. It never fails: absent strings become "", the status defaults to
// pending, and an unusable professional id is left nil.
func Normalize(raw map[string]any) Appointment {
	a := Appointment{
		PatientName:  stringValue(raw, keysPatientName...),
		PatientPhone: stringValue(raw, keysPatientPhone...),
		ServiceName:  stringValue(raw, keysServiceName...),
		Date:         truncate(stringValue(raw, keysDate...), 10),
		Time:         truncate(stringValue(raw, keysTime...), 5),
		EndTime:      truncate(stringValue(raw, keysEndTime...), 5),
		Status:       StatusPending,
		Notes:        stringValue(raw, "notes"),
	}
	if v, ok := lookup(raw, "id"); ok {
		if id, ok := toInt64(v); ok {
			a.ID = id
		}
	}
	if v, ok := lookup(raw, keysPatientID...); ok {
		if id, ok := toInt64(v); ok {
			a.PatientID = int64Ptr(id)
		}
	}
	if v, ok := lookup(raw, keysProfessionalID...); ok {
		if id, ok := toInt64(v); ok {
			a.ProfessionalID = int64Ptr(id)
		}
	}
	if v, ok := lookup(raw, keysServiceID...); ok {
		if id, ok := toInt64(v); ok {
			a.ServiceID = int64Ptr(id)
		}
	}
	if s := strings.TrimSpace(stringValue(raw, "status")); s != "" {
		a.Status = Status(s)
	}
	return a
}

// NormalizeAll normalizes every record in order.
func NormalizeAll(rows []map[string]any) []Appointment {
	out := make([]Appointment, 0, len(rows))
	for _, row := range rows {
		out = append(out, Normalize(row))
	}
	return out
}

func lookup(raw map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringValue(raw map[string]any, keys ...string) string {
	v, ok := lookup(raw, keys...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// toInt64 accepts JSON numbers, Go integers and integral numeric strings.
func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case float64:
		return floatToInt64(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt64(f)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return floatToInt64(f)
	}
	return 0, false
}

func floatToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
