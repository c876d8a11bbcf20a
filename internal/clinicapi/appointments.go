package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/wolfman30/clinic-scheduler/internal/appointments"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// DefaultAPIPrefix is the explicit API path prefix tried before bare paths.
const DefaultAPIPrefix = "/api"

// AppointmentsClient reads and writes appointments on the clinic backend.
type AppointmentsClient struct {
	baseURL  string
	prefix   string
	resolver *Resolver
	logger   *logging.Logger
}

// NewAppointmentsClient builds a client for baseURL. prefix defaults to
// DefaultAPIPrefix; pass "/" to only try bare paths.
func NewAppointmentsClient(baseURL, prefix string, resolver *Resolver, logger *logging.Logger) *AppointmentsClient {
	if resolver == nil {
		panic("clinicapi: resolver required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultAPIPrefix
	}
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	return &AppointmentsClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		prefix:   prefix,
		resolver: resolver,
		logger:   logger,
	}
}

// Candidates lists the routes tried for op, most likely first: the
// clinic-scoped path, then the clinicId and clinic_id query forms, first
// under the API prefix and then bare. Update candidates target id.
func (c *AppointmentsClient) Candidates(op Operation, clinicID, id int64) []Candidate {
	method := http.MethodGet
	switch op {
	case OpCreate:
		method = http.MethodPost
	case OpUpdate:
		method = http.MethodPut
	case OpDelete:
		return []Candidate{c.deleteCandidate(clinicID, id)}
	}

	clinic := strconv.FormatInt(clinicID, 10)
	suffix := ""
	if op == OpUpdate {
		suffix = "/" + strconv.FormatInt(id, 10)
	}
	prefixes := []string{c.prefix}
	if c.prefix != "" {
		prefixes = append(prefixes, "")
	}

	var out []Candidate
	for _, p := range prefixes {
		base := c.baseURL + p
		out = append(out,
			Candidate{Method: method, URL: base + "/clinics/" + clinic + "/appointments" + suffix},
			Candidate{Method: method, URL: base + "/appointments" + suffix + "?" + url.Values{"clinicId": {clinic}}.Encode()},
			Candidate{Method: method, URL: base + "/appointments" + suffix + "?" + url.Values{"clinic_id": {clinic}}.Encode()},
		)
	}
	return out
}

// deleteCandidate is the only route delete uses; it is not probed.
func (c *AppointmentsClient) deleteCandidate(clinicID, id int64) Candidate {
	q := url.Values{"clinicId": {strconv.FormatInt(clinicID, 10)}}
	return Candidate{
		Method: http.MethodDelete,
		URL:    fmt.Sprintf("%s%s/appointments/%d?%s", c.baseURL, c.prefix, id, q.Encode()),
	}
}

// List returns the clinic's raw appointment records.
func (c *AppointmentsClient) List(ctx context.Context, clinicID int64) ([]map[string]any, error) {
	resp, err := c.resolver.Resolve(ctx, OpList, c.Candidates(OpList, clinicID, 0), nil)
	if err != nil {
		return nil, err
	}
	records, err := decodeRecords(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("clinicapi: list appointments: %w", err)
	}
	c.logger.Debug("appointments listed", "clinic_id", clinicID, "route", resp.Candidate.String(), "count", len(records))
	return records, nil
}

// Create posts a new appointment and returns the backend's record, which may
// be nil when the backend answers with an empty body.
func (c *AppointmentsClient) Create(ctx context.Context, clinicID int64, p appointments.Payload) (map[string]any, error) {
	resp, err := c.resolver.Resolve(ctx, OpCreate, c.Candidates(OpCreate, clinicID, 0), p)
	if err != nil {
		return nil, err
	}
	record, err := decodeRecord(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("clinicapi: create appointment: %w", err)
	}
	return record, nil
}

// Update replaces appointment id.
func (c *AppointmentsClient) Update(ctx context.Context, clinicID, id int64, p appointments.Payload) (map[string]any, error) {
	resp, err := c.resolver.Resolve(ctx, OpUpdate, c.Candidates(OpUpdate, clinicID, id), p)
	if err != nil {
		return nil, err
	}
	record, err := decodeRecord(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("clinicapi: update appointment: %w", err)
	}
	return record, nil
}

// Delete removes appointment id.
func (c *AppointmentsClient) Delete(ctx context.Context, clinicID, id int64) error {
	_, err := c.resolver.Do(ctx, OpDelete, c.deleteCandidate(clinicID, id), nil)
	return err
}

func decodeRecords(body []byte) ([]map[string]any, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []map[string]any{}, nil
	}
	if body[0] == '[' {
		var list []map[string]any
		if err := decodeJSON(body, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var wrapped struct {
		Data         []map[string]any `json:"data"`
		Appointments []map[string]any `json:"appointments"`
	}
	if err := decodeJSON(body, &wrapped); err != nil {
		return nil, err
	}
	if len(wrapped.Appointments) > 0 {
		return wrapped.Appointments, nil
	}
	if wrapped.Data == nil {
		return []map[string]any{}, nil
	}
	return wrapped.Data, nil
}

func decodeRecord(body []byte) (map[string]any, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	var record map[string]any
	if err := decodeJSON(body, &record); err != nil {
		return nil, err
	}
	if inner, ok := record["data"].(map[string]any); ok {
		return inner, nil
	}
	return record, nil
}

// decodeJSON keeps numbers as json.Number so large ids survive.
func decodeJSON(body []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
