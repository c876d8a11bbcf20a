package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/wolfman30/clinic-scheduler/internal/directory"
)

// DirectoryClient lists professionals and services from the clinic backend.
type DirectoryClient struct {
	baseURL  string
	prefix   string
	resolver *Resolver
}

// NewDirectoryClient builds a directory client sharing the appointments
// client's base URL and prefix.
func NewDirectoryClient(baseURL, prefix string, resolver *Resolver) *DirectoryClient {
	if resolver == nil {
		panic("clinicapi: resolver required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultAPIPrefix
	}
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	return &DirectoryClient{baseURL: strings.TrimRight(baseURL, "/"), prefix: prefix, resolver: resolver}
}

var _ directory.Source = (*DirectoryClient)(nil)

// Professionals implements directory.Source.
func (c *DirectoryClient) Professionals(ctx context.Context, clinicID int64) ([]directory.Professional, error) {
	var wrapped struct {
		Professionals []directory.Professional `json:"professionals"`
		Data          []directory.Professional `json:"data"`
	}
	var list []directory.Professional
	if err := c.get(ctx, clinicID, "professionals", &list, &wrapped); err != nil {
		return nil, fmt.Errorf("clinicapi: list professionals: %w", err)
	}
	if list != nil {
		return list, nil
	}
	if len(wrapped.Professionals) > 0 {
		return wrapped.Professionals, nil
	}
	return wrapped.Data, nil
}

// Services implements directory.Source.
func (c *DirectoryClient) Services(ctx context.Context, clinicID int64) ([]directory.Service, error) {
	var wrapped struct {
		Services []directory.Service `json:"services"`
		Data     []directory.Service `json:"data"`
	}
	var list []directory.Service
	if err := c.get(ctx, clinicID, "services", &list, &wrapped); err != nil {
		return nil, fmt.Errorf("clinicapi: list services: %w", err)
	}
	if list != nil {
		return list, nil
	}
	if len(wrapped.Services) > 0 {
		return wrapped.Services, nil
	}
	return wrapped.Data, nil
}

// get decodes a bare array into list, or an object into wrapped.
func (c *DirectoryClient) get(ctx context.Context, clinicID int64, kind string, list, wrapped any) error {
	candidate := Candidate{
		Method: http.MethodGet,
		URL:    fmt.Sprintf("%s%s/clinics/%d/%s", c.baseURL, c.prefix, clinicID, kind),
	}
	resp, err := c.resolver.Do(ctx, Operation("directory_"+kind), candidate, nil)
	if err != nil {
		return err
	}
	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		return nil
	}
	target := wrapped
	if body[0] == '[' {
		target = list
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
