// Package bluemoon is a client for the e-signature provider's REST API.
package bluemoon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/theunits/units/config"
)

// ErrUnavailable wraps every transport failure, non-2xx response and
// undecodable body.
var ErrUnavailable = errors.New("provider unavailable")

type APIError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider %s %s returned %d", e.Method, e.Path, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return ErrUnavailable
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

func New(cfg *config.ProviderConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.AccessToken,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type ExecuteRequest struct {
	Name     string `json:"name"`
	Initials string `json:"initials"`
	Title    string `json:"title,omitempty"`
}

// Forms is the selection of lease forms split by provider form type.
type Forms struct {
	StandardForms []string `json:"standard_forms"`
	CustomForms   []string `json:"custom_forms"`
}

type EsignatureRequest struct {
	LeaseID           int64  `json:"lease_id"`
	ExternalID        int64  `json:"external_id"`
	SendNotifications bool   `json:"send_notifications"`
	NotificationURL   string `json:"notification_url"`
	Data              Forms  `json:"data"`
}

type EsignatureResponse struct {
	Success bool `json:"success"`
	Data    struct {
		ID   int64           `json:"id"`
		Data json.RawMessage `json:"data"`
	} `json:"data"`
	// Raw is the undecoded body, returned to callers when Success is false.
	Raw json.RawMessage `json:"-"`
}

// LeaseForm keeps the provider's full form document alongside the fields
// used for form mapping.
type LeaseForm struct {
	Name string
	Type string
	Raw  json.RawMessage
}

func (f *LeaseForm) UnmarshalJSON(b []byte) error {
	var fields struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	f.Name, f.Type = fields.Name, fields.Type
	f.Raw = append(json.RawMessage(nil), b...)
	return nil
}

func (f LeaseForm) MarshalJSON() ([]byte, error) {
	if len(f.Raw) > 0 {
		return f.Raw, nil
	}
	return json.Marshal(map[string]string{"name": f.Name, "type": f.Type})
}

// EsignatureDetails returns the current snapshot of a provider esignature.
func (c *Client) EsignatureDetails(ctx context.Context, providerID int64) (json.RawMessage, error) {
	var out struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("esignature/lease/%d", providerID), nil, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 || string(out.Data) == "null" {
		return nil, fmt.Errorf("%w: esignature %d response has no data", ErrUnavailable, providerID)
	}
	return out.Data, nil
}

// ExecuteLease asks the provider to execute a fully signed lease and
// reports whether it did.
func (c *Client) ExecuteLease(ctx context.Context, providerLeaseID int64, req ExecuteRequest) (bool, error) {
	var out struct {
		Executed bool `json:"executed"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("esignature/lease/execute/%d", providerLeaseID), nil, req, &out); err != nil {
		return false, err
	}
	return out.Executed, nil
}

func (c *Client) RequestEsignature(ctx context.Context, req EsignatureRequest) (*EsignatureResponse, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "esignature/lease", nil, req, &raw); err != nil {
		return nil, err
	}
	out := &EsignatureResponse{Raw: raw}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("%w: decode esignature response: %v", ErrUnavailable, err)
	}
	return out, nil
}

// LeaseForms lists the lease section forms of the account's property.
func (c *Client) LeaseForms(ctx context.Context) ([]LeaseForm, error) {
	property, err := c.PropertyNumber(ctx)
	if err != nil {
		return nil, err
	}

	var out struct {
		Lease []LeaseForm `json:"lease"`
	}
	query := url.Values{"section": {"lease"}}
	if err := c.do(ctx, http.MethodGet, "forms/list/"+url.PathEscape(property), query, nil, &out); err != nil {
		return nil, err
	}
	return out.Lease, nil
}

// PropertyNumber picks the account's apartment database property, falling
// back to the first property listed.
func (c *Client) PropertyNumber(ctx context.Context) (string, error) {
	var out struct {
		Data []struct {
			ID       any    `json:"id"`
			UnitType string `json:"unit_type"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "property", nil, nil, &out); err != nil {
		return "", err
	}
	if len(out.Data) == 0 {
		return "", fmt.Errorf("%w: account has no properties", ErrUnavailable)
	}

	for _, p := range out.Data {
		if p.UnitType == "aptdb" {
			return fmt.Sprint(p.ID), nil
		}
	}
	return fmt.Sprint(out.Data[0].ID), nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + "/api/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "provider request", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUnavailable, path, err)
	}
	return nil
}
