package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vgp-backend/internal/checklist"
	"vgp-backend/internal/handlers"
	"vgp-backend/internal/report"
	"vgp-backend/internal/services"
)

// APIError is a non-2xx answer of the API server
type APIError struct {
	Status  int                     `json:"-"`
	Message string                  `json:"error"`
	Code    string                  `json:"code"`
	Missing []checklist.MissingItem `json:"missing"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// Client talks to the inspection API with a session token. It implements
// checklist.Repository, saving records as drafts so validation stays with
// the caller.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ checklist.Repository = (*Client)(nil)

// New creates a client for the API at baseURL
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type saveAck struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updatedAt"`
	Draft     bool      `json:"draft"`
}

// Save stores rec, accepting incomplete records
func (c *Client) Save(ctx context.Context, rec *checklist.Record) (checklist.Ack, error) {
	return c.save(ctx, rec, true)
}

// SaveFinal stores rec only when every required question is answered. A
// rejection is an *APIError listing the missing questions.
func (c *Client) SaveFinal(ctx context.Context, rec *checklist.Record) (checklist.Ack, error) {
	return c.save(ctx, rec, false)
}

func (c *Client) save(ctx context.Context, rec *checklist.Record, draft bool) (checklist.Ack, error) {
	path := "/api/inspections"
	if draft {
		path += "?draft=1"
	}
	var ack saveAck
	if err := c.do(ctx, http.MethodPost, path, rec, &ack); err != nil {
		return checklist.Ack{}, err
	}
	return checklist.Ack{ID: ack.ID, UpdatedAt: ack.UpdatedAt}, nil
}

// Load fetches one record
func (c *Client) Load(ctx context.Context, id string) (*checklist.Record, error) {
	var rec checklist.Record
	err := c.do(ctx, http.MethodGet, "/api/inspections/"+url.PathEscape(id), nil, &rec)
	if isStatus(err, http.StatusNotFound) {
		return nil, fmt.Errorf("%w: %s", checklist.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	rec.Normalize()
	return &rec, nil
}

// List returns the user's summaries, newest first
func (c *Client) List(ctx context.Context) ([]checklist.Summary, error) {
	var out struct {
		Inspections []checklist.Summary `json:"inspections"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/inspections", nil, &out); err != nil {
		return nil, err
	}
	return out.Inspections, nil
}

// Delete removes a record. Unknown ids are not an error.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/inspections/"+url.PathEscape(id), nil, nil)
}

// Report compiles the report of a stored record
func (c *Client) Report(ctx context.Context, id string, draft bool) (*report.Report, error) {
	path := "/api/inspections/" + url.PathEscape(id) + "/report"
	if draft {
		path += "?draft=1"
	}
	var doc report.Report
	if err := c.do(ctx, http.MethodPost, path, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// PlanSync asks the server which records to upload and download
func (c *Client) PlanSync(ctx context.Context, lastSync *time.Time, local []checklist.Summary) (services.Plan, error) {
	var plan services.Plan
	err := c.do(ctx, http.MethodPost, "/api/sync", services.SyncRequest{LastSync: lastSync, LocalData: local}, &plan)
	return plan, err
}

// Pull downloads several records at once
func (c *Client) Pull(ctx context.Context, ids []string) (*handlers.PullResponse, error) {
	var out handlers.PullResponse
	if err := c.do(ctx, http.MethodPost, "/api/sync/pull", handlers.PullRequest{IDs: ids}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestLink asks the server to mail a magic link to email
func (c *Client) RequestLink(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/request-link", handlers.RequestLinkRequest{Email: email}, nil)
}

// RegisterDevice stores a push token for the session's user
func (c *Client) RegisterDevice(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/devices", handlers.DeviceRequest{Token: token}, nil)
}

func isStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
