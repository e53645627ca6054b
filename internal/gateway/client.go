// Package gateway is the typed boundary to the answering service. Every
// method is a single request/response: no retries, no caching.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sadopc/askfin/internal/model"
)

const requestIDHeader = "X-Request-Id"

// Client talks to the answering service over HTTP/JSON.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the transport, e.g. with an httptest server client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout overrides the transport default. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d, Transport: c.http.Transport}
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

type askRequest struct {
	Query string `json:"query"`
}

type askResponse struct {
	Status  string          `json:"status"`
	SQL     string          `json:"sql"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

type createReportRequest struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

// Ask submits a natural-language question.
func (c *Client) Ask(ctx context.Context, query string) (*model.QueryResult, error) {
	const op = "ask"

	resp, err := c.do(ctx, op, http.MethodPost, "/ask", askRequest{Query: query})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, serviceError(resp.StatusCode, body)
	}

	var out askResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &model.ServiceError{Status: resp.StatusCode, Message: fmt.Sprintf("invalid response: %v", err)}
	}
	if out.Status != "success" {
		msg := out.Message
		if msg == "" {
			msg = "An unknown error occurred."
		}
		return nil, &model.ServiceError{Status: resp.StatusCode, Message: msg}
	}

	cols, rows, err := model.DecodeRecords(out.Data)
	if err != nil {
		return nil, &model.ServiceError{Status: resp.StatusCode, Message: fmt.Sprintf("invalid response data: %v", err)}
	}

	c.logger.Debug().Str("op", op).Int("rows", len(rows)).Msg("ask completed")
	return &model.QueryResult{GeneratedQuery: out.SQL, Columns: cols, Rows: rows}, nil
}

// Dashboard fetches the aggregate snapshot. Any failure is a TransportError.
func (c *Client) Dashboard(ctx context.Context) (*model.DashboardSnapshot, error) {
	const op = "dashboard"

	var out model.DashboardSnapshot
	if err := c.getJSON(ctx, op, "/dashboard", &out); err != nil {
		return nil, &model.TransportError{Op: op, Err: err}
	}
	return &out, nil
}

// ListReports returns saved reports in the order the store emits them.
func (c *Client) ListReports(ctx context.Context) ([]model.SavedReport, error) {
	const op = "list reports"

	var out []model.SavedReport
	if err := c.getJSON(ctx, op, "/reports", &out); err != nil {
		return nil, &model.TransportError{Op: op, Err: err}
	}
	return out, nil
}

// CreateReport persists a report; the service assigns id and created_at.
func (c *Client) CreateReport(ctx context.Context, name, query string) (*model.SavedReport, error) {
	const op = "create report"

	resp, err := c.do(ctx, op, http.MethodPost, "/reports", createReportRequest{Name: name, Query: query})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &model.TransportError{Op: op, Err: serviceError(resp.StatusCode, body)}
	}

	var out model.SavedReport
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &model.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &out, nil
}

// DeleteReport removes a report. A missing id yields model.ErrNotFound.
func (c *Client) DeleteReport(ctx context.Context, id int64) error {
	const op = "delete report"

	resp, err := c.do(ctx, op, http.MethodDelete, "/reports/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("delete report %d: %w", id, model.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &model.TransportError{Op: op, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	resp, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return serviceError(resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// do sends one request. Failures to complete the round trip are returned as
// TransportError; status handling is left to the caller.
func (c *Client) do(ctx context.Context, op, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &model.TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &model.TransportError{Op: op, Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("op", op).Str("request_id", reqID).Msg("request failed")
		return nil, &model.TransportError{Op: op, Err: err}
	}

	c.logger.Debug().
		Str("op", op).
		Str("request_id", reqID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("request completed")
	return resp, nil
}

// serviceError extracts the service's detail text from an error body.
func serviceError(status int, body []byte) *model.ServiceError {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if msg := detailText(eb.Detail); msg != "" {
			return &model.ServiceError{Status: status, Message: msg}
		}
		if eb.Message != "" {
			return &model.ServiceError{Status: status, Message: eb.Message}
		}
	}
	return &model.ServiceError{Status: status, Message: "An error occurred"}
}

// detailText accepts either a string detail or a structured one.
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		var msgs []string
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return string(raw)
}
