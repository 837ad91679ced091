// Package client is the HTTP client the front ends use to talk to the
// enrollment API.
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
	"strconv"
	"strings"
	"time"

	"github.com/matricula/matricula/internal/model"
)

var (
	// ErrUnauthorized is returned on HTTP 401. Callers drop the token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnavailable wraps transport failures (connection refused, timeouts).
	ErrUnavailable = errors.New("api unavailable")
)

// APIError is any other non-2xx answer from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// Client calls the enrollment API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for baseURL with the given request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient returns a Client using hc for transport.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Page is one page of the student listing.
type Page struct {
	Students   []model.Student
	Page       int
	PerPage    int
	TotalItems int
	TotalPages int
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
	Pagination *struct {
		Page       int `json:"page"`
		PerPage    int `json:"per_page"`
		TotalItems int `json:"total_items"`
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out model.LoginResponse
	body := model.LoginRequest{Username: username, Password: password}
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", "", body, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", &APIError{Status: http.StatusOK, Message: "empty token in login response"}
	}
	return out.Token, nil
}

// Logout revokes token on the server.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/v1/auth/logout", token, nil, nil)
	return err
}

// ListStudents fetches one page of students. Zero page or perPage use the
// server defaults.
func (c *Client) ListStudents(ctx context.Context, token string, page, perPage int) (*Page, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	path := "/api/v1/students"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Students []model.Student `json:"students"`
	}
	env, err := c.do(ctx, http.MethodGet, path, token, nil, &out)
	if err != nil {
		return nil, err
	}

	p := &Page{Students: out.Students}
	if env.Pagination != nil {
		p.Page = env.Pagination.Page
		p.PerPage = env.Pagination.PerPage
		p.TotalItems = env.Pagination.TotalItems
		p.TotalPages = env.Pagination.TotalPages
	}
	return p, nil
}

// CreateStudent registers a student.
func (c *Client) CreateStudent(ctx context.Context, token string, req model.CreateStudentRequest) (*model.Student, error) {
	var out struct {
		Student model.Student `json:"student"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/students", token, req, &out); err != nil {
		return nil, err
	}
	return &out.Student, nil
}

// StudentStatus fetches a student with their payments.
func (c *Client) StudentStatus(ctx context.Context, token string, id int) (*model.StudentStatus, error) {
	var out model.StudentStatus
	if _, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/students/%d/status", id), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDelinquent fetches students without any payment.
func (c *Client) ListDelinquent(ctx context.Context, token string) ([]model.Student, error) {
	var out struct {
		Students []model.Student `json:"students"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/students/delinquent", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Students, nil
}

// RecordPayment registers a payment.
func (c *Client) RecordPayment(ctx context.Context, token string, req model.RecordPaymentRequest) (*model.Payment, error) {
	var out struct {
		Payment model.Payment `json:"payment"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/payments", token, req, &out); err != nil {
		return nil, err
	}
	return &out.Payment, nil
}

// ExportStudents downloads the XLSX roster. The caller closes the body.
func (c *Client) ExportStudents(ctx context.Context, token string) (io.ReadCloser, string, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/v1/students/export", token, nil)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, "", classify(resp.StatusCode, raw)
	}
	return resp.Body, resp.Header.Get("Content-Disposition"), nil
}

func (c *Client) send(ctx context.Context, method, path, token string, body interface{}) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

// do performs a JSON round trip and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) (*envelope, error) {
	resp, err := c.send(ctx, method, path, token, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classify(resp.StatusCode, raw)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode data: %w", err)
		}
	}
	return &env, nil
}

func classify(status int, raw []byte) error {
	if status == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	apiErr := &APIError{Status: status}
	var env envelope
	if json.Unmarshal(raw, &env) == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Fields = env.Error.Fields
	}
	return apiErr
}

// MessageOr returns the API-provided message of err, or fallback when err
// carries none.
func MessageOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
