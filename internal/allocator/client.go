package allocator

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

	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
)

const (
	DefaultBaseURL = "http://localhost:3000"

	requestBookingPath = "/request-booking"
	bookingStatusPath  = "/booking-status/"
	coachLayoutPath    = "/coach-layout"
)

var ErrEmptyRequestID = errors.New("allocator returned an empty request id")

// Client talks to the remote seat allocation service
type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewClient creates a Client for baseURL. A nil httpClient uses a default one.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

// WithTimeout returns a copy applying timeout to every call. Zero disables it.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	clone := *c
	clone.timeout = timeout
	return &clone
}

// RequestError is a non-2xx answer from the allocation service
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("http %d", e.StatusCode)
}

// RequestBooking submits a create-booking request
func (c *Client) RequestBooking(ctx context.Context, req models.BookingRequest) (*models.BookingResponse, error) {
	body, err := c.do(ctx, http.MethodPost, requestBookingPath, req)
	if err != nil {
		return nil, err
	}
	var resp models.BookingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode booking response: %w", err)
	}
	if strings.TrimSpace(resp.RequestID) == "" {
		return nil, ErrEmptyRequestID
	}
	return &resp, nil
}

// GetBookingStatus queries the allocation decision for requestID
func (c *Client) GetBookingStatus(ctx context.Context, requestID string) (*models.BookingStatusRecord, error) {
	id := strings.TrimSpace(requestID)
	if id == "" {
		return nil, fmt.Errorf("request id is required")
	}
	body, err := c.do(ctx, http.MethodGet, bookingStatusPath+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var rec models.BookingStatusRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("decode booking status: %w", err)
	}
	return &rec, nil
}

// GetCoachLayout fetches the seat occupancy map
func (c *Client) GetCoachLayout(ctx context.Context) (models.CoachLayout, error) {
	body, err := c.do(ctx, http.MethodGet, coachLayoutPath, nil)
	if err != nil {
		return nil, err
	}
	layout := models.CoachLayout{}
	if err := json.Unmarshal(body, &layout); err != nil {
		return nil, fmt.Errorf("decode coach layout: %w", err)
	}
	return layout, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	var reqBody io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = buf
	}
	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(payload),
		}
	}
	return payload, nil
}

// errorMessage prefers an {"error": "..."} body over the raw payload
func errorMessage(payload []byte) string {
	var er struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(payload, &er); err == nil && er.Error != "" {
		return er.Error
	}
	return strings.TrimSpace(string(payload))
}
