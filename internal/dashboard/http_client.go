package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"campdesk/internal/dto"
)

// APIError a non-success envelope returned by the server
type APIError struct {
	Status  int
	Code    int
	Message string
	// Data raw payload of the envelope, e.g. room details on a 409
	Data json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (code %d): %s", e.Status, e.Code, e.Message)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type listData[T any] struct {
	List []T `json:"list"`
}

// HTTPClient implements API over the /api/v1 endpoints
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient baseURL is the server root, e.g. http://localhost:8080
func NewHTTPClient(baseURL, token string, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		token:   token,
		client:  client,
	}
}

func (c *HTTPClient) Stats(ctx context.Context) (*dto.AccommodationStats, error) {
	var out dto.AccommodationStats
	if err := c.do(ctx, http.MethodGet, "/accommodation/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Rooms(ctx context.Context, gender string) ([]dto.RoomResponse, error) {
	var out listData[dto.RoomResponse]
	if err := c.do(ctx, http.MethodGet, "/rooms"+genderQuery(gender), nil, &out); err != nil {
		return nil, err
	}
	return out.List, nil
}

func (c *HTTPClient) Unallocated(ctx context.Context, gender string) ([]dto.RegistrationResponse, error) {
	var out listData[dto.RegistrationResponse]
	if err := c.do(ctx, http.MethodGet, "/registrations/unallocated"+genderQuery(gender), nil, &out); err != nil {
		return nil, err
	}
	return out.List, nil
}

func (c *HTTPClient) Verify(ctx context.Context, registrationID string) (*dto.RegistrationResponse, error) {
	var out dto.RegistrationResponse
	path := "/registrations/" + url.PathEscape(registrationID) + "/verify"
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ManualAllocate(ctx context.Context, registrationID, roomID string) (*dto.AllocationResponse, error) {
	var out dto.AllocationResponse
	body := dto.ManualAllocateRequest{RegistrationID: registrationID, RoomID: roomID}
	if err := c.do(ctx, http.MethodPost, "/allocations", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) RemoveAllocation(ctx context.Context, registrationID string) error {
	return c.do(ctx, http.MethodDelete, "/allocations/"+url.PathEscape(registrationID), nil, nil)
}

func (c *HTTPClient) AutoAllocate(ctx context.Context, gender string) (*dto.AutoAllocateResponse, error) {
	var out dto.AutoAllocateResponse
	if err := c.do(ctx, http.MethodPost, "/allocations/auto", dto.AutoAllocateRequest{Gender: gender}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func genderQuery(gender string) string {
	if gender == "" {
		return ""
	}
	return "?gender=" + url.QueryEscape(gender)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s %s (status %d): %w", method, path, resp.StatusCode, err)
	}
	if resp.StatusCode >= http.StatusBadRequest || env.Code != 0 {
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Message, Data: env.Data}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s data: %w", method, path, err)
	}
	return nil
}
