package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// TicketClient is the interface the Notifier drives; spec.md §1 keeps the
// concrete ticketing system out of scope.
type TicketClient interface {
	// CreateOrUpdate creates a new ticket, or updates the one named by
	// ticketID when non-empty, and returns the (possibly new) id/ref pair.
	CreateOrUpdate(ctx context.Context, ticketID, subject, body string) (id, ref string, err error)
}

// TicketAPIError mirrors the teacher's apiclient.APIError: a typed error
// the client surfaces for a non-2xx response, with classification helpers.
type TicketAPIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

func (e *TicketAPIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *TicketAPIError) IsAuthError() bool       { return e.Code == "UNAUTHORIZED" || e.Code == "FORBIDDEN" }
func (e *TicketAPIError) IsNotFound() bool        { return e.Code == "NOT_FOUND" }
func (e *TicketAPIError) IsConflict() bool        { return e.Code == "CONFLICT" }
func (e *TicketAPIError) IsValidationError() bool { return e.Code == "VALIDATION_ERROR" }

// HTTPTicketClient is the real ticket client, built the way the teacher's
// pkg/apiclient builds its REST client: unexported do/get/post helpers,
// bearer token auth, a typed API error.
type HTTPTicketClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func NewHTTPTicketClient(baseURL, token string) *HTTPTicketClient {
	return &HTTPTicketClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      token,
	}
}

type ticketRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type ticketResponse struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
}

func (c *HTTPTicketClient) CreateOrUpdate(ctx context.Context, ticketID, subject, body string) (string, string, error) {
	req := ticketRequest{Subject: subject, Body: body}
	var resp ticketResponse
	if ticketID == "" {
		if err := c.post(ctx, "/tickets", req, &resp); err != nil {
			return "", "", err
		}
		return resp.ID, resp.Reference, nil
	}
	if err := c.put(ctx, "/tickets/"+ticketID, req, &resp); err != nil {
		return "", "", err
	}
	return resp.ID, resp.Reference, nil
}

func (c *HTTPTicketClient) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ticket client: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("ticket client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ticket client: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ticket client: read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr TicketAPIError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			apiErr.StatusCode = resp.StatusCode
			return &apiErr
		}
		return &TicketAPIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("ticket client: decode response: %w", err)
		}
	}
	return nil
}

func (c *HTTPTicketClient) post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

func (c *HTTPTicketClient) put(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

// MockTicketClient is selected when IXF_SEND_TICKETS is false: it fabricates
// a stable id/ref pair without any outbound call, for dry runs and tests.
type MockTicketClient struct {
	Created []ticketRequest
}

func NewMockTicketClient() *MockTicketClient {
	return &MockTicketClient{}
}

func (c *MockTicketClient) CreateOrUpdate(_ context.Context, ticketID, subject, body string) (string, string, error) {
	c.Created = append(c.Created, ticketRequest{Subject: subject, Body: body})
	if ticketID != "" {
		return ticketID, "MOCK-" + ticketID, nil
	}
	id := uuid.New().String()
	return id, "MOCK-" + id[:8], nil
}
