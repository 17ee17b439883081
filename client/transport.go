package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"shiftboard-api/core/errors"
	"shiftboard-api/modules/event/dto"

	"github.com/google/uuid"
)

// HTTPClient implements EventAPI against the REST API.
type HTTPClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		Token:   token,
		Client:  http.DefaultClient,
	}
}

// apiEnvelope matches the server's success response wrapper.
type apiEnvelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiError struct {
	Status  string           `json:"status"`
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

func (c *HTTPClient) GetEvent(ctx context.Context, id uuid.UUID) (*dto.EventResponse, error) {
	var out dto.EventResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/private/events/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*dto.MutationResult, error) {
	var out dto.MutationResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/private/events", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateEvent(ctx context.Context, id uuid.UUID, patch *dto.EventPatch) (*dto.MutationResult, error) {
	path := "/api/v1/private/events/" + id.String()
	if patch.Kind == dto.PatchKindTimeOnly {
		path += "/time"
	}
	var out dto.MutationResult
	if err := c.do(ctx, http.MethodPut, path, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ToggleAssignment(ctx context.Context, id uuid.UUID) (*dto.EventResponse, error) {
	var out dto.EventResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/private/events/"+id.String()+"/toggle", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		if jsonErr := json.Unmarshal(payload, &apiErr); jsonErr == nil && apiErr.Code != "" {
			return errors.NewAppError(apiErr.Code, apiErr.Message, nil)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	var envelope apiEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	return json.Unmarshal(envelope.Data, out)
}
