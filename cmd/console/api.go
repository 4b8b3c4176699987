package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jwebster45206/pet-engine/internal/handlers"
	"github.com/jwebster45206/pet-engine/pkg/behavior"
	"github.com/jwebster45206/pet-engine/pkg/pet"
)

// APIClient talks to the pet engine API.
type APIClient struct {
	baseURL string
	http    *http.Client
}

func NewAPIClient(baseURL string, client *http.Client) *APIClient {
	return &APIClient{baseURL: baseURL, http: client}
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.Status, e.Message)
}

func (c *APIClient) testConnection() bool {
	resp, err := c.http.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// do sends a request with an optional JSON body and decodes a JSON response
// into out when out is non-nil.
func (c *APIClient) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errorResp handlers.ErrorResponse
		if err := json.Unmarshal(data, &errorResp); err != nil || errorResp.Error == "" {
			return &APIError{Status: resp.StatusCode, Message: string(data)}
		}
		return &APIError{Status: resp.StatusCode, Message: errorResp.Error}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *APIClient) Status() (*pet.Status, error) {
	var st pet.Status
	if err := c.do(http.MethodGet, "/v1/pet", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *APIClient) Inventory() (*handlers.InventoryResponse, error) {
	var inv handlers.InventoryResponse
	if err := c.do(http.MethodGet, "/v1/pet/inventory", nil, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// Interact performs action. foodID is only sent for feed.
func (c *APIClient) Interact(action, foodID string) (*handlers.InteractResponse, error) {
	var body any
	if foodID != "" {
		body = handlers.InteractRequest{FoodID: foodID}
	}
	var resp handlers.InteractResponse
	if err := c.do(http.MethodPost, "/v1/pet/interact/"+action, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) Boundary(edge behavior.Edge) (*behavior.State, error) {
	var st behavior.State
	if err := c.do(http.MethodPost, "/v1/pet/boundary", handlers.BoundaryRequest{Edge: string(edge)}, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *APIClient) Notifications() (*handlers.NotificationsResponse, error) {
	var resp handlers.NotificationsResponse
	if err := c.do(http.MethodGet, "/v1/pet/notifications", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) Achievements() (*pet.AchievementReport, error) {
	var report pet.AchievementReport
	if err := c.do(http.MethodGet, "/v1/pet/achievements", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *APIClient) Save() error {
	return c.do(http.MethodPost, "/v1/pet/save", nil, nil)
}

func (c *APIClient) Load() (*pet.Status, error) {
	var st pet.Status
	if err := c.do(http.MethodPost, "/v1/pet/load", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
