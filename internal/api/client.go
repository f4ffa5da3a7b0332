// Package api implements the client side of the budget server's HTTP
// contract: list, detail, table, bulk-update, bulk-create, and delete.
// It speaks raw JSON at the edge; wire.go converts payloads to domain
// models.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/alexanderramin/oikos/internal/tabling"
)

// Resource names one budget-scoped collection on the server.
type Resource string

const (
	ResourceBudgets     Resource = "budgets"
	ResourceAccounts    Resource = "accounts"
	ResourceSubAccounts Resource = "subaccounts"
	ResourceGroups      Resource = "groups"
	ResourceMarkups     Resource = "markups"
	ResourceFringes     Resource = "fringes"
)

// ListResult is the server's list shape: a count and an array of models.
type ListResult struct {
	Count int               `json:"count"`
	Data  []json.RawMessage `json:"data"`
}

// TableResult is the combined table shape: the data rows and their groups
// fetched as one consistent snapshot.
type TableResult struct {
	Models ListResult `json:"models"`
	Groups ListResult `json:"groups"`
}

// Client provides access to the budget server's HTTP contract.
type Client interface {
	// List fetches a budget-scoped collection.
	List(ctx context.Context, budgetID int64, res Resource) (*ListResult, error)

	// Table fetches a collection together with its groups in one snapshot.
	Table(ctx context.Context, budgetID int64, res Resource) (*TableResult, error)

	// Detail fetches a single model by id.
	Detail(ctx context.Context, budgetID int64, res Resource, id int64) (json.RawMessage, error)

	// BulkUpdate sends an array of per-id partial payloads and returns the
	// updated models.
	BulkUpdate(ctx context.Context, budgetID int64, res Resource, payloads []tabling.Payload) ([]json.RawMessage, error)

	// BulkCreate sends an array of full payloads and returns the created
	// models, in payload order.
	BulkCreate(ctx context.Context, budgetID int64, res Resource, payloads []tabling.Payload) ([]json.RawMessage, error)

	// Delete removes a single model by id.
	Delete(ctx context.Context, budgetID int64, res Resource, id int64) error

	// Available checks whether the budget server is reachable.
	Available(ctx context.Context) bool
}

type httpClient struct {
	cfg      Config
	http     *http.Client
	observer Observer
}

// NewClient creates a Client for the configured budget server.
func NewClient(cfg Config, observer Observer) Client {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &httpClient{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

func (c *httpClient) List(ctx context.Context, budgetID int64, res Resource) (*ListResult, error) {
	var out ListResult
	if err := c.call(ctx, http.MethodGet, c.collectionURL(budgetID, res), nil, &out, res); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Table(ctx context.Context, budgetID int64, res Resource) (*TableResult, error) {
	var out TableResult
	url := c.collectionURL(budgetID, res) + "table/"
	if err := c.call(ctx, http.MethodGet, url, nil, &out, res); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Detail(ctx context.Context, budgetID int64, res Resource, id int64) (json.RawMessage, error) {
	var out json.RawMessage
	url := fmt.Sprintf("%s%d/", c.collectionURL(budgetID, res), id)
	if err := c.call(ctx, http.MethodGet, url, nil, &out, res); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) BulkUpdate(ctx context.Context, budgetID int64, res Resource, payloads []tabling.Payload) ([]json.RawMessage, error) {
	var out ListResult
	url := c.collectionURL(budgetID, res) + "bulk/"
	if err := c.call(ctx, http.MethodPatch, url, payloads, &out, res); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *httpClient) BulkCreate(ctx context.Context, budgetID int64, res Resource, payloads []tabling.Payload) ([]json.RawMessage, error) {
	var out ListResult
	url := c.collectionURL(budgetID, res) + "bulk/"
	if err := c.call(ctx, http.MethodPost, url, payloads, &out, res); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *httpClient) Delete(ctx context.Context, budgetID int64, res Resource, id int64) error {
	url := fmt.Sprintf("%s%d/", c.collectionURL(budgetID, res), id)
	return c.call(ctx, http.MethodDelete, url, nil, nil, res)
}

func (c *httpClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"/v1/health/", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *httpClient) collectionURL(budgetID int64, res Resource) string {
	if res == ResourceBudgets {
		return fmt.Sprintf("%s/v1/budgets/", c.cfg.Endpoint)
	}
	return fmt.Sprintf("%s/v1/budgets/%d/%s/", c.cfg.Endpoint, budgetID, res)
}

// call runs one contract request with retry, decoding a JSON response into
// out when out is non-nil. Validation and not-found responses are never
// retried.
func (c *httpClient) call(ctx context.Context, method, url string, body, out any, res Resource) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutMs)*time.Millisecond)
	defer cancel()

	var lastErr error
	var lastStatus int
	attempts := 1 + c.cfg.MaxRetries

	for i := 0; i < attempts; i++ {
		status, err := c.doRequest(ctx, method, url, body, out)
		lastStatus = status
		if err == nil {
			c.observer.OnCallComplete(CallEvent{
				Resource:  res,
				Method:    method,
				Status:    status,
				LatencyMs: time.Since(start).Milliseconds(),
				Success:   true,
			})
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		var verr *ValidationError
		if errors.As(err, &verr) || errors.Is(err, ErrNotFound) {
			break
		}
	}

	err := classify(ctx, lastErr)
	c.observer.OnCallComplete(CallEvent{
		Resource:  res,
		Method:    method,
		Status:    lastStatus,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   false,
		ErrorCode: errorCode(err),
	})
	return err
}

func (c *httpClient) doRequest(ctx context.Context, method, url string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return resp.StatusCode, ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		return resp.StatusCode, decodeValidation(resp.StatusCode, respBody)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return resp.StatusCode, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// decodeValidation parses the server's rejection body. Bulk endpoints return
// an array of per-payload field-message maps (empty maps for accepted
// elements); single-object endpoints return one map.
func decodeValidation(status int, body []byte) error {
	var bulk []map[string][]string
	if err := json.Unmarshal(body, &bulk); err == nil {
		for i, fields := range bulk {
			if len(fields) == 0 {
				continue
			}
			return &ValidationError{Status: status, Index: i, Fields: fieldErrors(fields)}
		}
		return &ValidationError{Status: status, Index: -1}
	}

	var single map[string][]string
	if err := json.Unmarshal(body, &single); err == nil && len(single) > 0 {
		return &ValidationError{Status: status, Index: -1, Fields: fieldErrors(single)}
	}
	return &ValidationError{
		Status: status,
		Index:  -1,
		Fields: []FieldError{{Field: "detail", Message: string(body)}},
	}
}

func fieldErrors(fields map[string][]string) []FieldError {
	var out []FieldError
	for field, messages := range fields {
		for _, msg := range messages {
			out = append(out, FieldError{Field: field, Message: msg})
		}
	}
	return out
}

func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ErrTimeout
	}
	var verr *ValidationError
	if errors.As(err, &verr) || errors.Is(err, ErrNotFound) {
		return err
	}
	if isConnectionError(err) {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %v", ErrRetryExhausted, err)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}
