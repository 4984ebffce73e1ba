// Package backend is the JSON HTTP client for the coupon record
// service, used by the issuance orchestrator to mirror locally drawn
// coupons and by the admin CLI for listings and management.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sfmarket/daily-spin/internal/models"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-success envelope from the service. Only the
// envelope message crosses this boundary, never storage internals.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// CreateCoupon mirrors a locally issued coupon to durable storage.
func (c *Client) CreateCoupon(ctx context.Context, req models.CreateCouponRequest) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := c.do(ctx, http.MethodPost, "/api/coupons", nil, req, &coupon); err != nil {
		return nil, err
	}
	return &coupon, nil
}

// Login validates the admin credential pair and returns the session
// token and its absolute expiry deadline.
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginData, error) {
	req := models.LoginRequest{Username: username, Password: password}
	var data models.LoginData
	if err := c.do(ctx, http.MethodPost, "/api/admin/login", nil, req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ListCoupons returns one page of coupon records, newest first.
func (c *Client) ListCoupons(ctx context.Context, page, limit int) ([]models.Coupon, *models.Pagination, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var coupons []models.Coupon
	env, err := c.doEnvelope(ctx, http.MethodGet, "/api/coupons", q, nil, &coupons)
	if err != nil {
		return nil, nil, err
	}
	return coupons, env.Pagination, nil
}

// Stats returns the aggregate coupon statistics.
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	if err := c.do(ctx, http.MethodGet, "/api/coupons/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SetUsed toggles a coupon's used state.
func (c *Client) SetUsed(ctx context.Context, id string, used bool) error {
	q := url.Values{}
	q.Set("id", id)
	return c.do(ctx, http.MethodPatch, "/api/coupons", q, models.UpdateUsedRequest{IsUsed: &used}, nil)
}

// DeleteCoupon removes one coupon record.
func (c *Client) DeleteCoupon(ctx context.Context, id string) error {
	q := url.Values{}
	q.Set("id", id)
	return c.do(ctx, http.MethodDelete, "/api/coupons", q, nil, nil)
}

// DeleteAll removes every coupon record and reports how many went.
func (c *Client) DeleteAll(ctx context.Context) (int64, error) {
	q := url.Values{}
	q.Set("all", "true")
	var data models.DeleteAllData
	if err := c.do(ctx, http.MethodDelete, "/api/coupons", q, nil, &data); err != nil {
		return 0, err
	}
	return data.Deleted, nil
}

// --- plumbing ---

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	_, err := c.doEnvelope(ctx, method, path, query, body, out)
	return err
}

// doEnvelope performs one request and decodes the standard envelope,
// unmarshalling Data into out when out is non-nil.
func (c *Client) doEnvelope(ctx context.Context, method, path string, query url.Values, body, out interface{}) (*envelope, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode response data: %w", err)
		}
	}
	return &env, nil
}

// envelope mirrors models.Response with Data left raw for the caller.
type envelope struct {
	Success    bool               `json:"success"`
	Data       json.RawMessage    `json:"data"`
	Message    string             `json:"message"`
	Pagination *models.Pagination `json:"pagination"`
}
