package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL = "https://api.warframe.market/v1"

	authScheme = "JWT "
)

// Credentials supplies the profile name and token for authenticated calls
// and receives the renewed token after a successful write.
type Credentials interface {
	UserName() string
	AuthToken() string
	SetAuthToken(token string)
}

type Client struct {
	baseURL      string
	creds        Credentials
	client       *http.Client
	gate         *Gate
	apiCallCount int64
	apiCallMutex sync.Mutex
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func WithGate(g *Gate) Option {
	return func(c *Client) { c.gate = g }
}

func NewClient(creds Credentials, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		creds:   creds,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		gate: NewGate(DefaultMinInterval),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IncrementAPICall safely increments the API call counter
func (c *Client) IncrementAPICall() {
	c.apiCallMutex.Lock()
	c.apiCallCount++
	c.apiCallMutex.Unlock()
}

// GetAPICallCount returns the current API call count
func (c *Client) GetAPICallCount() int64 {
	c.apiCallMutex.Lock()
	defer c.apiCallMutex.Unlock()
	return c.apiCallCount
}

// ResetAPICallCount resets the API call counter to zero
func (c *Client) ResetAPICallCount() {
	c.apiCallMutex.Lock()
	c.apiCallCount = 0
	c.apiCallMutex.Unlock()
}

// GetOrder fetches a single order of the authenticated profile.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*OrderResponse, error) {
	var resp OrderResponse
	if _, err := c.do(ctx, http.MethodGet, "/profile/orders/"+url.PathEscape(orderID), nil, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAllOwnOrders fetches every order of the stored user name, including
// the invisible ones only the profile owner can see.
func (c *Client) GetAllOwnOrders(ctx context.Context) (*OrdersResponse, error) {
	userName := c.creds.UserName()
	if userName == "" {
		return nil, ErrNoUserName
	}

	var resp OrdersResponse
	if _, err := c.do(ctx, http.MethodGet, "/profile/"+url.PathEscape(userName)+"/orders", nil, true, &resp); err != nil {
		return nil, err
	}
	log.Debug().
		Str("user_name", userName).
		Int("sell_orders", len(resp.Payload.SellOrders)).
		Int("buy_orders", len(resp.Payload.BuyOrders)).
		Msg("Retrieved own orders")
	return &resp, nil
}

func (c *Client) GetItemInfo(ctx context.Context, urlName string) (*ItemResponse, error) {
	var resp ItemResponse
	if _, err := c.do(ctx, http.MethodGet, "/items/"+url.PathEscape(urlName), nil, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetAllItemsInfo(ctx context.Context) (*ItemsResponse, error) {
	var resp ItemsResponse
	if _, err := c.do(ctx, http.MethodGet, "/items", nil, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateOrder sends the new order values. On success the token carried in
// the response's Authorization header replaces the stored one.
func (c *Client) UpdateOrder(ctx context.Context, orderID string, update OrderUpdate) error {
	header, err := c.do(ctx, http.MethodPut, "/profile/orders/"+url.PathEscape(orderID), update, true, nil)
	if err != nil {
		return err
	}

	if token, ok := extractToken(header); ok {
		c.creds.SetAuthToken(token)
		log.Debug().Str("order_id", orderID).Msg("Stored renewed auth token")
	} else {
		log.Debug().Str("order_id", orderID).Msg("No renewed auth token in response")
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, auth bool, out any) (http.Header, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setCommonHeaders(req)
	if auth {
		c.setAuthHeaders(req)
	}

	if err := c.gate.Wait(ctx); err != nil {
		return nil, fmt.Errorf("request %s %s not sent: %w", method, path, err)
	}

	// Increment API call counter
	c.IncrementAPICall()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status_code", resp.StatusCode).
		Int("body_length", len(data)).
		Msg("Received API response")

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.Header, nil
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json; utf-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("language", "en")
	req.Header.Set("platform", "pc")
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("auth_type", "header")
	req.Header.Set("Authorization", authScheme+c.creds.AuthToken())
}

// extractToken strips the 4 character scheme tag from the Authorization header.
func extractToken(header http.Header) (string, bool) {
	value := header.Get("Authorization")
	if len(value) <= len(authScheme) {
		return "", false
	}
	return value[len(authScheme):], true
}
