// Package traderpro is a Go client for the traderpro-server HTTP API.
package traderpro

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// Client provides a Go SDK for interacting with the traderpro-server API.
type Client struct {
	baseURL string
	http    *resty.Client
	token   string
}

// NewClient creates a new traderpro API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    resty.New().SetBaseURL(baseURL).SetTimeout(30 * time.Second),
	}
}

// Token returns the bearer token of the current session, if any.
func (c *Client) Token() string { return c.token }

// SetToken resumes a session obtained earlier.
func (c *Client) SetToken(token string) { c.token = token }

// APIError is a non-2xx reply from the server.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	Category   string `json:"category"`
	Hint       string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s (%d): %s", e.Message, e.StatusCode, e.Hint)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	apiErr := &APIError{}
	req := c.http.R().SetContext(ctx).SetError(apiErr)
	if c.token != "" {
		req.SetAuthToken(c.token)
	}
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr.StatusCode = resp.StatusCode()
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode())
		}
		return apiErr
	}
	return nil
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

// Portfolios lists the portfolios offered at login.
func (c *Client) Portfolios(ctx context.Context) ([]string, error) {
	var out struct {
		Portfolios []string `json:"portfolios"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/portfolios", nil, &out); err != nil {
		return nil, err
	}
	return out.Portfolios, nil
}

// Login opens a session and remembers its token on the client.
func (c *Client) Login(ctx context.Context, portfolio, password string, guest bool) (*Session, error) {
	body := map[string]any{"portfolio": portfolio, "password": password, "guest": guest}
	var out Session
	if err := c.do(ctx, http.MethodPost, "/api/login", body, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// Logout ends the current session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

// ---------------------------------------------------------------------------
// Views
// ---------------------------------------------------------------------------

// Summary returns equity and reconciled buying power.
func (c *Client) Summary(ctx context.Context) (*Summary, error) {
	var out Summary
	if err := c.do(ctx, http.MethodGet, "/api/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Positions returns the holdings table, CASH row included.
func (c *Client) Positions(ctx context.Context) (*Holdings, error) {
	var out Holdings
	if err := c.do(ctx, http.MethodGet, "/api/positions", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History returns filled trades.
func (c *Client) History(ctx context.Context) ([]Fill, error) {
	var out struct {
		Fills []Fill `json:"fills"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/history", nil, &out); err != nil {
		return nil, err
	}
	return out.Fills, nil
}

// ---------------------------------------------------------------------------
// Trading
// ---------------------------------------------------------------------------

// Assets lists tradable symbols. With refresh set the server drops its
// cached list first.
func (c *Client) Assets(ctx context.Context, refresh bool) (*Assets, error) {
	path := "/api/assets"
	if refresh {
		path += "?refresh=true"
	}
	var out Assets
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Quote previews an order without placing it.
func (c *Client) Quote(ctx context.Context, symbol, side string, qty decimal.Decimal, sellAll bool) (*Quote, error) {
	q := url.Values{}
	q.Set("side", side)
	q.Set("qty", qty.String())
	if sellAll {
		q.Set("sell_all", strconv.FormatBool(true))
	}
	var out Quote
	if err := c.do(ctx, http.MethodGet, "/api/quote/"+url.PathEscape(symbol)+"?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PendingOrders lists open orders.
func (c *Client) PendingOrders(ctx context.Context) ([]Order, error) {
	var out struct {
		Orders []Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/orders/pending", nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// PlaceOrder sends a checked market order.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	var out Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelOrder cancels an open order.
func (c *Client) CancelOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/orders/"+url.PathEscape(id), nil, nil)
}
