package traderpro

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestServer creates a new test server and a Client configured to use it.
func setupTestServer(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return NewClient(server.URL), server
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	c := NewClient(baseURL)

	if c == nil {
		t.Fatal("expected non-nil client")
	}
	if c.baseURL != baseURL {
		t.Errorf("expected baseURL %q, got %q", baseURL, c.baseURL)
	}
	if c.http == nil {
		t.Fatal("expected non-nil resty client")
	}
}

func TestLoginStoresToken(t *testing.T) {
	// Arrange
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Guardian", body["portfolio"])
		assert.Equal(t, false, body["guest"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok-1","role":"admin","portfolio":"Guardian"}`))
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	// Act
	s, err := c.Login(context.Background(), "Guardian", "pw", false)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "admin", s.Role)
	assert.Equal(t, "tok-1", c.Token())
}

func TestSummarySendsBearerToken(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"equity":"25000","cash":"4000","buying_power":"10000","locked":"1500","available":"8500"}`))
	})
	c, server := setupTestServer(handler)
	defer server.Close()
	c.SetToken("tok-1")

	s, err := c.Summary(context.Background())

	require.NoError(t, err)
	assert.True(t, s.Available.Equal(decimal.NewFromInt(8500)))
	assert.True(t, s.Locked.Equal(decimal.NewFromInt(1500)))
	require.NotNil(t, s.Equity)
	assert.True(t, s.Equity.Equal(decimal.NewFromInt(25000)))
}

func TestAPIErrorCarriesHint(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"potential wash trade detected","category":"conflict","hint":"check pending orders"}`))
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	_, err := c.PlaceOrder(context.Background(), OrderRequest{Symbol: "AAPL", Side: "buy", Qty: decimal.NewFromInt(1)})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "potential wash trade detected", apiErr.Message)
	assert.Equal(t, "conflict", apiErr.Category)
	assert.Contains(t, err.Error(), "check pending orders")
}

func TestQuoteEncodesQuery(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/quote/AAPL", r.URL.Path)
		assert.Equal(t, "sell", r.URL.Query().Get("side"))
		assert.Equal(t, "2.5", r.URL.Query().Get("qty"))
		assert.Equal(t, "true", r.URL.Query().Get("sell_all"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"AAPL","side":"sell","qty":"2.5","price":"150","cost":"375","held":"2.5","ok":true}`))
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	q, err := c.Quote(context.Background(), "AAPL", "sell", decimal.RequireFromString("2.5"), true)

	require.NoError(t, err)
	assert.True(t, q.OK)
	assert.True(t, q.Cost.Equal(decimal.NewFromInt(375)))
}

func TestAssetsRefresh(t *testing.T) {
	var refresh []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/assets", r.URL.Path)
		refresh = append(refresh, r.URL.Query().Get("refresh"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbols":["AAPL"],"fallback":false}`))
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	a, err := c.Assets(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, a.Symbols)

	_, err = c.Assets(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "true"}, refresh)
}

func TestCancelAndLogout(t *testing.T) {
	var paths []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	c, server := setupTestServer(handler)
	defer server.Close()
	c.SetToken("tok")

	require.NoError(t, c.CancelOrder(context.Background(), "abc-1"))
	require.NoError(t, c.Logout(context.Background()))

	assert.Equal(t, []string{"DELETE /api/orders/abc-1", "POST /api/logout"}, paths)
	assert.Empty(t, c.Token())
}

func TestListEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/portfolios", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"portfolios":["Guardian","Horizon"]}`))
	})
	mux.HandleFunc("GET /api/orders/pending", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"orders":[{"id":"1","symbol":"AAPL","side":"buy","qty":"3","status":"new","created_at":"2024-03-01T14:30:00Z"}]}`))
	})
	mux.HandleFunc("GET /api/history", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"fills":[{"symbol":"TSLA","side":"sell","qty":"1","price":"200.5"}]}`))
	})
	c, server := setupTestServer(mux)
	defer server.Close()
	ctx := context.Background()

	names, err := c.Portfolios(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Guardian", "Horizon"}, names)

	orders, err := c.PendingOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.True(t, orders[0].Qty.Equal(decimal.NewFromInt(3)))

	fills, err := c.History(ctx)
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Nil(t, fills[0].FilledAt)
}

func TestUnauthorizedWithoutBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	_, err := c.Positions(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Unauthorized", apiErr.Message)
}
