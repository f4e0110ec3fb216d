package orderapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopadmin/backend/internal/domain/order"
	"github.com/shopadmin/backend/internal/domain/shipping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]any
}

// newTestBackend starts a fake shop backend that records the last request
// and answers with the given status and body
func newTestBackend(t *testing.T, status int, body string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.Method = r.Method
		rec.Path = r.URL.Path
		rec.Query = r.URL.RawQuery
		rec.Auth = r.Header.Get("Authorization")
		rec.Body = nil
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &rec.Body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: baseURL + "/api/v1/"}, StaticTokenSource("svc-token"))
	require.NoError(t, err)
	return c
}

// =============================================================================
// Construction
// =============================================================================

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{}, StaticTokenSource("x"))
	assert.ErrorIs(t, err, ErrMissingBaseURL)

	_, err = NewClient(Config{BaseURL: "ftp://shop"}, StaticTokenSource("x"))
	assert.ErrorIs(t, err, ErrInvalidBaseURL)

	_, err = NewClient(Config{BaseURL: "http://shop"}, nil)
	assert.ErrorIs(t, err, ErrNoToken)

	c, err := NewClient(Config{BaseURL: "http://shop/api/"}, StaticTokenSource("x"))
	require.NoError(t, err)
	assert.Equal(t, "http://shop/api", c.cfg.BaseURL)
	assert.Equal(t, defaultTimeout, c.cfg.Timeout)
}

// =============================================================================
// Request shapes
// =============================================================================

func TestClient_ListOrders(t *testing.T) {
	srv, rec := newTestBackend(t, http.StatusOK, `{"data": {"orders": [{"id": "a", "status": "shipped"}], "total": 31}}`)
	c := newTestClient(t, srv.URL)

	page, err := c.ListOrders(context.Background(), ListQuery{Page: 2, Limit: 10, Status: order.OrderStatusShipped})
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, rec.Method)
	assert.Equal(t, "/api/v1/orders", rec.Path)
	assert.Equal(t, "limit=10&page=2&status=shipped", rec.Query)
	assert.Equal(t, "Bearer svc-token", rec.Auth)
	assert.Equal(t, 31, page.Total)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, order.OrderStatusShipped, page.Orders[0].Status)
}

func TestClient_SetOrderStatus(t *testing.T) {
	srv, rec := newTestBackend(t, http.StatusOK, `{"success": true}`)
	c := newTestClient(t, srv.URL)

	err := c.SetOrderStatus(context.Background(), "ord-1", StatusChange{
		Status:          order.OrderStatusCancelled,
		Reason:          order.ReasonCancelledByCarrier,
		ExpectedVersion: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, rec.Method)
	assert.Equal(t, "/api/v1/orders/ord-1/status", rec.Path)
	assert.Equal(t, "cancelled", rec.Body["status"])
	assert.Equal(t, "Cancelled by carrier", rec.Body["reason"])
	assert.Equal(t, float64(3), rec.Body["version"])
}

func TestClient_SetOrderStatus_OmitsEmptyFields(t *testing.T) {
	srv, rec := newTestBackend(t, http.StatusOK, `{}`)
	c := newTestClient(t, srv.URL)

	require.NoError(t, c.SetOrderStatus(context.Background(), "ord-1", StatusChange{Status: order.OrderStatusShipped}))

	assert.Equal(t, map[string]any{"status": "shipped"}, rec.Body)
}

func TestClient_Paths(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		body   string
		call   func(c *Client) error
		method string
		path   string
	}{
		{
			name:   "get order",
			body:   `{"data": {"id": "ord-1"}}`,
			call:   func(c *Client) error { _, err := c.GetOrder(ctx, "ord-1"); return err },
			method: http.MethodGet,
			path:   "/api/v1/orders/ord-1",
		},
		{
			name:   "cancel order",
			call:   func(c *Client) error { return c.CancelOrder(ctx, "ord-1", "customer request") },
			method: http.MethodPatch,
			path:   "/api/v1/orders/ord-1/cancel",
		},
		{
			name:   "create shipment",
			body:   `{"data": {"orderCode": "LBK9X", "fee": 32000}}`,
			call:   func(c *Client) error { _, err := c.CreateShipment(ctx, "ord-1"); return err },
			method: http.MethodPost,
			path:   "/api/v1/shipping/orders/ord-1",
		},
		{
			name:   "cancel shipment",
			call:   func(c *Client) error { return c.CancelShipment(ctx, "ord-1", "out of stock") },
			method: http.MethodPatch,
			path:   "/api/v1/shipping/orders/ord-1/cancel",
		},
		{
			name:   "fetch shipment status",
			body:   `{"data": {"order": {"id": "ord-1"}}}`,
			call:   func(c *Client) error { _, err := c.FetchShipmentStatus(ctx, "ord-1"); return err },
			method: http.MethodGet,
			path:   "/api/v1/shipping/status/ord-1",
		},
		{
			name:   "override carrier status",
			call:   func(c *Client) error { return c.OverrideCarrierStatus(ctx, "ord-1", shipping.CarrierDelivered) },
			method: http.MethodPatch,
			path:   "/api/v1/shipping/status/ord-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			if body == "" {
				body = `{"success": true}`
			}
			srv, rec := newTestBackend(t, http.StatusOK, body)
			c := newTestClient(t, srv.URL)

			require.NoError(t, tt.call(c))
			assert.Equal(t, tt.method, rec.Method)
			assert.Equal(t, tt.path, rec.Path)
		})
	}
}

func TestClient_CreateShipment_ReturnsOrderCode(t *testing.T) {
	srv, _ := newTestBackend(t, http.StatusCreated, `{"data": {"orderCode": "LBK9X", "fee": 32000}}`)
	c := newTestClient(t, srv.URL)

	res, err := c.CreateShipment(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "LBK9X", res.OrderCode)
	assert.Equal(t, "32000", res.Fee.String())
}

func TestClient_OverrideCarrierStatus_Body(t *testing.T) {
	srv, rec := newTestBackend(t, http.StatusOK, `{}`)
	c := newTestClient(t, srv.URL)

	require.NoError(t, c.OverrideCarrierStatus(context.Background(), "ord-1", shipping.CarrierReturned))
	assert.Equal(t, "returned", rec.Body["status_code"])
}

// =============================================================================
// Error typing
// =============================================================================

func TestClient_ErrorTyping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		check    func(t *testing.T, err error)
	}{
		{
			name:     "validation keeps backend message",
			status:   http.StatusUnprocessableEntity,
			body:     `{"message": "Cannot move a delivered order back to processing"}`,
			sentinel: ErrValidation,
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "Cannot move a delivered order back to processing", ve.Message)
			},
		},
		{
			name:     "bad request is validation",
			status:   http.StatusBadRequest,
			body:     `{"error": "bad status"}`,
			sentinel: ErrValidation,
		},
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"error": {"message": "jwt expired"}}`,
			sentinel: ErrAuth,
			check: func(t *testing.T, err error) {
				var ae *AuthError
				require.True(t, errors.As(err, &ae))
				assert.False(t, ae.Forbidden())
			},
		},
		{
			name:     "forbidden",
			status:   http.StatusForbidden,
			body:     `{}`,
			sentinel: ErrAuth,
			check: func(t *testing.T, err error) {
				var ae *AuthError
				require.True(t, errors.As(err, &ae))
				assert.True(t, ae.Forbidden())
			},
		},
		{
			name:     "conflict",
			status:   http.StatusConflict,
			body:     `{"message": "version mismatch"}`,
			sentinel: ErrConflict,
		},
		{
			name:     "not found",
			status:   http.StatusNotFound,
			body:     `{"message": "order not found"}`,
			sentinel: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestBackend(t, tt.status, tt.body)
			c := newTestClient(t, srv.URL)

			err := c.SetOrderStatus(context.Background(), "ord-1", StatusChange{Status: order.OrderStatusProcessing})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var apiErr *ShippingAPIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, "ord-1", apiErr.OrderID)
			assert.Equal(t, OpSetOrderStatus, apiErr.Operation)
			assert.Equal(t, tt.status, apiErr.StatusCode)

			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestClient_ServerErrorIsPlainAPIError(t *testing.T) {
	srv, _ := newTestBackend(t, http.StatusInternalServerError, `oops`)
	c := newTestClient(t, srv.URL)

	err := c.CancelOrder(context.Background(), "ord-1", "")
	var apiErr *ShippingAPIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "oops", apiErr.Message)
	assert.False(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNetwork))
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url)
	_, err := c.FetchShipmentStatus(context.Background(), "ord-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, OpFetchShipmentStatus, netErr.Operation)
	assert.Equal(t, "ord-1", netErr.OrderID)
}

func TestClient_InvalidEnvelope(t *testing.T) {
	srv, _ := newTestBackend(t, http.StatusOK, `{"data": {"status": "pending"}}`)
	c := newTestClient(t, srv.URL)

	_, err := c.GetOrder(context.Background(), "ord-1")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClient_FetchShipmentStatus_OrderWrapper(t *testing.T) {
	srv, rec := newTestBackend(t, http.StatusOK,
		`{"order": {"_id": "o1", "status": "shipped", "shipping": {"orderCode": "G1", "statusCode": "delivered"}}}`)
	c := newTestClient(t, srv.URL)

	o, err := c.FetchShipmentStatus(context.Background(), "o1")
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/shipping/status/o1", rec.Path)
	assert.Equal(t, "o1", o.ID)
	assert.Equal(t, order.OrderStatusShipped, o.Status)
	assert.Equal(t, shipping.CarrierDelivered, o.CarrierStatus())
}

func TestClient_ResponseTooLarge(t *testing.T) {
	srv, _ := newTestBackend(t, http.StatusOK, `{"data": {"id": "ord-1", "status": "pending"}}`)
	c, err := NewClient(Config{BaseURL: srv.URL + "/api/v1", MaxResponseSize: 16}, StaticTokenSource("svc-token"))
	require.NoError(t, err)

	_, err = c.GetOrder(context.Background(), "ord-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
	assert.False(t, errors.Is(err, ErrInvalidResponse))
}

func TestClient_ResponseAtLimitIsRead(t *testing.T) {
	body := `{"id": "ord-1", "status": "pending"}`
	srv, _ := newTestBackend(t, http.StatusOK, body)
	c, err := NewClient(Config{BaseURL: srv.URL, MaxResponseSize: int64(len(body))}, StaticTokenSource("svc-token"))
	require.NoError(t, err)

	o, err := c.GetOrder(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", o.ID)
}

// =============================================================================
// Token forwarding
// =============================================================================

func TestClient_ContextTokenSource(t *testing.T) {
	srv, rec := newTestBackend(t, http.StatusOK, `{"id": "ord-1"}`)
	c, err := NewClient(Config{BaseURL: srv.URL}, ContextTokenSource{Fallback: StaticTokenSource("svc-token")})
	require.NoError(t, err)

	ctx := WithBearerToken(context.Background(), "admin-token")
	_, err = c.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer admin-token", rec.Auth)

	_, err = c.GetOrder(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer svc-token", rec.Auth)
}

func TestClient_MissingTokenIsAuthError(t *testing.T) {
	srv, rec := newTestBackend(t, http.StatusOK, `{"id": "ord-1"}`)
	c, err := NewClient(Config{BaseURL: srv.URL}, ContextTokenSource{})
	require.NoError(t, err)

	_, err = c.GetOrder(context.Background(), "ord-1")
	assert.ErrorIs(t, err, ErrAuth)
	assert.Empty(t, rec.Method, "no request must be sent without a token")
}
