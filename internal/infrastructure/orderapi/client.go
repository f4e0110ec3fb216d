// Package orderapi is the REST client for the shop backend that owns
// order and shipment records. It is the only writer of order status.
package orderapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopadmin/backend/internal/domain/order"
	"github.com/shopadmin/backend/internal/domain/shipping"
	"github.com/shopadmin/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Operation names used in errors, spans and metrics
const (
	OpListOrders            = "list_orders"
	OpGetOrder              = "get_order"
	OpSetOrderStatus        = "set_order_status"
	OpCancelOrder           = "cancel_order"
	OpCreateShipment        = "create_shipment"
	OpCancelShipment        = "cancel_shipment"
	OpFetchShipmentStatus   = "fetch_shipment_status"
	OpOverrideCarrierStatus = "override_carrier_status"
)

// Client talks to the shop backend. Calls are never retried; callers
// decide what a failure means for them.
type Client struct {
	cfg        Config
	tokens     TokenSource
	httpClient *http.Client
	logger     *zap.Logger
	requests   *telemetry.Counter
	latency    *telemetry.Histogram
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMeter enables the request counter and latency histogram
func WithMeter(meter metric.Meter) Option {
	return func(c *Client) {
		if counter, err := telemetry.NewCounter(meter, "orderapi_requests_total",
			"Shop backend requests by operation and outcome", "{request}"); err == nil {
			c.requests = counter
		}
		if latency, err := telemetry.NewHistogram(meter, "orderapi_request_duration_seconds",
			"Shop backend request latency by operation", telemetry.BackendCallBuckets); err == nil {
			c.latency = latency
		}
	}
}

// NewClient creates a new shop backend client
func NewClient(cfg Config, tokens TokenSource, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tokens == nil {
		return nil, ErrNoToken
	}
	c := &Client{
		cfg:    cfg,
		tokens: tokens,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return c, nil
}

// ListQuery selects a page of orders
type ListQuery struct {
	Page   int
	Limit  int
	Status order.OrderStatus
}

// StatusChange is the body of a status mutation. ExpectedVersion is sent
// when > 0 and the backend answers 409 when it no longer matches.
type StatusChange struct {
	Status          order.OrderStatus
	Reason          string
	ExpectedVersion int
}

// ListOrders fetches one page of orders
func (c *Client) ListOrders(ctx context.Context, q ListQuery) (*OrderPage, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Status != "" {
		params.Set("status", q.Status.String())
	}

	body, err := c.do(ctx, OpListOrders, "", http.MethodGet, "/orders", params, nil)
	if err != nil {
		return nil, err
	}
	page, err := NormalizeOrderListEnvelope(body)
	if err != nil {
		return nil, err
	}
	page.Page = q.Page
	page.Limit = q.Limit
	return page, nil
}

// GetOrder fetches a single order with its current version
func (c *Client) GetOrder(ctx context.Context, orderID string) (*order.Order, error) {
	body, err := c.do(ctx, OpGetOrder, orderID, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, nil)
	if err != nil {
		return nil, err
	}
	return NormalizeOrderEnvelope(body)
}

type setStatusRequest struct {
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Version *int   `json:"version,omitempty"`
}

// SetOrderStatus asks the backend to move the order to a new status
func (c *Client) SetOrderStatus(ctx context.Context, orderID string, change StatusChange) error {
	req := setStatusRequest{Status: change.Status.String(), Reason: change.Reason}
	if change.ExpectedVersion > 0 {
		v := change.ExpectedVersion
		req.Version = &v
	}
	_, err := c.do(ctx, OpSetOrderStatus, orderID, http.MethodPatch,
		"/orders/"+url.PathEscape(orderID)+"/status", nil, req)
	return err
}

type reasonRequest struct {
	Reason string `json:"reason,omitempty"`
}

// CancelOrder cancels an order on the backend
func (c *Client) CancelOrder(ctx context.Context, orderID, reason string) error {
	_, err := c.do(ctx, OpCancelOrder, orderID, http.MethodPatch,
		"/orders/"+url.PathEscape(orderID)+"/cancel", nil, reasonRequest{Reason: reason})
	return err
}

// CreateShipment books a carrier shipment for the order
func (c *Client) CreateShipment(ctx context.Context, orderID string) (*ShipmentResult, error) {
	body, err := c.do(ctx, OpCreateShipment, orderID, http.MethodPost,
		"/shipping/orders/"+url.PathEscape(orderID), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeShipmentResult(body)
}

// CancelShipment cancels the carrier shipment of the order
func (c *Client) CancelShipment(ctx context.Context, orderID, reason string) error {
	_, err := c.do(ctx, OpCancelShipment, orderID, http.MethodPatch,
		"/shipping/orders/"+url.PathEscape(orderID)+"/cancel", nil, reasonRequest{Reason: reason})
	return err
}

// FetchShipmentStatus asks the backend to pull the latest carrier status
// and returns the order as the backend now sees it
func (c *Client) FetchShipmentStatus(ctx context.Context, orderID string) (*order.Order, error) {
	body, err := c.do(ctx, OpFetchShipmentStatus, orderID, http.MethodGet,
		"/shipping/status/"+url.PathEscape(orderID), nil, nil)
	if err != nil {
		return nil, err
	}
	return NormalizeOrderEnvelope(body)
}

type overrideRequest struct {
	StatusCode string `json:"status_code"`
}

// OverrideCarrierStatus writes a carrier status code as if the carrier
// webhook had delivered it
func (c *Client) OverrideCarrierStatus(ctx context.Context, orderID string, code shipping.CarrierStatus) error {
	_, err := c.do(ctx, OpOverrideCarrierStatus, orderID, http.MethodPatch,
		"/shipping/status/"+url.PathEscape(orderID), nil, overrideRequest{StatusCode: code.String()})
	return err
}

// do sends one request and returns the response body of a 2xx answer
func (c *Client) do(ctx context.Context, op, orderID, method, path string, params url.Values, payload any) (body []byte, err error) {
	ctx, span := telemetry.StartSpan(ctx, "orderapi."+op, trace.SpanKindClient,
		attribute.String("http.request.method", method),
		telemetry.AttrOrderID.String(orderID),
	)
	started := time.Now()
	defer func() {
		telemetry.EndSpan(span, err)
		if c.requests != nil {
			c.requests.Inc(ctx, telemetry.AttrOperation.String(op), telemetry.AttrOutcome.String(outcomeOf(err)))
		}
		if c.latency != nil {
			c.latency.RecordDuration(ctx, time.Since(started), telemetry.AttrOperation.String(op))
		}
	}()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, &AuthError{&ShippingAPIError{
			OrderID:    orderID,
			Operation:  op,
			StatusCode: http.StatusUnauthorized,
			Message:    err.Error(),
		}}
	}

	endpoint := c.cfg.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("orderapi: failed to encode %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("orderapi: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Shop backend unreachable",
			zap.String("operation", op),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return nil, &NetworkError{OrderID: orderID, Operation: op, Err: err}
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxResponseSize+1))
	if err != nil {
		return nil, &NetworkError{OrderID: orderID, Operation: op, Err: err}
	}
	if int64(len(body)) > c.cfg.MaxResponseSize {
		return nil, fmt.Errorf("%s: %w: more than %d bytes", op, ErrResponseTooLarge, c.cfg.MaxResponseSize)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := classifyStatus(orderID, op, resp.StatusCode, errorMessage(body))
		c.logger.Debug("Shop backend rejected request",
			zap.String("operation", op),
			zap.String("order_id", orderID),
			zap.Int("status_code", resp.StatusCode),
			zap.Error(apiErr),
		)
		return nil, apiErr
	}
	return body, nil
}
