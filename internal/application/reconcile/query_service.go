package reconcile

import (
	"context"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/shopadmin/backend/internal/domain/order"
	"github.com/shopadmin/backend/internal/infrastructure/cache"
	"github.com/shopadmin/backend/internal/infrastructure/orderapi"
	"go.uber.org/zap"
)

// OrderQueryService reads orders through the passive view cache
type OrderQueryService struct {
	gateway OrderGateway
	views   cache.OrderViewCache
	logger  *zap.Logger
}

// NewOrderQueryService creates a read-through order query service
func NewOrderQueryService(gateway OrderGateway, views cache.OrderViewCache, logger *zap.Logger) *OrderQueryService {
	return &OrderQueryService{gateway: gateway, views: views, logger: logger}
}

// List returns one page of orders
func (s *OrderQueryService) List(ctx context.Context, q orderapi.ListQuery) (*orderapi.OrderPage, error) {
	key := cache.ListKey(listCacheQuery(q))
	var page orderapi.OrderPage
	if s.load(ctx, key, &page) {
		return &page, nil
	}

	result, err := s.gateway.ListOrders(ctx, q)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, result)
	return result, nil
}

// Get returns one order
func (s *OrderQueryService) Get(ctx context.Context, orderID string) (*order.Order, error) {
	key := cache.OrderKey(orderID)
	var o order.Order
	if s.load(ctx, key, &o) {
		return &o, nil
	}

	result, err := s.gateway.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, result)
	return result, nil
}

func (s *OrderQueryService) load(ctx context.Context, key string, dst any) bool {
	if s.views == nil {
		return false
	}
	data, ok := s.views.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("Discarding unreadable order view", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *OrderQueryService) store(ctx context.Context, key string, v any) {
	if s.views == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("Failed to encode order view", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.views.Set(ctx, key, data); err != nil {
		s.logger.Warn("Failed to cache order view", zap.String("key", key), zap.Error(err))
	}
}

// listCacheQuery renders q canonically so equal queries share a key
func listCacheQuery(q orderapi.ListQuery) string {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Status != "" {
		v.Set("status", q.Status.String())
	}
	return v.Encode()
}
