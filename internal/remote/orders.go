package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/vladislavdragonenkov/refsync/internal/domain"
)

// Orders — типизированный доступ к коллекции /orders.
type Orders struct {
	c *Client
}

// NewOrders возвращает хранилище заказов поверх общего клиента.
func NewOrders(c *Client) *Orders {
	return &Orders{c: c}
}

func (s *Orders) List(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	if err := s.c.do(ctx, http.MethodGet, "/orders", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser фильтрует заказы по владельцу на стороне хранилища.
func (s *Orders) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	query := url.Values{"userId": []string{userID}}
	var out []domain.Order
	if err := s.c.do(ctx, http.MethodGet, "/orders", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Orders) Get(ctx context.Context, id string) (domain.Order, error) {
	var out domain.Order
	if err := s.c.do(ctx, http.MethodGet, "/orders/"+id, nil, nil, &out); err != nil {
		return domain.Order{}, err
	}
	return out, nil
}

func (s *Orders) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	var out domain.Order
	if err := s.c.do(ctx, http.MethodPost, "/orders", nil, order, &out); err != nil {
		return domain.Order{}, err
	}
	return out, nil
}

// Replace перезаписывает заказ целиком.
func (s *Orders) Replace(ctx context.Context, order domain.Order) (domain.Order, error) {
	var out domain.Order
	if err := s.c.do(ctx, http.MethodPut, "/orders/"+order.ID, nil, order, &out); err != nil {
		return domain.Order{}, err
	}
	return out, nil
}

// PatchStatus обновляет только поле статуса, не трогая остальную запись.
func (s *Orders) PatchStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	patch := map[string]domain.OrderStatus{"status": status}
	var out domain.Order
	if err := s.c.do(ctx, http.MethodPatch, "/orders/"+id, nil, patch, &out); err != nil {
		return domain.Order{}, err
	}
	return out, nil
}

func (s *Orders) Delete(ctx context.Context, id string) error {
	return s.c.do(ctx, http.MethodDelete, "/orders/"+id, nil, nil, nil)
}

var _ domain.OrderStore = (*Orders)(nil)
