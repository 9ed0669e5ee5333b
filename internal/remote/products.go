package remote

import (
	"context"
	"net/http"

	"github.com/vladislavdragonenkov/refsync/internal/domain"
)

// Products — типизированный доступ к коллекции /products.
type Products struct {
	c *Client
}

// NewProducts возвращает хранилище товаров поверх общего клиента.
func NewProducts(c *Client) *Products {
	return &Products{c: c}
}

func (s *Products) List(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	if err := s.c.do(ctx, http.MethodGet, "/products", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Products) Get(ctx context.Context, id string) (domain.Product, error) {
	var out domain.Product
	if err := s.c.do(ctx, http.MethodGet, "/products/"+id, nil, nil, &out); err != nil {
		return domain.Product{}, err
	}
	return out, nil
}

// Create сохраняет новый товар; идентификатор назначает хранилище.
func (s *Products) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	var out domain.Product
	if err := s.c.do(ctx, http.MethodPost, "/products", nil, product, &out); err != nil {
		return domain.Product{}, err
	}
	return out, nil
}

func (s *Products) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	var out domain.Product
	if err := s.c.do(ctx, http.MethodPut, "/products/"+product.ID, nil, product, &out); err != nil {
		return domain.Product{}, err
	}
	return out, nil
}

func (s *Products) Delete(ctx context.Context, id string) error {
	return s.c.do(ctx, http.MethodDelete, "/products/"+id, nil, nil, nil)
}

var _ domain.ProductStore = (*Products)(nil)
