package integrity

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/refsync/internal/domain"
)

// Тонкие операции чтения и редактирования каталога и пользователей.
// Собственных инвариантов целостности они не несут, но проходят через
// движок, чтобы он оставался единственной точкой входа для мутаций.

// ListUsers возвращает текущий список пользователей.
func (e *Engine) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := e.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateUser перезаписывает профиль пользователя.
func (e *Engine) UpdateUser(ctx context.Context, user domain.User) (domain.User, error) {
	stored, err := e.users.Update(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	return stored, nil
}

// ListProducts возвращает текущий каталог товаров.
func (e *Engine) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := e.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// AddProduct сохраняет новый товар после проверки инвариантов.
func (e *Engine) AddProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if errs := product.ValidateInvariants(); len(errs) != 0 {
		return domain.Product{}, errs[0]
	}
	stored, err := e.products.Create(ctx, product)
	if err != nil {
		return domain.Product{}, fmt.Errorf("add product: %w", err)
	}
	return stored, nil
}

// UpdateProduct перезаписывает товар после проверки инвариантов.
func (e *Engine) UpdateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if errs := product.ValidateInvariants(); len(errs) != 0 {
		return domain.Product{}, errs[0]
	}
	stored, err := e.products.Update(ctx, product)
	if err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}
	return stored, nil
}
