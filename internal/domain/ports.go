package domain

import "context"

// UserStore описывает операции над коллекцией пользователей.
// Хранилище не даёт никаких гарантий согласованности: каждый вызов —
// независимый сетевой запрос.
type UserStore interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id string) (User, error)
	// Update перезаписывает профиль целиком и возвращает сохранённую запись.
	Update(ctx context.Context, user User) (User, error)
	Delete(ctx context.Context, id string) error
}

// ProductStore описывает операции над коллекцией товаров.
type ProductStore interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	// Create сохраняет новый товар; идентификатор назначает хранилище.
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, product Product) (Product, error)
	Delete(ctx context.Context, id string) error
}

// OrderStore описывает операции над коллекцией заказов.
type OrderStore interface {
	List(ctx context.Context) ([]Order, error)
	// ListByUser возвращает заказы с заданным владельцем
	// (фильтрация по равенству на стороне хранилища).
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	Get(ctx context.Context, id string) (Order, error)
	Create(ctx context.Context, order Order) (Order, error)
	// Replace перезаписывает заказ целиком (PUT, не PATCH).
	Replace(ctx context.Context, order Order) (Order, error)
	// PatchStatus обновляет только поле статуса.
	PatchStatus(ctx context.Context, id string, status OrderStatus) (Order, error)
	Delete(ctx context.Context, id string) error
}
