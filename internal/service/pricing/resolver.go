package pricing

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/refsync/internal/domain"
)

// Index — индекс цен по идентификатору товара. Строится один раз на
// снимок каталога, чтобы разбор последовательностей ссылок не был O(n·m).
type Index struct {
	prices map[string]int64
}

// NewIndex строит индекс по снимку коллекции товаров.
func NewIndex(products []domain.Product) Index {
	prices := make(map[string]int64, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}
	return Index{prices: prices}
}

// Resolve возвращает сумму цен по существующим ссылкам и устойчиво
// отфильтрованную последовательность валидных идентификаторов: порядок
// и дубликаты входа сохраняются, отсутствующие товары выпадают молча.
// Отсутствующая ссылка — данные, а не ошибка: это и есть примитив
// обнаружения висячих ссылок.
func (ix Index) Resolve(ids []string) (int64, []string) {
	var total int64
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		price, ok := ix.prices[id]
		if !ok {
			continue
		}
		total += price
		valid = append(valid, id)
	}
	return total, valid
}

// Has сообщает, известен ли товар индексу.
func (ix Index) Has(id string) bool {
	_, ok := ix.prices[id]
	return ok
}

// Resolver вычисляет итоговую сумму заказа по текущему состоянию каталога.
type Resolver struct {
	products domain.ProductStore
}

// NewResolver возвращает resolver поверх хранилища товаров.
func NewResolver(products domain.ProductStore) *Resolver {
	return &Resolver{products: products}
}

// ResolveTotal загружает каталог один раз и разбирает последовательность
// ссылок через индекс. Ошибкой считается только недоступность каталога.
func (r *Resolver) ResolveTotal(ctx context.Context, ids []string) (int64, []string, error) {
	products, err := r.products.List(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("pricing: list products: %w", err)
	}
	total, valid := NewIndex(products).Resolve(ids)
	return total, valid, nil
}
