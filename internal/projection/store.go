package projection

import (
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/refsync/internal/domain"
)

// State — состояние жизненного цикла проекции коллекции.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Snapshot — согласованный срез одной проекции: элементы вместе с
// состоянием загрузки и временем последнего успешного обновления.
type Snapshot[T any] struct {
	Items     []T
	State     State
	Err       error
	UpdatedAt time.Time
}

// view — общая механика проекции: map под RWMutex, переходы состояний,
// копии на входе и выходе. Сортировку выборки задаёт конкретная коллекция.
type view[T any] struct {
	mu        sync.RWMutex
	items     map[string]T
	state     State
	err       error
	updatedAt time.Time

	keyOf  func(T) string
	less   func(a, b T) bool
	cloneT func(T) T
}

func newView[T any](keyOf func(T) string, less func(a, b T) bool, clone func(T) T) *view[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &view[T]{
		items:  make(map[string]T),
		state:  StateIdle,
		keyOf:  keyOf,
		less:   less,
		cloneT: clone,
	}
}

// SetLoading переводит проекцию в состояние загрузки, не трогая элементы:
// читатели продолжают видеть последний удачный срез.
func (v *view[T]) SetLoading() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = StateLoading
	v.err = nil
}

// ReplaceAll атомарно подменяет содержимое проекции свежей выборкой.
func (v *view[T]) ReplaceAll(items []T) {
	next := make(map[string]T, len(items))
	for _, item := range items {
		next[v.keyOf(item)] = v.cloneT(item)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = next
	v.state = StateReady
	v.err = nil
	v.updatedAt = time.Now().UTC()
}

// Fail фиксирует неудачное обновление. Старые элементы сохраняются.
func (v *view[T]) Fail(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = StateFailed
	v.err = err
}

// Upsert вставляет или перезаписывает один элемент.
func (v *view[T]) Upsert(item T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items[v.keyOf(item)] = v.cloneT(item)
}

// Remove убирает элемент по ключу; отсутствие ключа не считается ошибкой.
func (v *view[T]) Remove(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.items, id)
}

// Snapshot возвращает отсортированную копию проекции.
func (v *view[T]) Snapshot() Snapshot[T] {
	v.mu.RLock()
	defer v.mu.RUnlock()

	items := make([]T, 0, len(v.items))
	for _, item := range v.items {
		items = append(items, v.cloneT(item))
	}
	sort.Slice(items, func(i, j int) bool { return v.less(items[i], items[j]) })

	return Snapshot[T]{
		Items:     items,
		State:     v.state,
		Err:       v.err,
		UpdatedAt: v.updatedAt,
	}
}

func (v *view[T]) get(id string) (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	item, ok := v.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	return v.cloneT(item), true
}

// UsersView — проекция коллекции пользователей, отсортированная по ID.
type UsersView struct{ *view[domain.User] }

// NewUsersView создаёт пустую проекцию пользователей.
func NewUsersView() *UsersView {
	return &UsersView{newView(
		func(u domain.User) string { return u.ID },
		func(a, b domain.User) bool { return a.ID < b.ID },
		nil,
	)}
}

// Get возвращает пользователя по ID.
func (v *UsersView) Get(id string) (domain.User, bool) { return v.get(id) }

// ProductsView — проекция каталога товаров, отсортированная по ID.
type ProductsView struct{ *view[domain.Product] }

// NewProductsView создаёт пустую проекцию каталога.
func NewProductsView() *ProductsView {
	return &ProductsView{newView(
		func(p domain.Product) string { return p.ID },
		func(a, b domain.Product) bool { return a.ID < b.ID },
		nil,
	)}
}

// Get возвращает товар по ID.
func (v *ProductsView) Get(id string) (domain.Product, bool) { return v.get(id) }

// OrdersView — проекция заказов. Выборка отсортирована от новых к старым,
// при равном времени создания — по убыванию ID, чтобы порядок был стабилен.
type OrdersView struct{ *view[domain.Order] }

// NewOrdersView создаёт пустую проекцию заказов.
func NewOrdersView() *OrdersView {
	return &OrdersView{newView(
		func(o domain.Order) string { return o.ID },
		func(a, b domain.Order) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		},
		cloneOrder,
	)}
}

// Get возвращает заказ по ID.
func (v *OrdersView) Get(id string) (domain.Order, bool) { return v.get(id) }

// ListByUser возвращает заказы пользователя в том же порядке, что Snapshot.
func (v *OrdersView) ListByUser(userID string) []domain.Order {
	snap := v.Snapshot()
	result := make([]domain.Order, 0, len(snap.Items))
	for _, o := range snap.Items {
		if o.UserID == userID {
			result = append(result, o)
		}
	}
	return result
}

func cloneOrder(o domain.Order) domain.Order {
	o.ProductIDs = append([]string(nil), o.ProductIDs...)
	return o
}

// Store объединяет проекции всех трёх коллекций.
type Store struct {
	Users    *UsersView
	Products *ProductsView
	Orders   *OrdersView
}

// NewStore создаёт пустой набор проекций.
func NewStore() *Store {
	return &Store{
		Users:    NewUsersView(),
		Products: NewProductsView(),
		Orders:   NewOrdersView(),
	}
}
