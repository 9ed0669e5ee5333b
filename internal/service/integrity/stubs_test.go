package integrity

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/refsync/internal/domain"
)

// fakeStore — in-memory двойник удалённого хранилища для тестов движка.
// Поведение повторяет бессхемный store: никаких каскадов и проверок
// ссылок, каждая операция независима. Потокобезопасен, потому что ремонты
// и каскады движка выполняются параллельно.
type fakeStore struct {
	mu       sync.Mutex
	users    map[string]domain.User
	products map[string]domain.Product
	orders   map[string]domain.Order
	seq      int

	replaceCnt int
	patchCnt   int
	createCnt  int
	deleteCnt  int

	listOrdersErr   error
	listProductsErr error
	replaceErrFor   map[string]error
	deleteErrFor    map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[string]domain.User),
		products:      make(map[string]domain.Product),
		orders:        make(map[string]domain.Order),
		replaceErrFor: make(map[string]error),
		deleteErrFor:  make(map[string]error),
	}
}

func (f *fakeStore) seedUser(u domain.User)       { f.users[u.ID] = u }
func (f *fakeStore) seedProduct(p domain.Product) { f.products[p.ID] = p }

func (f *fakeStore) seedOrder(o domain.Order) {
	o.ProductIDs = append([]string(nil), o.ProductIDs...)
	f.orders[o.ID] = o
}

func (f *fakeStore) order(id string) (domain.Order, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	return o, ok
}

func (f *fakeStore) hasProduct(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.products[id]
	return ok
}

func (f *fakeStore) hasUser(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[id]
	return ok
}

type fakeUsers struct{ f *fakeStore }

func (s *fakeUsers) List(context.Context) ([]domain.User, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	out := make([]domain.User, 0, len(s.f.users))
	for _, u := range s.f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeUsers) Get(_ context.Context, id string) (domain.User, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	u, ok := s.f.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *fakeUsers) Update(_ context.Context, user domain.User) (domain.User, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if _, ok := s.f.users[user.ID]; !ok {
		return domain.User{}, domain.ErrNotFound
	}
	s.f.users[user.ID] = user
	return user, nil
}

func (s *fakeUsers) Delete(_ context.Context, id string) error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if err := s.f.deleteErrFor["user:"+id]; err != nil {
		return err
	}
	if _, ok := s.f.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.f.users, id)
	return nil
}

type fakeProducts struct{ f *fakeStore }

func (s *fakeProducts) List(context.Context) ([]domain.Product, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if s.f.listProductsErr != nil {
		return nil, s.f.listProductsErr
	}
	out := make([]domain.Product, 0, len(s.f.products))
	for _, p := range s.f.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeProducts) Get(_ context.Context, id string) (domain.Product, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	p, ok := s.f.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *fakeProducts) Create(_ context.Context, product domain.Product) (domain.Product, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	s.f.seq++
	product.ID = fmt.Sprintf("p%d", s.f.seq)
	s.f.products[product.ID] = product
	return product, nil
}

func (s *fakeProducts) Update(_ context.Context, product domain.Product) (domain.Product, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if _, ok := s.f.products[product.ID]; !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	s.f.products[product.ID] = product
	return product, nil
}

func (s *fakeProducts) Delete(_ context.Context, id string) error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if err := s.f.deleteErrFor["product:"+id]; err != nil {
		return err
	}
	if _, ok := s.f.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.f.products, id)
	return nil
}

type fakeOrders struct{ f *fakeStore }

func (s *fakeOrders) List(context.Context) ([]domain.Order, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if s.f.listOrdersErr != nil {
		return nil, s.f.listOrdersErr
	}
	out := make([]domain.Order, 0, len(s.f.orders))
	for _, o := range s.f.orders {
		o.ProductIDs = append([]string(nil), o.ProductIDs...)
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeOrders) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	out := make([]domain.Order, 0)
	for _, o := range s.f.orders {
		if o.UserID != userID {
			continue
		}
		o.ProductIDs = append([]string(nil), o.ProductIDs...)
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeOrders) Get(_ context.Context, id string) (domain.Order, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	o, ok := s.f.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	o.ProductIDs = append([]string(nil), o.ProductIDs...)
	return o, nil
}

func (s *fakeOrders) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	s.f.createCnt++
	s.f.seq++
	order.ID = fmt.Sprintf("o%d", s.f.seq)
	order.ProductIDs = append([]string(nil), order.ProductIDs...)
	s.f.orders[order.ID] = order
	return order, nil
}

func (s *fakeOrders) Replace(_ context.Context, order domain.Order) (domain.Order, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if err := s.f.replaceErrFor[order.ID]; err != nil {
		return domain.Order{}, err
	}
	if _, ok := s.f.orders[order.ID]; !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	s.f.replaceCnt++
	order.ProductIDs = append([]string(nil), order.ProductIDs...)
	s.f.orders[order.ID] = order
	return order, nil
}

func (s *fakeOrders) PatchStatus(_ context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	o, ok := s.f.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	s.f.patchCnt++
	o.Status = status
	s.f.orders[id] = o
	return o, nil
}

func (s *fakeOrders) Delete(_ context.Context, id string) error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if err := s.f.deleteErrFor["order:"+id]; err != nil {
		return err
	}
	if _, ok := s.f.orders[id]; !ok {
		return domain.ErrNotFound
	}
	s.f.deleteCnt++
	delete(s.f.orders, id)
	return nil
}

var (
	_ domain.UserStore    = (*fakeUsers)(nil)
	_ domain.ProductStore = (*fakeProducts)(nil)
	_ domain.OrderStore   = (*fakeOrders)(nil)
)

func newTestEngine(f *fakeStore, opts ...Option) *Engine {
	return NewEngine(&fakeUsers{f}, &fakeProducts{f}, &fakeOrders{f}, nil, opts...)
}
