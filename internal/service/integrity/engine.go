package integrity

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/refsync/internal/domain"
	"github.com/vladislavdragonenkov/refsync/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/refsync/internal/metrics"
	"github.com/vladislavdragonenkov/refsync/internal/service/pricing"
)

const defaultMaxParallelOps = 8

// Engine — движок целостности и обогащения. Единственная точка входа для
// мутаций поверх удалённого хранилища: пересчитывает производную итоговую
// сумму заказов, обнаруживает и чинит висячие ссылки на товары и выполняет
// клиентские каскады удаления. Хранилище не даёт транзакций, поэтому
// стратегия движка — ремонт при чтении: ограничить длительность
// рассогласования, а не предотвратить его.
type Engine struct {
	users    domain.UserStore
	products domain.ProductStore
	orders   domain.OrderStore
	resolver *pricing.Resolver
	logger   *log.Entry

	metrics  *metrics.EngineMetrics // опционально
	producer *kafka.Producer        // опциональный producer событий целостности

	now            func() time.Time
	maxParallelOps int
}

// Option настраивает Engine.
type Option func(*Engine)

// WithMetrics подключает метрики движка.
func WithMetrics(m *metrics.EngineMetrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithProducer подключает публикацию событий целостности в Kafka.
func WithProducer(p *kafka.Producer) Option {
	return func(e *Engine) {
		e.producer = p
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMaxParallelOps ограничивает параллелизм независимых сетевых вызовов.
func WithMaxParallelOps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxParallelOps = n
		}
	}
}

// NewEngine конструирует движок поверх трёх коллекций хранилища.
func NewEngine(
	users domain.UserStore,
	products domain.ProductStore,
	orders domain.OrderStore,
	logger *log.Entry,
	opts ...Option,
) *Engine {
	if logger == nil {
		logger = log.New().WithField("component", "integrity")
	}

	e := &Engine{
		users:          users,
		products:       products,
		orders:         orders,
		resolver:       pricing.NewResolver(products),
		logger:         logger,
		now:            time.Now,
		maxParallelOps: defaultMaxParallelOps,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadOrders загружает все заказы, обогащает их пересчитанной итоговой
// суммой и чинит висячие ссылки: заказ с частично отсутствующими товарами
// перезаписывается с подчищенной последовательностью, полностью опустевший
// заказ удаляется. Ремонты независимы друг от друга: неудачный ремонт
// логируется, а заказ возвращается в том виде, в каком его держит
// хранилище — следующий проход сверки попробует снова.
func (e *Engine) LoadOrders(ctx context.Context) ([]domain.Order, error) {
	start := time.Now()

	// Обе коллекции читаются независимо, запускаем запросы одновременно
	// и комбинируем только после завершения обоих.
	var (
		orders      []domain.Order
		products    []domain.Product
		ordersErr   error
		productsErr error
	)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		orders, ordersErr = e.orders.List(ctx)
	}()
	go func() {
		defer wg.Done()
		products, productsErr = e.products.List(ctx)
	}()
	wg.Wait()

	if ordersErr != nil {
		e.recordReconcileFailed()
		return nil, fmt.Errorf("load orders: %w", ordersErr)
	}
	if productsErr != nil {
		e.recordReconcileFailed()
		return nil, fmt.Errorf("load products: %w", productsErr)
	}

	idx := pricing.NewIndex(products)

	var repairs []int
	dangling := 0
	for i := range orders {
		total, valid := idx.Resolve(orders[i].ProductIDs)
		if len(valid) == len(orders[i].ProductIDs) {
			orders[i].TotalPrice = total
			continue
		}
		dangling += len(orders[i].ProductIDs) - len(valid)
		repairs = append(repairs, i)
	}

	drop := make([]bool, len(orders))
	e.runParallel(len(repairs), func(k int) {
		i := repairs[k]
		drop[i] = e.repairOrder(ctx, idx, &orders[i])
	})

	result := make([]domain.Order, 0, len(orders))
	for i := range orders {
		if !drop[i] {
			result = append(result, orders[i])
		}
	}

	if e.metrics != nil {
		e.metrics.SetDanglingReferences(dangling)
		e.metrics.RecordReconcileRun()
		e.metrics.RecordReconcileDuration(time.Since(start))
	}
	if len(repairs) > 0 {
		e.logger.WithFields(log.Fields{
			"orders":   len(orders),
			"repairs":  len(repairs),
			"dangling": dangling,
		}).Info("reconciliation pass repaired dangling references")
		e.publishEvent(kafka.EventTypeReconcileCompleted, "orders", "", map[string]interface{}{
			"repairs":  len(repairs),
			"dangling": dangling,
		})
	}

	return result, nil
}

// repairOrder чинит один заказ. Возвращает true, если заказ удалён и не
// должен попасть в результат.
func (e *Engine) repairOrder(ctx context.Context, idx pricing.Index, order *domain.Order) bool {
	total, valid := idx.Resolve(order.ProductIDs)
	logger := e.logger.WithField("order_id", order.ID)

	if len(valid) == 0 {
		// Ремонт опустошил заказ: пустой заказ не хранится, а удаляется.
		if err := e.orders.Delete(ctx, order.ID); err != nil {
			logger.WithError(err).Warn("failed to delete emptied order, returning as stored")
			e.recordRepairFailed()
			order.TotalPrice = total
			return false
		}
		e.recordOrderEmptied()
		e.publishEvent(kafka.EventTypeOrderEmptied, "orders", order.ID, map[string]interface{}{
			"user_id": order.UserID,
		})
		return true
	}

	repaired := *order
	repaired.ProductIDs = valid
	repaired.TotalPrice = total

	stored, err := e.orders.Replace(ctx, repaired)
	if err != nil {
		// Неудачный ремонт не валит загрузку: заказ возвращается как есть,
		// сумма посчитана по выжившим ссылкам.
		logger.WithError(err).Warn("repair write failed, returning order unrepaired")
		e.recordRepairFailed()
		order.TotalPrice = total
		return false
	}

	stored.TotalPrice = total
	*order = stored
	e.recordOrderRepaired()
	e.publishEvent(kafka.EventTypeOrderRepaired, "orders", order.ID, map[string]interface{}{
		"valid_refs": len(valid),
		"total":      total,
	})
	return false
}

// CreateOrder обогащает новый заказ итоговой суммой и сохраняет его.
// Сумма считается по неотфильтрованному входу: неизвестный на момент
// создания товар даёт нулевой вклад, подчистку ссылок создание не делает —
// подать валидные идентификаторы обязан вызывающий.
func (e *Engine) CreateOrder(ctx context.Context, userID string, productIDs []string, status domain.OrderStatus) (domain.Order, error) {
	if status == "" {
		status = domain.OrderStatusPending
	}
	if userID == "" {
		return domain.Order{}, domain.ErrUserRequired
	}
	if len(productIDs) == 0 {
		return domain.Order{}, domain.ErrProductIDsRequired
	}
	if !status.Valid() {
		return domain.Order{}, domain.ErrStatusInvalid
	}

	total, _, err := e.resolver.ResolveTotal(ctx, productIDs)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	order := domain.Order{
		UserID:     userID,
		ProductIDs: append([]string(nil), productIDs...),
		Status:     status,
		CreatedAt:  e.now().UTC(),
		TotalPrice: total,
	}

	stored, err := e.orders.Create(ctx, order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}
	stored.TotalPrice = total

	e.publishEvent(kafka.EventTypeOrderCreated, "orders", stored.ID, map[string]interface{}{
		"user_id": userID,
		"total":   total,
	})
	return stored, nil
}

// UpdateOrder пересчитывает итоговую сумму по текущим ссылкам заказа и
// перезаписывает запись целиком. Ссылки не подчищаются: это работа сверки.
func (e *Engine) UpdateOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		return domain.Order{}, errs[0]
	}

	total, _, err := e.resolver.ResolveTotal(ctx, order.ProductIDs)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order: %w", err)
	}
	order.TotalPrice = total

	stored, err := e.orders.Replace(ctx, order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order: %w", err)
	}
	stored.TotalPrice = total
	return stored, nil
}

// SetStatus переводит заказ в новый статус частичным обновлением.
// Терминальный текущий статус и совпадающий целевой — no-op без ошибки:
// движок сигнализирует «заблокировано», возвращая заказ без изменений.
func (e *Engine) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
	current, err := e.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("set status: %w", err)
	}

	if current.Status.Terminal() || current.Status == status {
		e.logger.WithFields(log.Fields{
			"order_id": orderID,
			"status":   current.Status,
		}).Debug("status change ignored, order locked or unchanged")
		return current, nil
	}
	if !status.Valid() {
		return domain.Order{}, domain.ErrStatusInvalid
	}

	stored, err := e.orders.PatchStatus(ctx, orderID, status)
	if err != nil {
		return domain.Order{}, fmt.Errorf("set status: %w", err)
	}

	e.publishEvent(kafka.EventTypeOrderStatusChanged, "orders", orderID, map[string]interface{}{
		"from": string(current.Status),
		"to":   string(status),
	})
	return stored, nil
}

// DeleteOrder удаляет заказ напрямую, без каскадов.
func (e *Engine) DeleteOrder(ctx context.Context, orderID string) error {
	if err := e.orders.Delete(ctx, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// publishEvent публикует событие целостности (если producer настроен).
func (e *Engine) publishEvent(eventType kafka.EventType, collection, entityID string, metadata map[string]interface{}) {
	if e.producer == nil {
		return
	}

	event := kafka.NewIntegrityEvent(eventType, collection, entityID, metadata)
	if err := e.producer.PublishEvent(kafka.TopicIntegrityEvents, entityID, event); err != nil {
		// Kafka опциональный: ошибку логируем, операцию не прерываем.
		e.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"entity_id":  entityID,
		}).Warn("failed to publish integrity event")
		return
	}
	if e.metrics != nil {
		e.metrics.RecordIntegrityEvent()
	}
}

func (e *Engine) recordReconcileFailed() {
	if e.metrics != nil {
		e.metrics.RecordReconcileFailed()
	}
}

func (e *Engine) recordOrderRepaired() {
	if e.metrics != nil {
		e.metrics.RecordOrderRepaired()
	}
}

func (e *Engine) recordOrderEmptied() {
	if e.metrics != nil {
		e.metrics.RecordOrderEmptied()
	}
}

func (e *Engine) recordRepairFailed() {
	if e.metrics != nil {
		e.metrics.RecordRepairFailed()
	}
}
