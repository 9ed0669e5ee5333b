package reconcile

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/refsync/internal/domain"
	"github.com/vladislavdragonenkov/refsync/internal/projection"
)

const defaultInterval = 30 * time.Second

// Engine — срез движка целостности, который нужен воркеру сверки.
type Engine interface {
	LoadOrders(ctx context.Context) ([]domain.Order, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// WorkerOptions задаёт параметры воркера сверки.
type WorkerOptions struct {
	Logger   *log.Entry
	Interval time.Duration
}

// Option настраивает Worker.
type Option func(*WorkerOptions)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *WorkerOptions) {
		opts.Logger = logger
	}
}

// WithInterval задаёт период фоновой сверки.
func WithInterval(interval time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.Interval = interval
	}
}

// Worker периодически прогоняет полную сверку: LoadOrders чинит висячие
// ссылки в хранилище, а результаты всех трёх коллекций попадают в проекции.
// Каждый проход самодостаточен, поэтому сбой одного прохода не требует
// восстановления — следующий тик начинает заново.
type Worker struct {
	engine   Engine
	store    *projection.Store
	logger   *log.Entry
	interval time.Duration
}

// NewWorker создаёт воркер сверки.
func NewWorker(engine Engine, store *projection.Store, options ...Option) *Worker {
	opts := WorkerOptions{
		Interval: defaultInterval,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "reconcile-worker")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}

	return &Worker{
		engine:   engine,
		store:    store,
		logger:   logger,
		interval: opts.Interval,
	}
}

// Run запускает периодическую сверку до отмены ctx. Первый проход
// выполняется сразу, не дожидаясь первого тика.
func (w *Worker) Run(ctx context.Context) {
	if w.engine == nil || w.store == nil {
		w.logger.Warn("reconcile worker is disabled: engine or projection store is nil")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RefreshOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce выполняет один проход сверки и обновляет проекции.
// Коллекции независимы: сбой одной не мешает обновлению остальных.
func (w *Worker) RefreshOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	w.store.Orders.SetLoading()
	orders, err := w.engine.LoadOrders(ctx)
	if err != nil {
		w.store.Orders.Fail(err)
		w.logger.WithError(err).Warn("order reconciliation pass failed")
	} else {
		w.store.Orders.ReplaceAll(orders)
	}

	w.store.Products.SetLoading()
	products, err := w.engine.ListProducts(ctx)
	if err != nil {
		w.store.Products.Fail(err)
		w.logger.WithError(err).Warn("product refresh failed")
	} else {
		w.store.Products.ReplaceAll(products)
	}

	w.store.Users.SetLoading()
	users, err := w.engine.ListUsers(ctx)
	if err != nil {
		w.store.Users.Fail(err)
		w.logger.WithError(err).Warn("user refresh failed")
	} else {
		w.store.Users.ReplaceAll(users)
	}
}
