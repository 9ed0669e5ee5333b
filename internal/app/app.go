package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/refsync/internal/health"
	"github.com/vladislavdragonenkov/refsync/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/refsync/internal/metrics"
	"github.com/vladislavdragonenkov/refsync/internal/projection"
	"github.com/vladislavdragonenkov/refsync/internal/remote"
	"github.com/vladislavdragonenkov/refsync/internal/service/integrity"
	"github.com/vladislavdragonenkov/refsync/internal/service/reconcile"
	"github.com/vladislavdragonenkov/refsync/internal/version"
)

// Config описывает настройки запуска приложения.
type Config struct {
	// BaseURL — адрес удалённого хранилища коллекций.
	BaseURL string
	// MetricsAddr — адрес HTTP-сервера метрик и health-проверок.
	MetricsAddr string
	// HTTPTimeout — таймаут одного запроса к хранилищу.
	HTTPTimeout time.Duration
	// ReconcileInterval — период фоновой сверки.
	ReconcileInterval time.Duration
	// KafkaBrokers — список брокеров через запятую; пустая строка
	// отключает публикацию событий целостности.
	KafkaBrokers string
}

// DefaultConfig возвращает конфигурацию для локальной разработки.
func DefaultConfig() Config {
	return Config{
		BaseURL:           "http://localhost:3001",
		MetricsAddr:       ":9090",
		HTTPTimeout:       10 * time.Second,
		ReconcileInterval: 30 * time.Second,
	}
}

// Run собирает зависимости и работает до отмены ctx: клиент хранилища,
// движок целостности, проекции, воркер сверки и HTTP-сервер метрик.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	client, err := remote.NewClient(remote.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.HTTPTimeout,
	}, logger.WithField("component", "remote"))
	if err != nil {
		return fmt.Errorf("create remote client: %w", err)
	}

	users := remote.NewUsers(client)
	products := remote.NewProducts(client)
	orders := remote.NewOrders(client)

	engineMetrics := metrics.NewEngineMetrics()

	// Kafka опционален: без брокеров движок работает, но не публикует
	// события целостности.
	var kafkaProducer *kafka.Producer
	engineOpts := []integrity.Option{integrity.WithMetrics(engineMetrics)}
	if cfg.KafkaBrokers != "" {
		brokers := strings.Split(cfg.KafkaBrokers, ",")
		producer, err := kafka.NewProducer(brokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			kafkaProducer = producer
			engineOpts = append(engineOpts, integrity.WithProducer(producer))
			logger.WithField("brokers", brokers).Info("kafka producer initialized")
		}
	}

	engine := integrity.NewEngine(
		users,
		products,
		orders,
		logger.WithField("component", "integrity"),
		engineOpts...,
	)

	store := projection.NewStore()
	worker := reconcile.NewWorker(
		engine,
		store,
		reconcile.WithLogger(logger.WithField("component", "reconcile-worker")),
		reconcile.WithInterval(cfg.ReconcileInterval),
	)

	healthHandler := healthcheck.NewHandler(version.String())
	healthHandler.RegisterChecker("store", healthcheck.NewSimpleChecker("store", client.Ping))
	// Проекция заказов считается устаревшей, если сверка пропустила
	// несколько периодов подряд.
	healthHandler.RegisterChecker("orders-projection", healthcheck.NewProjectionChecker(
		"orders-projection",
		3*cfg.ReconcileInterval,
		func() healthcheck.ProjectionState {
			snap := store.Orders.Snapshot()
			return healthcheck.ProjectionState{
				Ready:     snap.State == projection.StateReady,
				Failed:    snap.State == projection.StateFailed,
				HasItems:  len(snap.Items) > 0,
				UpdatedAt: snap.UpdatedAt,
			}
		},
	))

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(ctx)
	}()

	logger.WithFields(log.Fields{
		"base_url": cfg.BaseURL,
		"interval": cfg.ReconcileInterval,
	}).Info("reconciliation started")

	<-ctx.Done()
	logger.Info("получен сигнал остановки, останавливаем сверку")

	select {
	case <-workerDone:
	case <-time.After(5 * time.Second):
		logger.Warn("reconcile worker не остановился за таймаут")
	}
	shutdownHTTP(metricsSrv, logger)

	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			logger.WithError(err).Warn("failed to close kafka producer")
		} else {
			logger.Info("kafka producer closed")
		}
	}

	return ctx.Err()
}

// startMetricsServer запускает HTTP-обработчики метрик и health-проверок.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
