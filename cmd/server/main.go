package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/alarm-missions/internal/api"
	"github.com/annel0/alarm-missions/internal/api/replay"
	"github.com/annel0/alarm-missions/internal/cache"
	"github.com/annel0/alarm-missions/internal/config"
	"github.com/annel0/alarm-missions/internal/eventbus"
	"github.com/annel0/alarm-missions/internal/game"
	"github.com/annel0/alarm-missions/internal/importer"
	"github.com/annel0/alarm-missions/internal/logging"
	"github.com/annel0/alarm-missions/internal/observability"
	"github.com/annel0/alarm-missions/internal/preset"
	"github.com/annel0/alarm-missions/internal/session"
	"github.com/annel0/alarm-missions/internal/storage"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигу (по умолчанию $MISSIONS_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := logging.InitDefaultLoggerWithOptions("server", logging.Options{
		Dir:          cfg.Logging.Dir,
		ConsoleLevel: logging.ParseLevel(cfg.Logging.ConsoleLevel),
		FileLevel:    logging.ParseLevel(cfg.Logging.FileLevel),
	}); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("⏰ Запуск сервиса миссий будильника...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 Сервис остановлен")
}

func run(ctx context.Context, cfg *config.Config) error {
	// === ТЕЛЕМЕТРИЯ ===
	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Warn("⚠️ OpenTelemetry не инициализирован: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Warn("⚠️ Ошибка остановки телеметрии: %v", err)
		}
	}()

	// === ПРЕСЕТЫ ===
	store := preset.DefaultStore()
	if cfg.Presets.BundlePath != "" {
		if store, err = preset.LoadStore(cfg.Presets.BundlePath); err != nil {
			return fmt.Errorf("пресеты: %w", err)
		}
	}
	logging.Info("🧱 Загружено пресетов: %d", store.Len())

	// === ШИНА СОБЫТИЙ ===
	bus, err := openBus(cfg.EventBus)
	if err != nil {
		return fmt.Errorf("шина событий: %w", err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Warn("⚠️ Ошибка закрытия шины: %v", err)
		}
	}()
	if _, err := eventbus.StartLoggingListener(ctx, bus); err != nil {
		return fmt.Errorf("логгер событий: %w", err)
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	busMetrics := eventbus.NewMetricsExporter(bus, registry)
	busMetrics.Start(5 * time.Second)
	defer busMetrics.Stop()

	journal := replay.NewJournal(replay.DefaultCapacity)
	if err := journal.Attach(ctx, bus); err != nil {
		return fmt.Errorf("журнал событий: %w", err)
	}
	defer journal.Detach()

	webhooks := api.NewOutboundWebhookManager(cfg.Telemetry.ServiceName)
	if err := webhooks.Attach(ctx, bus); err != nil {
		return fmt.Errorf("webhook'и: %w", err)
	}
	defer webhooks.Close()

	publisher := eventbus.NewPublisher(bus, "server")

	// === ХРАНИЛИЩЕ ИМПОРТОВ ===
	repo, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("хранилище: %w", err)
	}
	if cfg.Storage.Cache.Enabled {
		repo = openCache(ctx, cfg, repo)
	}
	defer repo.Close()

	imports := importer.NewService(
		importer.NewClient(cfg.Import.BaseURL, cfg.Import.Timeout()),
		repo,
		publisher,
	)

	// === СЕССИИ ===
	sessions := session.NewManager(ctx, store, publisher, session.Options{
		TimeLimit:         cfg.Mission.TimeLimit(),
		TickInterval:      cfg.Mission.TickInterval(),
		ProgressThreshold: cfg.Mission.ProgressThreshold(),
		PhotoThreshold:    cfg.Mission.PhotoDistanceThreshold,
		Game: game.Options{
			AnimationStep: cfg.Mission.AnimationStep(),
			LaserCeiling:  float64(cfg.Mission.LaserCeiling),
		},
		Imports: imports,
	})
	defer sessions.Close()

	// === REST API ===
	server := api.NewRestServer(api.Config{
		Port:     cfg.Server.GetRESTPort(),
		Sessions: sessions,
		Importer: imports,
		Presets:  store,
		Journal:  journal,
		Webhooks: webhooks,
		Registry: registry,
		Service:  cfg.Telemetry.ServiceName,
	})

	errCh := make(chan error, 2)
	go func() { errCh <- server.Start() }()

	var metricsServer *http.Server
	if port := cfg.Server.GetMetricsPort(); port > 0 {
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logging.Info("📊 Метрики Prometheus на :%d/metrics", port)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("сервер метрик: %w", err)
			}
		}()
	}

	logging.Info("✅ Сервис запущен")
	logging.Info("   🌐 REST API: http://localhost:%d", cfg.Server.GetRESTPort())
	logging.Info("   ❤️  Health check: http://localhost:%d/health", cfg.Server.GetRESTPort())

	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал, завершение работы...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("REST API: %w", err)
		}
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	return nil
}

// openCache оборачивает хранилище в LRU. При шине nats узлы сообщают
// друг другу об удалённых и добавленных мирах.
func openCache(ctx context.Context, cfg *config.Config, repo storage.ImportedWorldRepo) storage.ImportedWorldRepo {
	var inv cache.Invalidator
	if cfg.EventBus.Driver == "nats" {
		n, err := cache.NewNATSInvalidator(&cache.InvalidatorConfig{NATSURL: cfg.EventBus.URL}, uuid.NewString())
		if err != nil {
			logging.Warn("⚠️ Инвалидация кеша недоступна: %v", err)
		} else {
			inv = n
		}
	}

	c := cache.NewImportedCache(repo, cache.Options{
		Capacity: cfg.Storage.Cache.Capacity,
		TTL:      cfg.Storage.Cache.TTL(),
	}, inv)
	if err := c.Start(ctx); err != nil {
		logging.Warn("⚠️ Подписка на инвалидации: %v", err)
	}
	logging.Info("🗃️ Кеш импортированных миров: %d записей", cfg.Storage.Cache.Capacity)
	return c
}

// openBus открывает JetStream или шину в памяти. Недоступный NATS не
// валит сервис: события остаются внутри процесса.
func openBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	if cfg.Driver == "nats" {
		bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, cfg.RetentionDuration())
		if err == nil {
			logging.Info("📨 JetStream шина: %s (stream %s)", cfg.URL, cfg.Stream)
			return bus, nil
		}
		logging.Warn("⚠️ NATS недоступен (%v), используем шину в памяти", err)
	}
	return eventbus.NewMemoryBus(cfg.Buffer), nil
}
