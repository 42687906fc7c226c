package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/helpdesk-platform/support-api/internal/api/http"
	"github.com/helpdesk-platform/support-api/internal/api/http/handlers"
	"github.com/helpdesk-platform/support-api/internal/auth"
	"github.com/helpdesk-platform/support-api/internal/config"
	"github.com/helpdesk-platform/support-api/internal/events"
	"github.com/helpdesk-platform/support-api/internal/identity"
	"github.com/helpdesk-platform/support-api/internal/observability"
	"github.com/helpdesk-platform/support-api/internal/persistence"
	"github.com/helpdesk-platform/support-api/internal/ratelimit"
	"github.com/helpdesk-platform/support-api/internal/repository"
	"github.com/helpdesk-platform/support-api/internal/service"
	"github.com/helpdesk-platform/support-api/internal/worker"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	migrateOnly := pflag.Bool("migrate-only", false, "apply database migrations and exit")
	relayWorkers := pflag.Int("relay-workers", 2, "goroutines forwarding ticket events to Kafka")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Postgres.RunMigrations || *migrateOnly {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}
	if *migrateOnly {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	roleRepo := repository.NewRoleRepository(pool)
	userStatusRepo := repository.NewUserStatusRepository(pool)
	statusRepo := repository.NewCachedTicketStatusRepository(
		repository.NewTicketStatusRepository(pool), redis.ClientHandle(), cfg.Redis.StatusCacheTTL, logger)
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	authRepo := repository.NewAuthenticationRepository(pool)

	catalog := service.NewStatusCatalog(statusRepo, cfg.Tickets, logger)
	if err := catalog.Refresh(ctx); err != nil {
		logger.Warn("ticket status catalog not loaded", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	service.NewNotificationService(dispatcher, logger).RegisterHandlers()

	var relay *worker.EventRelay
	if cfg.Kafka.Enabled {
		publisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, events.NewSaramaConfig(cfg.App.Name), logger)
		if err != nil {
			logger.Fatal("failed to create kafka producer", zap.Error(err))
		}
		defer publisher.Close() //nolint:errcheck

		relay = worker.NewEventRelay(publisher.Handle, 1024, *relayWorkers, logger)
		relay.Start()
		events.SubscribeAll(dispatcher, relay.Enqueue)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:       ticketRepo,
		TicketStatusRepo: statusRepo,
		UserRepo:         userRepo,
		HistoryRepo:      historyRepo,
		Catalog:          catalog,
		Dispatcher:       dispatcher,
		Observer:         metrics,
		Logger:           logger,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:        userRepo,
		RoleRepo:        roleRepo,
		UserStatusRepo:  userStatusRepo,
		DeletedStatusID: cfg.Tickets.DeletedUserStatus,
	})
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		AuthenticationRepo: authRepo,
		Users:              userService,
		Identity:           identity.NewClient(cfg.Auth.IdentityURL, cfg.Auth.IdentityAnonKey, cfg.Auth.IdentityTimeout),
		Logger:             logger,
	})
	referenceService := service.NewReferenceService(roleRepo, statusRepo, catalog, statusRepo)

	var rateLimit fiber.Handler
	if cfg.RateLimit.Enabled {
		local := ratelimit.NewLocalLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		limiter := ratelimit.NewFallbackLimiter(
			ratelimit.NewRedisLimiter(redis.ClientHandle(), "support-api:ratelimit:", cfg.RateLimit.Requests, cfg.RateLimit.Window),
			local, logger)
		rateLimit = ratelimit.Middleware(limiter, cfg.RateLimit.Window)
		go cleanupLoop(ctx, local, 5*time.Minute)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Users:          handlers.NewUsersHandler(userService),
		Reference:      handlers.NewReferenceHandler(referenceService),
		AuthMiddleware: auth.NewAuthMiddleware(auth.NewTokenManager(cfg.Auth.JWTSecret)),
		RateLimit:      rateLimit,
		Gatherer:       registry,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if relay != nil {
		relay.Stop()
	}
}

func cleanupLoop(ctx context.Context, limiter *ratelimit.LocalLimiter, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Cleanup()
		}
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
