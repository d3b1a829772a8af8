package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/crm-service/internal/api/http"
	"github.com/spec-kit/crm-service/internal/api/http/handlers"
	"github.com/spec-kit/crm-service/internal/auth"
	"github.com/spec-kit/crm-service/internal/config"
	"github.com/spec-kit/crm-service/internal/events"
	"github.com/spec-kit/crm-service/internal/observability"
	"github.com/spec-kit/crm-service/internal/persistence"
	"github.com/spec-kit/crm-service/internal/repository"
	"github.com/spec-kit/crm-service/internal/service"
	"github.com/spec-kit/crm-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	profileRepo := repository.NewProfileRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	appointmentRepo := repository.NewAppointmentRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	escalationRepo := repository.NewEscalationRepository(pool)
	saleRepo := repository.NewSaleRepository(pool)
	showroomRepo := repository.NewShowroomRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	sessionRepo := repository.NewSessionRepository(redis.Client)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		ProfileRepo:       profileRepo,
		SessionRepo:       sessionRepo,
		PasswordResetRepo: resetRepo,
		Dispatcher:        dispatcher,
	})

	guardRegistry := auth.NewGuardRegistry(sessionRepo, profileRepo, logger)
	guardRegistry.RegisterHandlers(dispatcher)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), guardRegistry)

	customerService := service.NewCustomerService(service.CustomerDependencies{
		CustomerRepo:    customerRepo,
		ShowroomRepo:    showroomRepo,
		ProfileRepo:     profileRepo,
		AppointmentRepo: appointmentRepo,
		TaskRepo:        taskRepo,
		EscalationRepo:  escalationRepo,
		SaleRepo:        saleRepo,
	})
	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		CustomerRepo:    customerRepo,
		AppointmentRepo: appointmentRepo,
		TaskRepo:        taskRepo,
		EscalationRepo:  escalationRepo,
		SaleRepo:        saleRepo,
		Dispatcher:      dispatcher,
		Logger:          logger,
	})
	dashboardService := service.NewDashboardService(customerRepo, saleRepo, redis.Client, cfg.Cache.DashboardTTL(), logger)

	revalidationService := service.NewRevalidationService(dispatcher, redis.Client, logger)
	worker.StartRevalidationWorker(revalidationService)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Customers:      handlers.NewCustomersHandler(customerService, lifecycleService),
		Trash:          handlers.NewTrashHandler(customerService, lifecycleService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		Showrooms:      handlers.NewShowroomsHandler(showroomRepo),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
