package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/stockhub-backend/api/routes"
	"github.com/angelmondragon/stockhub-backend/internal/auth"
	"github.com/angelmondragon/stockhub-backend/internal/categories"
	"github.com/angelmondragon/stockhub-backend/internal/companies"
	"github.com/angelmondragon/stockhub-backend/internal/companyctx"
	"github.com/angelmondragon/stockhub-backend/internal/items"
	"github.com/angelmondragon/stockhub-backend/internal/ledger"
	"github.com/angelmondragon/stockhub-backend/internal/memberships"
	"github.com/angelmondragon/stockhub-backend/internal/movements"
	"github.com/angelmondragon/stockhub-backend/internal/permissions"
	"github.com/angelmondragon/stockhub-backend/internal/standardlists"
	"github.com/angelmondragon/stockhub-backend/internal/superadmin"
	"github.com/angelmondragon/stockhub-backend/internal/units"
	"github.com/angelmondragon/stockhub-backend/internal/users"
	"github.com/angelmondragon/stockhub-backend/internal/withdrawals"
	"github.com/angelmondragon/stockhub-backend/pkg/auth/session"
	"github.com/angelmondragon/stockhub-backend/pkg/config"
	"github.com/angelmondragon/stockhub-backend/pkg/db"
	"github.com/angelmondragon/stockhub-backend/pkg/instance"
	"github.com/angelmondragon/stockhub-backend/pkg/logger"
	"github.com/angelmondragon/stockhub-backend/pkg/metrics"
	"github.com/angelmondragon/stockhub-backend/pkg/migrate"
	"github.com/angelmondragon/stockhub-backend/pkg/outbox"
	"github.com/angelmondragon/stockhub-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api exited with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps, err := buildDependencies(cfg, logg, dbClient, redisClient, sessionManager, registry)
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildDependencies(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessionManager *session.Manager,
	registry *prometheus.Registry,
) (routes.Dependencies, error) {
	conn := dbClient.DB()

	usersRepo := users.NewRepository(conn)
	companiesRepo := companies.NewRepository(conn)
	membershipsRepo := memberships.NewRepository(conn)
	events := outbox.NewService(outbox.NewRepository(conn), logg)

	resolver, err := permissions.NewResolver(companiesRepo, membershipsRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}

	companiesSvc, err := companies.NewService(companiesRepo, membershipsRepo, usersRepo, resolver, cfg.App.CollationLocale)
	if err != nil {
		return routes.Dependencies{}, err
	}

	selectionStore, err := companyctx.NewRedisStore(redisClient, cfg.CompanyContext)
	if err != nil {
		return routes.Dependencies{}, err
	}
	companyCtxSvc, err := companyctx.NewService(selectionStore, resolver, companiesSvc, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}

	categoriesSvc, err := categories.NewService(categories.NewRepository(conn))
	if err != nil {
		return routes.Dependencies{}, err
	}
	unitsSvc, err := units.NewService(units.NewRepository(conn))
	if err != nil {
		return routes.Dependencies{}, err
	}

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	if err != nil {
		return routes.Dependencies{}, err
	}
	itemsSvc, err := items.NewService(items.NewRepository(conn), ledgerSvc, dbClient, events)
	if err != nil {
		return routes.Dependencies{}, err
	}
	movementsSvc, err := movements.NewService(movements.NewRepository(conn), ledgerSvc, dbClient, events)
	if err != nil {
		return routes.Dependencies{}, err
	}

	listsRepo := standardlists.NewRepository(conn)
	listsSvc, err := standardlists.NewService(listsRepo, dbClient)
	if err != nil {
		return routes.Dependencies{}, err
	}
	executor, err := withdrawals.NewExecutor(withdrawals.ExecutorParams{
		Lists:   listsRepo,
		Ledger:  ledgerSvc,
		Tx:      dbClient,
		Events:  events,
		Metrics: metrics.NewWithdrawalMetrics(registry),
		Logger:  logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	superAdminSvc, err := superadmin.NewService(superadmin.ServiceParams{
		Users:       usersRepo,
		Companies:   companiesRepo,
		Memberships: membershipsRepo,
		Tx:          dbClient,
		Events:      events,
		Logger:      logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		Selection:      companyCtxSvc,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	return routes.Dependencies{
		DB:             dbClient,
		Redis:          redisClient,
		Store:          redisClient,
		Sessions:       sessionManager,
		Gatherer:       registry,
		Metrics:        metrics.NewHTTPMetrics(registry),
		Auth:           authSvc,
		Companies:      companiesSvc,
		CompanyContext: companyCtxSvc,
		Categories:     categoriesSvc,
		Units:          unitsSvc,
		Items:          itemsSvc,
		Movements:      movementsSvc,
		StandardLists:  listsSvc,
		Withdrawals:    executor,
		SuperAdmin:     superAdminSvc,
	}, nil
}
