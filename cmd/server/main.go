package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/vsinha/mrpplanner/pkg/application/services/mrp"
	"github.com/vsinha/mrpplanner/pkg/config"
	"github.com/vsinha/mrpplanner/pkg/domain/repositories"
	"github.com/vsinha/mrpplanner/pkg/infrastructure/events"
	"github.com/vsinha/mrpplanner/pkg/infrastructure/lock"
	"github.com/vsinha/mrpplanner/pkg/infrastructure/metrics"
	"github.com/vsinha/mrpplanner/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/mrpplanner/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/mrpplanner/pkg/infrastructure/repositories/sqlstore"
	"github.com/vsinha/mrpplanner/pkg/interfaces/httpapi"
	"github.com/vsinha/mrpplanner/pkg/logging"
)

// storage bundles the repositories the planner reads and writes
type storage struct {
	salesOrders repositories.SalesOrderRepository
	items       repositories.ItemRepository
	recipes     repositories.RecipeRepository
	inventory   repositories.InventoryRepository
	uow         repositories.UnitOfWork
	checks      []httpapi.HealthCheck
	close       func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("failed to open storage")
	}
	defer func() {
		if err := store.close(); err != nil {
			log.Error().Err(err).Msg("failed to close storage")
		}
	}()

	locker, lockCheck, err := openLocker(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	checks := store.checks
	if lockCheck != nil {
		checks = append(checks, *lockCheck)
	}

	eventStore := events.NewMemoryEventStore()
	if err := eventStore.Subscribe(events.AllPlanEventTypes, events.NewLogHandler(log.Logger)); err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe event log")
	}

	plannerConfig, err := cfg.PlannerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid planner configuration")
	}
	planner, err := mrp.NewPlanner(
		store.salesOrders,
		store.items,
		store.recipes,
		store.inventory,
		store.uow,
		locker,
		eventStore,
		plannerConfig,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create planner")
	}

	m := metrics.New(metrics.DefaultConfig("mrp-planner"))
	planner.WithObserver(m)

	r := httpapi.NewRouter(httpapi.RouterConfig{
		Production: !cfg.IsDevelopment(),
		Planner:    planner,
		Metrics:    m,
		Checks:     checks,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().
			Str("driver", cfg.DatabaseDriver).
			Str("shortage_mode", string(plannerConfig.Mode)).
			Msgf("MRP planner listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	var scenario *csv.Scenario
	if cfg.ScenarioDir != "" {
		var err error
		if scenario, err = csv.NewLoader().LoadScenario(cfg.ScenarioDir); err != nil {
			return nil, err
		}
		if result := scenario.Validate(); !result.IsValid() {
			log.Warn().Strs("problems", result.Errors).Msg("scenario recipes failed validation")
		}
	}

	if cfg.DatabaseDriver == config.DriverMemory {
		if scenario == nil {
			scenario = &csv.Scenario{}
		}
		repos, err := scenario.Memory()
		if err != nil {
			return nil, err
		}
		return &storage{
			salesOrders: repos.SalesOrders,
			items:       repos.Items,
			recipes:     repos.Recipes,
			inventory:   repos.Inventory,
			uow:         memory.NewStore(),
			close:       func() error { return nil },
		}, nil
	}

	db, err := sqlstore.Open(sqlstore.Config{
		Driver:      cfg.DatabaseDriver,
		DSN:         cfg.DatabaseURL,
		AutoMigrate: cfg.DatabaseAutoMigrate,
	})
	if err != nil {
		return nil, err
	}
	if scenario != nil {
		if err := seedOnce(ctx, db, scenario); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &storage{
		salesOrders: db,
		items:       db,
		recipes:     db,
		inventory:   db,
		uow:         db,
		checks: []httpapi.HealthCheck{{
			Name: "db",
			Check: func(ctx context.Context) error {
				sqlDB, err := db.DB().DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		}},
		close: db.Close,
	}, nil
}

// seedOnce loads the scenario into an empty database and leaves a populated one alone
func seedOnce(ctx context.Context, db *sqlstore.Store, scenario *csv.Scenario) error {
	existing, err := db.ListItems(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info().Int("items", len(existing)).Msg("database already holds master data, skipping scenario seed")
		return nil
	}
	return scenario.Seed(ctx, db)
}

func openLocker(ctx context.Context, cfg *config.Config) (repositories.PlanLocker, *httpapi.HealthCheck, error) {
	if cfg.RedisURL == "" {
		log.Info().Msg("REDIS_URL not set, using in-process plan lock")
		return lock.NewMemoryLocker(), nil, nil
	}
	rdb, err := lock.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	check := &httpapi.HealthCheck{
		Name: "redis",
		Check: func(ctx context.Context) error {
			return pingRedis(ctx, rdb)
		},
	}
	return lock.NewRedisLocker(rdb), check, nil
}

func pingRedis(ctx context.Context, rdb *redis.Client) error {
	return rdb.Ping(ctx).Err()
}
