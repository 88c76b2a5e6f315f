package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/datasource"
	"github.com/Skotchmaster/storefront/internal/datasource/fixture"
	"github.com/Skotchmaster/storefront/internal/datasource/remote"
	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/kvstore"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/session"
)

func main() {
	cfg := config.Load()
	cfg.Validate()

	logger := logging.New(cfg.LogLevel)
	ctx := logging.IntoContext(context.Background(), logger)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	kv, closeKV, err := openStore(initCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("store init error: %v", err)
	}

	source, err := openDataSource(cfg)
	if err != nil {
		log.Fatalf("data source init error: %v", err)
	}

	bus := events.NewBus()
	var prod *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod, err = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			log.Fatalf("kafka init error: %v", err)
		}
		bus.Subscribe(prod.Handler())
	}

	sf := service.NewStorefront(session.NewStore(kv, cfg.SessionTokenKey, cfg.SessionUserKey), source, bus)
	if sess := sf.Restore(ctx); sess != nil {
		logger.Info("session restored", "user_id", sess.User.ID, "role", sess.User.Role)
	}

	e := echo.New()
	e.HideBanner = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), httpserver.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Storefront: &httpserver.StorefrontHTTP{Svc: sf},
		Ready: func(ctx context.Context) error {
			_, _, err := kv.Get(ctx, cfg.SessionTokenKey)
			return err
		},
	})

	port := strconv.Itoa(cfg.ServerPort)
	go func() {
		logger.Info("starting storefront", "port", port, "data_source", cfg.DataSource, "store", cfg.StoreDriver)
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}
	if prod != nil {
		if err := prod.Close(); err != nil {
			logger.Error("kafka close", "error", err)
		}
	}
	if err := closeKV(); err != nil {
		logger.Error("store close", "error", err)
	}

	logger.Info("shutdown complete")
}

func openStore(ctx context.Context, cfg config.Config) (kvstore.Store, func() error, error) {
	switch cfg.StoreDriver {
	case config.StoreRedis:
		client, err := kvstore.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return kvstore.NewRedisStore(client, "storefront:"), client.Close, nil
	case config.StoreSQLite, config.StorePostgres:
		gdb, err := db.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, nil, err
		}
		store, err := kvstore.NewGormStore(ctx, gdb)
		if err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		return store, sqlDB.Close, nil
	default:
		return kvstore.NewMemoryStore(), func() error { return nil }, nil
	}
}

func openDataSource(cfg config.Config) (datasource.DataSource, error) {
	if cfg.DataSource == config.DataSourceFixture {
		return fixture.New(cfg.FixtureJWTSecret, bcrypt.DefaultCost)
	}
	return remote.NewClient(cfg.APIBaseURL, cfg.APITimeout)
}
