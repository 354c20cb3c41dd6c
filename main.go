package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mini-planner/auth"
	"mini-planner/config"
	"mini-planner/db"
	"mini-planner/handlers"
	"mini-planner/logger"
	appmw "mini-planner/middleware"
	"mini-planner/store"
	"mini-planner/store/memstore"
	"mini-planner/store/sqlstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	zl := logger.New(cfg.Logging)
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, cfg.Database, zl)
	if err != nil {
		zl.Fatal("open repository", zap.Error(err))
	}
	defer repo.Close()

	sessions, closeSessions, err := openSessions(ctx, cfg.RedisURL, zl)
	if err != nil {
		zl.Fatal("open session store", zap.Error(err))
	}
	defer closeSessions()

	deps := handlers.Deps{
		Repo:     repo,
		Tokens:   auth.NewTokens(cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL),
		Sessions: sessions,
		Log:      zl,
	}
	if cfg.Metrics {
		deps.Metrics = appmw.NewMetrics()
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handlers.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("server running", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("listen", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown", zap.Error(err))
	}
}

func openRepository(ctx context.Context, cfg config.DatabaseConfig, zl *zap.Logger) (store.Repository, error) {
	if cfg.Driver == "memory" {
		zl.Warn("using the in-memory store; data is lost on exit")
		return memstore.New(), nil
	}

	dialect := db.Dialect(cfg.Driver)
	conn, err := db.Connect(ctx, dialect, cfg.DSN, db.Pool{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, conn, dialect); err != nil {
		conn.Close()
		return nil, err
	}
	zl.Info("connected to database", zap.String("driver", cfg.Driver))
	return sqlstore.New(conn, dialect, cfg.QueryTimeout), nil
}

func openSessions(ctx context.Context, redisURL string, zl *zap.Logger) (auth.Sessions, func(), error) {
	if redisURL == "" {
		zl.Warn("REDIS_URL not set; refresh sessions are kept in memory")
		return auth.NewMemorySessions(), func() {}, nil
	}
	client, err := auth.OpenRedis(ctx, redisURL)
	if err != nil {
		return nil, nil, err
	}
	return auth.NewRedisSessions(client), func() { client.Close() }, nil
}
