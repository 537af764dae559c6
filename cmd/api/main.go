package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gatekeeper/internal/account"
	"gatekeeper/internal/auth"
	"gatekeeper/internal/config"
	"gatekeeper/internal/httpserver"
	"gatekeeper/internal/logger"
	"gatekeeper/internal/rbac"
	"gatekeeper/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info").Fatalw("config", "error", err)
	}
	lg := logger.New(cfg.LogLevel)
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := st.Migrate(ctx); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}

	go pruneSessions(ctx, st, time.Hour, lg)

	reg := rbac.NewRegistry(st, newCache(ctx, cfg, lg), lg)
	if _, err := rbac.NewSeeder(st, reg, lg).Seed(ctx); err != nil {
		lg.Fatalw("rbac seed failed", "error", err)
	}
	ev := rbac.NewEvaluator(reg)
	codec := auth.NewCodec(cfg.JWTSecret)
	accounts := account.NewService(st, codec, ev, cfg.SessionRevalidate, lg)
	if err := accounts.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		lg.Fatalw("seed admin failed", "error", err)
	}

	router := httpserver.NewRouter(httpserver.Deps{
		Store:      st,
		Codec:      codec,
		Accounts:   accounts,
		Admin:      rbac.NewAdmin(st, reg, lg),
		Evaluator:  ev,
		Production: cfg.IsProduction(),
	}, lg)
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	lg.Infow("listening", "port", cfg.HTTPPort)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Fatalw("server failed", "error", err)
	}
}

// newCache returns nil when redis is not configured or unreachable; the
// registry then reads the store directly.
func newCache(ctx context.Context, cfg *config.Config, lg *zap.SugaredLogger) *rbac.Cache {
	if cfg.RedisAddr == "" || cfg.CacheTTL == 0 {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		lg.Warnw("redis unavailable, permission cache disabled", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil
	}
	return rbac.NewCache(client, cfg.CacheTTL, lg)
}

// pruneSessions deletes expired sessions now and then every interval until
// ctx is done.
func pruneSessions(ctx context.Context, st *store.Store, interval time.Duration, lg *zap.SugaredLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		n, err := st.PruneSessions(ctx, time.Now())
		if err != nil && ctx.Err() == nil {
			lg.Warnw("session prune failed", "error", err)
		} else if n > 0 {
			lg.Infow("pruned expired sessions", "count", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
