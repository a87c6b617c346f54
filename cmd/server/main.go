// Command server runs the reprice HTTP API: accounts, phone search, AI quote
// sessions, and pickup orders over a SQLite store.
//
// @title        Reprice API
// @version      1.0
// @description  Used-phone resale backend: accounts, phone search, AI quotes, and pickup orders.
// @BasePath     /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	_ "github.com/reprice/go-reprice-backend/docs"
	"github.com/reprice/go-reprice-backend/internal/auth"
	"github.com/reprice/go-reprice-backend/internal/catalog"
	"github.com/reprice/go-reprice-backend/internal/config"
	httpapi "github.com/reprice/go-reprice-backend/internal/http"
	"github.com/reprice/go-reprice-backend/internal/observability"
	"github.com/reprice/go-reprice-backend/internal/phones"
	"github.com/reprice/go-reprice-backend/internal/quote"
	"github.com/reprice/go-reprice-backend/internal/repo"
	"github.com/reprice/go-reprice-backend/internal/services"
	"github.com/reprice/go-reprice-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Local overrides only; absence of a .env file is normal in production.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing first so every downstream component inherits the provider.
	shutdownOTel, err := observability.Setup(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			log.Fatal().Err(err).Msg("gorm tracing plugin failed")
		}
	}

	kv := repo.NewKVStore(db)

	cat := catalog.NewStore(cfg.Catalog.CSVPath, cfg.Catalog.TTL)
	go reloadCatalogOnHUP(ctx, cat)
	resolver := &phones.Resolver{
		SearchURL:    cfg.Catalog.SearchURL,
		Catalog:      cat,
		KV:           kv,
		TTL:          cfg.Catalog.CacheTTL,
		CacheVersion: cfg.Catalog.CacheVersion,
		Logger:       log.With().Str("component", "phones").Logger(),
	}

	client := quote.NewClient(ctx, cfg.Pricing.BaseURL, cfg.Pricing.FallbackURL, kv,
		log.With().Str("component", "pricing").Logger())
	client.HealthTimeout = cfg.Pricing.HealthTimeout
	client.PriceTimeout = cfg.Pricing.PriceTimeout

	quoteSvc := services.NewQuoteService(client, log.With().Str("component", "quotes").Logger())
	quoteSvc.MaxAttempts = cfg.Pricing.MaxAttempts
	quoteSvc.Delay = quote.Backoff(cfg.Pricing.BackoffBase, cfg.Pricing.BackoffMax)

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	r := gin.New()
	httpapi.RegisterRoutes(r, db, resolver, quoteSvc, tokens, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	// Expired cache and idempotency rows accumulate slowly; hourly is plenty.
	go sweepExpired(ctx, db, kv)

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	quoteSvc.Close()
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// reloadCatalogOnHUP drops the cached catalog rows on SIGHUP so a replaced
// CSV takes effect without waiting out the TTL or restarting.
func reloadCatalogOnHUP(ctx context.Context, cat *catalog.Store) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			cat.Invalidate()
			log.Info().Str("path", cat.Path).Msg("catalog cache invalidated")
		}
	}
}

// sweepExpired deletes expired cache and idempotency rows on an hourly tick.
func sweepExpired(ctx context.Context, db *gorm.DB, kv *repo.KVStore) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n, err := kv.DeleteExpired(ctx, now); err != nil {
				log.Warn().Err(err).Msg("cache sweep failed")
			} else if n > 0 {
				log.Debug().Int64("rows", n).Msg("cache entries swept")
			}
			if n, err := repo.DeleteExpiredIdempotency(ctx, db, now.UTC()); err != nil {
				log.Warn().Err(err).Msg("idempotency sweep failed")
			} else if n > 0 {
				log.Debug().Int64("rows", n).Msg("idempotency records swept")
			}
		}
	}
}
